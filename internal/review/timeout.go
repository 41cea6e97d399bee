package review

import (
	"time"

	"proofroom.app/engine/internal/model"
)

// DefaultResponseTimeout is the window the consumer has to respond before a
// request is treated as resolved by timeout.
const DefaultResponseTimeout = 60 * time.Minute

// Evaluator decides whether unresolved review requests have exceeded their
// response window. "Timed out" is a function of wall-clock time, not message
// content, so callers re-invoke Resolve on a recurring schedule (minute
// granularity is sufficient) while any request is pending.
type Evaluator struct {
	Timeout time.Duration
}

func NewEvaluator(timeout time.Duration) Evaluator {
	if timeout <= 0 {
		timeout = DefaultResponseTimeout
	}
	return Evaluator{Timeout: timeout}
}

// Resolve reconciles msgs and then marks every still-unresolved request whose
// window has elapsed as resolved by timeout. A genuine response inside the
// window always wins over a timeout; with a non-decreasing clock a timed-out
// request can never revert to pending.
func (e Evaluator) Resolve(msgs []model.Message, now time.Time) map[string]model.ReviewOutcome {
	outcomes := Reconcile(msgs)

	for _, m := range msgs {
		if m.Type != model.MessageTypeReviewRequest || m.SenderRole != model.RoleProducer {
			continue
		}
		key := Key(&m)
		if out, ok := outcomes[key]; ok && out.Responded {
			continue
		}
		if e.IsTimedOut(&m, now) {
			outcomes[key] = model.ReviewOutcome{
				Responded:  true,
				Action:     model.ReviewActionTimeout,
				ResolvedAt: m.CreatedAt.Add(e.Timeout),
				TimedOut:   true,
			}
		}
	}

	return outcomes
}

// IsTimedOut reports whether a request's response window has elapsed at now.
// It does not consider responses; Resolve applies response precedence.
func (e Evaluator) IsTimedOut(req *model.Message, now time.Time) bool {
	return now.Sub(req.CreatedAt) >= e.Timeout
}
