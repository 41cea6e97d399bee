// Package review derives the approval state of every review request in a
// room from the message log alone. All functions are pure: given the same
// message set (and clock) they produce the same outcome map, regardless of
// the order messages arrived over the wire.
package review

import (
	"sort"
	"time"

	"proofroom.app/engine/internal/model"
)

// Reconcile computes the outcome of every producer review request in msgs.
//
// Each request owns the window from its own CreatedAt up to (exclusive) the
// next request's CreatedAt, unbounded for the last request. The earliest
// consumer response inside a request's window resolves it; a response is
// consumed by at most one request. Responses before the first request or
// outside every window resolve nothing.
//
// The returned map contains an entry for every request; unresolved requests
// carry Responded=false.
func Reconcile(msgs []model.Message) map[string]model.ReviewOutcome {
	requests := filterSorted(msgs, model.MessageTypeReviewRequest, model.RoleProducer)
	responses := filterSorted(msgs, model.MessageTypeReviewResponse, model.RoleConsumer)

	outcomes := make(map[string]model.ReviewOutcome, len(requests))

	ri := 0
	for i, req := range requests {
		windowStart := req.CreatedAt
		var windowEnd time.Time
		bounded := i+1 < len(requests)
		if bounded {
			windowEnd = requests[i+1].CreatedAt
		}

		outcomes[Key(&req)] = model.ReviewOutcome{Responded: false}

		// Skip responses that predate this window; they were either consumed
		// by an earlier request or are orphans.
		for ri < len(responses) && responses[ri].CreatedAt.Before(windowStart) {
			ri++
		}
		if ri >= len(responses) {
			continue
		}

		resp := responses[ri]
		if bounded && !resp.CreatedAt.Before(windowEnd) {
			continue
		}

		outcomes[Key(&req)] = model.ReviewOutcome{
			Responded:  true,
			Action:     ParseAction(resp.Body),
			ResponseID: Key(&resp),
			ResolvedAt: resp.CreatedAt,
			Summary:    resp.Body,
		}
		ri++
	}

	return outcomes
}

// Key identifies a message for outcome lookup: the canonical id once
// assigned, the local id while the message is still pending.
func Key(m *model.Message) string {
	if m.ID != "" {
		return m.ID
	}
	return m.LocalID
}

func filterSorted(msgs []model.Message, typ model.MessageType, role model.Role) []model.Message {
	var out []model.Message
	for _, m := range msgs {
		if m.Type == typ && m.SenderRole == role {
			out = append(out, m)
		}
	}
	// Stable keeps arrival order as the tie break for equal timestamps.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
