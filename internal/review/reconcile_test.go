package review_test

import (
	"fmt"
	"math/rand"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"proofroom.app/engine/internal/model"
	"proofroom.app/engine/internal/review"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func request(id string, at time.Duration) model.Message {
	return model.Message{
		ID:         id,
		RoomID:     "room-1",
		SenderID:   "artist-1",
		SenderRole: model.RoleProducer,
		Type:       model.MessageTypeReviewRequest,
		Body:       "Please review draft " + id,
		CreatedAt:  epoch.Add(at),
	}
}

func response(id, body string, at time.Duration) model.Message {
	return model.Message{
		ID:         id,
		RoomID:     "room-1",
		SenderID:   "customer-1",
		SenderRole: model.RoleConsumer,
		Type:       model.MessageTypeReviewResponse,
		Body:       body,
		CreatedAt:  epoch.Add(at),
	}
}

func chat(id, body string, at time.Duration) model.Message {
	return model.Message{
		ID:         id,
		RoomID:     "room-1",
		SenderID:   "customer-1",
		SenderRole: model.RoleConsumer,
		Type:       model.MessageTypeText,
		Body:       body,
		CreatedAt:  epoch.Add(at),
	}
}

var _ = Describe("Reconcile", func() {
	It("resolves a request with the earliest response in its window", func() {
		msgs := []model.Message{
			request("r1", 0),
			response("a1", "Design approved", 1*time.Minute),
			response("a2", "Changes requested: darker blue", 2*time.Minute),
		}

		outcomes := review.Reconcile(msgs)

		Expect(outcomes).To(HaveKey("r1"))
		Expect(outcomes["r1"].Responded).To(BeTrue())
		Expect(outcomes["r1"].Action).To(Equal(model.ReviewActionApprove))
		Expect(outcomes["r1"].ResponseID).To(Equal("a1"))
		Expect(outcomes["r1"].ResolvedAt).To(Equal(epoch.Add(1 * time.Minute)))
	})

	It("enforces window exclusivity: a response before the next window start resolves nothing there", func() {
		// R1 at t=0, R2 at t=10; A at t=5 and B at t=8 both precede R2's
		// window, so R1 takes A (first in window) and B is orphaned.
		msgs := []model.Message{
			request("r1", 0),
			request("r2", 10*time.Minute),
			response("a", "Design approved", 5*time.Minute),
			response("b", "Changes requested: margins", 8*time.Minute),
		}

		outcomes := review.Reconcile(msgs)

		Expect(outcomes["r1"].Responded).To(BeTrue())
		Expect(outcomes["r1"].ResponseID).To(Equal("a"))
		Expect(outcomes["r2"].Responded).To(BeFalse())
	})

	It("attributes a response at exactly the next request's timestamp to the next request", func() {
		msgs := []model.Message{
			request("r1", 0),
			request("r2", 10*time.Minute),
			response("a", "Design approved", 10*time.Minute),
		}

		outcomes := review.Reconcile(msgs)

		Expect(outcomes["r1"].Responded).To(BeFalse())
		Expect(outcomes["r2"].Responded).To(BeTrue())
		Expect(outcomes["r2"].ResponseID).To(Equal("a"))
	})

	It("drops responses sent before any request", func() {
		msgs := []model.Message{
			response("early", "Design approved", 0),
			request("r1", 5*time.Minute),
		}

		outcomes := review.Reconcile(msgs)

		Expect(outcomes["r1"].Responded).To(BeFalse())
	})

	It("consumes each response by at most one request", func() {
		msgs := []model.Message{
			request("r1", 0),
			response("a", "Looks okay, add logo", 1*time.Minute),
			request("r2", 10*time.Minute),
		}

		outcomes := review.Reconcile(msgs)

		Expect(outcomes["r1"].ResponseID).To(Equal("a"))
		Expect(outcomes["r2"].Responded).To(BeFalse())
	})

	It("ignores chat and producer-sent responses", func() {
		msgs := []model.Message{
			request("r1", 0),
			chat("c1", "how is it going?", 1*time.Minute),
			{
				ID:         "fake",
				RoomID:     "room-1",
				SenderID:   "artist-1",
				SenderRole: model.RoleProducer,
				Type:       model.MessageTypeReviewResponse,
				Body:       "Design approved",
				CreatedAt:  epoch.Add(2 * time.Minute),
			},
		}

		outcomes := review.Reconcile(msgs)

		Expect(outcomes).To(HaveLen(1))
		Expect(outcomes["r1"].Responded).To(BeFalse())
	})

	It("is insensitive to arrival order", func() {
		msgs := []model.Message{
			request("r1", 0),
			response("a", "Design approved", 5*time.Minute),
			request("r2", 10*time.Minute),
			response("b", "Changes requested: font", 15*time.Minute),
			chat("c", "thanks!", 16*time.Minute),
			request("r3", 20*time.Minute),
		}

		want := review.Reconcile(msgs)

		rng := rand.New(rand.NewSource(1))
		for i := 0; i < 25; i++ {
			shuffled := make([]model.Message, len(msgs))
			copy(shuffled, msgs)
			rng.Shuffle(len(shuffled), func(a, b int) {
				shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
			})
			Expect(review.Reconcile(shuffled)).To(Equal(want),
				fmt.Sprintf("permutation %d diverged", i))
		}
	})

	It("keys pending requests by local id until confirmed", func() {
		pending := model.Message{
			LocalID:    "local-7",
			RoomID:     "room-1",
			SenderID:   "artist-1",
			SenderRole: model.RoleProducer,
			Type:       model.MessageTypeReviewRequest,
			Body:       "Draft 7",
			CreatedAt:  epoch,
			Pending:    true,
		}

		outcomes := review.Reconcile([]model.Message{pending})

		Expect(outcomes).To(HaveKey("local-7"))
	})
})

var _ = Describe("ParseAction", func() {
	DescribeTable("infers the action from the leading text",
		func(body string, want model.ReviewAction) {
			Expect(review.ParseAction(body)).To(Equal(want))
		},
		Entry("approval", "Design Approved", model.ReviewActionApprove),
		Entry("approval with trailer", "design approved, ship it", model.ReviewActionApprove),
		Entry("changes", "Changes Requested: please fix color", model.ReviewActionRequestChanges),
		Entry("free-form feedback", "Looks okay, add logo", model.ReviewActionFeedback),
		Entry("empty body", "", model.ReviewActionFeedback),
		Entry("prefix not at start", "I think the Design Approved label is off", model.ReviewActionFeedback),
	)
})

var _ = Describe("FormatResponseBody", func() {
	It("round-trips through ParseAction", func() {
		for _, action := range []model.ReviewAction{
			model.ReviewActionApprove,
			model.ReviewActionRequestChanges,
			model.ReviewActionFeedback,
		} {
			body := review.FormatResponseBody(action, "tighten the kerning")
			Expect(review.ParseAction(body)).To(Equal(action))
		}
	})

	It("formats a bare approval without feedback", func() {
		Expect(review.FormatResponseBody(model.ReviewActionApprove, "")).To(Equal("Design approved"))
	})
})

var _ = Describe("Evaluator", func() {
	var eval review.Evaluator

	BeforeEach(func() {
		eval = review.NewEvaluator(60 * time.Minute)
	})

	It("marks an unanswered request as timed out once the window elapses", func() {
		msgs := []model.Message{request("r1", 0)}

		before := eval.Resolve(msgs, epoch.Add(59*time.Minute))
		Expect(before["r1"].Responded).To(BeFalse())

		after := eval.Resolve(msgs, epoch.Add(60*time.Minute))
		Expect(after["r1"].Responded).To(BeTrue())
		Expect(after["r1"].Action).To(Equal(model.ReviewActionTimeout))
		Expect(after["r1"].TimedOut).To(BeTrue())
		Expect(after["r1"].ResolvedAt).To(Equal(epoch.Add(60 * time.Minute)))
	})

	It("never reverts a timed-out request as the clock advances", func() {
		msgs := []model.Message{request("r1", 0)}

		for _, now := range []time.Time{
			epoch.Add(60 * time.Minute),
			epoch.Add(90 * time.Minute),
			epoch.Add(24 * time.Hour),
		} {
			outcomes := eval.Resolve(msgs, now)
			Expect(outcomes["r1"].Action).To(Equal(model.ReviewActionTimeout))
		}
	})

	It("prefers a genuine response over the timeout even when evaluated late", func() {
		// The response landed inside the window; evaluating after 60 minutes
		// must still report the real action, not a timeout.
		msgs := []model.Message{
			request("r1", 0),
			response("a", "Changes requested: new palette", 45*time.Minute),
		}

		outcomes := eval.Resolve(msgs, epoch.Add(3*time.Hour))

		Expect(outcomes["r1"].Action).To(Equal(model.ReviewActionRequestChanges))
		Expect(outcomes["r1"].TimedOut).To(BeFalse())
	})

	It("defaults the window to 60 minutes", func() {
		Expect(review.NewEvaluator(0).Timeout).To(Equal(review.DefaultResponseTimeout))
	})
})
