package review

import (
	"strings"

	"proofroom.app/engine/internal/model"
)

// The review channel is plain chat: a response's action is conveyed by the
// leading text of its body, not a structured field. External collaborators
// already write this format, so it stays. Parsing and formatting both live
// here so a future structured-field migration only touches this file.
const (
	approvedPrefix = "design approved"
	changesPrefix  = "changes requested"
)

// ParseAction infers the semantic action of a review response from its body.
// Unrecognized bodies degrade to feedback, never to an error.
func ParseAction(body string) model.ReviewAction {
	lower := strings.ToLower(strings.TrimSpace(body))
	switch {
	case strings.HasPrefix(lower, approvedPrefix):
		return model.ReviewActionApprove
	case strings.HasPrefix(lower, changesPrefix):
		return model.ReviewActionRequestChanges
	default:
		return model.ReviewActionFeedback
	}
}

// FormatResponseBody builds the conventional body for a review response so
// that ParseAction recovers the same action on every client.
func FormatResponseBody(action model.ReviewAction, feedbackText string) string {
	switch action {
	case model.ReviewActionApprove:
		if feedbackText == "" {
			return "Design approved"
		}
		return "Design approved: " + feedbackText
	case model.ReviewActionRequestChanges:
		return "Changes requested: " + feedbackText
	default:
		return feedbackText
	}
}
