package model

import "time"

type ReviewAction string

const (
	ReviewActionApprove        ReviewAction = "approve"
	ReviewActionRequestChanges ReviewAction = "request_changes"
	ReviewActionFeedback       ReviewAction = "feedback"
	ReviewActionTimeout        ReviewAction = "timeout"
)

// ReviewOutcome is the derived resolution of one review request. It is never
// stored; it is recomputed from the message log on every read.
//
// A timed-out request has Responded true so dependent actions unlock, but
// TimedOut keeps it distinguishable from a genuine consumer response.
type ReviewOutcome struct {
	Responded  bool         `json:"responded"`
	Action     ReviewAction `json:"action,omitempty"`
	ResponseID string       `json:"response_id,omitempty"`
	ResolvedAt time.Time    `json:"resolved_at,omitempty"`
	Summary    string       `json:"summary,omitempty"`
	TimedOut   bool         `json:"timed_out,omitempty"`
}
