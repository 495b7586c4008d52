package audit

import "time"

// Actions recorded by the review workflow.
const (
	ActionRegistrationApproved = "registration.approved"
	ActionRegistrationRejected = "registration.rejected"
	ActionRegistrationReviewed = "registration.reviewed"
	ActionMemberUpdated        = "member.updated"
	ActionMemberDeleted        = "member.deleted"
	ActionRejectionsCleared    = "rejections.cleared"
)

// Event is emitted from domain logic to capture key review actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
	Actor     string    `json:"actor" bson:"actor"`
	Action    string    `json:"action" bson:"action"`
	TargetID  string    `json:"targetId" bson:"targetId"`
	SerNo     int64     `json:"serNo,omitempty" bson:"serNo,omitempty"`
	Vansh     string    `json:"vansh,omitempty" bson:"vansh,omitempty"`
	Detail    string    `json:"detail,omitempty" bson:"detail,omitempty"`
}
