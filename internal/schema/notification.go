package schema

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationProofSubmitted    NotificationType = "proof_submitted"
	NotificationProofResubmitted  NotificationType = "proof_resubmitted"
	NotificationProofApproved     NotificationType = "proof_approved"
	NotificationReworkRequired    NotificationType = "rework_required"
	NotificationReworkExhausted   NotificationType = "rework_exhausted"
	NotificationTaskAssigned      NotificationType = "task_assigned"
	NotificationAllTasksCompleted NotificationType = "all_tasks_completed"
)

// Notification is an in-app inbox entry for a user.
type Notification struct {
	ID        uuid.UUID        `bson:"_id" json:"id"`
	UserID    uuid.UUID        `bson:"user_id" json:"user_id"`
	Type      NotificationType `bson:"type" json:"type"`
	Title     string           `bson:"title" json:"title"`
	Body      string           `bson:"body,omitempty" json:"body,omitempty"`
	Data      map[string]any   `bson:"data,omitempty" json:"data,omitempty"`
	IsRead    bool             `bson:"is_read" json:"is_read"`
	IsEmailed bool             `bson:"is_emailed" json:"is_emailed"`
	CreatedAt time.Time        `bson:"created_at" json:"created_at"`
}

// NotificationPref holds a user's email opt-ins. The in-app inbox is always
// written.
type NotificationPref struct {
	UserID               uuid.UUID `bson:"_id" json:"user_id"`
	EmailReviewRequests  bool      `bson:"email_review_requests" json:"email_review_requests"`
	EmailReviewDecisions bool      `bson:"email_review_decisions" json:"email_review_decisions"`
	EmailTaskAssignments bool      `bson:"email_task_assignments" json:"email_task_assignments"`
	UpdatedAt            time.Time `bson:"updated_at" json:"updated_at"`
}

// DefaultNotificationPref opts a user into every email channel.
func DefaultNotificationPref(userID uuid.UUID) *NotificationPref {
	return &NotificationPref{
		UserID:               userID,
		EmailReviewRequests:  true,
		EmailReviewDecisions: true,
		EmailTaskAssignments: true,
	}
}

// AllowsEmail reports whether an event of type t may be emailed.
func (p *NotificationPref) AllowsEmail(t NotificationType) bool {
	switch t {
	case NotificationProofSubmitted, NotificationProofResubmitted:
		return p.EmailReviewRequests
	case NotificationProofApproved, NotificationReworkRequired, NotificationReworkExhausted:
		return p.EmailReviewDecisions
	case NotificationTaskAssigned, NotificationAllTasksCompleted:
		return p.EmailTaskAssignments
	default:
		return true
	}
}
