package audit

import (
	"time"
)

// Action names a domain event.
type Action string

const (
	ActionUserRegistered        Action = "user_registered"
	ActionUserVerified          Action = "user_verified"
	ActionUserLoginFailed       Action = "user_login_failed"
	ActionPasswordResetRequest  Action = "password_reset_requested"
	ActionPasswordReset         Action = "password_reset"
	ActionBusinessRegistered    Action = "business_registered"
	ActionBusinessLoginFailed   Action = "business_login_failed"
	ActionBusinessUpdated       Action = "business_updated"
	ActionBusinessStatusToggled Action = "business_status_toggled"
	ActionPartnerCreated        Action = "partner_created"
	ActionPartnerUpdated        Action = "partner_updated"
	ActionPartnerDeleted        Action = "partner_deleted"
	ActionPartnersPurged        Action = "partners_purged"
	ActionReferralCreated       Action = "referral_created"
	ActionSubmissionRecorded    Action = "submission_recorded"
)

// Category groups actions for routing and retention downstream.
type Category string

const (
	CategoryCompliance Category = "compliance"
	CategorySecurity   Category = "security"
	CategoryOperations Category = "operations"
)

var categories = map[Action]Category{
	ActionUserRegistered:        CategoryCompliance,
	ActionBusinessRegistered:    CategoryCompliance,
	ActionPartnerDeleted:        CategoryCompliance,
	ActionPartnersPurged:        CategoryCompliance,
	ActionUserLoginFailed:       CategorySecurity,
	ActionBusinessLoginFailed:   CategorySecurity,
	ActionPasswordResetRequest:  CategorySecurity,
	ActionPasswordReset:         CategorySecurity,
	ActionBusinessStatusToggled: CategorySecurity,
}

// CategoryOf returns the category for an action; unlisted actions are
// operational.
func CategoryOf(a Action) Category {
	if c, ok := categories[a]; ok {
		return c
	}
	return CategoryOperations
}

// Event is emitted from services to record key actions. It never carries
// passwords, codes or social security numbers.
type Event struct {
	Action    Action            `json:"action"`
	Category  Category          `json:"category"`
	Timestamp time.Time         `json:"timestamp"`
	ActorID   string            `json:"actor_id,omitempty"`
	ActorKind string            `json:"actor_kind,omitempty"`
	SubjectID string            `json:"subject_id,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
	ClientIP  string            `json:"client_ip,omitempty"`
	Browser   string            `json:"browser,omitempty"`
	OS        string            `json:"os,omitempty"`
	Attrs     map[string]string `json:"attrs,omitempty"`
}
