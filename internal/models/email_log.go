package models

import "time"

// Email types recorded in the audit log.
const (
	EmailTypeInvite            = "invite"
	EmailTypeAdminConfirmation = "admin_confirmation"
	EmailTypeProgress          = "progress"
	EmailTypeThankYou          = "thank_you"
	EmailTypeReminderSevenDay  = "reminder_7day"
	EmailTypeReminderThreeDay  = "reminder_3day"
	EmailTypeReminderDayOf     = "reminder_day_of"
	EmailTypeReminderPost      = "reminder_post"
	EmailTypeReminderCustom    = "reminder_custom"
	EmailTypeLateSummary       = "late_summary"
	EmailTypeReport            = "report"
)

// Email delivery statuses.
const (
	EmailStatusSent   = "sent"
	EmailStatusFailed = "failed"
)

// EmailLog is one auditable record of an outbound email attempt.
type EmailLog struct {
	ID                string    `db:"id" json:"id"`
	EvaluationID      string    `db:"evaluation_id" json:"evaluation_id"`
	EvaluatorID       *string   `db:"evaluator_id" json:"evaluator_id,omitempty"`
	EmailTo           string    `db:"email_to" json:"email_to"`
	EmailType         string    `db:"email_type" json:"email_type"`
	Subject           string    `db:"subject" json:"subject"`
	ProviderMessageID *string   `db:"provider_message_id" json:"provider_message_id,omitempty"`
	Status            string    `db:"status" json:"status"`
	Error             *string   `db:"error" json:"error,omitempty"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
}

// SendResult reports the outcome of one invitation send attempt back to
// the caller of evaluation creation.
type SendResult struct {
	Email   string `json:"email"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}
