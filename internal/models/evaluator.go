package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// EvaluatorStatus represents the submission state of an evaluator.
// Transitions are forward-only: PENDING -> COMPLETED, exactly once.
type EvaluatorStatus string

const (
	EvaluatorStatusPending   EvaluatorStatus = "pending"
	EvaluatorStatusCompleted EvaluatorStatus = "completed"
)

// Reminder trigger identifiers recorded in the per-evaluator reminder log.
const (
	ReminderTriggerSevenDay     = "7day"
	ReminderTriggerThreeDay     = "3day"
	ReminderTriggerDayOf        = "day_of"
	ReminderTriggerPostDeadline = "post_deadline"
	ReminderTriggerCustom       = "custom"
)

// Evaluator represents one invited reviewer for a specific evaluation.
// The token is the sole credential used for submission; it is generated
// server-side at creation and never changes.
type Evaluator struct {
	ID                   string          `db:"id" json:"id"`
	EvaluationID         string          `db:"evaluation_id" json:"evaluation_id"`
	Name                 string          `db:"name" json:"name"`
	Email                string          `db:"email" json:"email"`
	BoardRole            string          `db:"board_role" json:"board_role"`
	CommitteeMemberships pq.StringArray  `db:"committee_memberships" json:"committee_memberships"`
	Token                string          `db:"token" json:"-"`
	Status               EvaluatorStatus `db:"status" json:"status"`
	InvitedAt            time.Time       `db:"invited_at" json:"invited_at"`
	CompletedAt          *time.Time      `db:"completed_at" json:"completed_at,omitempty"`
	ReminderOptOut       bool            `db:"reminder_opt_out" json:"reminder_opt_out"`
	ReminderLog          ReminderLog     `db:"reminder_log" json:"reminder_log"`
}

// ReminderEntry records one reminder sent to an evaluator.
type ReminderEntry struct {
	Trigger string    `json:"trigger"`
	SentAt  time.Time `json:"sent_at"`
}

// ReminderLog is the JSONB list of reminders already sent, used to make
// each trigger fire at most once per evaluator.
type ReminderLog []ReminderEntry

// Contains reports whether the given trigger was already sent.
func (l ReminderLog) Contains(trigger string) bool {
	for _, entry := range l {
		if entry.Trigger == trigger {
			return true
		}
	}
	return false
}

// Value implements driver.Valuer for JSONB storage.
func (l ReminderLog) Value() (driver.Value, error) {
	if l == nil {
		return json.Marshal([]ReminderEntry{})
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner for JSONB retrieval.
func (l *ReminderLog) Scan(src interface{}) error {
	if src == nil {
		*l = nil
		return nil
	}
	raw, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("reminder log: unsupported scan type %T", src)
	}
	return json.Unmarshal(raw, l)
}

// EvaluatorDescriptor is the caller-supplied shape for one roster entry
// when creating an evaluation.
type EvaluatorDescriptor struct {
	Name                 string   `json:"name" validate:"required"`
	Email                string   `json:"email" validate:"required,email"`
	BoardRole            string   `json:"board_role"`
	CommitteeMemberships []string `json:"committee_memberships"`
}

// EvaluatorProgress is the admin-facing view of one evaluator's state.
// It deliberately carries no token and no response content.
type EvaluatorProgress struct {
	ID          string          `db:"id" json:"id"`
	Name        string          `db:"name" json:"name"`
	Email       string          `db:"email" json:"email"`
	BoardRole   string          `db:"board_role" json:"board_role"`
	Status      EvaluatorStatus `db:"status" json:"status"`
	InvitedAt   time.Time       `db:"invited_at" json:"invited_at"`
	CompletedAt *time.Time      `db:"completed_at" json:"completed_at,omitempty"`
}
