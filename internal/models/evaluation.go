package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// EvaluationStatus represents the lifecycle state of an evaluation.
// Transitions are forward-only: ACTIVE -> CLOSED.
type EvaluationStatus string

const (
	EvaluationStatusActive EvaluationStatus = "active"
	EvaluationStatusClosed EvaluationStatus = "closed"
)

// Evaluation represents one CEO performance review cycle for one organization.
type Evaluation struct {
	ID                  string           `db:"id" json:"id"`
	OrganizationID      string           `db:"organization_id" json:"organization_id"`
	OrganizationName    string           `db:"organization_name" json:"organization_name"`
	CEOName             string           `db:"ceo_name" json:"ceo_name"`
	CEOEmail            string           `db:"ceo_email" json:"ceo_email"`
	AdminName           string           `db:"admin_name" json:"admin_name"`
	AdminEmail          string           `db:"admin_email" json:"admin_email"`
	PeriodStart         time.Time        `db:"period_start" json:"period_start"`
	PeriodEnd           time.Time        `db:"period_end" json:"period_end"`
	Deadline            time.Time        `db:"deadline" json:"deadline"`
	MinimumResponses    int              `db:"minimum_responses" json:"minimum_responses"`
	ShareResultsWithCEO bool             `db:"share_results_with_ceo" json:"share_results_with_ceo"`
	HasCommittees       bool             `db:"has_committees" json:"has_committees"`
	CommitteeList       pq.StringArray   `db:"committee_list" json:"committee_list"`
	ReminderConfig      ReminderConfig   `db:"reminder_config" json:"reminder_config"`
	Status              EvaluationStatus `db:"status" json:"status"`
	PublishedAt         time.Time        `db:"published_at" json:"published_at"`
	CreatedAt           time.Time        `db:"created_at" json:"created_at"`
}

// ReminderConfig captures which deadline-relative reminder triggers an
// admin enabled when launching the evaluation. Stored as JSONB.
type ReminderConfig struct {
	SevenDay     bool   `json:"seven_day"`
	ThreeDay     bool   `json:"three_day"`
	DayOf        bool   `json:"day_of"`
	PostDeadline bool   `json:"post_deadline"`
	CustomDate   string `json:"custom_date,omitempty"`
}

// Value implements driver.Valuer for JSONB storage.
func (c ReminderConfig) Value() (driver.Value, error) {
	return json.Marshal(c)
}

// Scan implements sql.Scanner for JSONB retrieval.
func (c *ReminderConfig) Scan(src interface{}) error {
	if src == nil {
		*c = ReminderConfig{}
		return nil
	}
	raw, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("reminder config: unsupported scan type %T", src)
	}
	return json.Unmarshal(raw, c)
}

// EvaluationFilter defines filters supported by the admin list endpoint.
type EvaluationFilter struct {
	OrganizationID string
	Status         EvaluationStatus
	Page           int
	PageSize       int
	SortBy         string
	SortOrder      string
}
