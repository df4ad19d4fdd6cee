package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// EvaluationResult is the materialized aggregate for one evaluation,
// recomputed from source rows after every submission. It is keyed by
// evaluation ID and never created or destroyed independently.
type EvaluationResult struct {
	EvaluationID      string            `db:"evaluation_id" json:"evaluation_id"`
	TotalInvited      int               `db:"total_invited" json:"total_invited"`
	TotalResponded    int               `db:"total_responded" json:"total_responded"`
	DimensionAverages DimensionAverages `db:"dimension_averages" json:"dimension_averages"`
	UpdatedAt         time.Time         `db:"updated_at" json:"updated_at"`
}

// ResponseRate returns the rounded percentage of invited evaluators
// that have responded.
func (r EvaluationResult) ResponseRate() int {
	if r.TotalInvited == 0 {
		return 0
	}
	return int(float64(r.TotalResponded)/float64(r.TotalInvited)*100 + 0.5)
}

// Remaining returns how many invited evaluators have not yet responded.
func (r EvaluationResult) Remaining() int {
	return r.TotalInvited - r.TotalResponded
}

// DimensionAverages maps a dimension label to the mean score across all
// completed evaluators' scored answers in that dimension. Stored as JSONB.
type DimensionAverages map[string]float64

// Value implements driver.Valuer for JSONB storage.
func (d DimensionAverages) Value() (driver.Value, error) {
	if d == nil {
		return json.Marshal(map[string]float64{})
	}
	return json.Marshal(d)
}

// Scan implements sql.Scanner for JSONB retrieval.
func (d *DimensionAverages) Scan(src interface{}) error {
	if src == nil {
		*d = nil
		return nil
	}
	raw, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("dimension averages: unsupported scan type %T", src)
	}
	return json.Unmarshal(raw, d)
}

// EvaluationProgress combines the aggregate with per-evaluator status for
// the admin dashboard. Individual response content is never included.
type EvaluationProgress struct {
	Evaluation Evaluation          `json:"evaluation"`
	Result     EvaluationResult    `json:"result"`
	Evaluators []EvaluatorProgress `json:"evaluators"`
}
