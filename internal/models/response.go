package models

import "time"

// EvaluatorResponse is one answer to one question, submitted by one
// evaluator. A full submission inserts one row per question as a single
// atomic batch.
type EvaluatorResponse struct {
	ID           string    `db:"id" json:"id"`
	EvaluationID string    `db:"evaluation_id" json:"evaluation_id"`
	EvaluatorID  string    `db:"evaluator_id" json:"evaluator_id"`
	Dimension    string    `db:"dimension" json:"dimension"`
	QuestionID   string    `db:"question_id" json:"question_id"`
	QuestionText string    `db:"question_text" json:"question_text"`
	Score        *int      `db:"score" json:"score,omitempty"`
	OpenResponse *string   `db:"open_response" json:"open_response,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// AnswerInput is the caller-supplied shape for one answer in a submission.
type AnswerInput struct {
	Dimension    string  `json:"dimension" validate:"required"`
	QuestionID   string  `json:"question_id" validate:"required"`
	QuestionText string  `json:"question_text"`
	Score        *int    `json:"score,omitempty" validate:"omitempty,min=1,max=5"`
	OpenResponse *string `json:"open_response,omitempty"`
}
