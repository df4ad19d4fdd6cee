package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "CEO Evaluation API",
        "description": "Board-driven CEO evaluation lifecycle: launch, collect, aggregate, report",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Admin login"},
        {"name": "Evaluations", "description": "Evaluation lifecycle and progress"},
        {"name": "Submissions", "description": "Token-authenticated evaluator flow"},
        {"name": "Reminders", "description": "Scheduler-driven reminders and opt-out"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate admin user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Current user info",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/evaluations": {
            "get": {
                "tags": ["Evaluations"],
                "summary": "List evaluations",
                "parameters": [
                    {"name": "organization_id", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Evaluations"],
                "summary": "Launch a CEO evaluation",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateEvaluationRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/evaluations/{id}/progress": {
            "get": {
                "tags": ["Evaluations"],
                "summary": "Evaluation progress",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/evaluations/{id}/progress/export": {
            "get": {
                "tags": ["Evaluations"],
                "summary": "Export evaluator progress as CSV",
                "produces": ["text/csv"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "CSV content"}
                }
            }
        },
        "/evaluations/{id}/close": {
            "post": {
                "tags": ["Evaluations"],
                "summary": "Close an evaluation",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already closed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/evaluations/{id}/report": {
            "post": {
                "tags": ["Evaluations"],
                "summary": "Email the evaluation report",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/SendReportRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Below minimum responses", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/eval/{token}": {
            "get": {
                "tags": ["Submissions"],
                "summary": "Resolve an evaluator token",
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Invalid or expired link", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Submissions"],
                "summary": "Submit an evaluation",
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already submitted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reminders/run": {
            "post": {
                "tags": ["Reminders"],
                "summary": "Run the reminder sweep",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Bad cron secret", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/unsubscribe": {
            "get": {
                "tags": ["Reminders"],
                "summary": "Opt out of reminders",
                "parameters": [
                    {"name": "token", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "302": {"description": "Redirect to confirmation page"},
                    "404": {"description": "Invalid or expired link", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "CreateEvaluationRequest": {
            "type": "object",
            "properties": {
                "organization_id": {"type": "string"},
                "organization_name": {"type": "string"},
                "ceo_name": {"type": "string"},
                "ceo_email": {"type": "string"},
                "admin_name": {"type": "string"},
                "admin_email": {"type": "string"},
                "period_start": {"type": "string"},
                "period_end": {"type": "string"},
                "deadline": {"type": "string"},
                "minimum_responses": {"type": "integer"},
                "share_results_with_ceo": {"type": "boolean"},
                "has_committees": {"type": "boolean"},
                "committee_list": {"type": "array", "items": {"type": "string"}},
                "reminder_config": {"$ref": "#/definitions/ReminderConfig"},
                "evaluators": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/EvaluatorDescriptor"}
                }
            },
            "required": ["organization_name", "ceo_name", "admin_email", "deadline", "evaluators"]
        },
        "EvaluatorDescriptor": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "email": {"type": "string"},
                "board_role": {"type": "string"},
                "committee_memberships": {"type": "array", "items": {"type": "string"}}
            },
            "required": ["name", "email"]
        },
        "ReminderConfig": {
            "type": "object",
            "properties": {
                "seven_day": {"type": "boolean"},
                "three_day": {"type": "boolean"},
                "day_of": {"type": "boolean"},
                "post_deadline": {"type": "boolean"},
                "custom_date": {"type": "string"}
            }
        },
        "SubmitRequest": {
            "type": "object",
            "properties": {
                "responses": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/AnswerInput"}
                }
            },
            "required": ["responses"]
        },
        "AnswerInput": {
            "type": "object",
            "properties": {
                "dimension": {"type": "string"},
                "question_id": {"type": "string"},
                "question_text": {"type": "string"},
                "score": {"type": "integer"},
                "open_response": {"type": "string"}
            },
            "required": ["dimension", "question_id"]
        },
        "SendReportRequest": {
            "type": "object",
            "properties": {
                "additional_emails": {"type": "array", "items": {"type": "string"}}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
