package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Course Registration API",
        "description": "Semester course selection, seat allocation, fee payment and grade cards.",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Catalogue", "description": "Read-only course catalogue"},
        {"name": "Semesters", "description": "Registration periods"},
        {"name": "Registration", "description": "Course selection and submission"},
        {"name": "Fees", "description": "Semester fee ledger"},
        {"name": "Grades", "description": "Grade cards behind the fee gate"},
        {"name": "Notifications", "description": "Student notifications"},
        {"name": "Operations", "description": "Health, readiness and metrics"}
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": ["Operations"],
                "summary": "Liveness probe",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/ready": {
            "get": {
                "tags": ["Operations"],
                "summary": "Readiness probe; pings the database",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "Database unreachable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/metrics": {
            "get": {
                "tags": ["Operations"],
                "summary": "Prometheus metrics",
                "produces": ["text/plain"],
                "responses": {"200": {"description": "Prometheus exposition format"}}
            }
        },
        "/api/v1/courses": {
            "get": {
                "tags": ["Catalogue"],
                "summary": "List courses",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "available", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/courses/{id}": {
            "get": {
                "tags": ["Catalogue"],
                "summary": "Get a course",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "NOT_FOUND", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/semesters": {
            "get": {
                "tags": ["Semesters"],
                "summary": "List semesters",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/semesters/active": {
            "get": {
                "tags": ["Semesters"],
                "summary": "Get the active semester",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "NO_ACTIVE_SEMESTER", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/student/selections": {
            "get": {
                "tags": ["Registration"],
                "summary": "List selected courses",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "registered", "in": "query", "type": "boolean", "description": "only allotted courses"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "NO_SELECTIONS", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "NOT_REGISTERED", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Registration"],
                "summary": "Add a course selection",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AddSelectionRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "ALREADY_REGISTERED, QUOTA_EXCEEDED, DUPLICATE_SELECTION or SEAT_UNAVAILABLE", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/student/selections/{courseId}": {
            "delete": {
                "tags": ["Registration"],
                "summary": "Drop a course selection",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "courseId", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "204": {"description": "Dropped"},
                    "404": {"description": "NOT_SELECTED", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/student/registration": {
            "get": {
                "tags": ["Registration"],
                "summary": "Registration summary",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/student/registration/submit": {
            "post": {
                "tags": ["Registration"],
                "summary": "Submit the registration and allocate seats",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Allocation result", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "ALREADY_REGISTERED", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "INSUFFICIENT_SELECTIONS", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/student/fee": {
            "get": {
                "tags": ["Fees"],
                "summary": "Pending semester fee",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/student/fee/payments": {
            "post": {
                "tags": ["Fees"],
                "summary": "Pay the semester fee",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/PayFeeRequest"}}],
                "responses": {"200": {"description": "paid is false when nothing was due", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/student/gradecard": {
            "get": {
                "tags": ["Grades"],
                "summary": "Grade card",
                "security": [{"BearerAuth": []}],
                "produces": ["application/json", "text/csv", "application/pdf"],
                "parameters": [{"name": "format", "in": "query", "type": "string", "enum": ["json", "csv", "pdf"]}],
                "responses": {
                    "200": {"description": "OK"},
                    "402": {"description": "PAYMENT_INCOMPLETE", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "NOT_REGISTERED", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/student/notifications": {
            "get": {
                "tags": ["Notifications"],
                "summary": "Recent notifications",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "limit", "in": "query", "type": "integer"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/admin/semesters/{id}/activate": {
            "post": {
                "tags": ["Semesters"],
                "summary": "Activate a semester",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "FORBIDDEN", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/admin/metrics": {
            "get": {
                "tags": ["Operations"],
                "summary": "Metrics snapshot",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        }
    },
    "definitions": {
        "AddSelectionRequest": {
            "type": "object",
            "required": ["course_id"],
            "properties": {
                "course_id": {"type": "string"},
                "tier": {"type": "string", "enum": ["primary", "secondary"]}
            }
        },
        "PayFeeRequest": {
            "type": "object",
            "properties": {
                "amount": {"type": "number", "description": "0 pays the full fee"},
                "method": {"type": "string", "enum": ["CARD", "NETBANKING", "SCHOLARSHIP", "CASH", "OFFLINE"]}
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
                "status": {"type": "integer"},
                "details": {"type": "object"}
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
