package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "GMA Progress API",
        "description": "Curriculum progress tracking and audit ledger for the school",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Authentication"},
        {"name": "Progress", "description": "Student curriculum progress"},
        {"name": "Audit", "description": "Audit ledger"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate and receive tokens",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/student-progress": {
            "get": {
                "tags": ["Progress"],
                "summary": "List all progress records",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Progress"],
                "summary": "Create a progress record",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateProgressRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Duplicate student/requirement pair"}
                }
            },
            "put": {
                "tags": ["Progress"],
                "summary": "Apply the same update to many records",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BulkUpdateProgressRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/student-progress/{id}": {
            "get": {
                "tags": ["Progress"],
                "summary": "Get one progress record",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            },
            "put": {
                "tags": ["Progress"],
                "summary": "Update status or attempts",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateProgressRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            },
            "delete": {
                "tags": ["Progress"],
                "summary": "Delete a progress record",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/students/{studentId}/progress": {
            "get": {
                "tags": ["Progress"],
                "summary": "Level report for a student's current level",
                "parameters": [
                    {"name": "studentId", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Student has no assigned level"}
                }
            }
        },
        "/students/{studentId}/progress/level/{levelId}": {
            "get": {
                "tags": ["Progress"],
                "summary": "Level report for a student and level",
                "parameters": [
                    {"name": "studentId", "in": "path", "required": true, "type": "integer"},
                    {"name": "levelId", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Level not found"}
                }
            }
        },
        "/students/{studentId}/progress/level/{levelId}/export": {
            "get": {
                "tags": ["Progress"],
                "summary": "Export a level report as CSV or PDF",
                "parameters": [
                    {"name": "studentId", "in": "path", "required": true, "type": "integer"},
                    {"name": "levelId", "in": "path", "required": true, "type": "integer"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File download"}
                }
            }
        },
        "/audit-logs/user/{userId}": {
            "get": {
                "tags": ["Audit"],
                "summary": "List audit entries recorded for an actor",
                "parameters": [
                    {"name": "userId", "in": "path", "required": true, "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/audit-logs/entity/{entity}": {
            "get": {
                "tags": ["Audit"],
                "summary": "List audit entries for an entity type",
                "parameters": [
                    {"name": "entity", "in": "path", "required": true, "type": "string"},
                    {"name": "entityId", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
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
        "CreateProgressRequest": {
            "type": "object",
            "properties": {
                "student_id": {"type": "integer"},
                "level_requirement_id": {"type": "integer"},
                "status": {"type": "string", "enum": ["NOT_STARTED", "IN_PROGRESS", "PASSED"]},
                "instructor_id": {"type": "integer"},
                "notes": {"type": "string"}
            },
            "required": ["student_id", "level_requirement_id"]
        },
        "UpdateProgressRequest": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "enum": ["NOT_STARTED", "IN_PROGRESS", "PASSED"]},
                "attempts": {"type": "integer"},
                "instructor_id": {"type": "integer"},
                "notes": {"type": "string"}
            }
        },
        "BulkUpdateProgressRequest": {
            "type": "object",
            "properties": {
                "progress_ids": {"type": "array", "items": {"type": "integer"}},
                "status": {"type": "string", "enum": ["NOT_STARTED", "IN_PROGRESS", "PASSED"]},
                "attempts": {"type": "integer"},
                "instructor_id": {"type": "integer"},
                "notes": {"type": "string"}
            },
            "required": ["progress_ids"]
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
