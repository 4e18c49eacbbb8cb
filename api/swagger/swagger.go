package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "TP Portal API",
        "description": "Student registration and submission portal for NLP practical work",
        "version": "1.0.0"
    },
    "basePath": "/api",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Students", "description": "Registration, login and dataset retrieval"},
        {"name": "TPs", "description": "Exercise periods"},
        {"name": "Admin", "description": "Staff authentication, activity and reports"}
    ],
    "paths": {
        "/register": {
            "post": {
                "tags": ["Students"],
                "summary": "Register for a TP and receive a dataset allocation",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegistrationRequest"}}
                ],
                "responses": {
                    "200": {"description": "Allocation result", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation, window or email conflict error"},
                    "404": {"description": "TP not found"}
                }
            }
        },
        "/student/login": {
            "post": {
                "tags": ["Students"],
                "summary": "Re-open an existing allocation",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/StudentLoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Allocation result", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Incomplete registration or window error"},
                    "404": {"description": "Unknown student"}
                }
            }
        },
        "/student/list": {
            "get": {
                "tags": ["Students"],
                "summary": "List roster names with submission state",
                "responses": {
                    "200": {"description": "Student list", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/student/{id}/meta": {
            "get": {
                "tags": ["Students"],
                "summary": "Download the student's dataset manifest",
                "produces": ["text/csv"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "tp_id", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "CSV manifest"},
                    "404": {"description": "Unknown student or missing package"}
                }
            }
        },
        "/student/{id}/zip": {
            "get": {
                "tags": ["Students"],
                "summary": "Download the student's dataset package",
                "produces": ["application/zip"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "tp_id", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Zip archive"},
                    "404": {"description": "Unknown student or missing package"}
                }
            }
        },
        "/upload-submission": {
            "post": {
                "tags": ["Students"],
                "summary": "Submit a work file",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "student_id", "in": "formData", "required": true, "type": "string"},
                    {"name": "tp_id", "in": "formData", "type": "integer"},
                    {"name": "file_type", "in": "formData", "required": true, "type": "string"},
                    {"name": "file", "in": "formData", "required": true, "type": "file"}
                ],
                "responses": {
                    "200": {"description": "Submission result", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid file type or gate already closed"},
                    "502": {"description": "Upstream repository write failed"}
                }
            }
        },
        "/tp/{id}": {
            "get": {
                "tags": ["TPs"],
                "summary": "Get one exercise period",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "TP with computed window end", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "TP not found"}
                }
            }
        },
        "/admin/login": {
            "post": {
                "tags": ["Admin"],
                "summary": "Authenticate an admin",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Access token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/admin/tp": {
            "post": {
                "tags": ["Admin"],
                "summary": "Create an exercise period",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateTPRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created TP", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Missing or invalid token"}
                }
            }
        },
        "/admin/activity": {
            "get": {
                "tags": ["Admin"],
                "summary": "List the audit trail",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "action", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Activity records", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/reports/submissions.csv": {
            "get": {
                "tags": ["Admin"],
                "summary": "Export submission state as CSV",
                "security": [{"BearerAuth": []}],
                "produces": ["text/csv"],
                "responses": {
                    "200": {"description": "CSV report"}
                }
            }
        },
        "/admin/reports/submissions.pdf": {
            "get": {
                "tags": ["Admin"],
                "summary": "Export submission state as PDF",
                "security": [{"BearerAuth": []}],
                "produces": ["application/pdf"],
                "responses": {
                    "200": {"description": "PDF report"}
                }
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "definitions": {
        "RegistrationRequest": {
            "type": "object",
            "required": ["student_id", "full_name", "email", "tp_id"],
            "properties": {
                "student_id": {"type": "string"},
                "full_name": {"type": "string"},
                "email": {"type": "string"},
                "tp_id": {"type": "integer"}
            }
        },
        "StudentLoginRequest": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "tp_id": {"type": "integer"},
                "full_name": {"type": "string"}
            }
        },
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "CreateTPRequest": {
            "type": "object",
            "required": ["name", "start_time", "end_time", "max_access_hours"],
            "properties": {
                "name": {"type": "string"},
                "description": {"type": "string"},
                "start_time": {"type": "string", "format": "date-time"},
                "end_time": {"type": "string", "format": "date-time"},
                "grace_minutes": {"type": "integer"},
                "max_access_hours": {"type": "integer"}
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
