// Package docs registers the Swagger description of the API. Regenerate with
// `swag init` after changing handler annotations.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "API Support",
            "email": "support@jobpilot.dev"
        },
        "license": {
            "name": "Apache 2.0",
            "url": "http://www.apache.org/licenses/LICENSE-2.0.html"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/auth/register": {"post": {"tags": ["Auth"], "summary": "Register a new user", "parameters": [{"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.RegisterRequest"}}], "responses": {"201": {"description": "Registration successful", "schema": {"$ref": "#/definitions/models.AuthResponse"}}, "409": {"description": "User already exists", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}}}},
        "/auth/login": {"post": {"tags": ["Auth"], "summary": "Login user", "parameters": [{"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.LoginRequest"}}], "responses": {"200": {"description": "Login successful", "schema": {"$ref": "#/definitions/models.AuthResponse"}}, "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}}}},
        "/auth/google": {"post": {"tags": ["Auth"], "summary": "Login with Google", "parameters": [{"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.GoogleAuthRequest"}}], "responses": {"200": {"description": "Login successful", "schema": {"$ref": "#/definitions/models.AuthResponse"}}}}},
        "/auth/me": {"get": {"tags": ["Auth"], "summary": "Current user", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "User account"}}}},
        "/sessions": {"post": {"tags": ["Sessions"], "summary": "Create session", "responses": {"201": {"description": "Session created", "schema": {"$ref": "#/definitions/models.SessionResponse"}}}}},
        "/sessions/current": {"get": {"tags": ["Sessions"], "summary": "Current session", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.SessionResponse"}}}}},
        "/sessions/{id}": {"get": {"tags": ["Sessions"], "summary": "Get session state", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}}}},
        "/sessions/{id}/events": {"get": {"tags": ["Sessions"], "summary": "Session events", "produces": ["text/event-stream"], "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "event stream"}}}},
        "/sessions/{id}/cv/upload": {"post": {"tags": ["Workflow"], "summary": "Upload CV file", "consumes": ["multipart/form-data"], "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}, {"name": "cv_file", "in": "formData", "required": true, "type": "file"}], "responses": {"200": {"description": "Extracted text", "schema": {"$ref": "#/definitions/models.UploadResponse"}}}}},
        "/sessions/{id}/analysis": {"post": {"tags": ["Workflow"], "summary": "Start analysis", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}, {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.AnalysisRequest"}}], "responses": {"202": {"description": "Analysis started", "schema": {"$ref": "#/definitions/models.AcceptedResponse"}}}}},
        "/sessions/{id}/recruiter/search": {"post": {"tags": ["Recruiter"], "summary": "Search candidates", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}, {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.RecruiterSearchRequest"}}], "responses": {"200": {"description": "OK"}}}},
        "/health": {"get": {"tags": ["System"], "summary": "Health check", "responses": {"200": {"description": "Server is healthy", "schema": {"$ref": "#/definitions/models.HealthResponse"}}}}}
    },
    "definitions": {
        "models.ErrorResponse": {"type": "object", "properties": {"error": {"type": "string"}, "code": {"type": "integer"}, "details": {"type": "string"}}},
        "models.HealthResponse": {"type": "object", "properties": {"status": {"type": "string"}, "version": {"type": "string"}, "timestamp": {"type": "string"}, "sessions": {"type": "integer"}}},
        "models.RegisterRequest": {"type": "object", "required": ["email", "password", "confirmPassword"], "properties": {"email": {"type": "string"}, "password": {"type": "string"}, "confirmPassword": {"type": "string"}, "name": {"type": "string"}}},
        "models.LoginRequest": {"type": "object", "required": ["email", "password"], "properties": {"email": {"type": "string"}, "password": {"type": "string"}}},
        "models.GoogleAuthRequest": {"type": "object", "required": ["idToken"], "properties": {"idToken": {"type": "string"}}},
        "models.AuthResponse": {"type": "object", "properties": {"token": {"type": "string"}, "message": {"type": "string"}}},
        "models.SessionResponse": {"type": "object", "properties": {"sessionId": {"type": "string"}}},
        "models.AcceptedResponse": {"type": "object", "properties": {"message": {"type": "string"}, "count": {"type": "integer"}}},
        "models.UploadResponse": {"type": "object", "properties": {"fileName": {"type": "string"}, "text": {"type": "string"}, "cvUrl": {"type": "string"}}},
        "models.AnalysisRequest": {"type": "object", "properties": {"cvInput": {"type": "object"}, "options": {"type": "object"}, "language": {"type": "string"}}},
        "models.RecruiterSearchRequest": {"type": "object", "properties": {"description": {"type": "string"}, "location": {"type": "string"}}}
    },
    "securityDefinitions": {
        "BearerAuth": {"description": "Type \"Bearer\" followed by a space and JWT token.", "type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "JobPilot API",
	Description:      "Job search copilot: CV analysis, AI job search, cover letters, tracked applications, recruiter search and live mock interviews.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
