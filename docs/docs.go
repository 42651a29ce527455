// Package docs holds the swagger document served at /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/auth/signup": {
            "post": {
                "tags": ["auth"],
                "summary": "Create an account and sign in",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/ports.SignupRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ports.AuthResponse"}},
                    "409": {"description": "Email taken", "schema": {"$ref": "#/definitions/ports.ErrorResponse"}}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["auth"],
                "summary": "Sign in with email and password",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/ports.LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ports.AuthResponse"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ports.ErrorResponse"}}
                }
            }
        },
        "/auth/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["auth"],
                "summary": "Current user",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ports.ErrorResponse"}}
                }
            }
        },
        "/projects": {
            "get": {
                "tags": ["projects"],
                "summary": "List projects owned by or shared with the caller",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["projects"],
                "summary": "Create a project",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/ports.CreateProjectRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ports.ErrorResponse"}}
                }
            }
        },
        "/projects/{id}/permission": {
            "get": {
                "tags": ["projects"],
                "summary": "Resolve the caller's access to a project",
                "produces": ["application/json"],
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/entities.AccessResult"}}}
            }
        },
        "/boards/{id}/permission": {
            "get": {
                "tags": ["boards"],
                "summary": "Resolve the caller's access to a board",
                "produces": ["application/json"],
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/entities.AccessResult"}}}
            }
        },
        "/boards/{id}/tasks": {
            "get": {
                "tags": ["tasks"],
                "summary": "Column view of a board",
                "produces": ["application/json"],
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/boards/{id}/drag": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["tasks"],
                "summary": "Drop a task onto a column or another task",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/ports.DragRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "403": {"description": "Read-only board", "schema": {"$ref": "#/definitions/ports.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "entities.AccessResult": {
            "type": "object",
            "properties": {
                "has_access": {"type": "boolean"},
                "permission": {"type": "string", "enum": ["read", "write"]},
                "is_owner": {"type": "boolean"}
            }
        },
        "ports.SignupRequest": {
            "type": "object",
            "required": ["email", "password", "name"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string", "minLength": 8},
                "name": {"type": "string"}
            }
        },
        "ports.LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "ports.AuthResponse": {
            "type": "object",
            "properties": {
                "session": {"type": "object"},
                "user": {"type": "object"}
            }
        },
        "ports.CreateProjectRequest": {
            "type": "object",
            "required": ["name"],
            "properties": {
                "name": {"type": "string"},
                "description": {"type": "string"},
                "requires_auth": {"type": "boolean"}
            }
        },
        "ports.DragRequest": {
            "type": "object",
            "required": ["task_id"],
            "properties": {
                "task_id": {"type": "string"},
                "over": {
                    "type": "object",
                    "properties": {
                        "id": {"type": "string"},
                        "status": {"type": "string", "enum": ["todo", "in-progress", "done"]}
                    }
                }
            }
        },
        "ports.ErrorResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and the session token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{"http"},
	Title:            "Scrumban API",
	Description:      "Projects, boards and tasks with owner and share based access control.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
