// Package docs registers the OpenAPI description of the library admin service.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/status": {
            "get": {
                "tags": ["public"],
                "summary": "Service status",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/admin/{resource}": {
            "get": {
                "tags": ["admin"],
                "summary": "Get the view of a resource page",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "description": "authors, books, publishers, categories or borrows", "name": "resource", "in": "path", "required": true},
                    {"type": "string", "description": "search term", "name": "search", "in": "query"},
                    {"type": "integer", "description": "zero-based page", "name": "page", "in": "query"},
                    {"type": "integer", "description": "page size", "name": "size", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/APIResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/APIError"}}
                }
            }
        },
        "/admin/{resource}/reload": {
            "post": {"tags": ["admin"], "summary": "Reload items and reference lists", "parameters": [{"type": "string", "name": "resource", "in": "path", "required": true}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/APIResponse"}}}}
        },
        "/admin/{resource}/draft": {
            "put": {
                "tags": ["admin"],
                "summary": "Merge a partial JSON object into the draft",
                "consumes": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "resource", "in": "path", "required": true},
                    {"description": "draft fields", "name": "patch", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/APIResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/APIError"}}
                }
            }
        },
        "/admin/{resource}/edit/{id}": {
            "post": {"tags": ["admin"], "summary": "Edit an item", "parameters": [{"type": "string", "name": "resource", "in": "path", "required": true}, {"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/APIResponse"}}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/APIError"}}}}
        },
        "/admin/{resource}/submit": {
            "post": {"tags": ["admin"], "summary": "Create or update from the draft", "parameters": [{"type": "string", "name": "resource", "in": "path", "required": true}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/APIResponse"}}}}
        },
        "/admin/{resource}/clear": {
            "post": {"tags": ["admin"], "summary": "Reset the form", "parameters": [{"type": "string", "name": "resource", "in": "path", "required": true}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/APIResponse"}}}}
        },
        "/admin/{resource}/items/{id}": {
            "delete": {"tags": ["admin"], "summary": "Ask to delete an item", "parameters": [{"type": "string", "name": "resource", "in": "path", "required": true}, {"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/APIResponse"}}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/APIError"}}}}
        },
        "/admin/{resource}/delete/confirm": {
            "post": {"tags": ["admin"], "summary": "Confirm the pending deletion", "parameters": [{"type": "string", "name": "resource", "in": "path", "required": true}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/APIResponse"}}}}
        },
        "/admin/{resource}/delete/cancel": {
            "post": {"tags": ["admin"], "summary": "Cancel the pending deletion", "parameters": [{"type": "string", "name": "resource", "in": "path", "required": true}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/APIResponse"}}}}
        },
        "/admin/{resource}/notification": {
            "delete": {"tags": ["admin"], "summary": "Dismiss the notification", "parameters": [{"type": "string", "name": "resource", "in": "path", "required": true}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/APIResponse"}}}}
        },
        "/admin/book-details/{id}": {
            "get": {"tags": ["admin"], "summary": "Book detail view", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/APIResponse"}}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/APIError"}}}}
        },
        "/ops/activities": {
            "get": {"tags": ["ops"], "summary": "Recent activities, newest first", "parameters": [{"type": "integer", "name": "limit", "in": "query"}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/APIResponse"}}}}
        }
    },
    "definitions": {
        "APIResponse": {
            "type": "object",
            "properties": {
                "requestid": {"type": "string"},
                "status": {"type": "integer"},
                "message": {"type": "string"},
                "total": {"type": "integer"},
                "data": {}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "requestid": {"type": "string"},
                "status": {"type": "integer"},
                "message": {"type": "string"},
                "data": {}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Library Admin API",
	Description:      "Session based admin pages over the library REST backend.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
