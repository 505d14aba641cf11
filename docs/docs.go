// Package docs holds the swagger document served at /swagger/index.html.
// Regenerate with swag init; see cmd/creditdash/docs.go.
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
        "/healthz": {
            "get": {"tags": ["health"], "summary": "Health check", "responses": {"200": {"description": "OK"}}}
        },
        "/readyz": {
            "get": {"tags": ["health"], "summary": "Readiness check", "description": "Pings the warehouse.", "responses": {"200": {"description": "OK"}, "503": {"description": "Service Unavailable"}}}
        },
        "/api/v1/sessions": {
            "post": {"tags": ["session"], "summary": "Start a dashboard session", "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/sessions/current": {
            "delete": {"security": [{"BearerAuth": []}], "tags": ["session"], "summary": "End the current session", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}
        },
        "/api/v1/filters": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["dashboard"], "summary": "Deal filter options", "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/dashboard/freshness": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["dashboard"], "summary": "Warehouse freshness", "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/dashboard/summary": {
            "get": {
                "security": [{"BearerAuth": []}], "tags": ["dashboard"], "summary": "Portfolio summary",
                "parameters": [{"type": "string", "description": "reporting date YYYY-MM-DD", "name": "as_of", "in": "query"}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}
            }
        },
        "/api/v1/dashboard/top-deals": {
            "get": {
                "security": [{"BearerAuth": []}], "tags": ["dashboard"], "summary": "Largest deals by exposure",
                "parameters": [
                    {"type": "integer", "description": "row count", "name": "limit", "in": "query"},
                    {"type": "string", "description": "reporting date YYYY-MM-DD", "name": "as_of", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}
            }
        },
        "/api/v1/dashboard/industries": {
            "get": {
                "security": [{"BearerAuth": []}], "tags": ["dashboard"], "summary": "Exposure by industry",
                "parameters": [{"type": "string", "description": "reporting date YYYY-MM-DD", "name": "as_of", "in": "query"}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/dashboard/trend": {
            "get": {
                "security": [{"BearerAuth": []}], "tags": ["dashboard"], "summary": "Month-end exposure trend",
                "parameters": [{"type": "integer", "description": "calendar year, defaults to the current year", "name": "year", "in": "query"}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}
            }
        },
        "/api/v1/dashboard/deals": {
            "get": {
                "security": [{"BearerAuth": []}], "tags": ["dashboard"], "summary": "Deals with watchlist highlighting",
                "parameters": [
                    {"type": "string", "description": "All, None, Watchlist or Intensive Care", "name": "watchlist", "in": "query"},
                    {"type": "string", "description": "originator name or All", "name": "originator", "in": "query"},
                    {"type": "string", "description": "reporting date YYYY-MM-DD", "name": "as_of", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}
            }
        },
        "/api/v1/dashboard/cache/invalidate": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["dashboard"], "summary": "Drop cached results for this session", "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/chat": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["chat"], "summary": "Chat transcript", "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/chat/samples": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["chat"], "summary": "Sample questions", "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/chat/messages": {
            "post": {
                "security": [{"BearerAuth": []}], "tags": ["chat"], "summary": "Ask the analyst agent",
                "consumes": ["application/json"],
                "parameters": [{"description": "question", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.chatRequest"}}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}
            }
        },
        "/api/v1/chat/stream": {
            "post": {
                "security": [{"BearerAuth": []}], "tags": ["chat"], "summary": "Ask the analyst agent, streaming the answer",
                "description": "Server-sent events: zero or more \"fragment\" events, then one \"done\" event with the assistant message.",
                "consumes": ["application/json"], "produces": ["text/event-stream"],
                "parameters": [{"description": "question", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.chatRequest"}}],
                "responses": {}
            }
        },
        "/api/v1/chat/ws": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["chat"], "summary": "Chat over a websocket", "responses": {}}
        },
        "/api/v1/chat/reset": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["chat"], "summary": "Clear the conversation", "responses": {"200": {"description": "OK"}}}
        }
    },
    "definitions": {
        "handler.chatRequest": {
            "type": "object",
            "properties": {"content": {"type": "string"}}
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "0.1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "Credit Dashboard API",
	Description:      "Credit portfolio dashboard queries and the analyst agent chat.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
