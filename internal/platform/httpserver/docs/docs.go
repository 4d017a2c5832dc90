// Package docs registers the OpenAPI description served under /swagger/.
// Operation details come from the godoc annotations on the context
// handlers; regenerate with `swag init -g internal/platform/httpserver/server.go`.
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
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "paths": {
        "/api/shop/v1/shops/{slug}/checkout": {
            "post": {
                "tags": ["orders"],
                "summary": "Order a catalog product",
                "parameters": [
                    {"type": "string", "name": "slug", "in": "path", "required": true},
                    {"type": "string", "name": "Idempotency-Key", "in": "header", "required": true}
                ],
                "responses": {"201": {"description": "Created"}, "409": {"description": "Conflict"}, "422": {"description": "Slot unavailable"}}
            }
        },
        "/api/shop/v1/shops/{slug}/custom-orders": {
            "post": {
                "tags": ["orders"],
                "summary": "Request a custom cake",
                "parameters": [
                    {"type": "string", "name": "slug", "in": "path", "required": true},
                    {"type": "string", "name": "Idempotency-Key", "in": "header", "required": true}
                ],
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/api/shop/v1/shops/{slug}/available-dates": {
            "get": {
                "tags": ["orders"],
                "summary": "Pickup dates of a shop",
                "parameters": [
                    {"type": "string", "name": "slug", "in": "path", "required": true},
                    {"type": "string", "name": "from", "in": "query"},
                    {"type": "integer", "name": "days", "in": "query"},
                    {"type": "string", "name": "product_id", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/shop/v1/orders/{ref}": {
            "get": {
                "tags": ["orders"],
                "summary": "Order status page",
                "parameters": [{"type": "string", "name": "ref", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/api/dashboard/v1/orders/{order_id}/quote": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["dashboard-orders"],
                "summary": "Quote a custom order",
                "parameters": [
                    {"type": "string", "name": "order_id", "in": "path", "required": true},
                    {"type": "string", "name": "Idempotency-Key", "in": "header", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "cakeshop API",
	Description:      "Storefront, merchant dashboard and order lifecycle of a cake shop.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
