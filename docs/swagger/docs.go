// Package swagger registers the OpenAPI document served under /swagger.
// Regenerate with: swag init -g cmd/server/main.go -o docs/swagger
package swagger

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
        "/businesses": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Businesses"],
                "summary": "List businesses",
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/dto.BusinessResponse"}}}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Businesses"],
                "summary": "Create a business",
                "parameters": [{"in": "body", "name": "business", "required": true, "schema": {"$ref": "#/definitions/dto.CreateBusinessRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/dto.BusinessResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/businesses/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Businesses"],
                "summary": "Get a business",
                "parameters": [{"type": "string", "in": "path", "name": "id", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.BusinessResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["Businesses"],
                "summary": "Delete a business",
                "parameters": [{"type": "string", "in": "path", "name": "id", "required": true}],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/businesses/{id}/invoices": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Invoices"],
                "summary": "List invoices",
                "parameters": [
                    {"type": "string", "in": "path", "name": "id", "required": true},
                    {"type": "integer", "in": "query", "name": "limit"},
                    {"type": "integer", "in": "query", "name": "offset"}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Invoices"],
                "summary": "Create an invoice",
                "parameters": [
                    {"type": "string", "in": "path", "name": "id", "required": true},
                    {"in": "body", "name": "invoice", "required": true, "schema": {"$ref": "#/definitions/dto.CreateInvoiceRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "402": {"description": "Payment Required", "schema": {"$ref": "#/definitions/dto.DenialResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/businesses/{id}/invoices/{invoice_id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Invoices"],
                "summary": "Get an invoice",
                "parameters": [
                    {"type": "string", "in": "path", "name": "id", "required": true},
                    {"type": "string", "in": "path", "name": "invoice_id", "required": true}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/businesses/{id}/usage": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Invoices"],
                "summary": "Get usage",
                "parameters": [{"type": "string", "in": "path", "name": "id", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/businesses/{id}/credits": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Credits"],
                "summary": "Get credit balance",
                "parameters": [{"type": "string", "in": "path", "name": "id", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/admin/businesses/{id}/plan": {
            "put": {
                "security": [{"ApiKeyAuth": []}],
                "tags": ["Admin"],
                "summary": "Update plan",
                "parameters": [
                    {"type": "string", "in": "path", "name": "id", "required": true},
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/dto.UpdatePlanRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.BusinessResponse"}}}
            }
        },
        "/admin/businesses/{id}/credits": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "tags": ["Admin"],
                "summary": "Add credits",
                "parameters": [
                    {"type": "string", "in": "path", "name": "id", "required": true},
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/dto.AddCreditsRequest"}}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/webhooks/stripe": {
            "post": {
                "tags": ["Webhooks"],
                "summary": "Stripe webhook",
                "parameters": [{"type": "string", "in": "header", "name": "Stripe-Signature"}],
                "responses": {"200": {"description": "OK"}}
            }
        }
    },
    "definitions": {
        "dto.CreateBusinessRequest": {
            "type": "object",
            "required": ["name"],
            "properties": {
                "name": {"type": "string"},
                "email": {"type": "string"},
                "currency": {"type": "string"}
            }
        },
        "dto.BusinessResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "owner_id": {"type": "string"},
                "name": {"type": "string"},
                "plan": {"type": "string", "enum": ["free_user", "professional", "enterprise"]},
                "extra_invoice_credits": {"type": "integer"}
            }
        },
        "dto.CreateInvoiceRequest": {
            "type": "object",
            "required": ["client_id"],
            "properties": {
                "client_id": {"type": "string"},
                "currency": {"type": "string"},
                "amount": {"type": "string"},
                "due_date": {"type": "string"},
                "notes": {"type": "string"},
                "metadata": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        },
        "dto.DenialResponse": {
            "type": "object",
            "properties": {
                "denied": {"type": "boolean"},
                "reason": {"type": "string", "enum": ["free_limit_reached", "monthly_limit_reached"]},
                "signal": {"type": "string", "enum": ["needs_payment"]},
                "usage": {"type": "object"}
            }
        },
        "dto.UpdatePlanRequest": {
            "type": "object",
            "required": ["plan"],
            "properties": {"plan": {"type": "string"}}
        },
        "dto.AddCreditsRequest": {
            "type": "object",
            "required": ["quantity"],
            "properties": {"quantity": {"type": "integer"}}
        },
        "errors.ErrorResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "error": {
                    "type": "object",
                    "properties": {
                        "code": {"type": "string"},
                        "message": {"type": "string"},
                        "details": {"type": "object"}
                    }
                }
            }
        }
    },
    "securityDefinitions": {
        "ApiKeyAuth": {"type": "apiKey", "name": "x-api-key", "in": "header"},
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/v1",
	Schemes:          []string{"http", "https"},
	Title:            "ZeroDue API",
	Description:      "Invoice admission, usage and credits for ZeroDue businesses",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
