// Package docs registers the OpenAPI document served under /swagger.
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
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Use:  Bearer <JWT>",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "paths": {
        "/v1/users/register": {
            "post": {"tags": ["auth"], "summary": "Register a new user", "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "409": {"description": "Conflict"}}}
        },
        "/v1/users/login": {
            "post": {"tags": ["auth"], "summary": "Login and get a JWT", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}, "403": {"description": "Forbidden"}}}
        },
        "/v1/bikes": {
            "get": {"tags": ["bikes"], "summary": "List bikes", "responses": {"200": {"description": "OK"}}}
        },
        "/v1/bikes/types": {
            "get": {"tags": ["bikes"], "summary": "Distinct bike types", "responses": {"200": {"description": "OK"}}}
        },
        "/v1/bikes/{id}": {
            "get": {"tags": ["bikes"], "summary": "Bike detail with history", "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}
        },
        "/v1/reservations": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["reservations"], "summary": "Book a bike", "responses": {"201": {"description": "Created"}, "409": {"description": "Conflict"}}}
        },
        "/v1/reservations/my": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["reservations"], "summary": "My reservations", "responses": {"200": {"description": "OK"}}}
        },
        "/v1/reservations/{id}/pay": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["payments"], "summary": "Pay a pending reservation", "responses": {"201": {"description": "Created"}, "402": {"description": "Payment Required"}, "409": {"description": "Conflict"}}}
        },
        "/v1/admin/reports/reservations.xlsx": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "Export reservations as XLSX", "produces": ["application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"], "responses": {"200": {"description": "OK"}}}
        }
    }
}`

var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "Bike Rental API",
	Description:      "Bike catalogue, reservations, payments, maintenance and damage tracking.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
