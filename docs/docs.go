// Package docs holds the OpenAPI description served at /swagger.
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
        "/api/cities": {
            "get": {
                "produces": ["application/json"],
                "tags": ["dashboard"],
                "summary": "Cities present in the latest batch",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"type": "string"}}}
                }
            }
        },
        "/api/kpis": {
            "get": {
                "produces": ["application/json"],
                "tags": ["dashboard"],
                "summary": "Headline figures for the filtered schools",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.KPIs"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/api/map": {
            "get": {
                "produces": ["application/json"],
                "tags": ["dashboard"],
                "summary": "Map markers for the filtered schools",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.MapPoint"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/api/reviews": {
            "get": {
                "produces": ["application/json"],
                "tags": ["schools"],
                "summary": "Stored reviews of one school",
                "parameters": [
                    {"type": "string", "description": "School name", "name": "school", "in": "query", "required": true},
                    {"type": "string", "description": "School address", "name": "address", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.Review"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/api/schools": {
            "get": {
                "produces": ["application/json"],
                "tags": ["schools"],
                "summary": "List located schools of the latest batch",
                "parameters": [
                    {"type": "string", "description": "Name contains", "name": "q", "in": "query"},
                    {"type": "array", "items": {"type": "string"}, "collectionFormat": "multi", "description": "City, repeatable", "name": "city", "in": "query"},
                    {"type": "array", "items": {"type": "string"}, "collectionFormat": "multi", "description": "Pre-K, Elementary, Middle or High", "name": "grade", "in": "query"},
                    {"type": "array", "items": {"type": "string"}, "collectionFormat": "multi", "description": "Private, Public District or Public Charter", "name": "type", "in": "query"},
                    {"type": "string", "description": "Score category", "name": "category", "in": "query"},
                    {"type": "boolean", "description": "Keep schools without a composite score", "name": "include_unavailable", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.EnrichedListing"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/api/schools/nearest": {
            "get": {
                "produces": ["application/json"],
                "tags": ["schools"],
                "summary": "Find the school closest to a point",
                "parameters": [
                    {"type": "number", "description": "Latitude", "name": "lat", "in": "query", "required": true},
                    {"type": "number", "description": "Longitude", "name": "lon", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.NearestSchool"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/geocode": {
            "get": {
                "produces": ["application/json"],
                "tags": ["geocode"],
                "summary": "Resolve an address to coordinates",
                "parameters": [
                    {"type": "string", "description": "Free-form address", "name": "q", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Coordinates"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "handler.ErrorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}}
        },
        "models.Coordinates": {
            "type": "object",
            "properties": {"latitude": {"type": "number"}, "longitude": {"type": "number"}}
        },
        "models.Review": {
            "type": "object",
            "properties": {"school_name": {"type": "string"}, "address": {"type": "string"}, "review": {"type": "string"}}
        },
        "models.EnrichedListing": {
            "type": "object",
            "properties": {
                "school_name": {"type": "string"},
                "address": {"type": "string"},
                "gs_rating": {"type": "number"},
                "academic_progress": {"type": "number"},
                "test_scores": {"type": "number"},
                "equity_scores": {"type": "number"},
                "school_types": {"type": "array", "items": {"type": "string"}},
                "star_rating": {"type": "number"},
                "review_link": {"type": "string"},
                "school_link": {"type": "string"},
                "city": {"type": "string"},
                "batch_id": {"type": "string"},
                "extracted_at": {"type": "string"},
                "grades": {"type": "object", "additionalProperties": {"type": "boolean"}},
                "types": {"type": "object", "additionalProperties": {"type": "boolean"}},
                "composite_score": {"type": "integer"},
                "score_category": {"type": "string"},
                "location": {"$ref": "#/definitions/models.Coordinates"}
            }
        },
        "models.KPIs": {
            "type": "object",
            "properties": {
                "average_composite_score": {"type": "number"},
                "top_performing_schools": {"type": "integer"},
                "schools_needing_attention": {"type": "integer"},
                "percent_needing_attention": {"type": "number"},
                "above_average_schools": {"type": "integer"},
                "percent_above_average": {"type": "number"},
                "schools_with_scores": {"type": "integer"},
                "category_counts": {"type": "object", "additionalProperties": {"type": "integer"}}
            }
        },
        "models.MapPoint": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "address": {"type": "string"},
                "lat": {"type": "number"},
                "lon": {"type": "number"},
                "color": {"type": "string"},
                "size": {"type": "number"},
                "composite_score": {"type": "integer"},
                "score_category": {"type": "string"},
                "academic_progress": {"type": "number"},
                "test_scores": {"type": "number"},
                "school_types": {"type": "array", "items": {"type": "string"}}
            }
        },
        "models.NearestSchool": {
            "type": "object",
            "properties": {
                "school": {"$ref": "#/definitions/models.EnrichedListing"},
                "distance_km": {"type": "number"}
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
	Title:            "School Performance API",
	Description:      "Read-only access to scraped and scored school listings.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
