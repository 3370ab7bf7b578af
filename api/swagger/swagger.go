package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "CleanOps Timeline API",
        "description": "Timeline consistency and remix subsystem for cleaning-task scheduling",
        "version": "0.1.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Timeline", "description": "Canonical per-date schedule"},
        {"name": "Revisions", "description": "Timeline history snapshots and rollback"},
        {"name": "Containers", "description": "Leftover task buckets"},
        {"name": "Cleaners", "description": "Cleaner selection per work date"},
        {"name": "Exports", "description": "Day-sheet generation and download"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "Degraded"}
                }
            }
        },
        "/metrics": {
            "get": {
                "summary": "Prometheus metrics",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/api/v1/timeline/{date}": {
            "get": {
                "tags": ["Timeline"],
                "summary": "Current timeline for a work date",
                "parameters": [
                    {"name": "date", "in": "path", "required": true, "type": "string", "format": "date"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Malformed date", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Timeline"],
                "summary": "Replace the timeline for a work date",
                "parameters": [
                    {"name": "date", "in": "path", "required": true, "type": "string", "format": "date"},
                    {"name": "actor", "in": "query", "type": "string"},
                    {"name": "timeline", "in": "body", "required": true, "schema": {"$ref": "#/definitions/Timeline"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/timeline/{date}/rows": {
            "get": {
                "tags": ["Timeline"],
                "summary": "Flattened assignment rows",
                "parameters": [
                    {"name": "date", "in": "path", "required": true, "type": "string", "format": "date"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/timeline/{date}/remix": {
            "post": {
                "tags": ["Timeline"],
                "summary": "Re-optimize leftover tasks into the timeline",
                "parameters": [
                    {"name": "date", "in": "path", "required": true, "type": "string", "format": "date"},
                    {"name": "command", "in": "body", "schema": {"$ref": "#/definitions/RemixCommand"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Optimizer failure", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "504": {"description": "Optimizer timeout", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/timeline/{date}/revisions": {
            "get": {
                "tags": ["Revisions"],
                "summary": "List revisions, newest first",
                "parameters": [
                    {"name": "date", "in": "path", "required": true, "type": "string", "format": "date"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Revisions"],
                "summary": "Freeze the current timeline into a new revision",
                "parameters": [
                    {"name": "date", "in": "path", "required": true, "type": "string", "format": "date"},
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SnapshotRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/timeline/{date}/revisions/{rev}": {
            "get": {
                "tags": ["Revisions"],
                "summary": "Rows frozen in one revision",
                "parameters": [
                    {"name": "date", "in": "path", "required": true, "type": "string", "format": "date"},
                    {"name": "rev", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown revision", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/timeline/{date}/revisions/{rev}/restore": {
            "post": {
                "tags": ["Revisions"],
                "summary": "Roll the timeline back to a revision",
                "parameters": [
                    {"name": "date", "in": "path", "required": true, "type": "string", "format": "date"},
                    {"name": "rev", "in": "path", "required": true, "type": "integer"},
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RestoreRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown revision", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/timeline/{date}/export": {
            "get": {
                "tags": ["Exports"],
                "summary": "Render a downloadable day sheet",
                "parameters": [
                    {"name": "date", "in": "path", "required": true, "type": "string", "format": "date"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/exports/download": {
            "get": {
                "tags": ["Exports"],
                "summary": "Stream a previously exported day sheet",
                "parameters": [
                    {"name": "token", "in": "query", "required": true, "type": "string"}
                ],
                "produces": ["application/octet-stream"],
                "responses": {
                    "200": {"description": "File stream"},
                    "400": {"description": "Invalid token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Expired or removed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/containers/{date}": {
            "get": {
                "tags": ["Containers"],
                "summary": "Leftover bucket counts",
                "parameters": [
                    {"name": "date", "in": "path", "required": true, "type": "string", "format": "date"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Containers"],
                "summary": "Replace the leftover containers",
                "parameters": [
                    {"name": "date", "in": "path", "required": true, "type": "string", "format": "date"},
                    {"name": "document", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ContainersDocument"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/cleaners/{date}": {
            "get": {
                "tags": ["Cleaners"],
                "summary": "Cleaners selected for a work date",
                "parameters": [
                    {"name": "date", "in": "path", "required": true, "type": "string", "format": "date"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No selection", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Cleaners"],
                "summary": "Replace the selected cleaners",
                "parameters": [
                    {"name": "date", "in": "path", "required": true, "type": "string", "format": "date"},
                    {"name": "document", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SelectedCleanersDocument"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "Task": {
            "type": "object",
            "properties": {
                "task_id": {"type": "integer"},
                "logistic_code": {"type": "string"},
                "lat": {"type": "number"},
                "lng": {"type": "number"},
                "cleaning_time": {"type": "integer"},
                "start_time": {"type": "string"},
                "end_time": {"type": "string"},
                "sequence": {"type": "integer"},
                "travel_time": {"type": "integer"},
                "premium": {"type": "boolean"},
                "straordinaria": {"type": "boolean"},
                "priority": {"type": "string", "enum": ["early_out", "high_priority", "low_priority"]},
                "reasons": {"type": "array", "items": {"type": "string"}}
            }
        },
        "CleanerAssignment": {
            "type": "object",
            "properties": {
                "cleaner": {"$ref": "#/definitions/Cleaner"},
                "tasks": {"type": "array", "items": {"$ref": "#/definitions/Task"}}
            }
        },
        "Cleaner": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "name": {"type": "string"}
            }
        },
        "Timeline": {
            "type": "object",
            "properties": {
                "metadata": {"type": "object"},
                "cleaners_assignments": {"type": "array", "items": {"$ref": "#/definitions/CleanerAssignment"}},
                "meta": {"type": "object"}
            }
        },
        "ContainersDocument": {
            "type": "object",
            "properties": {
                "metadata": {"type": "object"},
                "containers": {
                    "type": "object",
                    "properties": {
                        "early_out": {"type": "object"},
                        "high_priority": {"type": "object"},
                        "low_priority": {"type": "object"}
                    }
                }
            }
        },
        "SelectedCleanersDocument": {
            "type": "object",
            "properties": {
                "metadata": {"type": "object"},
                "cleaners": {"type": "array", "items": {"$ref": "#/definitions/Cleaner"}}
            }
        },
        "RemixCommand": {
            "type": "object",
            "properties": {
                "actor": {"type": "string"}
            }
        },
        "SnapshotRequest": {
            "type": "object",
            "required": ["created_by"],
            "properties": {
                "created_by": {"type": "string"}
            }
        },
        "RestoreRequest": {
            "type": "object",
            "required": ["restored_by"],
            "properties": {
                "restored_by": {"type": "string"}
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
