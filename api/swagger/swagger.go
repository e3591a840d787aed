package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SMA ECA API",
        "description": "Extracurricular activity allocation for school administrators",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"BearerAuth": []}],
    "tags": [
        {"name": "ECA", "description": "Allocation runs, previews, waitlists and roster exports"},
        {"name": "Observability", "description": "Operational counters"}
    ],
    "paths": {
        "/eca/terms/{termId}/allocation-runs": {
            "post": {
                "tags": ["ECA"],
                "summary": "Run ECA allocation for a term",
                "description": "Replaces engine allocations and waitlists for the term. Check success in the result. With async=true the run is queued and 202 is returned.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "termId", "in": "path", "required": true, "type": "string"},
                    {"name": "async", "in": "query", "type": "boolean"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RunAllocationRequest"}}
                ],
                "responses": {
                    "200": {"description": "Run finished", "schema": {"$ref": "#/definitions/AllocationResultEnvelope"}},
                    "202": {"description": "Run queued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "School outside caller scope", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Term not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Run already in progress", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/eca/terms/{termId}/allocation-runs/latest": {
            "get": {
                "tags": ["ECA"],
                "summary": "Most recent allocation result for a term",
                "parameters": [
                    {"name": "termId", "in": "path", "required": true, "type": "string"},
                    {"name": "schoolId", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/AllocationResultEnvelope"}},
                    "404": {"description": "No run recorded", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/eca/allocation-runs/{runId}": {
            "get": {
                "tags": ["ECA"],
                "summary": "Status of a queued allocation run",
                "parameters": [
                    {"name": "runId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown run", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/eca/terms/{termId}/allocation-preview": {
            "post": {
                "tags": ["ECA"],
                "summary": "Simulate ECA allocation without writing",
                "consumes": ["application/json"],
                "parameters": [
                    {"name": "termId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PreviewAllocationRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/eca/terms/{termId}/waitlist": {
            "get": {
                "tags": ["ECA"],
                "summary": "List waitlists for a term",
                "parameters": [
                    {"name": "termId", "in": "path", "required": true, "type": "string"},
                    {"name": "schoolId", "in": "query", "required": true, "type": "string"},
                    {"name": "activityId", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/eca/terms/{termId}/allocations/export": {
            "get": {
                "tags": ["ECA"],
                "summary": "Download the allocation roster",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "termId", "in": "path", "required": true, "type": "string"},
                    {"name": "schoolId", "in": "query", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "Roster file", "schema": {"type": "file"}}
                }
            }
        },
        "/metrics/summary": {
            "get": {
                "tags": ["Observability"],
                "summary": "Operational counters for allocation runs and HTTP traffic",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "RunAllocationRequest": {
            "type": "object",
            "required": ["schoolId"],
            "properties": {
                "schoolId": {"type": "string"},
                "selectionMode": {"type": "string", "enum": ["FIRST_COME_FIRST_SERVED", "SMART_ALLOCATION"]},
                "cancelBelowMinimum": {"type": "boolean", "default": true}
            }
        },
        "PreviewAllocationRequest": {
            "type": "object",
            "required": ["schoolId"],
            "properties": {
                "schoolId": {"type": "string"},
                "selectionMode": {"type": "string", "enum": ["FIRST_COME_FIRST_SERVED", "SMART_ALLOCATION"]}
            }
        },
        "ChoiceBreakdown": {
            "type": "object",
            "properties": {
                "firstChoice": {"type": "integer"},
                "secondChoice": {"type": "integer"},
                "thirdChoice": {"type": "integer"},
                "forced": {"type": "integer"}
            }
        },
        "AllocationResult": {
            "type": "object",
            "properties": {
                "runId": {"type": "string"},
                "termId": {"type": "string"},
                "schoolId": {"type": "string"},
                "selectionMode": {"type": "string"},
                "success": {"type": "boolean"},
                "errors": {"type": "array", "items": {"type": "string"}},
                "totalAllocations": {"type": "integer"},
                "studentsPlaced": {"type": "integer"},
                "studentsWaitlisted": {"type": "integer"},
                "waitlistEntries": {"type": "integer"},
                "choiceBreakdown": {"$ref": "#/definitions/ChoiceBreakdown"},
                "cancelledActivities": {"type": "array", "items": {"type": "string"}},
                "atRiskActivities": {"type": "array", "items": {"type": "object"}},
                "unplacedStudents": {"type": "array", "items": {"type": "object"}},
                "suggestions": {"type": "array", "items": {"type": "object"}},
                "iterations": {"type": "integer"},
                "iterationCapHit": {"type": "boolean"},
                "startedAt": {"type": "string", "format": "date-time"},
                "finishedAt": {"type": "string", "format": "date-time"}
            }
        },
        "AllocationResultEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/AllocationResult"},
                "meta": {"type": "object"}
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
