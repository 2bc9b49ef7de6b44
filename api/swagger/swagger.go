// Package swagger registers the static OpenAPI document served at /docs.
package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Attendance Insight API",
        "description": "Attendance reporting, alerting, and natural-language query service",
        "version": "0.1.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Attendance", "description": "Attendance record intake and calendar"},
        {"name": "Reports", "description": "Attendance report generation"},
        {"name": "Exports", "description": "Report export encoders"},
        {"name": "Alerts", "description": "Alert thresholds and triggered alerts"},
        {"name": "Query", "description": "Natural-language query interpreter"}
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
                    "200": {"description": "Ready"}
                }
            }
        },
        "/attendance": {
            "get": {
                "tags": ["Attendance"],
                "summary": "List attendance records",
                "parameters": [
                    {"name": "studentId", "in": "query", "type": "string"},
                    {"name": "lastName", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "dateFrom", "in": "query", "type": "string"},
                    {"name": "dateTo", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Attendance"],
                "summary": "Record a student attendance entry",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RecordAttendanceRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Domain validation failure", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/calendar/days-off": {
            "get": {
                "tags": ["Attendance"],
                "summary": "List scheduled days off",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Attendance"],
                "summary": "Schedule a school-wide day off",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ScheduleDayOffRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports": {
            "post": {
                "tags": ["Reports"],
                "summary": "Generate an attendance report",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateReportRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Invalid report request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports": {
            "post": {
                "tags": ["Exports"],
                "summary": "Generate a report and export it as CSV, JSON, or PDF",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ExportRequest"}}
                ],
                "responses": {
                    "200": {"description": "File attachment"}
                }
            }
        },
        "/query": {
            "post": {
                "tags": ["Query"],
                "summary": "Interpret a natural-language question about attendance",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/QueryRequest"}}
                ],
                "responses": {
                    "200": {"description": "Interpreted answer with confidence score"}
                }
            }
        },
        "/alerts": {
            "get": {
                "tags": ["Alerts"],
                "summary": "List triggered alerts",
                "parameters": [
                    {"name": "studentId", "in": "query", "type": "string"},
                    {"name": "thresholdId", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/alerts/evaluate": {
            "post": {
                "tags": ["Alerts"],
                "summary": "Run threshold evaluation now",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/alerts/{id}": {
            "delete": {
                "tags": ["Alerts"],
                "summary": "Dismiss an active alert",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Dismissed"}
                }
            }
        },
        "/alerts/thresholds": {
            "get": {
                "tags": ["Alerts"],
                "summary": "List alert thresholds",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Alerts"],
                "summary": "Create an alert threshold",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateThresholdRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Duplicate threshold", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/alerts/thresholds/{id}": {
            "patch": {
                "tags": ["Alerts"],
                "summary": "Update an alert threshold",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateThresholdRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/alerts/thresholds/{id}/compare": {
            "post": {
                "tags": ["Alerts"],
                "summary": "Compare a proposed threshold setting against the current one",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CompareThresholdRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/alerts/thresholds/{id}/effectiveness": {
            "get": {
                "tags": ["Alerts"],
                "summary": "Threshold effectiveness statistics",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "RecordAttendanceRequest": {
            "type": "object",
            "required": ["studentId", "date", "status"],
            "properties": {
                "studentId": {"type": "string"},
                "lastName": {"type": "string"},
                "date": {"type": "string", "example": "2025-03-12"},
                "status": {"type": "string", "enum": ["PRESENT", "ABSENT", "LATE", "EXCUSED"]},
                "late": {"type": "boolean"},
                "earlyDismissal": {"type": "boolean"}
            }
        },
        "ScheduleDayOffRequest": {
            "type": "object",
            "required": ["date"],
            "properties": {
                "date": {"type": "string", "example": "2025-12-25"},
                "reason": {"type": "string"}
            }
        },
        "GenerateReportRequest": {
            "type": "object",
            "properties": {
                "lastName": {"type": "string"},
                "status": {"type": "string"},
                "date": {"type": "string"},
                "dateFrom": {"type": "string"},
                "dateTo": {"type": "string"},
                "relativePeriod": {"type": "string", "enum": ["today", "week", "month"]},
                "includeCount": {"type": "boolean"},
                "includePercentage": {"type": "boolean"},
                "includeStreaks": {"type": "boolean"},
                "includeTrends": {"type": "boolean"},
                "sortField": {"type": "string"},
                "sortDirection": {"type": "string"},
                "page": {"type": "integer"},
                "limit": {"type": "integer"},
                "useCache": {"type": "boolean"}
            }
        },
        "ExportRequest": {
            "type": "object",
            "required": ["format"],
            "properties": {
                "report": {"$ref": "#/definitions/GenerateReportRequest"},
                "format": {"type": "string", "enum": ["csv", "json", "pdf"]},
                "summaryOnly": {"type": "boolean"}
            }
        },
        "QueryRequest": {
            "type": "object",
            "required": ["query"],
            "properties": {
                "query": {"type": "string", "example": "Who was absent this week?"}
            }
        },
        "CreateThresholdRequest": {
            "type": "object",
            "required": ["type", "count", "period"],
            "properties": {
                "type": {"type": "string", "enum": ["ABSENCE", "LATENESS", "CUMULATIVE"]},
                "count": {"type": "integer"},
                "period": {"type": "string", "enum": ["WEEK", "MONTH", "TERM", "THIRTY_DAYS"]},
                "studentId": {"type": "string"},
                "notifyParents": {"type": "boolean"}
            }
        },
        "UpdateThresholdRequest": {
            "type": "object",
            "properties": {
                "count": {"type": "integer"},
                "period": {"type": "string"},
                "notifyParents": {"type": "boolean"}
            }
        },
        "CompareThresholdRequest": {
            "type": "object",
            "required": ["count"],
            "properties": {
                "count": {"type": "integer"},
                "period": {"type": "string"}
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
