package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Teachers Portal API",
        "description": "Weekly lesson report trigger, preview and export",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "TriggerSecret": {
            "type": "apiKey",
            "in": "header",
            "name": "Authorization",
            "description": "Bearer <REPORT_TRIGGER_SECRET>"
        }
    },
    "tags": [
        {"name": "Reports", "description": "Weekly lesson completion report"},
        {"name": "Ops", "description": "Liveness, readiness and metrics"}
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": ["Ops"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "tags": ["Ops"],
                "summary": "Readiness check (database and redis)",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "A dependency is unavailable"}
                }
            }
        },
        "/metrics": {
            "get": {
                "tags": ["Ops"],
                "summary": "Prometheus metrics",
                "produces": ["text/plain"],
                "responses": {
                    "200": {"description": "Prometheus exposition"}
                }
            }
        },
        "/api/v1/reports/weekly/generate": {
            "post": {
                "tags": ["Reports"],
                "summary": "Build and send the weekly report",
                "description": "Builds the report for date (default today in REPORT_TIMEZONE) and emails it to every active admin. Responds 200 with lessonFound=false when no lesson was held.",
                "security": [{"TriggerSecret": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/GenerateWeeklyReportRequest"}}
                ],
                "responses": {
                    "200": {"description": "Sent, dry run, or no lesson", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid date", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Missing or wrong trigger secret", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "405": {"description": "Method not allowed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "A run for this date is in progress", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "500": {"description": "Configuration or store failure, or every email failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/reports/weekly/send": {
            "post": {
                "tags": ["Reports"],
                "summary": "Send a supplied weekly report",
                "security": [{"TriggerSecret": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SendWeeklyReportRequest"}}
                ],
                "responses": {
                    "200": {"description": "Sent", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "lessonDate or reportData missing", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Missing or wrong trigger secret", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "500": {"description": "Configuration failure, no admins, or every email failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/reports/weekly/{date}/preview": {
            "get": {
                "tags": ["Reports"],
                "summary": "Preview the report email body",
                "security": [{"TriggerSecret": []}],
                "produces": ["text/html"],
                "parameters": [
                    {"name": "date", "in": "path", "required": true, "type": "string", "format": "date"}
                ],
                "responses": {
                    "200": {"description": "HTML body"},
                    "400": {"description": "Invalid date", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No lesson on date", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/reports/weekly/{date}/export": {
            "get": {
                "tags": ["Reports"],
                "summary": "Export teacher progress",
                "security": [{"TriggerSecret": []}],
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "date", "in": "path", "required": true, "type": "string", "format": "date"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "Export file"},
                    "400": {"description": "Invalid date or format", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No lesson on date", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "GenerateWeeklyReportRequest": {
            "type": "object",
            "properties": {
                "date": {"type": "string", "format": "date", "example": "2024-03-10"},
                "dryRun": {"type": "boolean"}
            }
        },
        "SendWeeklyReportRequest": {
            "type": "object",
            "required": ["lessonDate", "reportData"],
            "properties": {
                "lessonDate": {"type": "string", "format": "date"},
                "reportData": {"$ref": "#/definitions/WeeklyReport"}
            }
        },
        "ReportStatistics": {
            "type": "object",
            "properties": {
                "total": {"type": "integer"},
                "completedBoth": {"type": "integer"},
                "completedAttendance": {"type": "integer"},
                "completedEvaluation": {"type": "integer"},
                "completedNeither": {"type": "integer"},
                "attendanceRate": {"type": "integer"},
                "evaluationRate": {"type": "integer"},
                "completionRate": {"type": "integer"}
            }
        },
        "WeeklyReport": {
            "type": "object",
            "properties": {
                "lesson": {"type": "object"},
                "statistics": {"$ref": "#/definitions/ReportStatistics"},
                "teacherProgress": {"type": "array", "items": {"type": "object"}},
                "juniorProgress": {"type": "array", "items": {"type": "object"}},
                "seniorProgress": {"type": "array", "items": {"type": "object"}},
                "generatedAt": {"type": "string", "format": "date-time"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "details": {"type": "object"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"}
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
