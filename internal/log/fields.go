package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldQuery      = "query"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldOwnerID    = "owner_id"
	FieldRecordID   = "record_id"
	FieldRecordKind = "record_kind"
	FieldSessionID  = "session_id"
	FieldPeriod     = "period"
	FieldReportType = "report_type"
	FieldFormat     = "format"
	FieldFilename   = "filename"
	FieldCount      = "count"
	FieldValidRows  = "valid_rows"
	FieldInvalidRow = "invalid_rows"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentSchedule  = "schedule"
	ComponentExpense   = "expense"
	ComponentDashboard = "dashboard"
	ComponentImport    = "import"
	ComponentReport    = "report"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentSheets    = "sheets"
	ComponentCache     = "cache"
	ComponentReceipts  = "receipts"
	ComponentAuth      = "auth"
)
