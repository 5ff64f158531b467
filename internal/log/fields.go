package log

// Common field names for structured logging
const (
	FieldComponent    = "component"
	FieldRequestID    = "request_id"
	FieldClientIP     = "client_ip"
	FieldMethod       = "method"
	FieldPath         = "path"
	FieldQuery        = "query"
	FieldStatusCode   = "status_code"
	FieldDuration     = "duration_ms"
	FieldSuccess      = "success"
	FieldError        = "error"
	FieldOperation    = "operation"
	FieldOwnerID      = "owner_id"
	FieldDimension    = "dimension"
	FieldStrategy     = "strategy"
	FieldModelVersion = "model_version"
	FieldHorizonDays  = "horizon_days"
	FieldRecordCount  = "record_count"
	FieldAmount       = "amount"
	FieldPointID      = "point_id"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentAnalytics = "analytics"
	ComponentForecast  = "forecast"
	ComponentAnomaly   = "anomaly"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentSheets    = "sheets"
	ComponentCache     = "cache"
	ComponentTrace     = "trace"
)

// Operations defines standard operation names
const (
	OpCreate    = "create"
	OpQuery     = "query"
	OpAggregate = "aggregate"
	OpRank      = "rank"
	OpForecast  = "forecast"
	OpDetect    = "detect"
	OpAppend    = "append"
	OpExport    = "export"
	OpStartup   = "startup"
	OpShutdown  = "shutdown"
)
