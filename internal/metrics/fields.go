package metrics

// Common metric attribute keys to keep telemetry consistent/searchable.
const (
	AttrMethod    = "method"
	AttrPath      = "path"
	AttrStatus    = "status"
	AttrOperation = "operation"
	AttrOutcome   = "outcome"
	AttrRole      = "role"
)

// Scoring operations tracked by the recorder.
const (
	OpInitialize = "initialize"
	OpPoint      = "point"
	OpUndo       = "undo"
	OpReset      = "reset"
	OpComplete   = "complete"
	OpDelete     = "delete"
	OpUpload     = "upload"
)
