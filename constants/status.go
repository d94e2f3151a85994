package constants

// Status is the terminal disposition of a verification run.
type Status string

// Stable values (serialized into result JSON, do not rename).
const (
	StatusSuccess      Status = "SUCCESS"       // automatic approval
	StatusManualReview Status = "MANUAL_REVIEW" // human verification needed
	StatusRetryUpload  Status = "RETRY_UPLOAD"  // recoverable by re-submission
	StatusSystemError  Status = "SYSTEM_ERROR"  // extraction or transport failure
)
