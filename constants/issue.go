package constants

// IssueCode is the stable identifier of a validation or pipeline issue.
// Stored in result JSON and asserted on by callers; do not rename.
type IssueCode string

const (
	IssueRegexFormat        IssueCode = "REGEX_FORMAT"
	IssueDateOrderViolation IssueCode = "DATE_ORDER_VIOLATION"
	IssueExpiredDocument    IssueCode = "EXPIRED_DOCUMENT"
	IssueMRZMismatch        IssueCode = "MRZ_MISMATCH"
	IssueMRZIncomplete      IssueCode = "MRZ_INCOMPLETE"
	IssueMissingPayload     IssueCode = "MISSING_PAYLOAD"
	IssueBlurReject         IssueCode = "BLUR_REJECT"
	IssueDuplicateUpload    IssueCode = "DUPLICATE_UPLOAD"
	IssueExtractionFailed   IssueCode = "EXTRACTION_FAILED"
)

// Severity classifies how an issue affects the run.
type Severity string

const (
	SeverityInformational Severity = "informational"
	SeverityBlocking      Severity = "blocking"
)
