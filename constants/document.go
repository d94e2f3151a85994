package constants

import "strings"

// DocumentType tags the identity document variant returned by extraction.
type DocumentType string

const (
	Passport       DocumentType = "passport"
	DriversLicense DocumentType = "drivers_license"
	Unknown        DocumentType = "unknown"
)

// requiredFields lists the fields a complete extraction must carry per
// document variant. Anything absent lands in missing_fields, it never
// fails the run.
var requiredFields = map[DocumentType][]string{
	Passport:       {"full_name", "birth_date", "document_number", "issue_date", "expiry_date", "nationality"},
	DriversLicense: {"full_name", "birth_date", "document_number", "issue_date", "expiry_date"},
}

// RequiredFieldsFor returns the required-field set for a document type.
// Unknown documents have no required fields.
func RequiredFieldsFor(dt DocumentType) []string {
	return requiredFields[dt]
}

// HasMRZ reports whether the document variant carries a machine readable zone.
func (dt DocumentType) HasMRZ() bool {
	return dt == Passport
}

// AllowedExtensions holds the image extensions accepted for ingestion.
var AllowedExtensions = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"gif":  {},
	"bmp":  {},
	"tiff": {},
	"webp": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

var extToMIME = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"bmp":  "image/bmp",
	"tiff": "image/tiff",
	"webp": "image/webp",
}

// MIMEForExt maps a file extension to its MIME type, defaulting to JPEG.
func MIMEForExt(ext string) string {
	if mt, ok := extToMIME[NormalizeExt(ext)]; ok {
		return mt
	}
	return "image/jpeg"
}
