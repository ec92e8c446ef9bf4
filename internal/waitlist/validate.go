package waitlist

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"siikhub-waitlist-go/internal/models"
)

const maxEmailLength = 254

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

	validate = validator.New()

	sourceRule = "oneof=" + strings.Join(models.AllowedSources, " ")
)

// NormalizeEmail lower-cases and trims email without validating it.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail normalizes email and checks it against the accepted grammar.
func ValidateEmail(email string) (string, error) {
	normalized := NormalizeEmail(email)
	if normalized == "" {
		return "", validationError("email is required")
	}
	if err := validate.Var(normalized, "max=254"); err != nil {
		return "", validationError("email must be at most %d characters", maxEmailLength)
	}
	if !emailPattern.MatchString(normalized) {
		return "", validationError("invalid email format")
	}
	return normalized, nil
}

// ValidateSource checks source against the allowed set. An empty source
// resolves to defaultSource.
func ValidateSource(source, defaultSource string) (string, error) {
	if source == "" {
		source = defaultSource
	}
	if err := validate.Var(source, sourceRule); err != nil {
		return "", validationError("source must be one of: %s", strings.Join(models.AllowedSources, ", "))
	}
	return source, nil
}

// MaxListLimit caps a single page of entries.
const MaxListLimit = 1000

// ValidateListOptions checks pagination parameters.
func ValidateListOptions(skip, limit int) error {
	if skip < 0 {
		return validationError("skip must be greater than or equal to 0")
	}
	if limit < 1 || limit > MaxListLimit {
		return validationError("limit must be between 1 and %d", MaxListLimit)
	}
	return nil
}

// ExportFormat is an export serialisation.
type ExportFormat string

const (
	FormatJSON ExportFormat = "json"
	FormatCSV  ExportFormat = "csv"
)

// ParseExportFormat validates an export format; empty means JSON.
func ParseExportFormat(format string) (ExportFormat, error) {
	switch ExportFormat(strings.ToLower(strings.TrimSpace(format))) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	default:
		return "", validationError("format must be one of: json, csv")
	}
}
