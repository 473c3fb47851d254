package validation

import (
	"fmt"

	dErrors "coopgate/pkg/domain-errors"
)

// HTTP body limits
const (
	// MaxBodySize is the maximum allowed JSON request body size (64 KB).
	// Sufficient for field updates while preventing memory exhaustion.
	// Passport uploads have their own multipart limit.
	MaxBodySize = 64 * 1024
)

// Draft field limits
const (
	// MaxFieldValueLength is the maximum length of a single draft field
	// value (names, phone numbers, addresses).
	MaxFieldValueLength = 500

	// MaxFieldsPerUpdate is the maximum number of fields in one update
	// request; the whole form has fewer than a dozen.
	MaxFieldsPerUpdate = 20

	// MaxFilenameLength is the maximum length of an uploaded passport
	// filename.
	MaxFilenameLength = 255
)

// CheckMapCount validates that a map does not exceed the maximum entry count.
func CheckMapCount[V any](fieldName string, m map[string]V, max int) error {
	if len(m) > max {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("too many %s: max %d allowed", fieldName, max))
	}
	return nil
}

// CheckStringLength validates that a string does not exceed the maximum length.
func CheckStringLength(fieldName, value string, max int) error {
	if len(value) > max {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s exceeds max length of %d", fieldName, max))
	}
	return nil
}
