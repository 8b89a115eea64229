package nic

import (
	"errors"
	"regexp"
	"strings"
)

// Validation failures. Each error's text is the message shown next to the
// NIC field.
var (
	ErrRequired      = errors.New("NIC Number is required")
	ErrSymbols       = errors.New("NIC cannot contain symbols or special characters")
	ErrNewFormat     = errors.New("New NIC format must contain exactly 12 digits")
	ErrOldFormat     = errors.New("Old NIC format must be 9 digits followed by 1 letter (e.g., 123456789V)")
	ErrInvalidFormat = errors.New("Invalid NIC format. Use 12 digits (new) or 9 digits + 1 letter (old)")
)

// Format identifies which of the two accepted layouts a NIC uses.
type Format int

const (
	FormatUnknown Format = iota
	// FormatNew is 12 digits.
	FormatNew
	// FormatOld is 9 digits followed by one letter.
	FormatOld
)

func (f Format) String() string {
	switch f {
	case FormatNew:
		return "new"
	case FormatOld:
		return "old"
	default:
		return "unknown"
	}
}

var (
	symbolPattern    = regexp.MustCompile(`[^a-zA-Z0-9]`)
	newFormatPattern = regexp.MustCompile(`^\d{12}$`)
	oldFormatPattern = regexp.MustCompile(`^\d{9}[a-zA-Z]$`)
	digitsPattern    = regexp.MustCompile(`^\d+$`)
	// An old-format attempt: nine digits with only letters after them.
	oldAttemptPattern = regexp.MustCompile(`^\d{9}[a-zA-Z]*$`)
)

// Validate checks raw against the accepted NIC layouts. It returns nil for a
// valid number, otherwise one of the package's sentinel errors. The checks run
// in a fixed order and the first failing one wins.
func Validate(raw string) error {
	_, err := classify(raw)
	return err
}

// Detect returns the layout of a valid NIC, or an error from Validate.
func Detect(raw string) (Format, error) {
	return classify(raw)
}

func classify(raw string) (Format, error) {
	trimmed := strings.TrimSpace(raw)

	if trimmed == "" {
		return FormatUnknown, ErrRequired
	}
	if symbolPattern.MatchString(trimmed) {
		return FormatUnknown, ErrSymbols
	}
	if newFormatPattern.MatchString(trimmed) {
		return FormatNew, nil
	}
	if oldFormatPattern.MatchString(trimmed) {
		return FormatOld, nil
	}

	switch {
	case digitsPattern.MatchString(trimmed):
		return FormatUnknown, ErrNewFormat
	case oldAttemptPattern.MatchString(trimmed):
		return FormatUnknown, ErrOldFormat
	default:
		return FormatUnknown, ErrInvalidFormat
	}
}
