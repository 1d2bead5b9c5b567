// Package schema maps a form type to the ordered, fixed-width row the
// backing sheet expects.
package schema

import "errors"

const (
	FormContact     = "contact"
	FormApplication = "application"
)

// ErrInvalidFormType reports a form type the registry does not serve.
var ErrInvalidFormType = errors.New("invalid form type")

// fields lists, per form type, the submission keys in sheet column order.
var fields = map[string][]string{
	FormContact: {
		"firstName", "lastName", "email", "phone",
		"company", "subject", "message", "timestamp",
	},
	FormApplication: {
		"jobPosition", "firstName", "lastName", "email", "phone",
		"resumeUrl", "coverLetter", "portfolioUrl", "timestamp",
	},
}

// Headers carries the human-readable header row per form type, used by
// the setup mode when bootstrapping a sheet.
var Headers = map[string][]string{
	FormContact: {
		"First Name", "Last Name", "Email", "Phone",
		"Company", "Subject", "Message", "Timestamp",
	},
	FormApplication: {
		"Job Position", "First Name", "Last Name", "Email", "Phone",
		"Resume URL", "Cover Letter", "Portfolio URL", "Timestamp",
	},
}

// RowFor builds the row for formType from the submission data. Absent
// keys render as empty strings so column alignment never drifts.
func RowFor(formType string, data map[string]string) ([]string, error) {
	keys, ok := fields[formType]
	if !ok {
		return nil, ErrInvalidFormType
	}
	row := make([]string, len(keys))
	for i, key := range keys {
		row[i] = data[key]
	}
	return row, nil
}

// Width reports the fixed row width for formType, or 0 when unknown.
func Width(formType string) int {
	return len(fields[formType])
}
