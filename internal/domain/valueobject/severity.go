package valueobject

import "errors"

// Severity grades a finding produced while checking the asset tree.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

func (s Severity) Validate() error {
	switch s {
	case SeverityError, SeverityWarning:
		return nil
	default:
		return errors.New("invalid severity")
	}
}

func (s Severity) String() string {
	return string(s)
}

// Blocking reports whether a finding of this severity fails verification.
func (s Severity) Blocking() bool {
	return s == SeverityError
}
