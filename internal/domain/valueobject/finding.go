package valueobject

import "fmt"

// Finding is a single verification result tied to an asset path.
type Finding struct {
	severity Severity
	path     string
	message  string
}

func NewFinding(severity Severity, path, message string) (Finding, error) {
	if err := severity.Validate(); err != nil {
		return Finding{}, err
	}
	return Finding{severity: severity, path: path, message: message}, nil
}

func ErrorFinding(path, format string, args ...interface{}) Finding {
	return Finding{severity: SeverityError, path: path, message: fmt.Sprintf(format, args...)}
}

func WarningFinding(path, format string, args ...interface{}) Finding {
	return Finding{severity: SeverityWarning, path: path, message: fmt.Sprintf(format, args...)}
}

func (f Finding) Severity() Severity { return f.severity }
func (f Finding) Path() string       { return f.path }
func (f Finding) Message() string    { return f.message }

func (f Finding) String() string {
	if f.path == "" {
		return fmt.Sprintf("%s: %s", f.severity, f.message)
	}
	return fmt.Sprintf("%s: %s: %s", f.severity, f.path, f.message)
}
