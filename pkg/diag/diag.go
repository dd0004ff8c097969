package diag

import (
	"fmt"
	"strings"
)

// Severity is how serious a diagnostic is.
type Severity uint8

const (
	SeverityWarning Severity = iota + 1
	SeverityError
)

// String returns "warning" or "error".
func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(b []byte) error {
	switch string(b) {
	case "warning":
		*s = SeverityWarning
	case "error":
		*s = SeverityError
	default:
		return fmt.Errorf("diag: unknown severity %q", b)
	}
	return nil
}

// Category groups diagnostics by where they come from.
type Category string

const (
	CategoryCompile Category = "compile"
	CategoryRuntime Category = "runtime"
	CategoryConfig  Category = "config"
)

// Location represents a source code location.
type Location struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column,omitempty"`
	Offset int    `json:"offset"`
}

// String returns the location as a formatted string.
func (l *Location) String() string {
	if l == nil {
		return ""
	}
	if l.Column > 0 {
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// LocationAt converts a byte offset in src into a 1-based line and column.
func LocationAt(file, src string, offset int) Location {
	if offset > len(src) {
		offset = len(src)
	}
	if offset < 0 {
		offset = 0
	}
	before := src[:offset]
	line := strings.Count(before, "\n") + 1
	col := offset - strings.LastIndexByte(before, '\n')
	return Location{File: file, Line: line, Column: col, Offset: offset}
}

// Diagnostic is one structured finding.
type Diagnostic struct {
	// Code is the registered identifier (e.g., "H001").
	Code string `json:"code,omitempty"`

	Severity Severity `json:"severity"`
	Category Category `json:"category,omitempty"`

	// Message is a short description.
	Message string `json:"message"`

	// Detail is a longer explanation.
	Detail string `json:"detail,omitempty"`

	// Location is where the finding was made, if known.
	Location *Location `json:"location,omitempty"`

	// Tag is the tag occurrence the finding refers to.
	Tag string `json:"tag,omitempty"`

	// Suggestion is a hint on how to fix it.
	Suggestion string `json:"suggestion,omitempty"`

	// DocURL links to documentation for the code.
	DocURL string `json:"docUrl,omitempty"`
}

// Error implements the error interface.
func (d *Diagnostic) Error() string {
	if d.Code != "" {
		return fmt.Sprintf("%s: %s", d.Code, d.Message)
	}
	return d.Message
}

// IsError reports whether the diagnostic is an error rather than a warning.
func (d *Diagnostic) IsError() bool {
	return d.Severity == SeverityError
}

// WithLocation sets the source location.
func (d *Diagnostic) WithLocation(loc Location) *Diagnostic {
	d.Location = &loc
	return d
}

// WithTag records the tag occurrence.
func (d *Diagnostic) WithTag(tag string) *Diagnostic {
	d.Tag = tag
	return d
}

// WithDetail replaces the detailed explanation.
func (d *Diagnostic) WithDetail(detail string) *Diagnostic {
	d.Detail = detail
	return d
}

// WithDetailf replaces the detailed explanation with a formatted one.
func (d *Diagnostic) WithDetailf(format string, args ...any) *Diagnostic {
	d.Detail = fmt.Sprintf(format, args...)
	return d
}

// WithSuggestion adds a fix suggestion.
func (d *Diagnostic) WithSuggestion(s string) *Diagnostic {
	d.Suggestion = s
	return d
}

// New creates a Diagnostic from a registered code.
func New(code string) *Diagnostic {
	tmpl, ok := registry[code]
	if !ok {
		return &Diagnostic{
			Code:     code,
			Severity: SeverityError,
			Message:  "Unknown diagnostic",
		}
	}
	return &Diagnostic{
		Code:     code,
		Severity: tmpl.Severity,
		Category: tmpl.Category,
		Message:  tmpl.Message,
		Detail:   tmpl.Detail,
		DocURL:   tmpl.DocURL,
	}
}

// Newf creates an uncoded Diagnostic with a formatted message.
func Newf(sev Severity, category Category, format string, args ...any) *Diagnostic {
	return &Diagnostic{
		Severity: sev,
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}
