// Package incidents holds the incident vocabulary shared by the loader, the
// store and the chart pipeline: the closed grade/category/field sets, the
// derived severity score and the on-disk date format.
package incidents

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Row is one accepted CSV line, fields in positional order and untyped.
type Row struct {
	IncidentID string
	Date       string
	Category   string
	Grade      string
	Severity   string
	System     string
}

// Observation is a raw (date, value) pair read back for one category.
type Observation struct {
	Date  time.Time
	Value string
}

type Grade int

const (
	GradeUnknown Grade = iota
	GradeFalsePositive
	GradeBenignPositive
	GradeTruePositive
)

var gradeNames = map[Grade]string{
	GradeTruePositive:   "TruePositive",
	GradeBenignPositive: "BenignPositive",
	GradeFalsePositive:  "FalsePositive",
	GradeUnknown:        "Unknown",
}

func ParseGrade(s string) Grade {
	switch strings.TrimSpace(s) {
	case "TruePositive":
		return GradeTruePositive
	case "BenignPositive":
		return GradeBenignPositive
	case "FalsePositive":
		return GradeFalsePositive
	default:
		return GradeUnknown
	}
}

// Score is 3 for TruePositive down to 0 for anything unrecognised.
func (g Grade) Score() int {
	switch g {
	case GradeTruePositive:
		return 3
	case GradeBenignPositive:
		return 2
	case GradeFalsePositive:
		return 1
	default:
		return 0
	}
}

func (g Grade) String() string {
	if name, ok := gradeNames[g]; ok {
		return name
	}
	return gradeNames[GradeUnknown]
}

type Category int

const (
	CategoryOther Category = iota
	CategoryReconnaissance
	CategoryInitialAccess
	CategoryExecution
	CategoryExfiltration
	CategoryCommandAndControl
)

func ParseCategory(s string) Category {
	switch strings.TrimSpace(s) {
	case "CommandAndControl":
		return CategoryCommandAndControl
	case "Exfiltration":
		return CategoryExfiltration
	case "Execution":
		return CategoryExecution
	case "InitialAccess":
		return CategoryInitialAccess
	case "Reconnaissance":
		return CategoryReconnaissance
	default:
		return CategoryOther
	}
}

func (c Category) Score() int {
	switch c {
	case CategoryCommandAndControl:
		return 5
	case CategoryExfiltration:
		return 4
	case CategoryExecution:
		return 3
	case CategoryInitialAccess:
		return 2
	case CategoryReconnaissance:
		return 1
	default:
		return 0
	}
}

func (c Category) String() string {
	switch c {
	case CategoryCommandAndControl:
		return "CommandAndControl"
	case CategoryExfiltration:
		return "Exfiltration"
	case CategoryExecution:
		return "Execution"
	case CategoryInitialAccess:
		return "InitialAccess"
	case CategoryReconnaissance:
		return "Reconnaissance"
	default:
		return "Other"
	}
}

// Severity is the combined score written by the offline preprocessing step.
func Severity(grade Grade, category Category) int {
	return grade.Score() + category.Score()
}

var ErrUnknownField = errors.New("unknown field")

// Field is a chartable incident column.
type Field string

const (
	FieldSeverity Field = "severity"
	FieldGrade    Field = "grade"
)

// Fields lists chartable fields in display order.
var Fields = []Field{FieldSeverity, FieldGrade}

func ParseField(s string) (Field, error) {
	switch Field(strings.ToLower(strings.TrimSpace(s))) {
	case FieldSeverity:
		return FieldSeverity, nil
	case FieldGrade:
		return FieldGrade, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownField, s)
	}
}

// Column is the incidents table column backing the field.
func (f Field) Column() string {
	return string(f)
}

// Label names the field on the metric picker.
func (f Field) Label() string {
	switch f {
	case FieldGrade:
		return "Malicious Grade Type"
	default:
		return "Incident Severity"
	}
}

// Title is the capitalised field name used on the chart y-axis.
func (f Field) Title() string {
	s := string(f)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

const (
	DateLayout      = "01/02/06"
	dateParseLayout = "1/2/06"
)

// ParseDate reads the MM/DD/YY storage format; single-digit month and day
// are accepted.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateParseLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
