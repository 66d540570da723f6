// Package forms declares the site's forms and turns raw posted values into
// sanitized, validated submissions.
package forms

import (
	"strings"
	"time"
)

// Rule is a per-field check applied after the required check.
type Rule int

const (
	RuleNone Rule = iota
	RuleEmail
	RulePhone
	RuleURL
)

// TrapField is the hidden input real visitors never fill in.
const TrapField = "website"

// RecordTimeLayout is the timestamp layout of the first record column.
const RecordTimeLayout = "2006-01-02 15:04:05"

// Field describes one declared input.
type Field struct {
	Name      string
	Label     string
	Required  bool
	Rule      Rule
	MinLength int
}

// Form is a declared form: its fields in record column order plus the
// metadata the pipeline needs.
type Form struct {
	Name   string
	Fields []Field
	// MinLengthMessage is used for any field with MinLength > 0.
	MinLengthMessage string
	// EmailField holds the submitter's address, NameFields their display name.
	EmailField string
	NameFields []string
}

// Submission is a sanitized field map. Only declared fields are present.
type Submission map[string]string

// Field returns the field named name and whether it is declared.
func (f *Form) Field(name string) (Field, bool) {
	for _, fd := range f.Fields {
		if fd.Name == name {
			return fd, true
		}
	}
	return Field{}, false
}

// Columns returns the record header: timestamp, fields in order, client_ip.
// New fields must be appended to Fields so existing lines stay parseable.
func (f *Form) Columns() []string {
	cols := make([]string, 0, len(f.Fields)+2)
	cols = append(cols, "timestamp")
	for _, fd := range f.Fields {
		cols = append(cols, fd.Name)
	}
	return append(cols, "client_ip")
}

// Row lays a submission out in column order.
func (f *Form) Row(sub Submission, at time.Time, clientIP string) []string {
	row := make([]string, 0, len(f.Fields)+2)
	row = append(row, at.Format(RecordTimeLayout))
	for _, fd := range f.Fields {
		row = append(row, sub[fd.Name])
	}
	return append(row, clientIP)
}

// SubmitterName joins the name fields of sub.
func (f *Form) SubmitterName(sub Submission) string {
	parts := make([]string, 0, len(f.NameFields))
	for _, name := range f.NameFields {
		if v := strings.TrimSpace(sub[name]); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

// IsSpam reports whether the raw post filled in the trap field.
func IsSpam(raw map[string]string) bool {
	return raw[TrapField] != ""
}

// Application is the bootcamp application form.
var Application = &Form{
	Name: "application",
	Fields: []Field{
		{Name: "first_name", Label: "First Name", Required: true},
		{Name: "last_name", Label: "Last Name", Required: true},
		{Name: "email", Label: "Email", Required: true, Rule: RuleEmail},
		{Name: "phone", Label: "Phone", Required: true, Rule: RulePhone},
		{Name: "cohort", Label: "Preferred Cohort", Required: true},
		{Name: "experience_level", Label: "Experience Level", Required: true},
		{Name: "portfolio_url", Label: "Portfolio URL", Rule: RuleURL},
		{Name: "motivation", Label: "Motivation", Required: true, MinLength: 50},
		{Name: "goals", Label: "Goals"},
		{Name: "time_commitment", Label: "Time Commitment", Required: true},
		{Name: "heard_about", Label: "How You Heard About Us"},
		{Name: "additional_info", Label: "Additional Information"},
	},
	MinLengthMessage: "Please provide a more detailed motivation (minimum %d characters).",
	EmailField:       "email",
	NameFields:       []string{"first_name", "last_name"},
}

// Contact is the general contact form.
var Contact = &Form{
	Name: "contact",
	Fields: []Field{
		{Name: "name", Label: "Name", Required: true},
		{Name: "email", Label: "Email", Required: true, Rule: RuleEmail},
		{Name: "subject", Label: "Subject", Required: true},
		{Name: "message", Label: "Message", Required: true, MinLength: 10},
	},
	MinLengthMessage: "Please provide a more detailed message (minimum %d characters).",
	EmailField:       "email",
	NameFields:       []string{"name"},
}
