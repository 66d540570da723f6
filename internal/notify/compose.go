package notify

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"
	"time"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Kind selects which of the two messages to render.
type Kind string

const (
	KindOperator       Kind = "operator"
	KindAcknowledgment Kind = "ack"
)

// Data is what the templates see. Fields hold plain (unescaped) values.
type Data struct {
	Form          string
	Name          string
	Fields        map[string]string
	SubmittedAt   time.Time
	ClientIP      string
	OperatorEmail string
}

var subjects = map[string]map[Kind]string{
	"application": {
		KindOperator:       "New Bootcamp Application - {{.Name}}",
		KindAcknowledgment: "Application Received - Kala-Klub Figma EDU Bootcamp",
	},
	"contact": {
		KindOperator:       "Contact Form: {{.Name}} - {{index .Fields \"subject\"}}",
		KindAcknowledgment: "We received your message - Kala-Klub",
	},
}

// Composer renders subjects and bodies for each form.
type Composer struct {
	loc    *time.Location
	bodies *template.Template
}

// NewComposer parses the embedded templates. Times render in loc (UTC if nil).
func NewComposer(loc *time.Location) (*Composer, error) {
	if loc == nil {
		loc = time.UTC
	}
	bodies, err := template.New("bodies").Funcs(placeholderFuncs()).ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Composer{loc: loc, bodies: bodies}, nil
}

// Render returns subject and body for form and kind.
func (c *Composer) Render(kind Kind, data Data) (string, string, error) {
	subjectSrc, ok := subjects[data.Form][kind]
	if !ok {
		return "", "", fmt.Errorf("no %s template for form %q", kind, data.Form)
	}
	funcs := c.funcs(data)

	subjectTmpl, err := template.New("subject").Funcs(funcs).Parse(subjectSrc)
	if err != nil {
		return "", "", fmt.Errorf("parse subject: %w", err)
	}
	var subject bytes.Buffer
	if err := subjectTmpl.Execute(&subject, data); err != nil {
		return "", "", fmt.Errorf("render subject: %w", err)
	}

	bodyTmpl, err := c.bodies.Clone()
	if err != nil {
		return "", "", fmt.Errorf("clone templates: %w", err)
	}
	var body bytes.Buffer
	name := fmt.Sprintf("%s_%s.tmpl", data.Form, kind)
	if err := bodyTmpl.Funcs(funcs).ExecuteTemplate(&body, name, data); err != nil {
		return "", "", fmt.Errorf("render %s: %w", name, err)
	}
	return headerSafe(subject.String()), trimBody(body.String()), nil
}

func (c *Composer) funcs(data Data) template.FuncMap {
	return template.FuncMap{
		"field": func(name string) string {
			return data.Fields[name]
		},
		"stamp": func(t time.Time) string {
			return t.In(c.loc).Format("2006-01-02 15:04:05")
		},
		"friendly": func(t time.Time) string {
			return t.In(c.loc).Format("January 2, 2006 at 3:04 PM")
		},
	}
}

// placeholderFuncs lets ParseFS resolve function names before Render binds them.
func placeholderFuncs() template.FuncMap {
	return template.FuncMap{
		"field":    func(string) string { return "" },
		"stamp":    func(time.Time) string { return "" },
		"friendly": func(time.Time) string { return "" },
	}
}

// trimBody drops leading blank lines some editors add to templates.
func trimBody(s string) string {
	return strings.TrimLeft(s, "\n")
}
