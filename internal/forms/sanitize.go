package forms

import (
	"html"
	"strings"

	xhtml "golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

// Sanitize keeps only declared fields and cleans each value: trim, strip
// markup, normalize to NFC, then HTML-escape. Missing fields become "".
func (f *Form) Sanitize(raw map[string]string) Submission {
	sub := make(Submission, len(f.Fields))
	for _, fd := range f.Fields {
		sub[fd.Name] = SanitizeValue(raw[fd.Name])
	}
	return sub
}

// SanitizeValue cleans a single value.
func SanitizeValue(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	v = StripTags(v)
	v = norm.NFC.String(strings.TrimSpace(v))
	return html.EscapeString(v)
}

// StripTags drops every tag, comment and doctype from s and returns the text
// content with entities decoded.
func StripTags(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	z := xhtml.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	for {
		switch z.Next() {
		case xhtml.ErrorToken:
			// io.EOF or a malformed trailing tag; either way the text so far is the result.
			return b.String()
		case xhtml.TextToken:
			b.Write(z.Text())
		}
	}
}

// Plain reverses the escaping done by Sanitize.
func Plain(v string) string {
	return html.UnescapeString(v)
}
