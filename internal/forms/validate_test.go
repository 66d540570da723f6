package forms

import (
	"strings"
	"testing"
	"time"
)

func validApplication() map[string]string {
	return map[string]string{
		"first_name":       "Meera",
		"last_name":        "Iyer",
		"email":            "meera@example.com",
		"phone":            "+91 98765 43210",
		"cohort":           "March 2026",
		"experience_level": "beginner",
		"portfolio_url":    "https://meera.design",
		"motivation":       strings.Repeat("m", 50),
		"goals":            "Ship a case study",
		"time_commitment":  "yes",
		"heard_about":      "instagram",
		"additional_info":  "",
	}
}

func validContact() map[string]string {
	return map[string]string{
		"name":    "Arjun",
		"email":   "arjun@example.com",
		"subject": "Scholarships",
		"message": "Do you offer any scholarships?",
	}
}

func TestValidateAcceptsValidForms(t *testing.T) {
	if res := Application.Validate(Application.Sanitize(validApplication())); !res.Accepted() {
		t.Fatalf("expected application accepted, got %v", res)
	}
	if res := Contact.Validate(Contact.Sanitize(validContact())); !res.Accepted() {
		t.Fatalf("expected contact accepted, got %v", res)
	}
}

func TestValidateRequiredFields(t *testing.T) {
	for _, fd := range Application.Fields {
		if !fd.Required {
			continue
		}
		t.Run(fd.Name, func(t *testing.T) {
			raw := validApplication()
			raw[fd.Name] = "   "
			res := Application.Validate(Application.Sanitize(raw))
			msg, ok := res[fd.Name]
			if !ok {
				t.Fatalf("expected error for %s, got %v", fd.Name, res)
			}
			if want := "The " + fd.Label + " field is required."; msg != want {
				t.Fatalf("unexpected message %q, want %q", msg, want)
			}
		})
	}
}

func TestValidateTagOnlyValueCountsAsEmpty(t *testing.T) {
	raw := validContact()
	raw["name"] = "<b></b>"
	res := Contact.Validate(Contact.Sanitize(raw))
	if res["name"] != "The Name field is required." {
		t.Fatalf("expected required error, got %v", res)
	}
}

func TestValidateCollectsAllViolations(t *testing.T) {
	raw := validApplication()
	raw["email"] = "not-an-email"
	raw["phone"] = "12345"
	raw["portfolio_url"] = "meera dot design"
	raw["motivation"] = "too short"

	res := Application.Validate(Application.Sanitize(raw))
	want := map[string]string{
		"email":         MsgInvalidEmail,
		"phone":         MsgInvalidPhone,
		"portfolio_url": MsgInvalidURL,
		"motivation":    "Please provide a more detailed motivation (minimum 50 characters).",
	}
	if len(res) != len(want) {
		t.Fatalf("expected %d errors, got %v", len(want), res)
	}
	for field, msg := range want {
		if res[field] != msg {
			t.Fatalf("field %s: got %q, want %q", field, res[field], msg)
		}
	}
}

func TestIsEmail(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"a@b.com", true},
		{"first.last+tag@example.co.in", true},
		{"not-an-email", false},
		{"missing@", false},
		{"@example.com", false},
		{"two@@example.com", false},
	}
	for _, tt := range tests {
		if got := IsEmail(tt.in); got != tt.want {
			t.Fatalf("IsEmail(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestEmailRuleOnSanitizedValue(t *testing.T) {
	raw := validContact()
	raw["email"] = "not-an-email"
	res := Contact.Validate(Contact.Sanitize(raw))
	if res["email"] != MsgInvalidEmail {
		t.Fatalf("expected email format message, got %v", res)
	}

	raw["email"] = "a@b.com"
	res = Contact.Validate(Contact.Sanitize(raw))
	if _, ok := res["email"]; ok {
		t.Fatalf("expected no email error, got %v", res)
	}
}

func TestIsPhone(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"9876543210", true},
		{"+91 98765 43210", true},
		{"(555) 123-4567", true},
		{"555-1234", false},
		{"+12345678", false},
		{"phone: 12345 67890", true},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsPhone(tt.in); got != tt.want {
			t.Fatalf("IsPhone(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCleanPhoneKeepsOnlyLeadingPlus(t *testing.T) {
	if got := CleanPhone("+1 (555) 123+4567"); got != "+15551234567" {
		t.Fatalf("unexpected clean phone: %s", got)
	}
	if got := CleanPhone("555+123"); got != "555123" {
		t.Fatalf("unexpected clean phone: %s", got)
	}
}

func TestPhoneRevalidationNeverRejects(t *testing.T) {
	inputs := []string{"+91 98765 43210", "(555) 123-4567 ext", "0755-2345678", "+44 20 7946 0958"}
	for _, in := range inputs {
		sanitized := SanitizeValue(in)
		if !IsPhone(Plain(sanitized)) {
			t.Fatalf("expected %q accepted", in)
		}
		again := SanitizeValue(Plain(sanitized))
		if !IsPhone(Plain(again)) {
			t.Fatalf("revalidation rejected %q", again)
		}
		if !IsPhone(CleanPhone(in)) {
			t.Fatalf("cleaned phone rejected for %q", in)
		}
	}
}

func TestIsURL(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"https://meera.design", true},
		{"http://example.com/work?x=1&y=2", true},
		{"example.com", false},
		{"https://", false},
		{"not a url", false},
		{"mailto:hi@example.com", false},
	}
	for _, tt := range tests {
		if got := IsURL(tt.in); got != tt.want {
			t.Fatalf("IsURL(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestPortfolioURLIsOptional(t *testing.T) {
	raw := validApplication()
	raw["portfolio_url"] = ""
	if res := Application.Validate(Application.Sanitize(raw)); !res.Accepted() {
		t.Fatalf("expected accepted without portfolio, got %v", res)
	}
}

func TestMotivationMinimumLength(t *testing.T) {
	raw := validApplication()
	raw["motivation"] = strings.Repeat("a", 49)
	res := Application.Validate(Application.Sanitize(raw))
	if res["motivation"] != "Please provide a more detailed motivation (minimum 50 characters)." {
		t.Fatalf("expected min length message, got %v", res)
	}

	raw["motivation"] = strings.Repeat("a", 50)
	if res := Application.Validate(Application.Sanitize(raw)); !res.Accepted() {
		t.Fatalf("expected 50 characters accepted, got %v", res)
	}
}

func TestMinimumLengthCountsCharactersNotEntities(t *testing.T) {
	raw := validContact()
	raw["message"] = `"'"'"'"'"`
	res := Contact.Validate(Contact.Sanitize(raw))
	if res["message"] != "Please provide a more detailed message (minimum 10 characters)." {
		t.Fatalf("expected 9 quote characters to be too short, got %v", res)
	}

	raw["message"] = "नमस्ते दुनिया!!"
	if res := Contact.Validate(Contact.Sanitize(raw)); !res.Accepted() {
		t.Fatalf("expected multi-byte message accepted, got %v", res)
	}
}

func TestRowFollowsColumnOrder(t *testing.T) {
	sub := Contact.Sanitize(validContact())
	at := time.Date(2026, time.March, 2, 9, 30, 0, 0, time.UTC)
	row := Contact.Row(sub, at, "203.0.113.9")
	cols := Contact.Columns()

	if len(row) != len(cols) {
		t.Fatalf("row has %d values, columns %d", len(row), len(cols))
	}
	if row[0] != "2026-03-02 09:30:00" {
		t.Fatalf("unexpected timestamp: %s", row[0])
	}
	if cols[1] != "name" || row[1] != "Arjun" {
		t.Fatalf("unexpected first field: %s=%s", cols[1], row[1])
	}
	if cols[len(cols)-1] != "client_ip" || row[len(row)-1] != "203.0.113.9" {
		t.Fatalf("unexpected last column")
	}
}

func TestApplicationColumnsAreStable(t *testing.T) {
	want := []string{
		"timestamp", "first_name", "last_name", "email", "phone", "cohort",
		"experience_level", "portfolio_url", "motivation", "goals",
		"time_commitment", "heard_about", "additional_info", "client_ip",
	}
	got := Application.Columns()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("columns changed: %v", got)
	}
}

func TestSubmitterName(t *testing.T) {
	sub := Application.Sanitize(validApplication())
	if got := Application.SubmitterName(sub); got != "Meera Iyer" {
		t.Fatalf("unexpected name: %s", got)
	}
}
