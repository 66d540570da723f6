package forms

import (
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// Messages shared by both forms.
const (
	MsgRequiredFormat = "The %s field is required."
	MsgInvalidEmail   = "Please enter a valid email address."
	MsgInvalidPhone   = "Please enter a valid phone number."
	MsgInvalidURL     = "Please enter a valid URL."
)

// MinPhoneDigits is the shortest accepted phone after cleaning.
const MinPhoneDigits = 10

// Result maps field names to messages. An empty Result means accepted.
type Result map[string]string

// Accepted reports whether no rule failed.
func (r Result) Accepted() bool { return len(r) == 0 }

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func formatValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

// Validate applies every field's rules to sub and collects all failures,
// one message per field.
func (f *Form) Validate(sub Submission) Result {
	res := Result{}
	for _, fd := range f.Fields {
		if msg := f.check(fd, sub[fd.Name]); msg != "" {
			res[fd.Name] = msg
		}
	}
	return res
}

func (f *Form) check(fd Field, value string) string {
	text := strings.TrimSpace(Plain(value))
	if text == "" {
		if fd.Required {
			return fmt.Sprintf(MsgRequiredFormat, fd.Label)
		}
		return ""
	}
	switch fd.Rule {
	case RuleEmail:
		if !IsEmail(text) {
			return MsgInvalidEmail
		}
	case RulePhone:
		if !IsPhone(text) {
			return MsgInvalidPhone
		}
	case RuleURL:
		if !IsURL(text) {
			return MsgInvalidURL
		}
	}
	if fd.MinLength > 0 && utf8.RuneCountInString(text) < fd.MinLength {
		return fmt.Sprintf(f.MinLengthMessage, fd.MinLength)
	}
	return ""
}

// IsEmail reports whether s is a syntactically valid mailbox.
func IsEmail(s string) bool {
	return formatValidator().Var(s, "required,email") == nil
}

// IsURL reports whether s is an absolute URL with a scheme and host.
func IsURL(s string) bool {
	return formatValidator().Var(s, "required,url") == nil && hasHost(s)
}

func hasHost(s string) bool {
	i := strings.Index(s, "://")
	if i <= 0 {
		return false
	}
	rest := s[i+3:]
	if j := strings.IndexAny(rest, "/?#"); j >= 0 {
		rest = rest[:j]
	}
	return rest != ""
}

// CleanPhone keeps digits plus a leading '+'.
func CleanPhone(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && b.Len() == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsPhone reports whether s has at least MinPhoneDigits characters once cleaned.
func IsPhone(s string) bool {
	return len(CleanPhone(s)) >= MinPhoneDigits
}
