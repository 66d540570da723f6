//go:build property

package forms

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestValidationProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(1357)
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("accepted phones are accepted again, raw or cleaned", prop.ForAll(
		func(s string) bool {
			stored := Plain(SanitizeValue(s))
			if !IsPhone(stored) {
				return true
			}
			return IsPhone(stored) && IsPhone(CleanPhone(stored))
		},
		gen.AnyString(),
	))

	properties.Property("phone cleaning is idempotent", prop.ForAll(
		func(s string) bool {
			once := CleanPhone(s)
			return CleanPhone(once) == once
		},
		gen.AnyString(),
	))

	properties.Property("sanitize is idempotent", prop.ForAll(
		func(s string) bool {
			once := SanitizeValue(s)
			return SanitizeValue(once) == once
		},
		gen.AlphaString(),
	))

	properties.Property("empty required field always rejected", prop.ForAll(
		func(idx int, blankIdx int) bool {
			blanks := []string{"", " ", "\t", "\n  ", "<p></p>"}
			blank := blanks[blankIdx]
			fd := Contact.Fields[idx%len(Contact.Fields)]
			raw := map[string]string{
				"name":    "Arjun",
				"email":   "arjun@example.com",
				"subject": "Hi",
				"message": "long enough message",
			}
			raw[fd.Name] = blank
			_, rejected := Contact.Validate(Contact.Sanitize(raw))[fd.Name]
			return rejected
		},
		gen.IntRange(0, 100),
		gen.IntRange(0, 4),
	))

	properties.TestingRun(t)
}
