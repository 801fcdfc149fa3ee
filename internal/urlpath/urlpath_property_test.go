//go:build property

package urlpath

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestURLRoundTripProperties checks that serialized paths reparse to the same segments.
func TestURLRoundTripProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(1357)
	parameters.MinSuccessfulTests = 500

	properties := gopter.NewProperties(parameters)

	alphabet := gen.OneConstOf("a", "b", "/", "?", "&", "=", ":", "%", "%2F", "+", " ", "z9", "%zz")

	properties.Property("parse(serialize(parse(p))) == parse(p)", prop.ForAll(
		func(parts []string) bool {
			path := strings.Join(parts, "")
			parsed := Parse(path)
			return parsed.Equal(Parse(Serialize(parsed)))
		},
		gen.SliceOf(alphabet),
	))

	properties.Property("arbitrary strings round trip", prop.ForAll(
		func(path string) bool {
			parsed := Parse(path)
			return parsed.Equal(Parse(parsed.String()))
		},
		gen.AnyString(),
	))

	properties.Property("parse never returns an empty url", prop.ForAll(
		func(path string) bool {
			return len(Parse(path)) > 0
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
