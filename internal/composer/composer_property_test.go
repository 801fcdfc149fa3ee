//go:build property
// +build property

package composer

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestComposerProperties checks normalization invariants on generated layouts.
func TestComposerProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	layout := func(templates []string, subviews []string) map[string]any {
		rows := make([]any, 0, len(templates)+len(subviews))
		for _, tpl := range templates {
			rows = append(rows, map[string]any{"template": tpl})
		}
		for _, url := range subviews {
			if url == "" {
				rows = append(rows, map[string]any{"$subview": true})
				continue
			}
			rows = append(rows, map[string]any{"$subview": url})
		}
		return map[string]any{"rows": rows}
	}

	properties.Property("normalization is idempotent", prop.ForAll(
		func(templates []string, subviews []string) bool {
			first := New(Options{NewID: counterIDs()}).Normalize(layout(templates, subviews), Slots{})
			slots := Slots{}
			second := New(Options{NewID: counterIDs()}).Normalize(first, slots)
			return cmp.Equal(first, second) && len(slots) == 0
		},
		gen.SliceOf(gen.AlphaString()),
		gen.SliceOfN(3, gen.AlphaString()),
	))

	properties.Property("same source same structure", prop.ForAll(
		func(templates []string, subviews []string) bool {
			src := layout(templates, subviews)
			a := New(Options{NewID: counterIDs()}).Normalize(src, Slots{})
			b := New(Options{NewID: counterIDs()}).Normalize(src, Slots{})
			return cmp.Equal(a, b)
		},
		gen.SliceOf(gen.AlphaString()),
		gen.SliceOfN(3, gen.AlphaString()),
	))

	properties.Property("every marker becomes a slot", prop.ForAll(
		func(subviews []string) bool {
			slots := Slots{}
			named := make([]any, 0, len(subviews))
			for i, url := range subviews {
				named = append(named, map[string]any{
					"$subview": "page" + url,
					"name":     "slot" + string(rune('a'+i%26)) + url,
				})
			}
			New(Options{NewID: counterIDs()}).Normalize(map[string]any{"cols": named}, slots)
			unique := make(map[string]bool)
			for _, n := range named {
				unique[n.(map[string]any)["name"].(string)] = true
			}
			return len(slots) == len(unique)
		},
		gen.SliceOfN(5, gen.AlphaString()),
	))

	properties.TestingRun(t)
}
