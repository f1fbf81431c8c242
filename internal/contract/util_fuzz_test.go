package contract

import (
	"slices"
	"strings"
	"testing"
)

// FuzzParseNameList fuzzes ParseNameList with random comma-separated input.
func FuzzParseNameList(f *testing.F) {
	seeds := []string{
		"",
		"yield",
		"yield,active",
		" yield , ,active,yield ",
		",,,",
		"sprints_sized,\tsizing_consistent\n",
	}
	for _, seed := range seeds {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, input string) {
		names := ParseNameList(input)
		for i, name := range names {
			if name == "" || name != strings.TrimSpace(name) {
				t.Fatalf("untrimmed or empty name %q from %q", name, input)
			}
			if slices.Contains(names[:i], name) {
				t.Fatalf("duplicate name %q from %q", name, input)
			}
		}
	})
}
