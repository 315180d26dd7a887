package manifest

import (
	"maps"
	"slices"
)

// Entry is one key/value pair of a mapping field.
type Entry struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// Change is a key present on both sides with different values.
type Change struct {
	Key      string `json:"key" yaml:"key"`
	Reported string `json:"reported" yaml:"reported"`
	Actual   string `json:"actual" yaml:"actual"`
}

// MapDiff describes how the actual mapping differs from the reported one.
// Added keys exist only in actual, Removed keys only in reported. All slices
// are sorted by key.
type MapDiff struct {
	Added   []Entry  `json:"added,omitempty" yaml:"added,omitempty"`
	Removed []Entry  `json:"removed,omitempty" yaml:"removed,omitempty"`
	Changed []Change `json:"changed,omitempty" yaml:"changed,omitempty"`
}

// Empty reports whether the two mappings were equal.
func (d MapDiff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

// DiffMaps computes the structural difference from reported to actual.
func DiffMaps(reported, actual map[string]string) MapDiff {
	var d MapDiff
	for _, k := range slices.Sorted(maps.Keys(actual)) {
		rv, ok := reported[k]
		switch {
		case !ok:
			d.Added = append(d.Added, Entry{Key: k, Value: actual[k]})
		case rv != actual[k]:
			d.Changed = append(d.Changed, Change{Key: k, Reported: rv, Actual: actual[k]})
		}
	}
	for _, k := range slices.Sorted(maps.Keys(reported)) {
		if _, ok := actual[k]; !ok {
			d.Removed = append(d.Removed, Entry{Key: k, Value: reported[k]})
		}
	}
	return d
}
