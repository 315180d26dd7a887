package reconcile

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/matzehuels/manifestcheck/pkg/manifest"
)

// Field names one compared manifest field.
type Field string

const (
	FieldVersion      Field = "version"
	FieldDependencies Field = "dependencies"
	FieldScripts      Field = "scripts"
	FieldName         Field = "name"
)

// Fields lists the compared fields in comparison order.
var Fields = []Field{FieldVersion, FieldDependencies, FieldScripts, FieldName}

// IsMap reports whether the field holds a name→value mapping.
func (f Field) IsMap() bool {
	return f == FieldDependencies || f == FieldScripts
}

// Finding is one field that differs between a package's reported and
// actual manifests. Scalar fields carry the literal values; mapping fields
// carry both sides in rendered form plus a structural Diff.
type Finding struct {
	Field    Field             `json:"field" yaml:"field"`
	Package  string            `json:"package" yaml:"package"`
	Reported string            `json:"reported" yaml:"reported"`
	Actual   string            `json:"actual" yaml:"actual"`
	Diff     *manifest.MapDiff `json:"diff,omitempty" yaml:"diff,omitempty"`
	Note     string            `json:"note,omitempty" yaml:"note,omitempty"`
}

// Compare checks pkg's reported manifest against its actual manifest, field
// by field in the order of [Fields]. It performs no I/O and returns nil when
// both manifests agree.
func Compare(pkg manifest.Package) []Finding {
	r, a := pkg.Reported.Normalize(), pkg.Actual.Normalize()

	var findings []Finding
	if r.Version != a.Version {
		findings = append(findings, Finding{
			Field:    FieldVersion,
			Package:  pkg.Name,
			Reported: r.Version,
			Actual:   a.Version,
			Note:     versionNote(r.Version, a.Version),
		})
	}
	if f, ok := compareMaps(FieldDependencies, pkg.Name, r.Dependencies, a.Dependencies); ok {
		findings = append(findings, f)
	}
	if f, ok := compareMaps(FieldScripts, pkg.Name, r.Scripts, a.Scripts); ok {
		findings = append(findings, f)
	}
	if r.Name != a.Name {
		findings = append(findings, Finding{
			Field:    FieldName,
			Package:  pkg.Name,
			Reported: r.Name,
			Actual:   a.Name,
		})
	}
	return findings
}

// Mismatch reports whether any finding is present.
func Mismatch(findings []Finding) bool { return len(findings) > 0 }

func compareMaps(field Field, pkg string, reported, actual map[string]string) (Finding, bool) {
	if maps.Equal(reported, actual) {
		return Finding{}, false
	}
	diff := manifest.DiffMaps(reported, actual)
	return Finding{
		Field:    field,
		Package:  pkg,
		Reported: FormatMap(reported),
		Actual:   FormatMap(actual),
		Diff:     &diff,
	}, true
}

// FormatMap renders a mapping as "{k: v, ...}" with sorted keys.
func FormatMap(m map[string]string) string {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range slices.Sorted(maps.Keys(m)) {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %s", k, m[k])
	}
	b.WriteByte('}')
	return b.String()
}

// versionNote describes how the shipped version relates to the advertised
// one when both parse as semantic versions.
func versionNote(reported, actual string) string {
	rv, err := semver.NewVersion(reported)
	if err != nil {
		return ""
	}
	av, err := semver.NewVersion(actual)
	if err != nil {
		return ""
	}
	switch rv.Compare(av) {
	case 1:
		return fmt.Sprintf("contents ship an older version (%s < %s)", actual, reported)
	case -1:
		return fmt.Sprintf("contents ship a newer version (%s > %s)", actual, reported)
	default:
		return "versions are semantically equal but spelled differently"
	}
}
