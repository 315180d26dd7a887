package manifest

import (
	"maps"
	"slices"
)

// Manifest is the normalized four-field description of one package version.
// Dependencies and Scripts are never nil after [New] or [Normalize].
type Manifest struct {
	Name         string            `json:"name" yaml:"name"`
	Version      string            `json:"version" yaml:"version"`
	Dependencies map[string]string `json:"dependencies" yaml:"dependencies"`
	Scripts      map[string]string `json:"scripts" yaml:"scripts"`
}

// New builds a Manifest, substituting empty maps for nil ones.
func New(name, version string, deps, scripts map[string]string) Manifest {
	return Manifest{
		Name:         name,
		Version:      version,
		Dependencies: orEmpty(deps),
		Scripts:      orEmpty(scripts),
	}
}

// Normalize returns m with nil maps replaced by empty maps.
func (m Manifest) Normalize() Manifest {
	m.Dependencies = orEmpty(m.Dependencies)
	m.Scripts = orEmpty(m.Scripts)
	return m
}

// DependencyNames returns the dependency names in sorted order.
func (m Manifest) DependencyNames() []string {
	return slices.Sorted(maps.Keys(m.Dependencies))
}

func orEmpty(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

// Package pairs a package name with what the registry reports about its
// latest version and what that version's published contents declare.
//
// Actual is always fetched for Reported.Version: the check asks whether the
// contents match the registry's own claim, not what the true latest is.
type Package struct {
	Name     string   `json:"name" yaml:"name"`
	Reported Manifest `json:"reported" yaml:"reported"`
	Actual   Manifest `json:"actual" yaml:"actual"`
}

// NewPackage pairs two already retrieved manifests.
func NewPackage(name string, reported, actual Manifest) Package {
	return Package{
		Name:     name,
		Reported: reported.Normalize(),
		Actual:   actual.Normalize(),
	}
}
