// Package manifest defines the normalized package manifest and the
// reported/actual pair that manifestcheck compares.
//
// A [Manifest] carries the four fields that matter for tampering checks:
// name, version, dependencies and scripts. Both data sources (registry
// metadata and published file contents) are reduced to this shape so they
// can be compared uniformly. Absent dependency or script fields become empty
// maps, never nil, so two sources that both omit scripts compare equal.
//
// [DiffMaps] reports how the actual mapping departs from the reported one:
//
//	d := manifest.DiffMaps(
//	    map[string]string{},
//	    map[string]string{"leftpad-core": "^2.0.0"},
//	)
//	// d.Added == []Entry{{Key: "leftpad-core", Value: "^2.0.0"}}
package manifest
