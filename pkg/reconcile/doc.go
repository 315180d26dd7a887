// Package reconcile compares what a registry reports about a package with
// what the package actually ships.
//
// [Compare] is pure: given a [manifest.Package] it returns one [Finding] per
// differing field, in the fixed order version, dependencies, scripts, name.
// Mapping fields carry a structural diff.
//
// [Auditor.Check] drives retrieval. In recursive mode it walks every
// dependency named in the shipped manifest, resolving each one's own latest
// version, and records the walk in a [dag.Graph]:
//
//	auditor := reconcile.NewAuditor(npm.NewClient(npm.Config{}), logger)
//	res, err := auditor.Check(ctx, "left-pad", reconcile.Options{Recursive: true})
//	if err != nil {
//	    return err // root not found, retries exhausted, canceled, ...
//	}
//	if res.Mismatch {
//	    // at least one examined package differs or did not resolve
//	}
package reconcile
