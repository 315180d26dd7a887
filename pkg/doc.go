// Package pkg provides the core libraries for manifestcheck.
//
// # Overview
//
// manifestcheck detects npm packages whose registry metadata disagrees with
// the package.json actually shipped in the published version. The pkg
// directory is organized as:
//
//  1. [integrations] - HTTP clients for the registry and file endpoints
//  2. [manifest] - The normalized four-field manifest and map diffs
//  3. [reconcile] - Field comparison and the dependency walk
//  4. [dag] - The traversal graph with DOT and SVG export
//  5. [report] - Text, JSON and YAML rendering
//  6. [httputil], [errors], [observability], [buildinfo] - Shared infrastructure
//
// # Data Flow
//
//	package name
//	     ↓
//	registry document → reported manifest (dist-tags.latest)
//	     ↓
//	file index → /package.json hex → actual manifest
//	     ↓
//	reconcile.Compare → findings → report
//
// # Example
//
//	client := npm.NewClient(npm.Config{})
//	auditor := reconcile.NewAuditor(client, logger)
//	res, err := auditor.Check(ctx, "left-pad", reconcile.Options{Recursive: true})
//	if err != nil {
//	    return err
//	}
//	report.Write(os.Stdout, report.FormatText, res, report.Options{Color: true})
//
// [integrations]: https://pkg.go.dev/github.com/matzehuels/manifestcheck/pkg/integrations
// [manifest]: https://pkg.go.dev/github.com/matzehuels/manifestcheck/pkg/manifest
// [reconcile]: https://pkg.go.dev/github.com/matzehuels/manifestcheck/pkg/reconcile
// [dag]: https://pkg.go.dev/github.com/matzehuels/manifestcheck/pkg/dag
// [report]: https://pkg.go.dev/github.com/matzehuels/manifestcheck/pkg/report
// [httputil]: https://pkg.go.dev/github.com/matzehuels/manifestcheck/pkg/httputil
// [errors]: https://pkg.go.dev/github.com/matzehuels/manifestcheck/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/manifestcheck/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/manifestcheck/pkg/buildinfo
package pkg
