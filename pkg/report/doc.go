// Package report renders reconciliation results.
//
// The text renderer prints one headline per finding, such as
// "Dependency mismatch detected for left-pad!", followed unless brief by a
// detail block with both sides and, for mapping fields, "+", "-" and "~"
// diff lines. Color output maps each [Highlight] onto an ANSI style:
// headlines red, details yellow, clean packages green.
//
// JSON and YAML emit the whole [reconcile.Result], including the traversal
// graph.
package report
