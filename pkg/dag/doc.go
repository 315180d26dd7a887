// Package dag records the packages examined during a reconciliation walk and
// the dependency edges between them.
//
// # Overview
//
// Each examined package becomes a [Node] whose Row is the depth at which it
// was first reached. Metadata carries the resolved version and the verdict
// under [MetaVersion] and [MetaStatus]. Edges are recorded for every declared
// dependency, including edges back to packages that were already examined,
// so a [Graph] may contain cycles. Use [Graph.HasCycle] to detect them.
//
//	g := dag.New(nil)
//	_ = g.AddNode(dag.Node{ID: "app", Meta: dag.Metadata{dag.MetaStatus: dag.StatusOK}})
//	_ = g.AddNode(dag.Node{ID: "lib", Row: 1})
//	_ = g.AddEdge(dag.Edge{From: "app", To: "lib"})
//
// # Export
//
// [ToDOT] produces Graphviz source with nodes filled by verdict, [RenderSVG]
// renders it through the embedded Graphviz library, and [WriteFile] picks the
// format from the file extension. [Export] returns the [Snapshot] embedded in
// JSON and YAML reports.
package dag
