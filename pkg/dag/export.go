package dag

import (
	"encoding/json"
	"fmt"
)

// Snapshot is the serialization format of a [Graph], embedded in JSON and
// YAML reports.
type Snapshot struct {
	Nodes []Node `json:"nodes" yaml:"nodes"`
	Edges []Edge `json:"edges" yaml:"edges"`
}

// Export converts a graph to its serialization format. Nodes and edges keep
// walk order; metadata maps are copied so the snapshot is detached from g.
func Export(g *Graph) Snapshot {
	out := Snapshot{
		Nodes: make([]Node, 0, g.NodeCount()),
		Edges: g.Edges(),
	}
	for _, n := range g.Nodes() {
		out.Nodes = append(out.Nodes, Node{ID: n.ID, Row: n.Row, Meta: copyMeta(n.Meta)})
	}
	if out.Edges == nil {
		out.Edges = []Edge{}
	}
	return out
}

// Import rebuilds a graph from a snapshot.
func Import(s Snapshot) (*Graph, error) {
	g := New(nil)
	for _, n := range s.Nodes {
		n.Meta = copyMeta(n.Meta)
		if err := g.AddNode(n); err != nil {
			return nil, fmt.Errorf("add node %s: %w", n.ID, err)
		}
	}
	for _, e := range s.Edges {
		if err := g.AddEdge(e); err != nil {
			return nil, fmt.Errorf("add edge %s→%s: %w", e.From, e.To, err)
		}
	}
	return g, nil
}

// MarshalJSON encodes the graph as a [Snapshot].
func (g *Graph) MarshalJSON() ([]byte, error) {
	return json.Marshal(Export(g))
}

// UnmarshalJSON decodes a [Snapshot] into the graph.
func (g *Graph) UnmarshalJSON(data []byte) error {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	decoded, err := Import(s)
	if err != nil {
		return err
	}
	*g = *decoded
	return nil
}

// MarshalYAML encodes the graph as a [Snapshot].
func (g *Graph) MarshalYAML() (any, error) {
	return Export(g), nil
}

func copyMeta(m Metadata) Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
