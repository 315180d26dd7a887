package reconcile

import (
	"context"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/manifestcheck/pkg/dag"
	apperrors "github.com/matzehuels/manifestcheck/pkg/errors"
	"github.com/matzehuels/manifestcheck/pkg/integrations"
	"github.com/matzehuels/manifestcheck/pkg/manifest"
	"github.com/matzehuels/manifestcheck/pkg/observability"
)

// Fetcher retrieves both sides of a package. FetchActual is always called
// with the version FetchReported returned.
type Fetcher interface {
	FetchReported(ctx context.Context, pkg string) (manifest.Manifest, error)
	FetchActual(ctx context.Context, pkg, version string) (manifest.Manifest, error)
}

// Visitor receives each node result as soon as it is computed.
type Visitor func(NodeResult)

// Options configures a check.
type Options struct {
	Recursive bool    // Examine every dependency of the shipped manifest transitively
	MaxDepth  int     // Maximum walk depth; 0 means unlimited
	MaxNodes  int     // Maximum packages examined; 0 means unlimited
	Visit     Visitor // Optional streaming callback
}

// NodeResult is the verdict for one examined package.
type NodeResult struct {
	Package    string    `json:"package" yaml:"package"`
	Version    string    `json:"version,omitempty" yaml:"version,omitempty"`
	Parent     string    `json:"parent,omitempty" yaml:"parent,omitempty"`
	Depth      int       `json:"depth" yaml:"depth"`
	Findings   []Finding `json:"findings" yaml:"findings"`
	Mismatch   bool      `json:"mismatch" yaml:"mismatch"`
	Unresolved bool      `json:"unresolved,omitempty" yaml:"unresolved,omitempty"`
	Invalid    bool      `json:"invalid_name,omitempty" yaml:"invalid_name,omitempty"`
	Error      string    `json:"error,omitempty" yaml:"error,omitempty"`
}

// Status maps the node verdict onto the traversal graph status values.
func (n NodeResult) Status() string {
	switch {
	case n.Unresolved:
		return dag.StatusUnresolved
	case n.Mismatch:
		return dag.StatusMismatch
	default:
		return dag.StatusOK
	}
}

// Result is the outcome of one check. Mismatch is the OR of every node's
// verdict; an unresolved dependency counts as a mismatch.
type Result struct {
	RunID     uuid.UUID     `json:"run_id" yaml:"run_id"`
	Root      string        `json:"root" yaml:"root"`
	Recursive bool          `json:"recursive" yaml:"recursive"`
	StartedAt time.Time     `json:"started_at" yaml:"started_at"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
	Mismatch  bool          `json:"mismatch" yaml:"mismatch"`
	Truncated bool          `json:"truncated,omitempty" yaml:"truncated,omitempty"`
	Nodes     []NodeResult  `json:"nodes" yaml:"nodes"`
	Graph     *dag.Graph    `json:"graph" yaml:"graph"`
}

// Auditor runs checks against a Fetcher.
type Auditor struct {
	fetcher Fetcher
	logger  *log.Logger
}

// NewAuditor creates an Auditor. A nil logger discards output.
func NewAuditor(fetcher Fetcher, logger *log.Logger) *Auditor {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Auditor{fetcher: fetcher, logger: logger}
}

// FetchPackage retrieves the reported manifest of name's latest version and
// then the actual manifest shipped for that same version.
func (a *Auditor) FetchPackage(ctx context.Context, name string) (manifest.Package, error) {
	reported, err := a.fetcher.FetchReported(ctx, name)
	if err != nil {
		return manifest.Package{}, err
	}
	actual, err := a.fetcher.FetchActual(ctx, name, reported.Version)
	if err != nil {
		return manifest.Package{}, err
	}
	return manifest.NewPackage(name, reported, actual), nil
}

// Check examines name and, in recursive mode, every package reachable
// through the shipped dependency lists.
//
// The walk is depth-first over an explicit stack with siblings taken in
// sorted order. Each package name is examined at most once; later edges to
// it are still recorded in the graph, so cycles terminate. A root that does
// not resolve is returned as a PACKAGE_NOT_FOUND error. A dependency that
// does not resolve is recorded as an unresolved node and the walk goes on.
// Any other error aborts the walk.
func (a *Auditor) Check(ctx context.Context, name string, opts Options) (*Result, error) {
	name = integrations.NormalizePkgName(name)
	if err := apperrors.ValidatePackageName(name); err != nil {
		return nil, err
	}

	hooks := observability.Check()
	hooks.OnCheckStart(ctx, name)

	res := &Result{
		RunID:     uuid.New(),
		Root:      name,
		Recursive: opts.Recursive,
		StartedAt: time.Now(),
	}
	res.Graph = dag.New(dag.Metadata{"root": name, "run_id": res.RunID.String()})

	w := &walk{auditor: a, opts: opts, res: res, visited: make(map[string]bool)}
	err := w.run(ctx, name)

	res.Duration = time.Since(res.StartedAt)
	hooks.OnCheckComplete(ctx, name, res.Mismatch, res.Duration, err)
	if err != nil {
		return nil, err
	}
	if res.Graph.HasCycle() {
		a.logger.Debug("dependency cycle in walk", "root", name)
	}
	return res, nil
}

type frame struct {
	name   string
	parent string
	depth  int
}

type walk struct {
	auditor *Auditor
	opts    Options
	res     *Result
	visited map[string]bool
}

func (w *walk) run(ctx context.Context, root string) error {
	stack := []frame{{name: root}}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if w.visited[f.name] {
			if err := w.res.Graph.AddEdge(dag.Edge{From: nodeID(f.parent), To: nodeID(f.name)}); err != nil {
				return graphErr(err, f.parent, f.name)
			}
			continue
		}
		if w.opts.MaxNodes > 0 && len(w.visited) >= w.opts.MaxNodes {
			w.res.Truncated = true
			continue
		}
		w.visited[f.name] = true

		node, pkg, err := w.examine(ctx, f)
		if err != nil {
			return err
		}
		if err := w.record(ctx, node); err != nil {
			return err
		}

		if !w.opts.Recursive || node.Unresolved {
			continue
		}
		deps := pkg.Actual.DependencyNames()
		if len(deps) == 0 {
			continue
		}
		if w.opts.MaxDepth > 0 && f.depth >= w.opts.MaxDepth {
			w.res.Truncated = true
			continue
		}
		for _, dep := range slices.Backward(deps) {
			stack = append(stack, frame{name: dep, parent: f.name, depth: f.depth + 1})
		}
	}
	return nil
}

func (w *walk) examine(ctx context.Context, f frame) (NodeResult, manifest.Package, error) {
	logger := w.auditor.logger.With("package", f.name)
	logger.Debug("examining package", "depth", f.depth)

	node := NodeResult{Package: f.name, Parent: f.parent, Depth: f.depth, Findings: []Finding{}}
	if f.depth > 0 {
		// Dependency names come from the shipped manifest and are untrusted.
		if err := apperrors.ValidatePackageName(f.name); err != nil {
			logger.Warn("dependency name is not a valid package name", "parent", f.parent, "err", err)
			node.Unresolved = true
			node.Invalid = true
			node.Mismatch = true
			node.Error = apperrors.UserMessage(err)
			return node, manifest.Package{}, nil
		}
	}
	pkg, err := w.auditor.FetchPackage(ctx, f.name)
	if err != nil {
		if f.depth == 0 || apperrors.GetCode(err) != apperrors.ErrCodePackageNotFound {
			return NodeResult{}, manifest.Package{}, err
		}
		logger.Warn("dependency has no latest version", "parent", f.parent)
		node.Unresolved = true
		node.Mismatch = true
		node.Error = apperrors.UserMessage(err)
		return node, manifest.Package{}, nil
	}

	node.Version = pkg.Reported.Version
	if findings := Compare(pkg); findings != nil {
		node.Findings = findings
		node.Mismatch = true
	}
	logger.Debug("package examined", "version", node.Version, "findings", len(node.Findings))
	return node, pkg, nil
}

func (w *walk) record(ctx context.Context, node NodeResult) error {
	meta := dag.Metadata{
		dag.MetaStatus:   node.Status(),
		dag.MetaFindings: len(node.Findings),
	}
	if node.Version != "" {
		meta[dag.MetaVersion] = node.Version
	}
	if err := w.res.Graph.AddNode(dag.Node{ID: nodeID(node.Package), Row: node.Depth, Meta: meta}); err != nil {
		return graphErr(err, "", node.Package)
	}
	if node.Depth > 0 {
		if err := w.res.Graph.AddEdge(dag.Edge{From: nodeID(node.Parent), To: nodeID(node.Package)}); err != nil {
			return graphErr(err, node.Parent, node.Package)
		}
	}

	w.res.Nodes = append(w.res.Nodes, node)
	w.res.Mismatch = w.res.Mismatch || node.Mismatch
	observability.Check().OnPackageExamined(ctx, node.Package, node.Status())
	if w.opts.Visit != nil {
		w.opts.Visit(node)
	}
	return nil
}

// nodeID is the graph ID of a package. Only a malformed manifest can name
// the empty package, which is shown quoted.
func nodeID(name string) string {
	if name == "" {
		return `""`
	}
	return name
}

func graphErr(err error, from, to string) error {
	if from == "" {
		return apperrors.Wrap(apperrors.ErrCodeInternal, err, "record %q in traversal graph", to)
	}
	return apperrors.Wrap(apperrors.ErrCodeInternal, err, "record edge %q -> %q in traversal graph", from, to)
}
