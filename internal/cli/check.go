package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/matzehuels/manifestcheck/pkg/dag"
	"github.com/matzehuels/manifestcheck/pkg/integrations/npm"
	"github.com/matzehuels/manifestcheck/pkg/reconcile"
	"github.com/matzehuels/manifestcheck/pkg/report"
)

// checkOptions holds flags for the root check command.
type checkOptions struct {
	recursive bool
	brief     bool
	color     bool
	format    string
	maxDepth  int
	maxNodes  int
	graph     string
}

// checkCommand creates the command comparing a package's registry metadata
// with its published contents.
func (c *CLI) checkCommand() *cobra.Command {
	var opts checkOptions

	cmd := &cobra.Command{
		Use:   appName + " [flags] <package>",
		Short: "Detect npm packages whose registry metadata differs from their contents",
		Long: `manifestcheck compares the manifest the npm registry reports for a package's
latest version with the package.json actually shipped in that version.

Version, dependencies, scripts and name are compared. With --recursive every
dependency of the shipped manifest is checked as well, each at its own latest
version.

Exit status is 0 when nothing differs, 1 on any mismatch, 2 when the package
has no latest version and 3 on other errors.`,
		Example: `  # Check a single package
  manifestcheck left-pad

  # Walk all dependencies, headlines only, colored
  manifestcheck -r -b -c express

  # Machine-readable report plus a rendered dependency graph
  manifestcheck -r -f json --graph walk.svg express`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCheck(cmd.Context(), cmd.OutOrStdout(), args[0], opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.recursive, "recursive", "r", false, "check every dependency transitively")
	cmd.Flags().BoolVarP(&opts.brief, "brief", "b", false, "print headlines only")
	cmd.Flags().BoolVarP(&opts.color, "color", "c", false, "highlight output with ANSI colors")
	cmd.Flags().StringVarP(&opts.format, "format", "f", string(report.FormatText), "output format: text, json, yaml")
	cmd.Flags().IntVar(&opts.maxDepth, "max-depth", 0, "maximum walk depth (0 = unlimited)")
	cmd.Flags().IntVar(&opts.maxNodes, "max-nodes", 0, "maximum packages examined (0 = unlimited)")
	cmd.Flags().StringVar(&opts.graph, "graph", "", "write the traversal graph to a .dot or .svg file")

	return cmd
}

func (c *CLI) runCheck(ctx context.Context, w io.Writer, name string, opts checkOptions) error {
	logger := loggerFromContext(ctx)

	format, err := report.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	cfg, err := c.config()
	if err != nil {
		return err
	}

	auditor := reconcile.NewAuditor(npm.NewClient(cfg.npmConfig(logger)), logger)
	text := report.NewText(w, report.Options{Brief: opts.brief, Color: opts.color})

	checkOpts := reconcile.Options{
		Recursive: opts.recursive,
		MaxDepth:  opts.maxDepth,
		MaxNodes:  opts.maxNodes,
	}
	if format.Streams() {
		checkOpts.Visit = func(n reconcile.NodeResult) {
			if err := text.Node(n); err != nil {
				logger.Error("write report", "err", err)
			}
		}
	}

	res, err := auditor.Check(ctx, name, checkOpts)
	if err != nil {
		return err
	}
	logger.Debug("check complete", "run", res.RunID, "packages", len(res.Nodes), "mismatch", res.Mismatch)

	if format.Streams() {
		err = text.Summary(res)
	} else {
		err = report.Write(w, format, res, report.Options{})
	}
	if err != nil {
		return err
	}

	if opts.graph != "" {
		err := timed(logger, "Wrote traversal graph to "+opts.graph, func() error {
			return dag.WriteFile(ctx, res.Graph, opts.graph)
		})
		if err != nil {
			return err
		}
	}

	if res.Mismatch {
		return &ExitError{Code: ExitMismatch, Err: errMismatch}
	}
	return nil
}
