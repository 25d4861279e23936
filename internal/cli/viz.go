package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/figtreehq/figtree/pkg/errors"
	"github.com/figtreehq/figtree/pkg/pipeline"
)

// vizOpts holds the command-line flags for the viz command.
type vizOpts struct {
	formats  string // comma-separated output formats (dot,svg)
	output   string // output file path
	detailed bool   // include types and keys in labels
	maxDepth int    // limit subtree depth (0 = unlimited)
	noCache  bool
	refresh  bool
}

// vizCommand creates the viz command.
func (c *CLI) vizCommand() *cobra.Command {
	opts := vizOpts{formats: pipeline.FormatSVG}

	cmd := &cobra.Command{
		Use:   "viz <file>",
		Short: "Render the scene graph as a DOT or SVG diagram",
		Long: `Render the scene graph as a DOT or SVG diagram.

Pages become subgraph roots; instance nodes are drawn with dashed outlines.

Examples:
  figtree viz design.fig.json -o scene.svg
  figtree viz design.fig.json -f dot -o scene.dot
  figtree viz design.fig.json --detailed --max-depth 3 -o scene.svg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runViz(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.formats, "format", "f", opts.formats, "output formats, comma-separated (dot|svg)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (required for svg; stdout for dot)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "include node types and keys in labels")
	cmd.Flags().IntVar(&opts.maxDepth, "max-depth", pipeline.DefaultMaxDepth, "limit subtree depth (0 = unlimited)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the document cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass cache")

	return cmd
}

func (c *CLI) runViz(cmd *cobra.Command, path string, opts vizOpts) error {
	formats := strings.Split(opts.formats, ",")
	for _, f := range formats {
		if f != pipeline.FormatDOT && f != pipeline.FormatSVG {
			return errors.New(errors.ErrCodeInvalidFormat, "unsupported format: %q (want dot or svg)", f)
		}
	}

	runner, err := c.newRunner(opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	result, err := runner.Execute(cmd.Context(), pipeline.Options{
		Path:     path,
		Formats:  formats,
		Detailed: opts.detailed,
		MaxDepth: opts.maxDepth,
		Refresh:  opts.refresh,
		Logger:   c.Logger,
	})
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Rendered %d nodes", result.Stats.NodeCount))

	for _, format := range formats {
		data := result.Artifacts[format]
		target := opts.output
		if len(formats) > 1 && target != "" {
			target = target + "." + format
		}

		out, err := openOutput(target)
		if err != nil {
			return err
		}
		if _, err := out.Write(data); err != nil {
			out.Close()
			return err
		}
		out.Close()

		if target != "" {
			printFile(target)
		}
	}
	return nil
}
