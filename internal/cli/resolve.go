package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/figtreehq/figtree/pkg/errors"
	"github.com/figtreehq/figtree/pkg/guid"
	"github.com/figtreehq/figtree/pkg/pipeline"
	"github.com/figtreehq/figtree/pkg/scene"
	"github.com/figtreehq/figtree/pkg/symbol"
)

// resolveOpts holds the command-line flags for the resolve command.
type resolveOpts struct {
	format  string // output format (text or json)
	output  string // output file path (stdout if empty)
	apply   bool   // print effective node views instead of raw bindings
	noCache bool   // disable the document cache
	refresh bool   // bypass the cache
}

// resolveCommand creates the resolve command.
func (c *CLI) resolveCommand() *cobra.Command {
	opts := resolveOpts{format: c.defaultFormat()}

	cmd := &cobra.Command{
		Use:   "resolve <file> [instance]",
		Short: "Compute effective override bindings for component instances",
		Long: `Compute effective override bindings for component instances.

Without an instance argument, every instance in the document is resolved.

Examples:
  figtree resolve design.fig.json                 # All instances
  figtree resolve design.fig.json 1:5             # One instance
  figtree resolve design.fig.json 1:5 --apply     # Effective node views`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			instance := ""
			if len(args) > 1 {
				instance = args[1]
			}
			return c.runResolve(cmd, args[0], instance, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format (text|json)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().BoolVar(&opts.apply, "apply", false, "apply bindings and print effective node views")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the document cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass cache")

	return cmd
}

func (c *CLI) runResolve(cmd *cobra.Command, path, instance string, opts resolveOpts) error {
	if opts.format != pipeline.FormatText && opts.format != pipeline.FormatJSON {
		return errors.New(errors.ErrCodeInvalidFormat, "unsupported format: %q (want text or json)", opts.format)
	}
	if instance != "" {
		if err := errors.ValidateNodeKey(instance); err != nil {
			return err
		}
	}

	runner, err := c.newRunner(opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	spin := newSpinnerWithContext(cmd.Context(), "Resolving instances")
	spin.Start()

	result, err := runner.Execute(cmd.Context(), pipeline.Options{
		Path:     path,
		Resolve:  instance == "",
		Instance: instance,
		Refresh:  opts.refresh,
		Logger:   c.Logger,
	})
	if err != nil {
		spin.StopWithError("Resolution failed")
		return err
	}
	spin.StopWithSuccess(fmt.Sprintf("Resolved %d instances", len(result.Resolved)))
	printStats(result.Stats.NodeCount, result.Stats.PageCount, result.Stats.BlobCount, result.CacheInfo.ResolveHit)

	out, err := openOutput(opts.output)
	if err != nil {
		return err
	}
	defer out.Close()

	if opts.apply {
		return writeEffectiveViews(out, result, opts.format)
	}
	return writeBindings(out, result, opts.format)
}

// writeBindings prints raw per-instance override bindings.
func writeBindings(w io.Writer, result *pipeline.Result, format string) error {
	if format == pipeline.FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result.Resolved)
	}

	for _, instKey := range sortedKeys(result.Resolved) {
		bindings := result.Resolved[instKey]
		inst, _ := result.Graph.Node(instKey)

		name := string(instKey)
		if inst != nil && inst.Name != "" {
			name = fmt.Sprintf("%s (%s)", inst.Name, instKey)
		}
		printInfo("%s", StyleHighlight.Render(name))
		if len(bindings) == 0 {
			printDetail("no overrides")
			continue
		}
		for _, target := range sortedKeys(bindings) {
			fields := bindings[target]
			names := make([]string, 0, len(fields))
			for f := range fields {
				names = append(names, f)
			}
			sort.Strings(names)
			printDetail("%s %s %v", target, iconArrow, names)
		}
	}
	return nil
}

// effectiveView pairs a target node with its overridden state.
type effectiveView struct {
	Instance guid.Key       `json:"instance"`
	Target   guid.Key       `json:"target"`
	Name     string         `json:"name,omitempty"`
	Type     string         `json:"type,omitempty"`
	Visible  bool           `json:"visible"`
	TextData map[string]any `json:"text_data,omitempty"`
}

// writeEffectiveViews applies every binding to its target node and
// prints the resulting views.
func writeEffectiveViews(w io.Writer, result *pipeline.Result, format string) error {
	var views []effectiveView
	for _, instKey := range sortedKeys(result.Resolved) {
		bindings := result.Resolved[instKey]
		for _, target := range sortedKeys(bindings) {
			node := effectiveNode(result.Graph, target, bindings[target])
			if node == nil {
				continue
			}
			views = append(views, effectiveView{
				Instance: instKey,
				Target:   target,
				Name:     node.Name,
				Type:     node.Type,
				Visible:  node.IsVisible(),
				TextData: node.TextData,
			})
		}
	}

	if format == pipeline.FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(views)
	}

	for _, v := range views {
		label := v.Name
		if label == "" {
			label = string(v.Target)
		}
		printInfo("%s %s %s", v.Instance, iconArrow, StyleHighlight.Render(label))
		if chars, ok := v.TextData["characters"]; ok {
			printDetail("text: %v", chars)
		}
		if !v.Visible {
			printDetail("hidden")
		}
	}
	return nil
}

// effectiveNode applies override fields to the target node when it
// exists in the graph. Bindings keyed by source component nodes apply
// to the component's record directly.
func effectiveNode(g *scene.Graph, target guid.Key, fields map[string]any) *scene.Node {
	n, ok := g.Node(target)
	if !ok {
		return nil
	}
	return symbol.ApplyOverride(n, fields)
}

// sortedKeys returns map keys in stable order.
func sortedKeys[V any](m map[guid.Key]V) []guid.Key {
	keys := make([]guid.Key, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
