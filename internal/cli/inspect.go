package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/figtreehq/figtree/pkg/errors"
	"github.com/figtreehq/figtree/pkg/guid"
	"github.com/figtreehq/figtree/pkg/pipeline"
	"github.com/figtreehq/figtree/pkg/scene"
)

// inspectOpts holds the command-line flags for the inspect command.
type inspectOpts struct {
	format  string // output format (text or json)
	node    string // show a single node instead of the summary
	output  string // output file path (stdout if empty)
	noCache bool   // disable the document cache
	refresh bool   // bypass the cache
}

// inspectCommand creates the inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	opts := inspectOpts{format: c.defaultFormat()}

	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Load a document snapshot and summarize its scene graph",
		Long: `Load a document snapshot and summarize its scene graph.

Examples:
  figtree inspect design.fig.json                 # Summary of pages and nodes
  figtree inspect design.fig.json --node 1:5      # Show one node
  figtree inspect design.fig.json --format json   # Machine-readable output`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInspect(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format (text|json)")
	cmd.Flags().StringVar(&opts.node, "node", "", "show a single node by key (<session>:<local>)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the document cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass cache")

	return cmd
}

func (c *CLI) runInspect(cmd *cobra.Command, path string, opts inspectOpts) error {
	if opts.format != pipeline.FormatText && opts.format != pipeline.FormatJSON {
		return errors.New(errors.ErrCodeInvalidFormat, "unsupported format: %q (want text or json)", opts.format)
	}
	if opts.node != "" {
		if err := errors.ValidateNodeKey(opts.node); err != nil {
			return err
		}
	}

	runner, err := c.newRunner(opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	result, err := runner.Execute(cmd.Context(), pipeline.Options{
		Path:    path,
		Refresh: opts.refresh,
		Logger:  c.Logger,
	})
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Loaded %d nodes across %d pages", result.Stats.NodeCount, result.Stats.PageCount))

	out, err := openOutput(opts.output)
	if err != nil {
		return err
	}
	defer out.Close()

	if opts.node != "" {
		return writeNode(out, result.Graph, guid.Key(opts.node), opts.format)
	}
	return writeSummary(out, result, opts.format)
}

// inspectSummary is the JSON shape of the inspect summary.
type inspectSummary struct {
	DocHash   string        `json:"doc_hash"`
	NodeCount int           `json:"node_count"`
	PageCount int           `json:"page_count"`
	BlobCount int           `json:"blob_count"`
	Instances int           `json:"instance_count"`
	Orphans   []guid.Key    `json:"orphans,omitempty"`
	Pages     []pageSummary `json:"pages"`
}

type pageSummary struct {
	GUID     guid.Key `json:"guid"`
	Name     string   `json:"name"`
	Children int      `json:"children"`
}

// writeSummary prints the scene graph summary as text or JSON.
func writeSummary(w io.Writer, result *pipeline.Result, format string) error {
	g := result.Graph

	summary := inspectSummary{
		DocHash:   result.DocHash,
		NodeCount: result.Stats.NodeCount,
		PageCount: result.Stats.PageCount,
		BlobCount: result.Stats.BlobCount,
		Instances: result.Stats.InstanceCount,
		Orphans:   orphanKeys(g),
	}
	for _, p := range g.Pages {
		summary.Pages = append(summary.Pages, pageSummary{
			GUID:     p.GUID,
			Name:     p.Name,
			Children: len(p.Children),
		})
	}

	if format == pipeline.FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}

	printKeyValue("Document", summary.DocHash[:12])
	printStats(summary.NodeCount, summary.PageCount, summary.BlobCount, result.CacheInfo.DocumentHit)
	printNewline()
	for _, p := range summary.Pages {
		name := p.Name
		if name == "" {
			name = string(p.GUID)
		}
		printInfo("%s", StyleHighlight.Render(name))
		printDetail("%s · %d children", p.GUID, p.Children)
	}
	if summary.Instances > 0 {
		printNewline()
		printDetail("%d instances", summary.Instances)
		printNextStep("Resolve overrides", fmt.Sprintf("figtree resolve %s", "<file>"))
	}
	if len(summary.Orphans) > 0 {
		printNewline()
		printWarning("%d orphaned nodes", len(summary.Orphans))
	}
	return nil
}

// nodeView is the JSON shape of a single inspected node.
type nodeView struct {
	GUID     guid.Key       `json:"guid"`
	Type     string         `json:"type"`
	Name     string         `json:"name,omitempty"`
	Visible  bool           `json:"visible"`
	Parent   guid.Key       `json:"parent,omitempty"`
	Children []guid.Key     `json:"children,omitempty"`
	SymbolID guid.Key       `json:"symbol_id,omitempty"`
	TextData map[string]any `json:"text_data,omitempty"`
}

// writeNode prints a single node as text or JSON.
func writeNode(w io.Writer, g *scene.Graph, key guid.Key, format string) error {
	n, ok := g.Node(key)
	if !ok {
		return errors.New(errors.ErrCodeNodeNotFound, "node not found: %s", key)
	}

	view := nodeView{
		GUID:     n.GUID,
		Type:     n.Type,
		Name:     n.Name,
		Visible:  n.IsVisible(),
		Parent:   n.Parent,
		Children: n.Children,
		SymbolID: n.SymbolID,
		TextData: n.TextData,
	}

	if format == pipeline.FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	}

	printKeyValue("Node", string(view.GUID))
	printKeyValue("Type", view.Type)
	if view.Name != "" {
		printKeyValue("Name", view.Name)
	}
	printKeyValue("Visible", fmt.Sprintf("%t", view.Visible))
	if view.Parent != "" {
		printKeyValue("Parent", string(view.Parent))
	}
	if view.SymbolID != "" {
		printKeyValue("Symbol", string(view.SymbolID))
	}
	for _, child := range view.Children {
		printFile(string(child))
	}
	return nil
}

// orphanKeys returns the keys of nodes outside every page tree.
func orphanKeys(g *scene.Graph) []guid.Key {
	orphans := g.Orphans()
	keys := make([]guid.Key, 0, len(orphans))
	for _, n := range orphans {
		keys = append(keys, n.GUID)
	}
	return keys
}

// nopCloser wraps an io.Writer with a no-op Close method.
// It is used to make os.Stdout compatible with io.WriteCloser.
type nopCloser struct{ io.Writer }

// Close implements io.Closer with a no-op.
func (nopCloser) Close() error { return nil }

// openOutput returns a WriteCloser for the given path.
// If path is empty, it returns os.Stdout wrapped in nopCloser.
// Otherwise, it creates the file at path, overwriting if it exists.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}
