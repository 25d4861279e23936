package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/figtreehq/figtree/pkg/errors"
	"github.com/figtreehq/figtree/pkg/pipeline"
)

// blobsOpts holds the command-line flags for the blobs command.
type blobsOpts struct {
	extract string // directory to write blob payloads into
	key     string // extract a single blob by key
	noCache bool
}

// blobsCommand creates the blobs command.
func (c *CLI) blobsCommand() *cobra.Command {
	opts := blobsOpts{}

	cmd := &cobra.Command{
		Use:   "blobs <file>",
		Short: "List or extract a document's binary payloads",
		Long: `List or extract a document's binary payloads.

Blobs are indexed in document order; nodes reference them by "blob_<n>" keys.

Examples:
  figtree blobs design.fig.json                        # List blob keys and sizes
  figtree blobs design.fig.json --extract ./blobs      # Dump all payloads
  figtree blobs design.fig.json --key blob_2 --extract . `,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBlobs(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.extract, "extract", "", "write blob payloads into this directory")
	cmd.Flags().StringVar(&opts.key, "key", "", "operate on a single blob key (blob_<n>)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the document cache")

	return cmd
}

func (c *CLI) runBlobs(cmd *cobra.Command, path string, opts blobsOpts) error {
	if opts.key != "" {
		if err := errors.ValidateBlobKey(opts.key); err != nil {
			return err
		}
	}

	runner, err := c.newRunner(opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	result, err := runner.Execute(cmd.Context(), pipeline.Options{
		Path:   path,
		Logger: c.Logger,
	})
	if err != nil {
		return err
	}

	blobs := result.Graph.Blobs
	if opts.key != "" {
		data, ok := blobs[opts.key]
		if !ok {
			return errors.New(errors.ErrCodeBlobNotFound, "blob not found: %s", opts.key)
		}
		blobs = map[string][]byte{opts.key: data}
	}

	if opts.extract != "" {
		return extractBlobs(blobs, opts.extract)
	}

	if len(blobs) == 0 {
		printInfo("No blobs")
		return nil
	}
	for _, key := range sortedBlobKeys(blobs) {
		printKeyValue(key, fmt.Sprintf("%d bytes", len(blobs[key])))
	}
	return nil
}

// extractBlobs writes each payload to dir/<key>.bin.
func extractBlobs(blobs map[string][]byte, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	for _, key := range sortedBlobKeys(blobs) {
		path := filepath.Join(dir, key+".bin")
		if err := os.WriteFile(path, blobs[key], 0644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}
	printSuccess("Extracted %d blobs", len(blobs))
	return nil
}

// sortedBlobKeys orders blob keys by their numeric index.
func sortedBlobKeys(blobs map[string][]byte) []string {
	keys := make([]string, 0, len(blobs))
	for k := range blobs {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return blobIndex(keys[i]) < blobIndex(keys[j])
	})
	return keys
}

func blobIndex(key string) int {
	n, err := strconv.Atoi(strings.TrimPrefix(key, "blob_"))
	if err != nil {
		return -1
	}
	return n
}
