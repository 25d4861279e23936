// Package store persists document load summaries so past ingests can
// be listed and compared without re-parsing their source files.
package store

import (
	"context"
	"time"

	"github.com/figtreehq/figtree/pkg/errors"
)

// DocumentSummary is the persisted record of one document ingest.
type DocumentSummary struct {
	DocHash       string    `json:"doc_hash" bson:"doc_hash"`
	Name          string    `json:"name" bson:"name"`
	NodeCount     int       `json:"node_count" bson:"node_count"`
	PageCount     int       `json:"page_count" bson:"page_count"`
	BlobCount     int       `json:"blob_count" bson:"blob_count"`
	InstanceCount int       `json:"instance_count" bson:"instance_count"`
	OrphanCount   int       `json:"orphan_count" bson:"orphan_count"`
	LoadedAt      time.Time `json:"loaded_at" bson:"loaded_at"`
}

// Store persists and retrieves document summaries.
type Store interface {
	// Put inserts or replaces the summary keyed by its DocHash.
	Put(ctx context.Context, s DocumentSummary) error

	// Get retrieves the summary for a document hash.
	Get(ctx context.Context, docHash string) (DocumentSummary, error)

	// List returns summaries ordered by load time, newest first.
	List(ctx context.Context, limit int) ([]DocumentSummary, error)

	// Delete removes a summary. Deleting a missing hash is not an error.
	Delete(ctx context.Context, docHash string) error

	// Close releases backend resources.
	Close(ctx context.Context) error
}

// ErrSummaryNotFound is returned by Get for unknown document hashes.
var ErrSummaryNotFound = errors.New(errors.ErrCodeNotFound, "document summary not found")
