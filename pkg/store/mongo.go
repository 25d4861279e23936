package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	defaultDatabase   = "figtree"
	defaultCollection = "documents"
)

// MongoStore persists document summaries in a MongoDB collection,
// one record per document hash.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to MongoDB at the given URI and verifies the
// connection with a ping before returning.
func NewMongoStore(ctx context.Context, uri string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	return &MongoStore{
		client: client,
		coll:   client.Database(defaultDatabase).Collection(defaultCollection),
	}, nil
}

// Put inserts or replaces the summary keyed by its DocHash.
func (s *MongoStore) Put(ctx context.Context, sum DocumentSummary) error {
	filter := bson.M{"doc_hash": sum.DocHash}
	opts := options.Replace().SetUpsert(true)
	if _, err := s.coll.ReplaceOne(ctx, filter, sum, opts); err != nil {
		return fmt.Errorf("put summary: %w", err)
	}
	return nil
}

// Get retrieves the summary for a document hash.
func (s *MongoStore) Get(ctx context.Context, docHash string) (DocumentSummary, error) {
	var sum DocumentSummary
	err := s.coll.FindOne(ctx, bson.M{"doc_hash": docHash}).Decode(&sum)
	if err == mongo.ErrNoDocuments {
		return DocumentSummary{}, ErrSummaryNotFound
	}
	if err != nil {
		return DocumentSummary{}, fmt.Errorf("get summary: %w", err)
	}
	return sum, nil
}

// List returns summaries ordered by load time, newest first.
func (s *MongoStore) List(ctx context.Context, limit int) ([]DocumentSummary, error) {
	opts := options.Find().SetSort(bson.D{{Key: "loaded_at", Value: -1}})
	if limit > 0 {
		opts = opts.SetLimit(int64(limit))
	}

	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list summaries: %w", err)
	}
	defer cur.Close(ctx)

	var out []DocumentSummary
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode summaries: %w", err)
	}
	return out, nil
}

// Delete removes a summary. Deleting a missing hash is not an error.
func (s *MongoStore) Delete(ctx context.Context, docHash string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"doc_hash": docHash}); err != nil {
		return fmt.Errorf("delete summary: %w", err)
	}
	return nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ensure MongoStore implements Store.
var _ Store = (*MongoStore)(nil)
