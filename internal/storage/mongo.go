package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/IshaanNene/InsightBot/internal/config"
	"github.com/IshaanNene/InsightBot/internal/types"
)

const duplicateKeyCode = 11000

// MongoStore keeps articles in a MongoDB collection with a unique index on url.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	timeout    time.Duration
	logger     *slog.Logger
}

// NewMongoStore connects, pings and ensures the url index exists.
func NewMongoStore(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (*MongoStore, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongodb ping: %w", err)
	}

	s := &MongoStore{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
		timeout:    timeout,
		logger:     logger.With("component", "mongo_store"),
	}
	if err := s.ensureIndexes(connectCtx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	s.logger.Info("mongodb store ready", "database", cfg.Database, "collection", cfg.Collection)
	return s, nil
}

func (s *MongoStore) Name() string { return "mongodb" }

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	indexes := s.collection.Indexes()

	_, err := indexes.CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "url", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("url_unique"),
	})
	switch {
	case isDuplicateKey(err):
		s.logger.Warn("collection holds duplicate urls, continuing without a unique index", "error", err)
	case err != nil:
		return &types.StorageError{Backend: s.Name(), Op: "create index", Err: err}
	}

	_, err = indexes.CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "source", Value: 1}, {Key: "_id", Value: -1}},
		Options: options.Index().SetName("source_recent"),
	})
	if err != nil {
		return &types.StorageError{Backend: s.Name(), Op: "create index", Err: err}
	}
	return nil
}

// isDuplicateKey reports whether err is an E11000 duplicate key error, as
// returned when a unique index is built over existing duplicates.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && cmdErr.Code == duplicateKeyCode {
		return true
	}
	return mongo.IsDuplicateKeyError(err)
}

func (s *MongoStore) Exists(ctx context.Context, url string) (bool, error) {
	n, err := s.collection.CountDocuments(ctx, bson.D{{Key: "url", Value: url}}, options.Count().SetLimit(1))
	if err != nil {
		return false, &types.StorageError{Backend: s.Name(), Op: "exists", Err: err}
	}
	return n > 0, nil
}

func (s *MongoStore) Get(ctx context.Context, url string) (*types.Article, error) {
	var a types.Article
	err := s.collection.FindOne(ctx, bson.D{{Key: "url", Value: url}}).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, &types.StorageError{Backend: s.Name(), Op: "get", Err: err}
	}
	return &a, nil
}

// InsertMany performs an unordered bulk insert. Documents rejected by the
// unique url index are counted as skipped rather than failing the batch.
func (s *MongoStore) InsertMany(ctx context.Context, articles []*types.Article) (int, error) {
	if len(articles) == 0 {
		return 0, nil
	}

	docs := make([]any, len(articles))
	for i, a := range articles {
		docs[i] = a
	}

	_, err := s.collection.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err == nil {
		s.logger.Debug("articles stored in mongodb", "count", len(docs))
		return len(docs), nil
	}

	var bwe mongo.BulkWriteException
	if !errors.As(err, &bwe) || bwe.WriteConcernError != nil {
		return 0, &types.StorageError{Backend: s.Name(), Op: "insert", Err: err}
	}
	dups := 0
	for _, we := range bwe.WriteErrors {
		if we.Code != duplicateKeyCode {
			return len(docs) - len(bwe.WriteErrors), &types.StorageError{Backend: s.Name(), Op: "insert", Err: err}
		}
		dups++
	}
	s.logger.Warn("skipped duplicate urls during insert", "duplicates", dups)
	return len(docs) - dups, nil
}

func (s *MongoStore) UpdateFields(ctx context.Context, url string, fields map[string]any) error {
	if err := checkUpdate(s.Name(), url, fields); err != nil {
		return err
	}
	set := bson.D{}
	for k, v := range fields {
		set = append(set, bson.E{Key: k, Value: v})
	}
	res, err := s.collection.UpdateOne(ctx, bson.D{{Key: "url", Value: url}}, bson.D{{Key: "$set", Value: set}})
	if err != nil {
		return &types.StorageError{Backend: s.Name(), Op: "update", Err: err}
	}
	if res.MatchedCount == 0 {
		return types.ErrNotFound
	}
	return nil
}

func (s *MongoStore) FindBySource(ctx context.Context, source string, limit int) ([]*types.Article, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return s.find(ctx, bson.D{{Key: "source", Value: source}}, opts)
}

func (s *MongoStore) Latest(ctx context.Context, source string, n int) ([]*types.Article, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}}).SetLimit(int64(n))
	return s.find(ctx, bson.D{{Key: "source", Value: source}}, opts)
}

func (s *MongoStore) find(ctx context.Context, filter bson.D, opts *options.FindOptions) ([]*types.Article, error) {
	cur, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, &types.StorageError{Backend: s.Name(), Op: "find", Err: err}
	}
	out := []*types.Article{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, &types.StorageError{Backend: s.Name(), Op: "find", Err: err}
	}
	return out, nil
}

func (s *MongoStore) Sample(ctx context.Context, n int) ([]*types.Article, error) {
	if n <= 0 {
		return []*types.Article{}, nil
	}
	pipeline := mongo.Pipeline{
		{{Key: "$sample", Value: bson.D{{Key: "size", Value: n}}}},
	}
	cur, err := s.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, &types.StorageError{Backend: s.Name(), Op: "sample", Err: err}
	}
	out := []*types.Article{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, &types.StorageError{Backend: s.Name(), Op: "sample", Err: err}
	}
	return out, nil
}

func (s *MongoStore) Count(ctx context.Context) (int64, error) {
	n, err := s.collection.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, &types.StorageError{Backend: s.Name(), Op: "count", Err: err}
	}
	return n, nil
}

func (s *MongoStore) Distinct(ctx context.Context, field string) ([]string, error) {
	if err := checkDistinct(s.Name(), field); err != nil {
		return nil, err
	}
	values, err := s.collection.Distinct(ctx, field, bson.D{})
	if err != nil {
		return nil, &types.StorageError{Backend: s.Name(), Op: "distinct", Err: err}
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if str, ok := v.(string); ok && str != "" {
			out = append(out, str)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Drop removes the collection and recreates its indexes.
func (s *MongoStore) Drop(ctx context.Context) error {
	if err := s.collection.Drop(ctx); err != nil {
		return &types.StorageError{Backend: s.Name(), Op: "drop", Err: err}
	}
	return s.ensureIndexes(ctx)
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
