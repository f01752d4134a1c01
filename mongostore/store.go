// Package mongostore is the MongoDB implementation of store.Store.
//
// Documents use the bson tags on the models. Collection names and indexes
// are managed in ensureIndexes.
package mongostore

import (
	"context"
	"fmt"
	"time"

	"bugtrack/store"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"
)

const backend = "mongo"

const (
	ColUsers    = "users"
	ColProjects = "projects"
	ColBugs     = "bugs"
)

// Index names double as conflict classifiers in wrapError.
const (
	indexUserEmail          = "users_email_key"
	indexProjectOwnerActive = "projects_owner_name_active"
)

type Store struct {
	client *mongo.Client
	db     *mongo.Database
	log    *zap.Logger
	now    func() time.Time
}

var _ store.Store = (*Store)(nil)

// Connect opens a client for uri, verifies it and creates the indexes the
// store relies on for uniqueness.
//
// uri: e.g. "mongodb://localhost:27017"
// dbName: e.g. "bugtrack"
func Connect(ctx context.Context, uri, dbName string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongostore: connect failed: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongostore: ping failed: %w", err)
	}

	s := &Store{client: client, db: client.Database(dbName), log: log, now: time.Now}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	log.Info("database connection established", zap.String("backend", backend), zap.String("database", dbName))
	return s, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.client.Disconnect(ctx); err != nil {
		s.log.Warn("mongostore: disconnect failed", zap.Error(err))
		return
	}
	s.log.Info("database connection closed")
}

func (s *Store) col(name string) *mongo.Collection {
	return s.db.Collection(name)
}

// timestamp returns the current time at the millisecond precision BSON
// dates carry.
func (s *Store) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	type idx struct {
		col     string
		name    string
		keys    bson.D
		unique  bool
		partial bson.D
	}

	indexes := []idx{
		{col: ColUsers, name: indexUserEmail, keys: bson.D{{Key: "email", Value: 1}}, unique: true},

		{col: ColProjects, name: "projects_members", keys: bson.D{{Key: "members", Value: 1}}},
		{
			col:     ColProjects,
			name:    indexProjectOwnerActive,
			keys:    bson.D{{Key: "owner_id", Value: 1}, {Key: "name", Value: 1}},
			unique:  true,
			partial: bson.D{{Key: "is_archived", Value: false}},
		},

		{col: ColBugs, name: "bugs_project_id", keys: bson.D{{Key: "project_id", Value: 1}}},
		{col: ColBugs, name: "bugs_updated_at", keys: bson.D{{Key: "updated_at", Value: -1}}},
	}

	for _, i := range indexes {
		opts := options.Index().SetName(i.name)
		if i.unique {
			opts.SetUnique(true)
		}
		if i.partial != nil {
			opts.SetPartialFilterExpression(i.partial)
		}
		model := mongo.IndexModel{Keys: i.keys, Options: opts}
		if _, err := s.col(i.col).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("mongostore: create index %s on %s: %w", i.name, i.col, err)
		}
	}

	return nil
}
