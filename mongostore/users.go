package mongostore

import (
	"context"
	"time"

	"bugtrack/metrics"
	"bugtrack/models"
	"bugtrack/store"

	"go.mongodb.org/mongo-driver/v2/bson"
)

func (s *Store) CreateUser(ctx context.Context, user models.User) (*models.User, error) {
	defer metrics.TrackDBOperation(backend, "create_user")(time.Now())

	u := store.NewUser(user, s.timestamp())
	if _, err := s.col(ColUsers).InsertOne(ctx, u); err != nil {
		return nil, wrapError(err, "user")
	}
	return &u, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	defer metrics.TrackDBOperation(backend, "get_user")(time.Now())
	return findOne[models.User](ctx, s.col(ColUsers), byID(id), "user")
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	defer metrics.TrackDBOperation(backend, "get_user_by_email")(time.Now())

	filter := bson.D{{Key: "email", Value: store.NormalizeEmail(email)}}
	return findOne[models.User](ctx, s.col(ColUsers), filter, "user")
}

func (s *Store) RecordLogin(ctx context.Context, id string, at time.Time) error {
	return updateFields(ctx, s.col(ColUsers), id, "user", bson.D{
		{Key: "last_login_at", Value: at},
	})
}

func (s *Store) UpdatePassword(ctx context.Context, id, hash string, changedAt time.Time) error {
	return updateFields(ctx, s.col(ColUsers), id, "user", bson.D{
		{Key: "password_hash", Value: hash},
		{Key: "password_changed_at", Value: changedAt},
		{Key: "updated_at", Value: s.timestamp()},
	})
}
