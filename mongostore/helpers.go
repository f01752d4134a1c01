package mongostore

import (
	"context"
	"errors"
	"strings"

	"bugtrack/apperr"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// wrapError translates driver errors into apperr kinds. entity names the
// record for not-found and conflict errors.
func wrapError(err error, entity string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apperr.NotFound(entity)
	}
	if mongo.IsDuplicateKeyError(err) {
		msg := err.Error()
		switch {
		case strings.Contains(msg, indexUserEmail):
			return apperr.Conflict("user already exists")
		case strings.Contains(msg, indexProjectOwnerActive):
			return apperr.Conflict("project with same name already exists")
		}
		return apperr.Conflict("%s already exists", entity)
	}

	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperr.Internal(err)
}

func byID(id string) bson.D {
	return bson.D{{Key: "_id", Value: id}}
}

func findOne[T any](ctx context.Context, col *mongo.Collection, filter bson.D, entity string) (*T, error) {
	var result T
	if err := col.FindOne(ctx, filter).Decode(&result); err != nil {
		return nil, wrapError(err, entity)
	}
	return &result, nil
}

// findMany never returns a nil slice so empty results encode as [].
func findMany[T any](ctx context.Context, col *mongo.Collection, filter bson.D, entity string, opts ...options.Lister[options.FindOptions]) ([]T, error) {
	cursor, err := col.Find(ctx, filter, opts...)
	if err != nil {
		return nil, wrapError(err, entity)
	}
	defer cursor.Close(ctx)

	results := []T{}
	for cursor.Next(ctx) {
		var item T
		if err := cursor.Decode(&item); err != nil {
			return nil, wrapError(err, entity)
		}
		results = append(results, item)
	}
	if err := cursor.Err(); err != nil {
		return nil, wrapError(err, entity)
	}
	return results, nil
}

func exists(ctx context.Context, col *mongo.Collection, id string) (bool, error) {
	n, err := col.CountDocuments(ctx, byID(id), options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func deleteByID(ctx context.Context, col *mongo.Collection, id, entity string) error {
	res, err := col.DeleteOne(ctx, byID(id))
	if err != nil {
		return wrapError(err, entity)
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound(entity)
	}
	return nil
}

func updateFields(ctx context.Context, col *mongo.Collection, id, entity string, fields bson.D) error {
	res, err := col.UpdateOne(ctx, byID(id), bson.D{{Key: "$set", Value: fields}})
	if err != nil {
		return wrapError(err, entity)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound(entity)
	}
	return nil
}
