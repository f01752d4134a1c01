package mongostore

import (
	"context"
	"errors"
	"time"

	"bugtrack/apperr"
	"bugtrack/metrics"
	"bugtrack/models"
	"bugtrack/store"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"
)

func (s *Store) CreateProject(ctx context.Context, project models.Project) (*models.Project, error) {
	defer metrics.TrackDBOperation(backend, "create_project")(time.Now())

	ok, err := exists(ctx, s.col(ColUsers), project.OwnerID)
	if err != nil {
		return nil, wrapError(err, "user")
	}
	if !ok {
		return nil, apperr.NotFound("user")
	}

	p := store.NewProject(project, s.timestamp())
	if _, err := s.col(ColProjects).InsertOne(ctx, p); err != nil {
		return nil, wrapError(err, "project")
	}

	s.log.Debug("created project", zap.String("project_id", p.ID), zap.String("name", p.Name))
	return &p, nil
}

func (s *Store) GetProject(ctx context.Context, id string) (*models.Project, error) {
	defer metrics.TrackDBOperation(backend, "get_project")(time.Now())
	return findOne[models.Project](ctx, s.col(ColProjects), byID(id), "project")
}

func (s *Store) ListProjectsForMember(ctx context.Context, userID string) ([]models.Project, error) {
	defer metrics.TrackDBOperation(backend, "list_projects")(time.Now())

	filter := bson.D{
		{Key: "members", Value: userID},
		{Key: "is_archived", Value: false},
	}
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	return findMany[models.Project](ctx, s.col(ColProjects), filter, "project", opts)
}

func (s *Store) MemberProjectIDs(ctx context.Context, userID string) ([]string, error) {
	defer metrics.TrackDBOperation(backend, "member_project_ids")(time.Now())

	type idOnly struct {
		ID string `bson:"_id"`
	}
	opts := options.Find().SetProjection(bson.D{{Key: "_id", Value: 1}})
	docs, err := findMany[idOnly](ctx, s.col(ColProjects), bson.D{{Key: "members", Value: userID}}, "project", opts)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	return ids, nil
}

// UpdateProject sets only the fields present in patch. The filter requires
// is_archived false so an archive that lands first is never undone.
func (s *Store) UpdateProject(ctx context.Context, id string, patch models.ProjectPatch) (*models.Project, error) {
	defer metrics.TrackDBOperation(backend, "update_project")(time.Now())

	set := bson.D{{Key: "updated_at", Value: s.timestamp()}}
	if patch.Name != nil {
		set = append(set, bson.E{Key: "name", Value: *patch.Name})
	}
	if patch.Description != nil {
		set = append(set, bson.E{Key: "description", Value: *patch.Description})
	}
	if patch.Members != nil {
		// The owner never changes, so reading it ahead of the write is safe.
		current, err := findOne[models.Project](ctx, s.col(ColProjects), byID(id), "project")
		if err != nil {
			return nil, err
		}
		set = append(set, bson.E{Key: "members", Value: store.WithOwner(current.OwnerID, patch.Members)})
	}

	filter := bson.D{{Key: "_id", Value: id}, {Key: "is_archived", Value: false}}
	return s.updateProjectWhere(ctx, id, filter, bson.D{{Key: "$set", Value: set}}, store.ErrProjectArchived())
}

func (s *Store) SetProjectArchived(ctx context.Context, id string, archived bool) (*models.Project, error) {
	defer metrics.TrackDBOperation(backend, "archive_project")(time.Now())

	filter := bson.D{{Key: "_id", Value: id}, {Key: "is_archived", Value: !archived}}
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "is_archived", Value: archived},
		{Key: "updated_at", Value: s.timestamp()},
	}}}
	return s.updateProjectWhere(ctx, id, filter, update, store.ArchiveStateConflict(archived))
}

// updateProjectWhere applies a conditional update. When filter matches
// nothing the project is either missing or conflict applies.
func (s *Store) updateProjectWhere(ctx context.Context, id string, filter, update bson.D, conflict error) (*models.Project, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Project
	err := s.col(ColProjects).FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		ok, existsErr := exists(ctx, s.col(ColProjects), id)
		if existsErr != nil {
			return nil, wrapError(existsErr, "project")
		}
		if !ok {
			return nil, apperr.NotFound("project")
		}
		return nil, conflict
	}
	if err != nil {
		return nil, wrapError(err, "project")
	}
	return &updated, nil
}

// DeleteProject removes the project and then its bugs. A failure between
// the two leaves orphaned bugs that no member can reach; the next delete
// attempt reports NotFound for the project.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	defer metrics.TrackDBOperation(backend, "delete_project")(time.Now())

	if err := deleteByID(ctx, s.col(ColProjects), id, "project"); err != nil {
		return err
	}

	res, err := s.col(ColBugs).DeleteMany(ctx, bson.D{{Key: "project_id", Value: id}})
	if err != nil {
		return wrapError(err, "bug")
	}

	s.log.Debug("deleted project", zap.String("project_id", id), zap.Int64("bugs_deleted", res.DeletedCount))
	return nil
}
