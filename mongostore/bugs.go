package mongostore

import (
	"context"
	"time"

	"bugtrack/apperr"
	"bugtrack/metrics"
	"bugtrack/models"
	"bugtrack/store"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"
)

// maxUpdateAttempts bounds the compare-and-set loop in UpdateBug. Each
// round lets at least one writer through, so this is also the number of
// concurrent writers a single update tolerates.
const maxUpdateAttempts = 32

func (s *Store) CreateBug(ctx context.Context, bug models.Bug) (*models.Bug, error) {
	defer metrics.TrackDBOperation(backend, "create_bug")(time.Now())

	b, err := store.NewBug(bug, s.timestamp())
	if err != nil {
		return nil, err
	}

	ok, err := exists(ctx, s.col(ColProjects), b.ProjectID)
	if err != nil {
		return nil, wrapError(err, "project")
	}
	if !ok {
		return nil, apperr.NotFound("project")
	}

	if _, err := s.col(ColBugs).InsertOne(ctx, b); err != nil {
		return nil, wrapError(err, "bug")
	}

	s.log.Debug("created bug", zap.String("bug_id", b.ID), zap.String("project_id", b.ProjectID))
	return &b, nil
}

func (s *Store) GetBug(ctx context.Context, id string) (*models.Bug, error) {
	defer metrics.TrackDBOperation(backend, "get_bug")(time.Now())
	return findOne[models.Bug](ctx, s.col(ColBugs), byID(id), "bug")
}

func (s *Store) ListBugs(ctx context.Context, filter models.BugFilter) ([]models.Bug, error) {
	defer metrics.TrackDBOperation(backend, "list_bugs")(time.Now())

	if filter.ProjectIDs != nil && len(filter.ProjectIDs) == 0 {
		return []models.Bug{}, nil
	}

	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}, {Key: "_id", Value: 1}})
	return findMany[models.Bug](ctx, s.col(ColBugs), bugFilter(filter), "bug", opts)
}

func bugFilter(f models.BugFilter) bson.D {
	filter := bson.D{}
	if f.Status != "" {
		filter = append(filter, bson.E{Key: "status", Value: f.Status})
	}
	if f.Priority != "" {
		filter = append(filter, bson.E{Key: "priority", Value: f.Priority})
	}
	if f.ProjectID != "" {
		filter = append(filter, bson.E{Key: "project_id", Value: f.ProjectID})
	}
	if f.ProjectIDs != nil {
		filter = append(filter, bson.E{Key: "project_id", Value: bson.D{{Key: "$in", Value: f.ProjectIDs}}})
	}
	return filter
}

// UpdateBug applies the patch as a compare-and-set on the stored version.
// The diff is computed against the version it was read at, so a lost race
// re-reads and re-diffs instead of appending entries for a stale state.
func (s *Store) UpdateBug(ctx context.Context, id string, patch models.BugPatch) (*models.Bug, error) {
	defer metrics.TrackDBOperation(backend, "update_bug")(time.Now())

	for attempt := 1; attempt <= maxUpdateAttempts; attempt++ {
		prev, err := findOne[models.Bug](ctx, s.col(ColBugs), byID(id), "bug")
		if err != nil {
			return nil, err
		}

		next, entries, err := store.NextBug(*prev, patch, s.timestamp())
		if err != nil {
			return nil, err
		}

		update := bson.D{
			{Key: "$set", Value: bson.D{
				{Key: "title", Value: next.Title},
				{Key: "description", Value: next.Description},
				{Key: "priority", Value: next.Priority},
				{Key: "status", Value: next.Status},
				{Key: "assigned_to", Value: next.AssignedTo},
				{Key: "updated_at", Value: next.UpdatedAt},
			}},
			{Key: "$inc", Value: bson.D{{Key: "version", Value: 1}}},
		}
		if len(entries) > 0 {
			update = append(update, bson.E{Key: "$push", Value: bson.D{
				{Key: "activity", Value: bson.D{{Key: "$each", Value: entries}}},
			}})
		}

		filter := bson.D{{Key: "_id", Value: id}, {Key: "version", Value: prev.Version}}
		res, err := s.col(ColBugs).UpdateOne(ctx, filter, update)
		if err != nil {
			return nil, wrapError(err, "bug")
		}
		if res.MatchedCount == 1 {
			return &next, nil
		}

		s.log.Debug("bug update lost race, retrying",
			zap.String("bug_id", id),
			zap.Int("attempt", attempt),
			zap.Int("version", prev.Version))
	}

	return nil, apperr.Conflict("bug is being modified concurrently, please retry")
}

func (s *Store) DeleteBug(ctx context.Context, id string) error {
	defer metrics.TrackDBOperation(backend, "delete_bug")(time.Now())
	return deleteByID(ctx, s.col(ColBugs), id, "bug")
}
