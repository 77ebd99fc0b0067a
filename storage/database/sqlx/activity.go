package sqlxrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/activity"
)

type activityRepository struct {
	exec core.DBExecutor
}

var _ activity.Repository = (*activityRepository)(nil) // interface compliance check

func NewActivityRepository(exec core.DBExecutor) *activityRepository {
	return &activityRepository{exec: exec}
}

func (repo activityRepository) CreateActivity(ctx context.Context, act activity.Activity, exec ...core.DBExecutor) (activity.Activity, error) {
	act.ID = uuid.New().String()
	query := `INSERT INTO activities (id, description, timestamp) VALUES (:id, :description, :timestamp)`
	if _, err := sqlx.NamedExecContext(ctx, getExec(repo.exec, exec), query, act); err != nil {
		return activity.Activity{}, errors.Wrap(err, "inserting activity")
	}
	return act, nil
}

// QueryRecentActivities returns up to limit activities, newest first.
// Activities sharing a timestamp come back in reverse insertion order.
func (repo activityRepository) QueryRecentActivities(ctx context.Context, limit int, exec ...core.DBExecutor) ([]activity.Activity, error) {
	if limit <= 0 {
		limit = activity.DefaultLimit
	}
	query := `SELECT id, description, timestamp FROM activities ORDER BY timestamp DESC, rowid DESC LIMIT ?`
	acts := make([]activity.Activity, 0, limit)
	if err := getExec(repo.exec, exec).SelectContext(ctx, &acts, query, limit); err != nil {
		return nil, errors.Wrap(err, "querying activities")
	}
	return acts, nil
}
