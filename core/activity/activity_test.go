package activity

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/shule/core"
)

type repoMock struct {
	created   []Activity
	lastLimit int
	err       error
}

func (r *repoMock) CreateActivity(_ context.Context, act Activity, _ ...core.DBExecutor) (Activity, error) {
	if r.err != nil {
		return Activity{}, r.err
	}
	act.ID = "id"
	r.created = append(r.created, act)
	return act, nil
}

func (r *repoMock) QueryRecentActivities(_ context.Context, limit int, _ ...core.DBExecutor) ([]Activity, error) {
	r.lastLimit = limit
	return r.created, r.err
}

func Test_service_Record(t *testing.T) {
	repo := &repoMock{}
	svc := &service{repo: repo, now: func() time.Time {
		return time.Date(2024, 1, 15, 8, 30, 0, 0, time.UTC)
	}}

	act, err := svc.Record(context.Background(), nil, "Added new student: Amani Kabila")
	require.NoError(t, err)
	assert.Equal(t, Activity{ID: "id", Description: "Added new student: Amani Kabila", Timestamp: "2024-01-15T08:30:00.000Z"}, act)

	repo.err = errors.New("disk full")
	_, err = svc.Record(context.Background(), nil, "boom")
	assert.Equal(t, repo.err, errors.Cause(err))
}

func Test_service_Recent(t *testing.T) {
	tests := []struct {
		limit, want int
	}{
		{0, DefaultLimit},
		{-3, DefaultLimit},
		{1, 1},
		{MaxLimit, MaxLimit},
		{MaxLimit + 1, MaxLimit},
	}
	for _, tt := range tests {
		repo := &repoMock{}
		_, err := NewService(repo).Recent(context.Background(), tt.limit)
		require.NoError(t, err)
		assert.Equal(t, tt.want, repo.lastLimit, "Recent(%d)", tt.limit)
	}
}
