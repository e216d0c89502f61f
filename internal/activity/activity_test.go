package activity_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NanayasWorkshop/MakerManager/internal/activity"
)

type fakeRepo struct {
	entries []*activity.Entry
	limit   int
}

func (f *fakeRepo) Append(_ context.Context, e *activity.Entry) error {
	e.ID = uuid.New()
	f.entries = append(f.entries, e)

	return nil
}

func (f *fakeRepo) ListByJob(_ context.Context, jobID uuid.UUID, limit int) ([]*activity.Entry, error) {
	f.limit = limit

	var out []*activity.Entry

	for _, e := range f.entries {
		if e.JobID == jobID {
			out = append(out, e)
		}
	}

	return out, nil
}

func TestService_AddNote(t *testing.T) {
	repo := &fakeRepo{}
	svc := activity.NewService(repo)
	jobID := uuid.New()

	e, err := svc.AddNote(context.Background(), jobID, "Hana", "  customer approved the sample ")
	require.NoError(t, err)
	assert.Equal(t, activity.TypeNote, e.Type)
	assert.Equal(t, "customer approved the sample", e.Description)

	_, err = svc.AddNote(context.Background(), jobID, "Hana", " ")
	require.Error(t, err)

	feed, err := svc.List(context.Background(), jobID, 0)
	require.NoError(t, err)
	assert.Len(t, feed, 1)
	assert.Equal(t, 50, repo.limit)
}
