package dedup

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/jdylanwp/trendjack/internal/core/domain"
	coreerrors "github.com/jdylanwp/trendjack/internal/core/errors"
)

type fakeStore struct {
	errs map[string]error
}

func (f *fakeStore) InsertCandidate(_ context.Context, c domain.Candidate) error {
	return f.errs[c.PostID]
}

func TestInsertNew(t *testing.T) {
	logger := zerolog.Nop()

	store := &fakeStore{errs: map[string]error{
		"dup":    coreerrors.ErrDuplicate,
		"broken": errors.New("connection reset"),
	}}
	d := New(store, &logger)

	candidates := []domain.Candidate{
		{UserID: "u", SubjectID: "s", PostID: "fresh-1"},
		{UserID: "u", SubjectID: "s", PostID: "dup"},
		{UserID: "u", SubjectID: "s", PostID: "broken"},
		{UserID: "u", SubjectID: "s", PostID: "fresh-2"},
	}

	fresh := d.InsertNew(context.Background(), candidates)

	ids := make([]string, 0, len(fresh))
	for _, c := range fresh {
		ids = append(ids, c.PostID)
	}

	assert.Equal(t, []string{"fresh-1", "fresh-2"}, ids)
}

func TestInsertNewEmpty(t *testing.T) {
	logger := zerolog.Nop()
	d := New(&fakeStore{}, &logger)

	assert.Empty(t, d.InsertNew(context.Background(), nil))
}
