package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xamsadine/backend/internal/model/fatwa"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	session := &fatwa.Session{
		ID:               "s1",
		State:            fatwa.StateAnswered,
		Language:         "fr",
		OriginalQuestion: "Puis-je prier assis ?",
		Clarifications:   []fatwa.Clarification{{Topic: "timeframe", Question: "Quand ?", Answer: "en voyage"}},
		DraftAnswer:      &fatwa.StructuredAnswer{Hukm: "permis", Evidence: []string{"quran-2-183"}},
		UpdatedAt:        time.Now().UTC(),
	}
	require.NoError(t, store.Put(ctx, session))

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, fatwa.StateAnswered, got.State)
	assert.Equal(t, "Puis-je prier assis ?", got.OriginalQuestion)
	require.Len(t, got.Clarifications, 1)
	assert.Equal(t, "en voyage", got.Clarifications[0].Answer)
	require.NotNil(t, got.DraftAnswer)
	assert.Equal(t, []string{"quran-2-183"}, got.DraftAnswer.Evidence)
}

func TestStoreUpsertReplacesDocument(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	session := &fatwa.Session{ID: "s1", State: fatwa.StateCollecting}
	require.NoError(t, store.Put(ctx, session))

	session.State = fatwa.StateFailed
	session.ErrorCode = "RETRIEVAL_EXHAUSTED"
	require.NoError(t, store.Put(ctx, session))

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, fatwa.StateFailed, got.State)
	assert.Equal(t, "RETRIEVAL_EXHAUSTED", got.ErrorCode)
}

func TestStoreUnknownSession(t *testing.T) {
	store := openTestStore(t)

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, fatwa.ErrSessionNotFound)
}

func TestStorePutRequiresID(t *testing.T) {
	store := openTestStore(t)

	assert.Error(t, store.Put(context.Background(), &fatwa.Session{}))
}
