package history

import (
	"sync"
	"testing"
	"time"

	"engagepro-studio-server/modules/studio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestActiveSessionLifecycle(t *testing.T) {
	store := NewStore(nil)

	assert.Nil(t, store.GetActive("user-1"))

	first := &studio.GenerationSession{ID: "job-1", UserID: "user-1"}
	store.SetActive("user-1", first)
	assert.Equal(t, first, store.GetActive("user-1"))

	// A new run replaces the previous one
	second := &studio.GenerationSession{ID: "job-2", UserID: "user-1"}
	store.SetActive("user-1", second)
	assert.Equal(t, second, store.GetActive("user-1"))

	store.ClearActive("user-1")
	assert.Nil(t, store.GetActive("user-1"))
}

func TestActiveSessionsAreIsolatedPerUser(t *testing.T) {
	store := NewStore(nil)

	store.SetActive("user-a", &studio.GenerationSession{ID: "job-a"})
	store.SetActive("user-b", &studio.GenerationSession{ID: "job-b"})

	assert.Equal(t, "job-a", store.GetActive("user-a").ID)
	assert.Equal(t, "job-b", store.GetActive("user-b").ID)

	store.ClearActive("user-a")
	assert.Nil(t, store.GetActive("user-a"))
	assert.NotNil(t, store.GetActive("user-b"))
}

func TestActiveSessionConcurrentAccess(t *testing.T) {
	store := NewStore(nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			store.SetActive("user", &studio.GenerationSession{ID: "job"})
		}()
		go func() {
			defer wg.Done()
			store.GetActive("user")
		}()
	}
	wg.Wait()

	require.NotNil(t, store.GetActive("user"))
}

func TestFindEntryRawMatchesByID(t *testing.T) {
	items := []string{
		`{"id":"job-1","userId":"user-1"}`,
		`{"id":"job-2","userId":"user-1"}`,
		`{"id":"job-3","userId":"user-1"}`,
	}

	item, ok := findEntryRaw(items, "job-2")
	require.True(t, ok)
	assert.Equal(t, `{"id":"job-2","userId":"user-1"}`, item)

	_, ok = findEntryRaw(items, "job-9")
	assert.False(t, ok)
}

func TestFindEntryRawSkipsCorruptItems(t *testing.T) {
	items := []string{
		`not json at all`,
		`{"id":"job-2"}`,
	}

	item, ok := findEntryRaw(items, "job-2")
	require.True(t, ok)
	assert.Equal(t, `{"id":"job-2"}`, item)
}

func TestEntryFromSessionStripsHeavyPayloads(t *testing.T) {
	created := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	session := &studio.GenerationSession{
		ID:     "job-9",
		UserID: "user-9",
		Request: studio.GenerationRequest{
			UserID: "user-9",
			Style:  studio.StyleTravel,
		},
		Plan: &studio.CreativePlan{
			Script:      "Naskah",
			ShotPrompts: []string{"a", "b", "c"},
		},
		Shots: []studio.ShotResult{
			{Index: 0, Success: true, ImageData: []byte("png"), StoragePath: "storyboards/user-9/shot_0.webp"},
			{Index: 1, Success: false, ErrorDetail: "boom"},
			{Index: 2, Success: true, ImageData: []byte("png"), StoragePath: "storyboards/user-9/shot_2.webp"},
		},
		MotionPrompts: []*string{strPtr("pan"), nil, strPtr("zoom")},
		NarrationWAV:  []byte("RIFF..."),
		Status:        studio.StatusCompleted,
		CreatedAt:     created,
	}

	entry := entryFromSession(session)

	assert.Equal(t, "job-9", entry.ID)
	assert.Equal(t, studio.StyleTravel, entry.Style)
	assert.Equal(t, studio.StatusCompleted, entry.Status)
	assert.Equal(t, 3, entry.ShotCount)
	assert.Equal(t, 2, entry.SuccessCount)
	assert.Equal(t, created, entry.CreatedAt)

	// Only uploaded successful shots are referenced, by storage path
	require.Len(t, entry.ShotPaths, 2)
	assert.Equal(t, "storyboards/user-9/shot_0.webp", entry.ShotPaths[0])
	assert.Equal(t, "storyboards/user-9/shot_2.webp", entry.ShotPaths[1])
}

func TestEntryFromSessionFailedRun(t *testing.T) {
	session := &studio.GenerationSession{
		ID:     "job-f",
		UserID: "user-f",
		Status: studio.StatusFailed,
		Shots: []studio.ShotResult{
			{Index: 0, Success: false, ErrorDetail: "quota"},
		},
	}

	entry := entryFromSession(session)

	assert.Equal(t, studio.StatusFailed, entry.Status)
	assert.Equal(t, 0, entry.SuccessCount)
	assert.Empty(t, entry.ShotPaths)
}
