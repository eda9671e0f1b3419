package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"engagepro-studio-server/modules/studio"
	"github.com/redis/go-redis/v9"
)

// maxEntries caps the persisted history per user, most recent first.
const maxEntries = 50

const (
	historyKeyFmt = "studio:history:%s"
	profileKeyFmt = "studio:profile:%s"
)

// Entry is a persisted run summary. Audio and raw image bytes are
// stripped, shots are referenced by their storage paths.
type Entry struct {
	ID            string               `json:"id"`
	UserID        string               `json:"userId"`
	Style         studio.ContentStyle  `json:"style"`
	Status        string               `json:"status"`
	Plan          *studio.CreativePlan `json:"plan,omitempty"`
	ShotPaths     []string             `json:"shotPaths"`
	MotionPrompts []*string            `json:"motionPrompts,omitempty"`
	ShotCount     int                  `json:"shotCount"`
	SuccessCount  int                  `json:"successCount"`
	CreatedAt     time.Time            `json:"createdAt"`
}

// Store keeps active sessions in memory and persists finished runs
// and brand profiles in Redis.
type Store struct {
	mu     sync.RWMutex
	active map[string]*studio.GenerationSession
	rdb    *redis.Client
}

var _ studio.SessionStore = (*Store)(nil)

func NewStore(rdb *redis.Client) *Store {
	return &Store{
		active: make(map[string]*studio.GenerationSession),
		rdb:    rdb,
	}
}

// SetActive tracks the in-flight session for a user. One active run
// per user, a new run replaces the old one.
func (s *Store) SetActive(userID string, session *studio.GenerationSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active[userID] = session
}

// GetActive returns the user's in-flight session, nil when idle.
func (s *Store) GetActive(userID string) *studio.GenerationSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active[userID]
}

// ClearActive drops the user's in-flight session.
func (s *Store) ClearActive(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, userID)
}

// RecordSession appends a finished run to the user's history list,
// trimmed to the newest maxEntries.
func (s *Store) RecordSession(ctx context.Context, session *studio.GenerationSession) error {
	entry := entryFromSession(session)

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal history entry: %w", err)
	}

	key := fmt.Sprintf(historyKeyFmt, session.UserID)
	pipe := s.rdb.TxPipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, maxEntries-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to persist history entry: %w", err)
	}

	log.Printf("🗂  History entry recorded: user=%s session=%s (%d/%d shots)",
		session.UserID, session.ID, entry.SuccessCount, entry.ShotCount)
	return nil
}

// ListHistory returns the user's persisted runs, newest first.
func (s *Store) ListHistory(ctx context.Context, userID string) ([]Entry, error) {
	key := fmt.Sprintf(historyKeyFmt, userID)

	raw, err := s.rdb.LRange(ctx, key, 0, maxEntries-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	entries := make([]Entry, 0, len(raw))
	for _, item := range raw {
		var entry Entry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			log.Printf("⚠️  Skipping corrupt history entry for %s: %v", userID, err)
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ErrEntryNotFound is returned when a delete targets a missing entry.
var ErrEntryNotFound = errors.New("history entry not found")

// DeleteEntry removes one persisted run from the user's history.
func (s *Store) DeleteEntry(ctx context.Context, userID, entryID string) error {
	key := fmt.Sprintf(historyKeyFmt, userID)

	raw, err := s.rdb.LRange(ctx, key, 0, maxEntries-1).Result()
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	item, ok := findEntryRaw(raw, entryID)
	if !ok {
		return ErrEntryNotFound
	}

	if err := s.rdb.LRem(ctx, key, 1, item).Err(); err != nil {
		return fmt.Errorf("failed to delete history entry: %w", err)
	}

	log.Printf("🗑  History entry deleted: user=%s entry=%s", userID, entryID)
	return nil
}

// findEntryRaw locates the stored list item carrying the entry ID, so
// LREM can remove it by exact value.
func findEntryRaw(items []string, entryID string) (string, bool) {
	for _, item := range items {
		var entry Entry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			continue
		}
		if entry.ID == entryID {
			return item, true
		}
	}
	return "", false
}

// SaveProfile stores the user's brand profile.
func (s *Store) SaveProfile(ctx context.Context, userID string, profile *studio.BrandProfile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	if err := s.rdb.Set(ctx, fmt.Sprintf(profileKeyFmt, userID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// LoadProfile returns the stored brand profile, nil when unset.
func (s *Store) LoadProfile(ctx context.Context, userID string) (*studio.BrandProfile, error) {
	raw, err := s.rdb.Get(ctx, fmt.Sprintf(profileKeyFmt, userID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	var profile studio.BrandProfile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}
	return &profile, nil
}

// entryFromSession builds the stripped persisted form of a session.
func entryFromSession(session *studio.GenerationSession) Entry {
	entry := Entry{
		ID:            session.ID,
		UserID:        session.UserID,
		Style:         session.Request.Style,
		Status:        session.Status,
		Plan:          session.Plan,
		MotionPrompts: session.MotionPrompts,
		ShotCount:     len(session.Shots),
		SuccessCount:  session.SuccessCount(),
		CreatedAt:     session.CreatedAt,
	}

	for _, shot := range session.Shots {
		if shot.Success && shot.StoragePath != "" {
			entry.ShotPaths = append(entry.ShotPaths, shot.StoragePath)
		}
	}
	return entry
}
