package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sotaychohdv/hdv-functions/internal/directory"
)

// DirectoryStore holds providers and guide profiles in maps.
type DirectoryStore struct {
	mu        sync.RWMutex
	providers map[string]directory.Provider
	guides    map[string]directory.GuideProfile
}

// NewDirectoryStore returns an empty store.
func NewDirectoryStore() *DirectoryStore {
	return &DirectoryStore{
		providers: make(map[string]directory.Provider),
		guides:    make(map[string]directory.GuideProfile),
	}
}

// PutProvider inserts or replaces a provider.
func (s *DirectoryStore) PutProvider(p directory.Provider) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.providers[p.ID] = p
}

// GetProvider returns directory.ErrNotFound for unknown ids.
func (s *DirectoryStore) GetProvider(_ context.Context, id string) (directory.Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.providers[id]
	if !ok {
		return directory.Provider{}, directory.ErrNotFound
	}
	return p, nil
}

// PutGuideProfile inserts or replaces a guide profile.
func (s *DirectoryStore) PutGuideProfile(p directory.GuideProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.guides[p.UID] = p
}

// GuideProfile returns the stored profile for uid.
func (s *DirectoryStore) GuideProfile(uid string) (directory.GuideProfile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.guides[uid]
	return p, ok
}

// ListGuideProfiles returns all profiles ordered by uid.
func (s *DirectoryStore) ListGuideProfiles(context.Context) ([]directory.GuideProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]directory.GuideProfile, 0, len(s.guides))
	for _, p := range s.guides {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UID < out[j].UID })
	return out, nil
}

// MarkNotified stamps the last reminder time on a profile.
func (s *DirectoryStore) MarkNotified(_ context.Context, uid string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.guides[uid]
	if !ok {
		return directory.ErrNotFound
	}
	p.LastExpiryNotificationAt = &at
	s.guides[uid] = p
	return nil
}
