package readmodel

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore is a process-local Store with the same upsert and update
// semantics as MongoStore. It backs development runs without MongoDB.
type MemoryStore struct {
	mu         sync.RWMutex
	users      map[string]UserDocument
	activities map[string]ActivityDocument
	roles      map[int]RoleDocument
}

// NewMemoryStore returns an empty store preloaded with the role catalog.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		users:      map[string]UserDocument{},
		activities: map[string]ActivityDocument{},
		roles:      map[int]RoleDocument{},
	}
	for _, r := range CatalogRoles() {
		s.roles[r.ID] = r
	}
	return s
}

func (s *MemoryStore) InsertUser(_ context.Context, doc UserDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[doc.ID]; !ok {
		s.users[doc.ID] = doc
	}
	return nil
}

func (s *MemoryStore) UpdateUser(_ context.Context, id string, p UserPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.users[id]
	if !ok {
		return fmt.Errorf("user %s: %w", id, ErrDocumentNotFound)
	}
	if p.Name != nil {
		doc.Name = *p.Name
	}
	if p.LastName != nil {
		doc.LastName = *p.LastName
	}
	if p.Email != nil {
		doc.Email = *p.Email
	}
	if p.Phone != nil {
		doc.Phone = *p.Phone
	}
	if p.Address != nil {
		doc.Address = *p.Address
	}
	if p.PasswordHash != nil {
		doc.PasswordHash = *p.PasswordHash
	}
	if p.RoleID != nil {
		doc.RoleID = *p.RoleID
	}
	if p.Verified != nil {
		doc.Verified = *p.Verified
	}
	s.users[id] = doc
	return nil
}

func (s *MemoryStore) InsertActivity(_ context.Context, doc ActivityDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.activities[doc.ID]; !ok {
		s.activities[doc.ID] = doc
	}
	return nil
}

func (s *MemoryStore) FindUserByID(_ context.Context, id string) (*UserDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.users[id]
	if !ok {
		return nil, ErrDocumentNotFound
	}
	return &doc, nil
}

func (s *MemoryStore) FindUserByEmail(_ context.Context, email string) (*UserDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, doc := range s.users {
		if doc.Email == email {
			d := doc
			return &d, nil
		}
	}
	return nil, ErrDocumentNotFound
}

func (s *MemoryStore) ListUsers(_ context.Context) ([]UserDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]UserDocument, 0, len(s.users))
	for _, doc := range s.users {
		out = append(out, doc)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastName != out[j].LastName {
			return out[i].LastName < out[j].LastName
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *MemoryStore) ListActivities(_ context.Context, filter ActivityFilter) ([]ActivityDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []ActivityDocument{}
	for _, doc := range s.activities {
		if filter.matches(doc) {
			out = append(out, doc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OccurredAt.After(out[j].OccurredAt) })
	return out, nil
}

func (s *MemoryStore) FindRoleByID(_ context.Context, id int) (*RoleDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.roles[id]
	if !ok {
		return nil, ErrDocumentNotFound
	}
	return &doc, nil
}

func (s *MemoryStore) ListRoles(_ context.Context) ([]RoleDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]RoleDocument, 0, len(s.roles))
	for _, doc := range s.roles {
		out = append(out, doc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
