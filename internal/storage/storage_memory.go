package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

type memOption struct {
	value    string
	autoload bool
}

// StorageMemory keeps posts and options in memory.
type StorageMemory struct {
	posts     map[int64]Post
	options   map[string]memOption
	nextID    int64
	revisions bool
	mu        sync.Mutex
}

// NewStorageMemory creates an empty in-memory store. When revisions is set,
// post updates keep a revision with the previous body.
func NewStorageMemory(revisions bool) *StorageMemory {
	return &StorageMemory{
		posts:     make(map[int64]Post),
		options:   make(map[string]memOption),
		nextID:    1,
		revisions: revisions,
	}
}

// AddPost stores p under a fresh ID and returns it.
func (s *StorageMemory) AddPost(p Post) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.ID = s.nextID
	s.nextID++
	if p.Modified.IsZero() {
		p.Modified = time.Now().UTC()
	}
	s.posts[p.ID] = p
	return p.ID
}

// AddOption stores an option with a raw value.
func (s *StorageMemory) AddOption(name, value string, autoload bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.options[name] = memOption{value: value, autoload: autoload}
}

// Post returns the stored post with the given ID.
func (s *StorageMemory) Post(id int64) (Post, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[id]
	return p, ok
}

// Revisions returns the revisions recorded for a post, oldest first.
func (s *StorageMemory) Revisions(parent int64) []Post {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Post
	for _, p := range s.posts {
		if p.Type == TypeRevision && p.Parent == parent {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *StorageMemory) QueryPosts(_ context.Context, q PostQuery) ([]Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make(map[int64]bool, len(q.IDs))
	for _, id := range q.IDs {
		ids[id] = true
	}
	types := make(map[string]bool, len(q.Types))
	for _, t := range q.Types {
		types[t] = true
	}

	var out []Post
	for _, p := range s.posts {
		if p.Status == StatusTrash || p.Status == StatusAutoDraft {
			continue
		}
		if len(ids) > 0 && !ids[p.ID] {
			continue
		}
		if len(types) > 0 && !types[p.Type] {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *StorageMemory) PostTypes(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool)
	var out []string
	for _, p := range s.posts {
		if !seen[p.Type] {
			seen[p.Type] = true
			out = append(out, p.Type)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *StorageMemory) UpdatePost(_ context.Context, p Post) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.posts[p.ID]
	if !ok {
		return 0, fmt.Errorf("post %d: %w", p.ID, ErrNotFound)
	}

	now := time.Now().UTC()
	if s.revisions && revisionedTypes[current.Type] {
		rev := Post{
			ID:       s.nextID,
			Type:     TypeRevision,
			Status:   StatusInherit,
			Title:    current.Title,
			Name:     RevisionName(current.ID),
			Content:  current.Content,
			Parent:   current.ID,
			Modified: now,
		}
		s.nextID++
		s.posts[rev.ID] = rev
	}

	current.Content = p.Content
	current.Modified = now
	s.posts[current.ID] = current
	return current.ID, nil
}

func (s *StorageMemory) InsertAttachment(_ context.Context, p Post) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.Type = TypeAttachment
	if p.Status == "" {
		p.Status = StatusInherit
	}
	p.Modified = time.Now().UTC()

	if p.ID == 0 {
		p.ID = s.nextID
		s.nextID++
		s.posts[p.ID] = p
		return p.ID, nil
	}

	current, ok := s.posts[p.ID]
	if !ok || current.Type != TypeAttachment {
		return 0, fmt.Errorf("attachment %d: %w", p.ID, ErrNotFound)
	}
	s.posts[p.ID] = p
	return p.ID, nil
}

func (s *StorageMemory) AutoloadOptions(_ context.Context) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]string)
	for name, o := range s.options {
		if o.autoload {
			out[name] = o.value
		}
	}
	return out, nil
}

func (s *StorageMemory) GetOption(_ context.Context, name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.options[name]
	if !ok {
		return "", fmt.Errorf("option %q: %w", name, ErrNotFound)
	}
	return o.value, nil
}

func (s *StorageMemory) UpdateOption(_ context.Context, name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.options[name]
	if !ok {
		o.autoload = true
	}
	o.value = value
	s.options[name] = o
	return nil
}

func (s *StorageMemory) Ping(_ context.Context) error {
	return nil
}

func (s *StorageMemory) Close() error {
	return nil
}
