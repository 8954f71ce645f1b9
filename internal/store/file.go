package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	logx "linkscout/pkg/logx"
)

// fileStore is a dependency-free persistence backend.
//
// The whole schedule set lives in one JSON file mapping id -> record.
// Every mutation rewrites the file as a snapshot (tmp + rename), so a
// crash mid-write never leaves a truncated store behind. Mutations are
// serialized by the store mutex; cross-process writers are not
// coordinated.
type fileStore struct {
	log  logx.Logger
	path string

	mu        sync.Mutex
	schedules map[string]Schedule
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("store.path is required for file driver")
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	s := &fileStore{log: log, path: path, schedules: map[string]Schedule{}}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *fileStore) load() error {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	var m map[string]Schedule
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	if m != nil {
		s.schedules = m
	}
	return nil
}

func (s *fileStore) flushLocked() error {
	tmp := s.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.schedules); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *fileStore) List(ctx context.Context) ([]Schedule, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Schedule, 0, len(s.schedules))
	for _, sch := range s.schedules {
		out = append(out, sch)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *fileStore) Get(ctx context.Context, id string) (Schedule, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	sch, ok := s.schedules[id]
	if !ok {
		return Schedule{}, ErrNotFound
	}
	return sch, nil
}

func (s *fileStore) Put(ctx context.Context, sch Schedule) error {
	_ = ctx
	if strings.TrimSpace(sch.ID) == "" {
		return errors.New("schedule id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schedules[sch.ID] = sch
	return s.flushLocked()
}

func (s *fileStore) Delete(ctx context.Context, id string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.schedules[id]; !ok {
		return nil
	}
	delete(s.schedules, id)
	return s.flushLocked()
}

func (s *fileStore) Close() error { return nil }
