package importers

import (
	"context"
	"errors"
	"sync"

	"github.com/opicprep/trainer/internal/entities"
)

// memoryStore is an in-memory QuestionStore that enforces the natural key.
type memoryStore struct {
	mu        sync.Mutex
	rows      []entities.Question
	keys      map[entities.QuestionKey]bool
	calls     int
	failRow   func(q *entities.Question) error
	failBatch int // 1-based batch number to fail, 0 = never
	batches   int
	batchLens []int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{keys: make(map[entities.QuestionKey]bool)}
}

func (s *memoryStore) ExistingKeys(ctx context.Context) ([]entities.QuestionKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	keys := make([]entities.QuestionKey, 0, len(s.rows))
	for _, q := range s.rows {
		keys = append(keys, q.Key())
	}
	return keys, nil
}

func (s *memoryStore) InsertQuestion(ctx context.Context, q *entities.Question) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.failRow != nil {
		if err := s.failRow(q); err != nil {
			return false, err
		}
	}
	return s.insertLocked(*q), nil
}

func (s *memoryStore) InsertQuestions(ctx context.Context, qs []entities.Question) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.batches++
	s.batchLens = append(s.batchLens, len(qs))
	if s.failBatch == s.batches {
		return 0, errors.New("connection reset")
	}
	inserted := 0
	for _, q := range qs {
		if s.insertLocked(q) {
			inserted++
		}
	}
	return inserted, nil
}

func (s *memoryStore) insertLocked(q entities.Question) bool {
	key := q.Key()
	if s.keys[key] {
		return false
	}
	s.keys[key] = true
	q.ID = uint(len(s.rows) + 1)
	s.rows = append(s.rows, q)
	return true
}

type progressEvent struct {
	kind    string
	percent int
	status  entities.ImportStatus
	message string
}

// recordingReporter keeps every progress call for assertions.
type recordingReporter struct {
	events   []progressEvent
	startErr error
}

func (r *recordingReporter) StartRun(ctx context.Context, runID string) error {
	r.events = append(r.events, progressEvent{kind: "start"})
	return r.startErr
}

func (r *recordingReporter) UpdateProgress(ctx context.Context, runID string, percent int, counts entities.ImportCounts) error {
	r.events = append(r.events, progressEvent{kind: "progress", percent: percent})
	return nil
}

func (r *recordingReporter) CompleteRun(ctx context.Context, runID string, status entities.ImportStatus, counts entities.ImportCounts, message string) error {
	r.events = append(r.events, progressEvent{kind: "complete", status: status, message: message})
	return nil
}

func (r *recordingReporter) percents() []int {
	var out []int
	for _, e := range r.events {
		if e.kind == "progress" {
			out = append(out, e.percent)
		}
	}
	return out
}

func (r *recordingReporter) last() progressEvent {
	return r.events[len(r.events)-1]
}
