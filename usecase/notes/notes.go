// Package notes orchestrates note CRUD. Notes are much simpler than tasks:
// no ordering, no subtasks, no completion state.
package notes

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/taskify/backend/domain"
	"github.com/taskify/backend/gateway"
)

// Service holds the in-memory note list and persists changes in the
// background, mirroring the optimistic style of the task service.
type Service struct {
	gw      gateway.NoteGateway
	logger  *zap.Logger
	timeout time.Duration

	mu    sync.RWMutex
	notes []domain.Note

	wg sync.WaitGroup
}

// New wires the note service.
func New(gw gateway.NoteGateway, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		gw:      gw,
		logger:  logger,
		timeout: 10 * time.Second,
	}
}

// Load populates the note list from the gateway.
func (s *Service) Load(ctx context.Context) error {
	notes, err := s.gw.FetchAll(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.notes = notes
	s.mu.Unlock()
	return nil
}

// List returns a copy of the current notes.
func (s *Service) List() []domain.Note {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Note(nil), s.notes...)
}

// Create adds a note and persists it in the background.
func (s *Service) Create(title, content string) domain.Note {
	note := domain.NewNote(title, content)
	s.mu.Lock()
	s.notes = append([]domain.Note{note}, s.notes...)
	s.mu.Unlock()

	s.persistAsync("create note", func(ctx context.Context) error {
		return s.gw.Create(ctx, note)
	})
	return note
}

// Update edits a note's title and content, bumping UpdatedAt. Unknown ids
// no-op.
func (s *Service) Update(id, title, content string) {
	var updated *domain.Note
	s.mu.Lock()
	for i := range s.notes {
		if s.notes[i].ID == id {
			s.notes[i].Title = title
			s.notes[i].Content = content
			s.notes[i].UpdatedAt = time.Now().UTC()
			note := s.notes[i]
			updated = &note
			break
		}
	}
	s.mu.Unlock()

	if updated == nil {
		return
	}
	note := *updated
	s.persistAsync("update note", func(ctx context.Context) error {
		return s.gw.Update(ctx, note)
	})
}

// Delete removes a note. Unknown ids no-op locally.
func (s *Service) Delete(id string) {
	removed := false
	s.mu.Lock()
	for i := range s.notes {
		if s.notes[i].ID == id {
			s.notes = append(s.notes[:i], s.notes[i+1:]...)
			removed = true
			break
		}
	}
	s.mu.Unlock()

	if !removed {
		return
	}
	s.persistAsync("delete note", func(ctx context.Context) error {
		if err := s.gw.Delete(ctx, id); err != nil && !domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return err
		}
		return nil
	})
}

// Wait blocks until background persists settle.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) persistAsync(op string, fn func(ctx context.Context) error) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			s.logger.Error("background persist failed", zap.String("operation", op), zap.Error(err))
		}
	}()
}
