package notes_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskify/backend/domain"
	"github.com/taskify/backend/usecase/notes"
)

type fakeNoteGateway struct {
	mu     sync.Mutex
	notes  []domain.Note
	err    error
	writes []string
}

func (g *fakeNoteGateway) FetchAll(context.Context) ([]domain.Note, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	return append([]domain.Note(nil), g.notes...), nil
}

func (g *fakeNoteGateway) record(op string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.writes = append(g.writes, op)
	return g.err
}

func (g *fakeNoteGateway) Create(_ context.Context, note domain.Note) error {
	return g.record("create " + note.ID)
}

func (g *fakeNoteGateway) Update(_ context.Context, note domain.Note) error {
	return g.record("update " + note.ID)
}

func (g *fakeNoteGateway) Delete(_ context.Context, id string) error {
	return g.record("delete " + id)
}

func (g *fakeNoteGateway) written() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.writes...)
}

func TestNotesLoad(t *testing.T) {
	gw := &fakeNoteGateway{notes: []domain.Note{domain.NewNote("a", "body")}}
	svc := notes.New(gw, nil)

	require.NoError(t, svc.Load(context.Background()))
	require.Len(t, svc.List(), 1)
	assert.Equal(t, "a", svc.List()[0].Title)
}

func TestNotesLoadError(t *testing.T) {
	gw := &fakeNoteGateway{err: errors.New("connection refused")}
	svc := notes.New(gw, nil)

	assert.Error(t, svc.Load(context.Background()))
	assert.Empty(t, svc.List())
}

func TestNotesCreatePrepends(t *testing.T) {
	gw := &fakeNoteGateway{}
	svc := notes.New(gw, nil)

	first := svc.Create("first", "")
	second := svc.Create("second", "")
	svc.Wait()

	list := svc.List()
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
	assert.Contains(t, gw.written(), "create "+first.ID)
}

func TestNotesUpdateBumpsUpdatedAt(t *testing.T) {
	gw := &fakeNoteGateway{}
	svc := notes.New(gw, nil)
	note := svc.Create("draft", "v1")

	svc.Update(note.ID, "final", "v2")
	svc.Wait()

	list := svc.List()
	require.Len(t, list, 1)
	assert.Equal(t, "final", list[0].Title)
	assert.Equal(t, "v2", list[0].Content)
	assert.False(t, list[0].UpdatedAt.Before(note.UpdatedAt))
	assert.Contains(t, gw.written(), "update "+note.ID)
}

func TestNotesUpdateUnknownIDIsNoOp(t *testing.T) {
	gw := &fakeNoteGateway{}
	svc := notes.New(gw, nil)
	svc.Create("a", "")
	svc.Wait()
	before := len(gw.written())

	svc.Update("missing", "x", "y")
	svc.Wait()

	assert.Len(t, gw.written(), before)
}

func TestNotesDelete(t *testing.T) {
	gw := &fakeNoteGateway{}
	svc := notes.New(gw, nil)
	note := svc.Create("a", "")

	svc.Delete(note.ID)
	svc.Delete("missing")
	svc.Wait()

	assert.Empty(t, svc.List())
	assert.Contains(t, gw.written(), "delete "+note.ID)
}
