// Package command contains write operations (CQRS - Commands).
// Commands change the state of the system. Every write to a synced collection
// ends with a CollectionChangedEvent so live subscribers receive a fresh
// snapshot; the write itself never carries record data to subscribers.
package command

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/orbit-hub/orbit-student-hub/internal/domain/note"
	"github.com/orbit-hub/orbit-student-hub/internal/domain/shared"
	"github.com/orbit-hub/orbit-student-hub/pkg/logger"
)

// CreateNoteCommand contains the data needed to create a note.
type CreateNoteCommand struct {
	UserID  string
	Title   string
	Content string
	Color   string
}

// Validate validates the command.
func (c CreateNoteCommand) Validate() error {
	if c.UserID == "" {
		return shared.NewDomainError("note", "Create", shared.ErrInvalidID, "user id is required")
	}
	return nil
}

// UpdateNoteCommand contains the data needed to edit a note.
type UpdateNoteCommand struct {
	UserID  string
	NoteID  string
	Title   string
	Content string
	Color   string
}

// DeleteNoteCommand identifies the note to delete.
type DeleteNoteCommand struct {
	UserID string
	NoteID string
}

// AppendSummaryCommand appends an assistant-generated summary to a note.
type AppendSummaryCommand struct {
	UserID  string
	NoteID  string
	Summary string
}

// NoteHandler handles all note write commands.
type NoteHandler struct {
	noteRepo  note.Repository
	publisher shared.EventPublisher
	log       *logger.Logger
}

// NewNoteHandler creates a new NoteHandler.
func NewNoteHandler(noteRepo note.Repository, publisher shared.EventPublisher, log *logger.Logger) *NoteHandler {
	return &NoteHandler{
		noteRepo:  noteRepo,
		publisher: publisher,
		log:       log.With(logger.Component("command.notes")),
	}
}

// Create creates a note and notifies subscribers.
func (h *NoteHandler) Create(ctx context.Context, cmd CreateNoteCommand) (*note.Note, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	n, err := note.NewNote(note.NewNoteParams{
		ID:      uuid.NewString(),
		UserID:  cmd.UserID,
		Title:   cmd.Title,
		Content: cmd.Content,
		Color:   cmd.Color,
	})
	if err != nil {
		return nil, err
	}

	if err := h.noteRepo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("create note: %w", err)
	}

	h.notifyChanged(cmd.UserID)
	return n, nil
}

// Update edits an existing note. The note must belong to the caller.
func (h *NoteHandler) Update(ctx context.Context, cmd UpdateNoteCommand) (*note.Note, error) {
	n, err := h.ownedNote(ctx, cmd.UserID, cmd.NoteID)
	if err != nil {
		return nil, err
	}

	if err := n.Edit(cmd.Title, cmd.Content, cmd.Color); err != nil {
		return nil, err
	}

	if err := h.noteRepo.Update(ctx, n); err != nil {
		return nil, fmt.Errorf("update note: %w", err)
	}

	h.notifyChanged(cmd.UserID)
	return n, nil
}

// Delete removes a note. The note must belong to the caller.
func (h *NoteHandler) Delete(ctx context.Context, cmd DeleteNoteCommand) error {
	if _, err := h.ownedNote(ctx, cmd.UserID, cmd.NoteID); err != nil {
		return err
	}

	if err := h.noteRepo.Delete(ctx, cmd.NoteID); err != nil {
		return fmt.Errorf("delete note: %w", err)
	}

	h.notifyChanged(cmd.UserID)
	return nil
}

// AppendSummary appends an assistant summary block to a note's content.
func (h *NoteHandler) AppendSummary(ctx context.Context, cmd AppendSummaryCommand) (*note.Note, error) {
	n, err := h.ownedNote(ctx, cmd.UserID, cmd.NoteID)
	if err != nil {
		return nil, err
	}

	n.AppendSummary(cmd.Summary)

	if err := h.noteRepo.Update(ctx, n); err != nil {
		return nil, fmt.Errorf("append summary: %w", err)
	}

	h.notifyChanged(cmd.UserID)
	return n, nil
}

// ownedNote loads a note and checks ownership. Accessing another user's
// note reports not-found rather than forbidden, so IDs cannot be probed.
func (h *NoteHandler) ownedNote(ctx context.Context, userID, noteID string) (*note.Note, error) {
	n, err := h.noteRepo.GetByID(ctx, noteID)
	if err != nil {
		return nil, err
	}
	if n.UserID != userID {
		return nil, shared.ErrNoteNotFound
	}
	return n, nil
}

func (h *NoteHandler) notifyChanged(userID string) {
	if err := h.publisher.Publish(shared.NewCollectionChangedEvent(note.Collection, userID)); err != nil {
		h.log.Warn("failed to publish collection change", logger.Err(err), logger.UserID(userID))
	}
}
