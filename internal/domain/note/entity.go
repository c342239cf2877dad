// Package note contains the note-taking domain model.
// Notes are free-form study notes with an optional color tag, owned by a
// single user. This is pure business logic with no external dependencies.
package note

import (
	"sort"
	"strings"
	"time"

	"github.com/orbit-hub/orbit-student-hub/internal/domain/shared"
)

// Collection is the synced collection name for notes.
const Collection = "notes"

// DefaultColor is the color tag applied when none is chosen.
const DefaultColor = "default"

// Note is a study note owned by a single user.
type Note struct {
	// ID - unique identifier (UUID in string form).
	ID string

	// UserID - the owning user. Every query is scoped by this field.
	UserID string

	// Title - short title; must be non-empty to persist.
	Title string

	// Content - free-form body text.
	Content string

	// Color - color tag used by the client for card styling.
	Color string

	// CreatedAt - time of creation.
	CreatedAt time.Time

	// UpdatedAt - time of last edit; increases monotonically.
	UpdatedAt time.Time
}

// NewNoteParams contains parameters for creating a new note.
type NewNoteParams struct {
	ID      string
	UserID  string
	Title   string
	Content string
	Color   string
}

// NewNote creates a new note with validation.
func NewNote(params NewNoteParams) (*Note, error) {
	if params.ID == "" {
		return nil, shared.NewDomainError("note", "Create", shared.ErrInvalidID, "note id is required")
	}
	if params.UserID == "" {
		return nil, shared.NewDomainError("note", "Create", shared.ErrInvalidID, "user id is required")
	}

	title := strings.TrimSpace(params.Title)
	if title == "" {
		return nil, shared.ErrEmptyNoteTitle
	}

	color := params.Color
	if color == "" {
		color = DefaultColor
	}

	now := time.Now().UTC()

	return &Note{
		ID:        params.ID,
		UserID:    params.UserID,
		Title:     title,
		Content:   params.Content,
		Color:     color,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Edit replaces the note's content fields and advances UpdatedAt.
// UpdatedAt never moves backwards, even if the wall clock does.
func (n *Note) Edit(title, content, color string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return shared.ErrEmptyNoteTitle
	}

	n.Title = title
	n.Content = content
	if color != "" {
		n.Color = color
	}

	now := time.Now().UTC()
	if now.After(n.UpdatedAt) {
		n.UpdatedAt = now
	} else {
		n.UpdatedAt = n.UpdatedAt.Add(time.Nanosecond)
	}

	return nil
}

// AppendSummary appends an assistant-generated summary block to the content.
// Grammar fixes replace content via Edit; summaries are additive.
func (n *Note) AppendSummary(summary string) {
	n.Content = n.Content + "\n\n**Summary:**\n" + summary
	now := time.Now().UTC()
	if now.After(n.UpdatedAt) {
		n.UpdatedAt = now
	} else {
		n.UpdatedAt = n.UpdatedAt.Add(time.Nanosecond)
	}
}

// SortForDisplay orders notes by last update, newest first.
// Snapshot ordering is imposed after every delivery, not by the store.
func SortForDisplay(notes []*Note) {
	sort.SliceStable(notes, func(i, j int) bool {
		return notes[i].UpdatedAt.After(notes[j].UpdatedAt)
	})
}

// Clone creates a deep copy of the note.
func (n *Note) Clone() *Note {
	if n == nil {
		return nil
	}
	clone := *n
	return &clone
}
