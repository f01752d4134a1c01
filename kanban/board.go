// Package kanban is the board controller behind drag-and-drop status
// changes: three fixed columns, optimistic moves and rollback on failure.
package kanban

import (
	"context"
	"errors"
	"sync"

	"bugtrack/models"
)

var (
	ErrUnknownCard = errors.New("kanban: unknown card")
	// ErrCardPending is returned when a drag starts on a card whose previous
	// move has not been confirmed by the server yet.
	ErrCardPending = errors.New("kanban: card has an update in flight")
	ErrNotDragging = errors.New("kanban: card is not being dragged")
)

// Column is one lane of the board.
type Column struct {
	ID     string
	Title  string
	Status models.Status
}

var columns = []Column{
	{ID: "backlog", Title: "Backlog", Status: models.StatusOpen},
	{ID: "in-progress", Title: "In Progress", Status: models.StatusInProgress},
	{ID: "done", Title: "Done", Status: models.StatusDone},
}

// ColumnByID looks up a lane by its drop-target id.
func ColumnByID(id string) (Column, bool) {
	for _, c := range columns {
		if c.ID == id {
			return c, true
		}
	}
	return Column{}, false
}

type CardState int

const (
	Resting CardState = iota
	Dragging
	Pending
)

func (s CardState) String() string {
	switch s {
	case Dragging:
		return "dragging"
	case Pending:
		return "pending"
	default:
		return "resting"
	}
}

// Updater persists a status change. *client.Client satisfies it.
type Updater interface {
	UpdateBug(ctx context.Context, id string, patch models.BugPatch) (*models.Bug, error)
}

// Notifier shows the outcome of a move to the user.
type Notifier interface {
	Success(message string)
	Error(message string)
}

// FailureMessage is shown when a move fails without a server message.
const FailureMessage = "Failed to update bug status"

type card struct {
	bug      models.Bug
	state    CardState
	snapshot models.Bug
}

// ColumnView is a column with the bugs currently rendered in it.
type ColumnView struct {
	Column
	Bugs []models.Bug
}

type Board struct {
	updater  Updater
	notifier Notifier

	mu    sync.Mutex
	cards map[string]*card
	order []string
}

func New(updater Updater, notifier Notifier) *Board {
	return &Board{
		updater:  updater,
		notifier: notifier,
		cards:    map[string]*card{},
	}
}

// Load replaces the board contents. Cards with a move in flight keep their
// optimistic state until the move resolves.
func (b *Board) Load(bugs []models.Bug) {
	b.mu.Lock()
	defer b.mu.Unlock()

	cards := make(map[string]*card, len(bugs))
	order := make([]string, 0, len(bugs))
	for _, bug := range bugs {
		if existing, ok := b.cards[bug.ID]; ok && existing.state == Pending {
			cards[bug.ID] = existing
		} else {
			cards[bug.ID] = &card{bug: bug}
		}
		order = append(order, bug.ID)
	}
	b.cards = cards
	b.order = order
}

// Columns returns the lanes in display order with their cards.
func (b *Board) Columns() []ColumnView {
	b.mu.Lock()
	defer b.mu.Unlock()

	views := make([]ColumnView, len(columns))
	for i, col := range columns {
		views[i] = ColumnView{Column: col, Bugs: []models.Bug{}}
		for _, id := range b.order {
			if c := b.cards[id]; c.bug.Status == col.Status {
				views[i].Bugs = append(views[i].Bugs, c.bug)
			}
		}
	}
	return views
}

// Card returns the rendered bug and its drag state.
func (b *Board) Card(id string) (models.Bug, CardState, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	c, ok := b.cards[id]
	if !ok {
		return models.Bug{}, Resting, false
	}
	return c.bug, c.state, true
}

// BeginDrag picks up a resting card and snapshots it for rollback.
func (b *Board) BeginDrag(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	c, ok := b.cards[id]
	if !ok {
		return ErrUnknownCard
	}
	if c.state == Pending {
		return ErrCardPending
	}
	c.snapshot = c.bug
	c.state = Dragging
	return nil
}

// CancelDrag puts a dragged card back without contacting the server.
func (b *Board) CancelDrag(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	c, ok := b.cards[id]
	if !ok {
		return ErrUnknownCard
	}
	if c.state != Dragging {
		return ErrNotDragging
	}
	c.state = Resting
	return nil
}

// Drop releases a dragged card over columnID. Dropping on an unknown
// column or the card's own column is a cancel. Otherwise the card moves
// at once and the status change is sent; on failure the card returns to
// its original column and exactly one error notification is shown. The
// updater's error is returned unchanged.
func (b *Board) Drop(ctx context.Context, id, columnID string) error {
	b.mu.Lock()
	c, ok := b.cards[id]
	if !ok {
		b.mu.Unlock()
		return ErrUnknownCard
	}
	if c.state != Dragging {
		b.mu.Unlock()
		return ErrNotDragging
	}

	target, ok := ColumnByID(columnID)
	if !ok || target.Status == c.snapshot.Status {
		c.state = Resting
		b.mu.Unlock()
		return nil
	}

	original := c.snapshot.Status
	c.bug.Status = target.Status
	c.state = Pending
	b.mu.Unlock()

	status := target.Status
	updated, err := b.updater.UpdateBug(ctx, id, models.BugPatch{Status: &status})

	b.mu.Lock()
	c.state = Resting
	if err != nil {
		c.bug.Status = original
	} else if updated != nil {
		c.bug = *updated
	}
	b.mu.Unlock()

	if err != nil {
		b.notifier.Error(failureMessage(err))
		return err
	}
	b.notifier.Success("Bug moved to " + target.Title)
	return nil
}

// failureMessage prefers a message the server sent for the user.
func failureMessage(err error) string {
	var m interface{ UserMessage() string }
	if errors.As(err, &m) && m.UserMessage() != "" {
		return m.UserMessage()
	}
	return FailureMessage
}
