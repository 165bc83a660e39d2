package board

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"taskboard-api/domain"
)

// FailureKind classifies a failed batch submission for user-facing text.
type FailureKind int

const (
	// FailureGeneric covers network faults and unclassified server errors.
	FailureGeneric FailureKind = iota
	// FailureUnauthorized means the caller is not a member of the workspace.
	FailureUnauthorized
	// FailureInvalidField means the backing store rejected the position
	// attribute. This is a schema/config problem, not a transient fault.
	FailureInvalidField
)

func (k FailureKind) String() string {
	switch k {
	case FailureUnauthorized:
		return "unauthorized"
	case FailureInvalidField:
		return "invalid-field"
	default:
		return "generic"
	}
}

// SubmitError carries the failure classification alongside its cause.
type SubmitError struct {
	Kind   FailureKind
	Detail string
	Err    error
}

func (e *SubmitError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("reorder submit failed (%s): %s", e.Kind, e.Detail)
	}
	if e.Err != nil {
		return fmt.Sprintf("reorder submit failed (%s): %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("reorder submit failed (%s)", e.Kind)
}

func (e *SubmitError) Unwrap() error { return e.Err }

// KindOf extracts the failure kind from an error, defaulting to generic.
func KindOf(err error) FailureKind {
	if se, ok := err.(*SubmitError); ok {
		return se.Kind
	}
	return FailureGeneric
}

// Submitter delivers one reorder batch to the server.
type Submitter interface {
	SubmitReorder(ctx context.Context, workspaceID string, updates []domain.ReorderUpdate) error
}

// GestureState tracks one drag gesture through the optimistic protocol.
type GestureState int

const (
	StateIdle GestureState = iota
	StateComputing
	StateOptimisticallyApplied
	StateSubmitting
	StateConfirmed
	StateRolledBack
)

func (s GestureState) String() string {
	switch s {
	case StateComputing:
		return "computing"
	case StateOptimisticallyApplied:
		return "optimistically-applied"
	case StateSubmitting:
		return "submitting"
	case StateConfirmed:
		return "confirmed"
	case StateRolledBack:
		return "rolled-back"
	default:
		return "idle"
	}
}

// Move describes one completed drag gesture: where the task was picked up and
// where it was dropped.
type Move struct {
	FromStatus domain.TaskStatus
	FromIndex  int
	ToStatus   domain.TaskStatus
	ToIndex    int
}

// Synchronizer owns the live board for one session and pushes each gesture to
// the server optimistically, restoring the prior view when submission fails.
// It has exactly one mutator (the UI event loop), so it takes no locks;
// gestures are not queued and a new gesture may start while an earlier one is
// still in flight (last write observed wins, refetch reconciles).
type Synchronizer struct {
	workspaceID string
	submitter   Submitter
	logger      *log.Logger
	board       *Board
	observer    func(GestureState)
}

// NewSynchronizer builds a synchronizer over an empty board.
func NewSynchronizer(workspaceID string, submitter Submitter, logger *log.Logger) *Synchronizer {
	return &Synchronizer{
		workspaceID: workspaceID,
		submitter:   submitter,
		logger:      logger,
		board:       New(nil),
	}
}

// Reset rebuilds the board from a fresh authoritative task list. Any
// unconfirmed local move is superseded; the server is the source of truth.
func (s *Synchronizer) Reset(tasks []domain.Task) {
	s.board = New(tasks)
}

// Board returns the current live board.
func (s *Synchronizer) Board() *Board {
	return s.board
}

// Observe registers a callback invoked on every gesture state transition,
// including the intermediate ones Apply does not return. UI code uses it to
// render in-flight gestures.
func (s *Synchronizer) Observe(fn func(GestureState)) {
	s.observer = fn
}

func (s *Synchronizer) notify(state GestureState) {
	if s.observer != nil {
		s.observer(state)
	}
}

// Apply runs one gesture: compute the moved board, show it immediately,
// submit the dense batch for every touched column, and roll back to the
// pre-move snapshot when the submission fails. The returned state is terminal
// (Confirmed or RolledBack) unless the gesture itself was invalid or a no-op.
func (s *Synchronizer) Apply(ctx context.Context, mv Move) (GestureState, error) {
	if mv.FromStatus == mv.ToStatus && mv.FromIndex == mv.ToIndex {
		return StateIdle, nil
	}

	s.notify(StateComputing)
	touched := []domain.TaskStatus{mv.FromStatus}
	var (
		next *Board
		err  error
	)
	if mv.FromStatus == mv.ToStatus {
		next, err = s.board.MoveWithinColumn(mv.FromStatus, mv.FromIndex, mv.ToIndex)
	} else {
		touched = append(touched, mv.ToStatus)
		next, err = s.board.MoveAcrossColumns(mv.FromStatus, mv.FromIndex, mv.ToStatus, mv.ToIndex)
	}
	if err != nil {
		return StateComputing, err
	}
	if next == s.board {
		return StateIdle, nil
	}

	tx := Begin(s.board)
	s.board = next
	s.notify(StateOptimisticallyApplied)

	updates := BuildReorderBatch(next, touched...)
	s.notify(StateSubmitting)
	if submitErr := s.submitter.SubmitReorder(ctx, s.workspaceID, updates); submitErr != nil {
		s.board = tx.Revert()
		s.notify(StateRolledBack)
		if s.logger != nil {
			s.logger.WithFields(log.Fields{
				"workspace": s.workspaceID,
				"kind":      KindOf(submitErr).String(),
				"updates":   len(updates),
			}).Warn("reorder rolled back")
		}
		return StateRolledBack, submitErr
	}

	tx.Commit()
	s.notify(StateConfirmed)
	return StateConfirmed, nil
}
