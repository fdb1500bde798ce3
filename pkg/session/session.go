package session

import (
	"context"
	"errors"
	"sync"

	"github.com/looplab/fsm"
	"go.uber.org/zap"

	"github.com/gbvolkov/shipment-data-maintenance-bot/pkg/shipment"
)

// Session represents one user's place in the dialog. Callers must hold the
// session lock while reading or mutating it.
type Session struct {
	UserID int64

	// Pending holds the shipments of the current batch in extraction order.
	Pending []shipment.Shipment
	// Cursor indexes the shipment under review; len(Pending) means exhausted.
	Cursor int
	// ActiveField is the key awaiting a correction value, or empty.
	ActiveField shipment.Field
	// Draft is the procurement being collected field by field, or nil.
	Draft *shipment.Procurement
	// DraftField is the procurement key the next message fills.
	DraftField shipment.Field

	machine *fsm.FSM
	mu      sync.Mutex
}

// New creates an idle session for userID.
func New(userID int64, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Session{UserID: userID}
	s.machine = fsm.NewFSM(string(StateIdle), transitions, fsm.Callbacks{
		"enter_state": func(_ context.Context, e *fsm.Event) {
			logger.Debug("session state changed",
				zap.Int64("chat_id", userID),
				zap.String("event", e.Event),
				zap.String("from", e.Src),
				zap.String("to", e.Dst),
			)
		},
	})
	return s
}

// Lock acquires exclusive access to the session.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the session.
func (s *Session) Unlock() { s.mu.Unlock() }

// State returns the current dialog state.
func (s *Session) State() State {
	return State(s.machine.Current())
}

// Fire applies event to the state machine. It returns an
// fsm.InvalidEventError when event is not valid in the current state.
func (s *Session) Fire(ctx context.Context, event string) error {
	err := s.machine.Event(ctx, event)
	var noTransition fsm.NoTransitionError
	if errors.As(err, &noTransition) && noTransition.Err == nil {
		return nil
	}
	return err
}

// Reset clears every batch field. The state is left untouched.
func (s *Session) Reset() {
	s.Pending = nil
	s.Cursor = 0
	s.ActiveField = ""
	s.Draft = nil
	s.DraftField = ""
}

// SetPending stores a freshly extracted batch and rewinds the cursor.
func (s *Session) SetPending(batch []shipment.Shipment) {
	s.Pending = make([]shipment.Shipment, len(batch))
	for i, sh := range batch {
		s.Pending[i] = sh.Clone()
	}
	s.Cursor = 0
	s.ActiveField = ""
	s.Draft = nil
	s.DraftField = ""
}

// Current returns the shipment under review.
func (s *Session) Current() (*shipment.Shipment, bool) {
	if s.Cursor < 0 || s.Cursor >= len(s.Pending) {
		return nil, false
	}
	return &s.Pending[s.Cursor], true
}

// Advance moves the cursor past the current shipment. It never moves
// beyond len(Pending).
func (s *Session) Advance() {
	if s.Cursor < len(s.Pending) {
		s.Cursor++
	}
}

// Exhausted reports whether every pending shipment has been handled.
func (s *Session) Exhausted() bool {
	return s.Cursor >= len(s.Pending)
}

// CollectingProcurement reports whether a procurement draft is open.
func (s *Session) CollectingProcurement() bool {
	return s.Draft != nil
}

// StartProcurement opens an empty procurement draft at the first key.
func (s *Session) StartProcurement() {
	s.Draft = &shipment.Procurement{}
	s.DraftField = shipment.ProcurementFields[0]
}

// ClearProcurement discards the open draft.
func (s *Session) ClearProcurement() {
	s.Draft = nil
	s.DraftField = ""
}
