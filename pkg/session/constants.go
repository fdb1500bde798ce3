package session

import "github.com/looplab/fsm"

// State is a node of the dialog state machine.
type State string

const (
	StateIdle         State = "idle"
	StateCollecting   State = "collecting"
	StateConfirming   State = "confirming"
	StateCorrecting   State = "correcting"
	StateAwaitingNext State = "awaiting_next"
)

// States lists every state in declaration order.
var States = []State{StateIdle, StateCollecting, StateConfirming, StateCorrecting, StateAwaitingNext}

// Event names accepted by Session.Fire.
const (
	EventBegin     = "begin"
	EventExtracted = "extracted"
	EventFail      = "fail"
	EventReject    = "reject"
	EventCorrected = "corrected"
	EventExhaust   = "exhaust"
)

// transitions is the full transition table. Staying in the same state is
// handled by the caller and never routed through the machine.
var transitions = fsm.Events{
	{Name: EventBegin, Src: []string{
		string(StateIdle), string(StateCollecting), string(StateConfirming),
		string(StateCorrecting), string(StateAwaitingNext),
	}, Dst: string(StateCollecting)},
	{Name: EventExtracted, Src: []string{string(StateCollecting)}, Dst: string(StateConfirming)},
	{Name: EventFail, Src: []string{
		string(StateCollecting), string(StateConfirming), string(StateCorrecting),
	}, Dst: string(StateIdle)},
	{Name: EventReject, Src: []string{string(StateConfirming)}, Dst: string(StateCorrecting)},
	{Name: EventCorrected, Src: []string{string(StateCorrecting)}, Dst: string(StateConfirming)},
	{Name: EventExhaust, Src: []string{string(StateConfirming)}, Dst: string(StateAwaitingNext)},
}
