package dialog

import (
	"context"
	"errors"

	"github.com/gbvolkov/shipment-data-maintenance-bot/pkg/transcribe"
)

// Kind classifies an inbound operator message.
type Kind int

const (
	KindText Kind = iota + 1
	KindVoice
	KindCommand
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindVoice:
		return "voice"
	case KindCommand:
		return "command"
	default:
		return "unknown"
	}
}

// Commands understood by the controller, without the leading slash.
const (
	CommandStart       = "start"
	CommandHelp        = "help"
	CommandAddShipment = "add_shipment"
	CommandSummary     = "summary"
)

// Event is one inbound operator message.
type Event struct {
	Kind Kind
	// Command is set for KindCommand.
	Command string
	// Text is the message text for KindText.
	Text string
	// Voice is set for KindVoice.
	Voice *VoiceClip
	// Notify, when set, receives progress notices before the final replies
	// are ready. Without it notices are returned together with the replies.
	Notify func(Reply)
}

func Text(s string) Event { return Event{Kind: KindText, Text: s} }

func Command(name string) Event { return Event{Kind: KindCommand, Command: name} }

func Voice(clip *VoiceClip) Event { return Event{Kind: KindVoice, Voice: clip} }

// VoiceClip downloads its audio lazily, so clips arriving in states that
// ignore voice are never fetched.
type VoiceClip struct {
	fetch func(ctx context.Context) (transcribe.Audio, error)
}

func NewVoiceClip(fetch func(ctx context.Context) (transcribe.Audio, error)) *VoiceClip {
	return &VoiceClip{fetch: fetch}
}

// StaticVoiceClip wraps audio already in memory.
func StaticVoiceClip(a transcribe.Audio) *VoiceClip {
	return NewVoiceClip(func(context.Context) (transcribe.Audio, error) { return a, nil })
}

var errNoAudio = errors.New("voice clip has no source")

func (v *VoiceClip) Fetch(ctx context.Context) (transcribe.Audio, error) {
	if v == nil || v.fetch == nil {
		return transcribe.Audio{}, errNoAudio
	}
	return v.fetch(ctx)
}

// Reply is one outbound message. Options, when non-empty, are offered as a
// one-time keyboard; an empty Options removes any keyboard.
type Reply struct {
	Text    string
	Options []string
}
