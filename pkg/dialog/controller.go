// Package dialog drives the per-operator conversation that turns free-form
// messages into confirmed shipment records.
package dialog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gbvolkov/shipment-data-maintenance-bot/pkg/config"
	"github.com/gbvolkov/shipment-data-maintenance-bot/pkg/extract"
	"github.com/gbvolkov/shipment-data-maintenance-bot/pkg/logging"
	"github.com/gbvolkov/shipment-data-maintenance-bot/pkg/render"
	"github.com/gbvolkov/shipment-data-maintenance-bot/pkg/session"
	"github.com/gbvolkov/shipment-data-maintenance-bot/pkg/shipment"
	"github.com/gbvolkov/shipment-data-maintenance-bot/pkg/storage"
	"github.com/gbvolkov/shipment-data-maintenance-bot/pkg/transcribe"
)

type Options struct {
	ExtractionTimeout    time.Duration
	TranscriptionTimeout time.Duration
	PersistenceTimeout   time.Duration
	// RetryInPlace keeps the batch after a failed save and lets the operator
	// try the same record again. By default the batch is abandoned.
	RetryInPlace bool
	NewID        func() string
	Logger       *zap.Logger
}

func defaultOptions() Options {
	return Options{
		ExtractionTimeout:    60 * time.Second,
		TranscriptionTimeout: 60 * time.Second,
		PersistenceTimeout:   30 * time.Second,
		NewID:                shipment.NewID,
		Logger:               zap.NewNop(),
	}
}

// WithDialogConfig copies timeouts and the retry policy from cfg.
func WithDialogConfig(cfg config.DialogConfig) func(*Options) {
	return func(o *Options) {
		if cfg.ExtractionTimeout > 0 {
			o.ExtractionTimeout = cfg.ExtractionTimeout
		}
		if cfg.TranscriptionTimeout > 0 {
			o.TranscriptionTimeout = cfg.TranscriptionTimeout
		}
		if cfg.PersistenceTimeout > 0 {
			o.PersistenceTimeout = cfg.PersistenceTimeout
		}
		o.RetryInPlace = cfg.RetryInPlace
	}
}

func WithLogger(logger *zap.Logger) func(*Options) {
	return func(o *Options) {
		if logger != nil {
			o.Logger = logger
		}
	}
}

// Controller applies operator events to sessions. It is safe for concurrent
// use; events of one user are serialized on that user's session lock.
type Controller struct {
	sessions    *session.Store
	extractor   extract.Extractor
	transcriber transcribe.Transcriber
	ledger      storage.Ledger
	opts        Options
	logger      *zap.Logger
}

func New(sessions *session.Store, extractor extract.Extractor, transcriber transcribe.Transcriber, ledger storage.Ledger, optFns ...func(*Options)) *Controller {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Controller{
		sessions:    sessions,
		extractor:   extractor,
		transcriber: transcriber,
		ledger:      ledger,
		opts:        opts,
		logger:      opts.Logger.Named("dialog"),
	}
}

// Handle processes ev for userID and returns the replies to send, in order.
// Every failure is answered with a message; Handle never fails.
func (c *Controller) Handle(ctx context.Context, userID int64, ev Event) []Reply {
	s := c.sessions.Get(userID)
	s.Lock()
	defer s.Unlock()

	t := &turn{
		Controller: c,
		ctx:        ctx,
		s:          s,
		ev:         ev,
		log:        c.logger.With(logging.ChatID(userID)),
	}
	t.log.Debug("event received", zap.Stringer("kind", ev.Kind), zap.String("state", string(s.State())))

	if ev.Kind == KindCommand {
		t.command()
		return t.replies
	}

	switch s.State() {
	case session.StateIdle:
		t.invalid(msgUseAddShipment)
	case session.StateCollecting:
		t.collecting()
	case session.StateConfirming:
		if s.CollectingProcurement() {
			t.procurement()
		} else {
			t.confirming()
		}
	case session.StateCorrecting:
		t.correcting()
	case session.StateAwaitingNext:
		t.awaitingNext()
	}
	return t.replies
}

// turn carries one event through the controller.
type turn struct {
	*Controller
	ctx     context.Context
	s       *session.Session
	ev      Event
	log     *zap.Logger
	replies []Reply
}

func (t *turn) say(text string, options ...string) {
	t.replies = append(t.replies, Reply{Text: text, Options: options})
}

func (t *turn) notify(text string) {
	if t.ev.Notify != nil {
		t.ev.Notify(Reply{Text: text})
		return
	}
	t.say(text)
}

func (t *turn) fire(event string) {
	if err := t.s.Fire(t.ctx, event); err != nil {
		// The handlers only fire events valid for the current state.
		t.log.Error("unexpected state transition", zap.String("event", event), zap.Error(err))
	}
}

func (t *turn) invalid(text string, options ...string) {
	t.log.Debug("input not valid in current state",
		kindField(InvalidOperatorInput),
		zap.Stringer("kind", t.ev.Kind),
		zap.String("state", string(t.s.State())),
	)
	t.say(text, options...)
}

func (t *turn) command() {
	switch strings.ToLower(t.ev.Command) {
	case CommandStart, CommandHelp:
		t.say(msgWelcome)
	case CommandAddShipment:
		t.beginBatch()
	case CommandSummary:
		t.summary()
	default:
		t.invalid(msgUnknownCommand)
	}
}

func (t *turn) beginBatch() {
	t.s.Reset()
	t.fire(session.EventBegin)
	t.say(msgSendShipment)
}

// abandon drops the batch after a failed extraction or transcription.
func (t *turn) abandon(text string) {
	t.s.Reset()
	t.fire(session.EventFail)
	t.say(text)
}

func (t *turn) collecting() {
	switch t.ev.Kind {
	case KindVoice:
		text, ok := t.transcribe()
		if !ok {
			t.abandon(msgVoiceFailed)
			return
		}
		t.extract(text)
	default:
		if strings.TrimSpace(t.ev.Text) == "" {
			t.invalid(msgEmptyMessage)
			return
		}
		t.extract(t.ev.Text)
	}
}

func (t *turn) transcribe() (string, bool) {
	t.notify(msgRecognizing)

	ctx, cancel := context.WithTimeout(t.ctx, t.opts.TranscriptionTimeout)
	defer cancel()

	audio, err := t.ev.Voice.Fetch(ctx)
	if err != nil {
		t.log.Error("failed to download voice message", kindField(TranscriptionFailure), zap.Error(err))
		return "", false
	}
	text, err := t.transcriber.Transcribe(ctx, audio)
	switch {
	case errors.Is(err, transcribe.ErrNothingRecognized):
		t.log.Warn("voice message contained no speech", kindField(TranscriptionFailure))
		return "", false
	case err != nil:
		t.log.Error("failed to transcribe voice message", kindField(TranscriptionFailure), zap.Error(err))
		return "", false
	}
	t.log.Info("voice message transcribed", zap.Int("chars", len(text)))
	return text, true
}

func (t *turn) extract(text string) {
	ctx, cancel := context.WithTimeout(t.ctx, t.opts.ExtractionTimeout)
	defer cancel()

	started := time.Now()
	batch, err := t.extractor.Extract(ctx, text)
	if err == nil && len(batch) == 0 {
		err = extract.ErrNoShipments
	}
	switch {
	case errors.Is(err, extract.ErrNoShipments):
		t.log.Warn("extraction returned no shipments", kindField(ExtractionFailure))
		t.abandon(msgParseFailed)
		return
	case err != nil:
		t.log.Error("extraction failed", kindField(ExtractionFailure), zap.Error(err))
		t.abandon(msgParseFailed)
		return
	}

	t.s.SetPending(batch)
	t.fire(session.EventExtracted)
	t.log.Info("shipments extracted", zap.Int("count", len(batch)), zap.Duration("elapsed", time.Since(started)))
	t.confirmCurrent()
}

func (t *turn) confirmCurrent() {
	cur, ok := t.s.Current()
	if !ok {
		return
	}
	t.say(render.Confirmation(*cur), render.ConfirmChoices()...)
}

func matches(text string, answers ...string) bool {
	text = strings.ToLower(strings.TrimSpace(text))
	for _, a := range answers {
		if text == a {
			return true
		}
	}
	return false
}

func (t *turn) confirming() {
	if t.ev.Kind != KindText {
		t.invalid(msgChooseConfirm, render.ConfirmChoices()...)
		return
	}

	switch {
	case matches(t.ev.Text, acceptAnswers...):
		t.accept()
	case matches(t.ev.Text, rejectAnswers...):
		t.fire(session.EventReject)
		t.say(msgWhichField, render.FieldMenu()...)
	case matches(t.ev.Text, strings.ToLower(render.ChoiceAddProcurement)):
		t.startProcurement()
	default:
		t.invalid(msgChooseConfirm, render.ConfirmChoices()...)
	}
}

func (t *turn) accept() {
	cur, ok := t.s.Current()
	if !ok {
		t.log.Error("confirming without a current shipment", zap.Int("cursor", t.s.Cursor))
		t.abandon(msgSaveFailed)
		return
	}

	id := t.opts.NewID()
	cur.AssignID(id)

	ctx, cancel := context.WithTimeout(t.ctx, t.opts.PersistenceTimeout)
	err := t.ledger.Append(ctx, cur.Clone())
	cancel()
	if err != nil {
		cur.AssignID("")
		t.log.Error("failed to store shipment",
			kindField(PersistenceFailure),
			zap.String("shipment_id", id),
			zap.Error(err),
		)
		if t.opts.RetryInPlace {
			t.say(msgSaveFailed)
			t.confirmCurrent()
			return
		}
		t.fire(session.EventFail)
		t.say(msgSaveFailed)
		return
	}

	t.log.Info("shipment stored", zap.String("shipment_id", id), zap.Int("cursor", t.s.Cursor))
	t.say(fmt.Sprintf(msgSaved, id))
	t.s.Advance()

	if !t.s.Exhausted() {
		t.confirmCurrent()
		return
	}
	t.fire(session.EventExhaust)
	t.say(msgAllProcessed)
	t.say(msgWhatNext, render.NextStepChoices()...)
}

func (t *turn) correcting() {
	if t.ev.Kind != KindText {
		if t.s.ActiveField != "" {
			t.invalid(msgTextExpected)
		} else {
			t.invalid(msgTextExpected, render.FieldMenu()...)
		}
		return
	}

	if field := t.s.ActiveField; field != "" {
		cur, ok := t.s.Current()
		if !ok {
			t.log.Error("correcting without a current shipment", zap.Int("cursor", t.s.Cursor))
			t.abandon(msgSaveFailed)
			return
		}
		cur.Set(field, t.ev.Text)
		t.s.ActiveField = ""
		t.fire(session.EventCorrected)
		t.log.Debug("field corrected", zap.String("field", string(field)))
		t.say(fmt.Sprintf(msgFieldUpdated, shipment.Label(field), t.ev.Text))
		t.confirmCurrent()
		return
	}

	key, ok := shipment.KeyForLabel(strings.TrimSpace(t.ev.Text))
	switch {
	case ok && shipment.IsShipmentField(key):
		t.s.ActiveField = key
		t.say(fmt.Sprintf(msgEnterValue, shipment.Label(key)))
	case ok && key == shipment.FieldProcurement:
		t.fire(session.EventCorrected)
		t.startProcurement()
	default:
		t.invalid(msgInvalidField, render.FieldMenu()...)
	}
}

func (t *turn) awaitingNext() {
	if t.ev.Kind == KindText && strings.TrimSpace(t.ev.Text) == render.ChoiceNewBatch {
		t.beginBatch()
		return
	}
	t.invalid(msgChooseNext, render.NextStepChoices()...)
}
