package dialog

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/gbvolkov/shipment-data-maintenance-bot/pkg/logging"
)

// Handler processes one event for one user.
type Handler interface {
	Handle(ctx context.Context, userID int64, ev Event) []Reply
}

var (
	// ErrClosed is returned by Submit after Close.
	ErrClosed = errors.New("dispatcher closed")
	// ErrBusy is returned by Submit when the user already has a full queue.
	ErrBusy = errors.New("too many queued events")
)

type job struct {
	ev      Event
	deliver func([]Reply)
}

// mailbox holds the not yet started jobs of one user. It is guarded by the
// dispatcher's mutex.
type mailbox struct {
	queue []job
}

// Dispatcher runs events of one user strictly in submission order while
// different users proceed in parallel. A user's worker goroutine lives only
// while that user has queued events.
type Dispatcher struct {
	ctx     context.Context
	handler Handler
	size    int
	logger  *zap.Logger

	mu        sync.Mutex
	mailboxes map[int64]*mailbox
	closed    bool
	wg        sync.WaitGroup
}

// NewDispatcher creates a dispatcher whose handlers run under ctx. size is
// the number of events a user may have waiting behind the running one
// before Submit starts rejecting with ErrBusy.
func NewDispatcher(ctx context.Context, handler Handler, size int, logger *zap.Logger) *Dispatcher {
	if size < 1 {
		size = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		ctx:       ctx,
		handler:   handler,
		size:      size,
		logger:    logger.Named("dispatcher"),
		mailboxes: make(map[int64]*mailbox),
	}
}

// Submit queues ev for userID and returns immediately. deliver is called from
// the user's worker with the replies once the event has been handled.
func (d *Dispatcher) Submit(userID int64, ev Event, deliver func([]Reply)) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	mb, ok := d.mailboxes[userID]
	if !ok {
		mb = &mailbox{}
		d.mailboxes[userID] = mb
		d.wg.Add(1)
		go d.run(userID, mb)
	}
	if len(mb.queue) >= d.size {
		return ErrBusy
	}
	mb.queue = append(mb.queue, job{ev: ev, deliver: deliver})
	return nil
}

func (d *Dispatcher) run(userID int64, mb *mailbox) {
	defer d.wg.Done()
	for {
		d.mu.Lock()
		if len(mb.queue) == 0 {
			delete(d.mailboxes, userID)
			d.mu.Unlock()
			return
		}
		j := mb.queue[0]
		mb.queue[0] = job{}
		mb.queue = mb.queue[1:]
		d.mu.Unlock()

		d.process(userID, j)
	}
}

func (d *Dispatcher) process(userID int64, j job) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("handler panicked", logging.ChatID(userID), zap.Any("panic", r))
		}
	}()
	replies := d.handler.Handle(d.ctx, userID, j.ev)
	if j.deliver != nil {
		j.deliver(replies)
	}
}

// Active returns the number of users with queued or running events.
func (d *Dispatcher) Active() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.mailboxes)
}

// Close stops accepting events and waits until every queued event has been
// handled and delivered.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.wg.Wait()
}
