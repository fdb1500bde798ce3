package dialog

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/gbvolkov/shipment-data-maintenance-bot/pkg/render"
	"github.com/gbvolkov/shipment-data-maintenance-bot/pkg/session"
	"github.com/gbvolkov/shipment-data-maintenance-bot/pkg/shipment"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type handlerFunc func(ctx context.Context, userID int64, ev Event) []Reply

func (f handlerFunc) Handle(ctx context.Context, userID int64, ev Event) []Reply {
	return f(ctx, userID, ev)
}

func echo(_ context.Context, _ int64, ev Event) []Reply {
	return []Reply{{Text: ev.Text}}
}

func TestDispatcherPreservesPerUserOrder(t *testing.T) {
	const users = 5
	const perUser = 40

	d := NewDispatcher(context.Background(), handlerFunc(echo), perUser, nil)

	var mu sync.Mutex
	got := make(map[int64][]string)

	var wg sync.WaitGroup
	for u := range users {
		wg.Add(1)
		go func() {
			defer wg.Done()
			userID := int64(u + 1)
			for i := range perUser {
				err := d.Submit(userID, Text(fmt.Sprint(i)), func(replies []Reply) {
					mu.Lock()
					got[userID] = append(got[userID], replies[0].Text)
					mu.Unlock()
				})
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()
	d.Close()

	require.Len(t, got, users)
	for userID, texts := range got {
		require.Len(t, texts, perUser, "user %d", userID)
		for i, text := range texts {
			assert.Equal(t, fmt.Sprint(i), text, "user %d", userID)
		}
	}
	assert.Zero(t, d.Active())
}

func TestDispatcherRunsUsersInParallel(t *testing.T) {
	released := make(chan struct{})
	h := handlerFunc(func(_ context.Context, userID int64, ev Event) []Reply {
		if userID == 1 {
			select {
			case <-released:
				return []Reply{{Text: "released"}}
			case <-time.After(5 * time.Second):
				return []Reply{{Text: "timed out"}}
			}
		}
		close(released)
		return nil
	})
	d := NewDispatcher(context.Background(), h, 1, nil)

	result := make(chan string, 1)
	require.NoError(t, d.Submit(1, Text("slow"), func(r []Reply) { result <- r[0].Text }))
	require.NoError(t, d.Submit(2, Text("fast"), nil))

	d.Close()
	assert.Equal(t, "released", <-result)
}

func TestDispatcherBusyUserDoesNotBlockOthers(t *testing.T) {
	released := make(chan struct{})
	started := make(chan struct{}, 1)
	h := handlerFunc(func(ctx context.Context, userID int64, ev Event) []Reply {
		if userID == 1 {
			select {
			case started <- struct{}{}:
			default:
			}
			<-released
		}
		return echo(ctx, userID, ev)
	})
	const size = 2
	d := NewDispatcher(context.Background(), h, size, nil)

	var mu sync.Mutex
	var first []string
	record := func(r []Reply) {
		mu.Lock()
		first = append(first, r[0].Text)
		mu.Unlock()
	}

	require.NoError(t, d.Submit(1, Text("0"), record))
	<-started

	submitted := make(chan []error, 1)
	go func() {
		var errs []error
		for i := 1; i <= size+3; i++ {
			errs = append(errs, d.Submit(1, Text(fmt.Sprint(i)), record))
		}
		submitted <- errs
	}()

	var errs []error
	select {
	case errs = <-submitted:
	case <-time.After(time.Second):
		t.Fatal("submit blocked behind a busy user")
	}
	for i, err := range errs {
		if i < size {
			assert.NoError(t, err, "event %d", i+1)
		} else {
			assert.ErrorIs(t, err, ErrBusy, "event %d", i+1)
		}
	}

	other := make(chan string, 1)
	require.NoError(t, d.Submit(2, Text("other"), func(r []Reply) { other <- r[0].Text }))
	select {
	case got := <-other:
		assert.Equal(t, "other", got)
	case <-time.After(time.Second):
		t.Fatal("second user was not served while the first was busy")
	}

	close(released)
	d.Close()
	assert.Equal(t, []string{"0", "1", "2"}, first)
}

func TestDispatcherSubmitAfterClose(t *testing.T) {
	d := NewDispatcher(context.Background(), handlerFunc(echo), 1, nil)
	d.Close()

	assert.ErrorIs(t, d.Submit(1, Text("late"), nil), ErrClosed)
}

func TestDispatcherSurvivesPanics(t *testing.T) {
	h := handlerFunc(func(ctx context.Context, userID int64, ev Event) []Reply {
		if ev.Text == "boom" {
			panic("handler failure")
		}
		return echo(ctx, userID, ev)
	})
	d := NewDispatcher(context.Background(), h, 2, nil)

	var delivered []string
	require.NoError(t, d.Submit(1, Text("boom"), func([]Reply) { delivered = append(delivered, "boom") }))
	require.NoError(t, d.Submit(1, Text("after"), func(r []Reply) { delivered = append(delivered, r[0].Text) }))
	d.Close()

	assert.Equal(t, []string{"after"}, delivered)
}

func TestDispatcherReleasesIdleWorkers(t *testing.T) {
	d := NewDispatcher(context.Background(), handlerFunc(echo), 1, nil)
	defer d.Close()

	done := make(chan struct{})
	require.NoError(t, d.Submit(9, Text("one"), func([]Reply) { close(done) }))
	<-done

	assert.Eventually(t, func() bool { return d.Active() == 0 }, time.Second, 5*time.Millisecond)

	done = make(chan struct{})
	require.NoError(t, d.Submit(9, Text("two"), func([]Reply) { close(done) }))
	<-done
}

func TestDispatcherDrivesController(t *testing.T) {
	calls := 0
	ledger := &fakeLedger{}
	c := newTestController(returns(&calls, shipment.Shipment{Good: "A"}, shipment.Shipment{Good: "B"}), nil, ledger)
	d := NewDispatcher(context.Background(), c, 8, nil)

	var replies []Reply
	for _, ev := range []Event{
		Command(CommandAddShipment),
		Text("две отгрузки"),
		Text(render.ChoiceSave),
		Text(render.ChoiceSave),
	} {
		require.NoError(t, d.Submit(user, ev, func(r []Reply) { replies = append(replies, r...) }))
	}
	d.Close()

	assert.Equal(t, session.StateAwaitingNext, c.state(user))
	require.Len(t, ledger.saved, 2)
	assert.Equal(t, "A", ledger.saved[0].Good)
	assert.Equal(t, "B", ledger.saved[1].Good)
	assert.Equal(t, msgWhatNext, replies[len(replies)-1].Text)
}
