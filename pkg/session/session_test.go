package session

import (
	"context"
	"errors"
	"testing"

	"github.com/looplab/fsm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/gbvolkov/shipment-data-maintenance-bot/pkg/shipment"
)

func TestNewSessionIsIdle(t *testing.T) {
	s := New(42, nil)

	assert.Equal(t, StateIdle, s.State())
	assert.Empty(t, s.Pending)
	assert.Zero(t, s.Cursor)
	assert.False(t, s.CollectingProcurement())
	assert.True(t, s.Exhausted())
}

func TestFireTransitions(t *testing.T) {
	ctx := context.Background()
	s := New(1, nil)

	steps := []struct {
		event string
		want  State
	}{
		{EventBegin, StateCollecting},
		{EventExtracted, StateConfirming},
		{EventReject, StateCorrecting},
		{EventCorrected, StateConfirming},
		{EventExhaust, StateAwaitingNext},
		{EventBegin, StateCollecting},
		{EventFail, StateIdle},
	}

	for _, step := range steps {
		require.NoError(t, s.Fire(ctx, step.event), "event %s", step.event)
		assert.Equal(t, step.want, s.State())
	}
}

func TestFireBeginFromCollectingIsNotAnError(t *testing.T) {
	ctx := context.Background()
	s := New(1, nil)

	require.NoError(t, s.Fire(ctx, EventBegin))
	require.NoError(t, s.Fire(ctx, EventBegin))
	assert.Equal(t, StateCollecting, s.State())
}

func TestFireInvalidEvent(t *testing.T) {
	s := New(1, nil)

	err := s.Fire(context.Background(), EventReject)

	var invalid fsm.InvalidEventError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, StateIdle, s.State())
}

func TestFireLogsTransitions(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	s := New(7, zap.New(core))

	require.NoError(t, s.Fire(context.Background(), EventBegin))

	entries := logs.FilterMessage("session state changed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, int64(7), fields["chat_id"])
	assert.Equal(t, "idle", fields["from"])
	assert.Equal(t, "collecting", fields["to"])
}

func TestSetPendingCopiesBatch(t *testing.T) {
	s := New(1, nil)
	batch := []shipment.Shipment{{Good: "A"}, {Good: "B"}}
	s.Cursor = 2
	s.ActiveField = shipment.FieldGood

	s.SetPending(batch)
	batch[0].Good = "changed"

	require.Len(t, s.Pending, 2)
	assert.Equal(t, "A", s.Pending[0].Good)
	assert.Zero(t, s.Cursor)
	assert.Empty(t, s.ActiveField)
}

func TestAdvanceStopsAtEnd(t *testing.T) {
	s := New(1, nil)
	s.SetPending([]shipment.Shipment{{Good: "A"}})

	cur, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "A", cur.Good)

	s.Advance()
	s.Advance()

	assert.Equal(t, 1, s.Cursor)
	assert.True(t, s.Exhausted())
	_, ok = s.Current()
	assert.False(t, ok)
}

func TestReset(t *testing.T) {
	s := New(1, nil)
	s.SetPending([]shipment.Shipment{{Good: "A"}, {Good: "B"}})
	s.Advance()
	s.ActiveField = shipment.FieldGood
	s.StartProcurement()

	s.Reset()

	assert.Nil(t, s.Pending)
	assert.Zero(t, s.Cursor)
	assert.Empty(t, s.ActiveField)
	assert.Nil(t, s.Draft)
	assert.Empty(t, s.DraftField)
}

func TestProcurementDraft(t *testing.T) {
	s := New(1, nil)

	s.StartProcurement()
	require.True(t, s.CollectingProcurement())
	assert.Equal(t, shipment.FieldSupplier, s.DraftField)

	s.ClearProcurement()
	assert.False(t, s.CollectingProcurement())
}
