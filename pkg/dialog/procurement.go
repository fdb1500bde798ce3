package dialog

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/gbvolkov/shipment-data-maintenance-bot/pkg/shipment"
)

// startProcurement opens a draft on the current shipment. The session stays
// in Confirming; the draft routes the following messages here.
func (t *turn) startProcurement() {
	t.s.StartProcurement()
	t.say(fmt.Sprintf(msgEnterProcurement, shipment.Label(t.s.DraftField)))
}

// procurement consumes one answer of the draft and asks for the next key.
// After the last key the draft is attached and the record shown again.
func (t *turn) procurement() {
	if t.ev.Kind != KindText {
		t.invalid(msgTextExpected)
		return
	}

	t.s.Draft.Set(t.s.DraftField, t.ev.Text)
	if next, ok := shipment.NextField(shipment.ProcurementFields, t.s.DraftField); ok {
		t.s.DraftField = next
		t.say(fmt.Sprintf(msgEnterProcurement, shipment.Label(next)))
		return
	}

	cur, ok := t.s.Current()
	if !ok {
		t.log.Error("procurement without a current shipment", zap.Int("cursor", t.s.Cursor))
		t.abandon(msgSaveFailed)
		return
	}
	cur.AddProcurement(*t.s.Draft)
	t.s.ClearProcurement()
	t.log.Debug("procurement added", zap.Int("procurements", len(cur.Procurements)))
	t.say(msgProcurementAdded)
	t.confirmCurrent()
}
