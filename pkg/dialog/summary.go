package dialog

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/gbvolkov/shipment-data-maintenance-bot/pkg/storage"
)

func (t *turn) summary() {
	reader, ok := t.ledger.(storage.Reader)
	if !ok {
		t.say(msgSummaryUnavailable)
		return
	}

	ctx, cancel := context.WithTimeout(t.ctx, t.opts.PersistenceTimeout)
	defer cancel()

	totals, err := reader.Summary(ctx)
	if err != nil {
		t.log.Error("failed to build summary", zap.Error(err))
		t.say(msgSummaryFailed)
		return
	}
	t.say(formatSummary(totals))
}

func formatSummary(totals []storage.CustomerTotal) string {
	if len(totals) == 0 {
		return msgSummaryEmpty
	}

	var b strings.Builder
	b.WriteString(msgSummaryHeader)
	for _, ct := range totals {
		name := ct.Customer
		if name == "" {
			name = msgNoCustomer
		}
		b.WriteString("\n")
		fmt.Fprintf(&b, msgSummaryLine, name, ct.Shipments, ct.Cost.StringFixed(2))
		if ct.Unparsed > 0 {
			fmt.Fprintf(&b, msgSummaryUnparsed, ct.Unparsed)
		}
	}
	return b.String()
}
