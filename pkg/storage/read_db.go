package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/gbvolkov/shipment-data-maintenance-bot/internal/clock"
	"github.com/gbvolkov/shipment-data-maintenance-bot/pkg/shipment"
)

var errBadPage = errors.New("page and limit must be positive")

// List returns one page of stored shipments, newest first, with their
// procurements attached, and the number of shipments matching filter.
func (l *SQLLedger) List(ctx context.Context, filter Filter, page, limit int) ([]Record, int, error) {
	if page < 1 || limit < 1 {
		return nil, 0, l.fail("list", errBadPage)
	}

	var conditions []string
	var args []any
	argID := 1
	if filter.Customer != "" {
		conditions = append(conditions, "customer_name = "+l.dialect.Placeholder(argID))
		args = append(args, filter.Customer)
		argID++
	}
	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	var totalItems int
	if err := l.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM shipments"+whereClause, args...).Scan(&totalItems); err != nil {
		return nil, 0, l.fail("count", err)
	}
	if totalItems == 0 {
		return []Record{}, 0, nil
	}

	cols := append(shipmentColumns(), "created_at")
	selectSQL := fmt.Sprintf("SELECT %s FROM shipments%s ORDER BY created_at DESC, shipment_id DESC LIMIT %s OFFSET %s",
		strings.Join(cols, ", "), whereClause, l.dialect.Placeholder(argID), l.dialect.Placeholder(argID+1))
	queryArgs := append(args, limit, (page-1)*limit)

	rows, err := l.db.QueryContext(ctx, selectSQL, queryArgs...)
	if err != nil {
		return nil, 0, l.fail("list", err)
	}
	defer rows.Close()

	var records []Record
	index := make(map[string]int)
	for rows.Next() {
		values := make([]sql.NullString, len(cols))
		dest := make([]any, len(values))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, 0, l.fail("scan shipment", err)
		}

		var r Record
		r.ID = values[0].String
		for i, f := range shipment.ShipmentFields {
			r.Set(f, values[i+1].String)
		}
		if r.CreatedAt, err = clock.ParseRFC3339Nano(values[len(values)-1].String); err != nil {
			l.logger.Warn("unparseable created_at", zap.String("shipment_id", r.ID), zap.Error(err))
		}
		index[r.ID] = len(records)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, l.fail("list", err)
	}
	// Release the connection before the second query; SQLite runs on one.
	_ = rows.Close()

	if err := l.attachProcurements(ctx, records, index); err != nil {
		return nil, 0, err
	}

	l.logger.Debug("shipments listed",
		zap.Int("count", len(records)), zap.Int("page", page), zap.Int("limit", limit), zap.Int("total", totalItems))
	return records, totalItems, nil
}

func (l *SQLLedger) attachProcurements(ctx context.Context, records []Record, index map[string]int) error {
	if len(records) == 0 {
		return nil
	}
	ids := make([]any, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}

	cols := append([]string{"shipment_id"}, procurementColumns()...)
	query := fmt.Sprintf("SELECT %s FROM procurements WHERE shipment_id IN (%s) ORDER BY shipment_id, seq",
		strings.Join(cols, ", "), l.placeholders(1, len(ids)))

	rows, err := l.db.QueryContext(ctx, query, ids...)
	if err != nil {
		return l.fail("list procurements", err)
	}
	defer rows.Close()

	for rows.Next() {
		values := make([]sql.NullString, len(cols))
		dest := make([]any, len(values))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return l.fail("scan procurement", err)
		}
		p := shipment.Procurement{ShipmentID: values[0].String}
		for i, f := range shipment.ProcurementFields {
			p.Set(f, values[i+1].String)
		}
		i, ok := index[p.ShipmentID]
		if !ok {
			continue
		}
		records[i].AddProcurement(p)
	}
	return rows.Err()
}

// Summary totals shipments per customer. Costs are free-form text, so they
// are parsed and summed here rather than in SQL.
func (l *SQLLedger) Summary(ctx context.Context) ([]CustomerTotal, error) {
	rows, err := l.db.QueryContext(ctx, "SELECT customer_name, shipment_cost FROM shipments")
	if err != nil {
		return nil, l.fail("summary", err)
	}
	defer rows.Close()

	var costs []costRow
	for rows.Next() {
		var r costRow
		if err := rows.Scan(&r.customer, &r.cost); err != nil {
			return nil, l.fail("scan summary", err)
		}
		costs = append(costs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, l.fail("summary", err)
	}

	totals := summarize(costs)
	l.logger.Debug("summary computed", zap.Int("customers", len(totals)))
	return totals, nil
}
