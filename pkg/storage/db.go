package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/gbvolkov/shipment-data-maintenance-bot/internal/clock"
	"github.com/gbvolkov/shipment-data-maintenance-bot/pkg/shipment"
)

// Dialect captures the differences between the supported SQL engines.
type Dialect struct {
	Name   string
	Driver string
	// Placeholder renders the n-th (1-based) bind parameter.
	Placeholder func(n int) string
}

var (
	Postgres = Dialect{Name: "postgres", Driver: "postgres", Placeholder: func(n int) string { return "$" + strconv.Itoa(n) }}
	SQLite   = Dialect{Name: "sqlite", Driver: "sqlite", Placeholder: func(int) string { return "?" }}
)

// SQLLedger stores shipments in a shipments table and their procurements in
// a procurements table keyed by (shipment_id, seq).
type SQLLedger struct {
	db      *sql.DB
	dialect Dialect
	clock   clock.Clock
	logger  *zap.Logger
}

// OpenSQL connects to dsn, verifies the connection and creates the tables.
func OpenSQL(ctx context.Context, d Dialect, dsn string, logger *zap.Logger, clk clock.Clock) (*SQLLedger, error) {
	db, err := sql.Open(d.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	if d.Driver == SQLite.Driver {
		// One writer keeps SQLite from returning SQLITE_BUSY under concurrent appends.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	l, err := NewSQLLedger(ctx, db, d, logger, clk)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return l, nil
}

// NewSQLLedger wraps an open database.
func NewSQLLedger(ctx context.Context, db *sql.DB, d Dialect, logger *zap.Logger, clk clock.Clock) (*SQLLedger, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clk == nil {
		clk = clock.RealClock{}
	}
	l := &SQLLedger{db: db, dialect: d, clock: clk, logger: logger.Named("storage." + d.Name)}
	if err := l.createTablesIfNotExist(ctx); err != nil {
		return nil, err
	}
	l.logger.Info("connected to the database")
	return l, nil
}

const idColumn = "shipment_id"

func shipmentColumns() []string {
	cols := []string{idColumn}
	for _, f := range shipment.ShipmentFields {
		cols = append(cols, string(f))
	}
	return cols
}

func procurementColumns() []string {
	cols := make([]string, 0, len(shipment.ProcurementFields))
	for _, f := range shipment.ProcurementFields {
		cols = append(cols, string(f))
	}
	return cols
}

func (l *SQLLedger) createTablesIfNotExist(ctx context.Context) error {
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS shipments (\n\tshipment_id TEXT PRIMARY KEY")
	for _, f := range shipment.ShipmentFields {
		fmt.Fprintf(&b, ",\n\t%s TEXT NOT NULL DEFAULT ''", f)
	}
	b.WriteString(",\n\tcreated_at TEXT NOT NULL\n)")

	stmts := []string{
		b.String(),
		`CREATE INDEX IF NOT EXISTS shipments_customer_name_idx ON shipments (customer_name)`,
		`CREATE TABLE IF NOT EXISTS procurements (
	shipment_id TEXT NOT NULL REFERENCES shipments (shipment_id),
	seq INTEGER NOT NULL,
	supplier TEXT NOT NULL DEFAULT '',
	good TEXT NOT NULL DEFAULT '',
	good_volume TEXT NOT NULL DEFAULT '',
	good_price TEXT NOT NULL DEFAULT '',
	supply_cost TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (shipment_id, seq)
)`,
	}
	for _, stmt := range stmts {
		if _, err := l.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create tables: %w", err)
		}
	}
	return nil
}

func (l *SQLLedger) placeholders(from, n int) string {
	ph := make([]string, n)
	for i := range ph {
		ph[i] = l.dialect.Placeholder(from + i)
	}
	return strings.Join(ph, ", ")
}

func (l *SQLLedger) fail(op string, err error) error {
	return &Error{Backend: l.dialect.Name, Op: op, Err: err}
}

// Append writes the shipment row and its procurement rows in one transaction.
func (l *SQLLedger) Append(ctx context.Context, s shipment.Shipment) error {
	if err := checkID(s); err != nil {
		return l.fail("append", err)
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return l.fail("begin", err)
	}
	defer func() { _ = tx.Rollback() }()

	cols := append(shipmentColumns(), "created_at")
	args := make([]any, 0, len(cols))
	args = append(args, s.ID)
	for _, f := range shipment.ShipmentFields {
		v, _ := s.Get(f)
		args = append(args, v)
	}
	args = append(args, clock.FormatRFC3339Nano(l.clock.Now()))

	insertShipment := fmt.Sprintf("INSERT INTO shipments (%s) VALUES (%s)",
		strings.Join(cols, ", "), l.placeholders(1, len(cols)))
	if _, err := tx.ExecContext(ctx, insertShipment, args...); err != nil {
		if l.isUniqueViolation(err) {
			return l.fail("append", fmt.Errorf("%s: %w", s.ID, ErrDuplicate))
		}
		return l.fail("insert shipment", err)
	}

	pcols := append([]string{"shipment_id", "seq"}, procurementColumns()...)
	insertProcurement := fmt.Sprintf("INSERT INTO procurements (%s) VALUES (%s)",
		strings.Join(pcols, ", "), l.placeholders(1, len(pcols)))
	for i, p := range s.Procurements {
		pargs := []any{s.ID, i}
		for _, f := range shipment.ProcurementFields {
			v, _ := p.Get(f)
			pargs = append(pargs, v)
		}
		if _, err := tx.ExecContext(ctx, insertProcurement, pargs...); err != nil {
			return l.fail("insert procurement", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return l.fail("commit", err)
	}
	l.logger.Info("shipment stored",
		zap.String("shipment_id", s.ID),
		zap.Int("procurements", len(s.Procurements)),
	)
	return nil
}

func (l *SQLLedger) isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}

// DB exposes the underlying pool.
func (l *SQLLedger) DB() *sql.DB {
	return l.db
}

func (l *SQLLedger) Close() error {
	if err := l.db.Close(); err != nil {
		l.logger.Error("error closing database connection", zap.Error(err))
		return err
	}
	l.logger.Info("database connection closed")
	return nil
}

var _ interface {
	Ledger
	Reader
	Closer
} = (*SQLLedger)(nil)
