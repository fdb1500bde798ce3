// Package storage keeps confirmed shipments in an append-only ledger.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/gbvolkov/shipment-data-maintenance-bot/internal/clock"
	"github.com/gbvolkov/shipment-data-maintenance-bot/pkg/config"
	"github.com/gbvolkov/shipment-data-maintenance-bot/pkg/shipment"
)

// Ledger durably appends confirmed shipments together with their
// procurements. Records are never updated or removed.
type Ledger interface {
	Append(ctx context.Context, s shipment.Shipment) error
}

// Reader is implemented by ledgers that can be queried.
type Reader interface {
	List(ctx context.Context, filter Filter, page, limit int) ([]Record, int, error)
	Summary(ctx context.Context) ([]CustomerTotal, error)
}

var (
	// ErrPersistence is matched by every failed Append.
	ErrPersistence = errors.New("persistence failed")
	// ErrDuplicate reports an Append of an id that is already stored.
	ErrDuplicate = errors.New("shipment already stored")
	// ErrNoID reports an Append of a shipment without an id.
	ErrNoID = errors.New("shipment has no id")
)

// Error describes a failed ledger operation.
type Error struct {
	Backend string
	Op      string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("storage error: %s %s: %v", e.Backend, e.Op, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{ErrPersistence, e.Err}
}

// Record is a stored shipment.
type Record struct {
	shipment.Shipment
	CreatedAt time.Time `json:"created_at"`
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	Customer string
}

// CustomerTotal aggregates the shipments of one customer. Costs that carry
// no recognizable number are counted in Unparsed and left out of Cost.
type CustomerTotal struct {
	Customer  string          `json:"customer"`
	Shipments int             `json:"shipments"`
	Cost      decimal.Decimal `json:"cost"`
	Unparsed  int             `json:"unparsed"`
}

// Closer is implemented by ledgers holding resources.
type Closer interface {
	Close() error
}

// New opens the ledger selected by cfg.Backend.
func New(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (Ledger, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	clk := clock.RealClock{}

	switch cfg.Backend {
	case config.BackendPostgres:
		return OpenSQL(ctx, Postgres, cfg.Database.DSN(), logger, clk)
	case config.BackendSQLite:
		return OpenSQL(ctx, SQLite, cfg.SQLitePath, logger, clk)
	case config.BackendFile:
		return NewFileLedger(cfg.FilePath, logger, clk), nil
	case config.BackendDynamoDB:
		return NewDynamoLedgerFromConfig(ctx, cfg.DynamoDB, logger, clk)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

func checkID(s shipment.Shipment) error {
	if s.ID == "" {
		return ErrNoID
	}
	return nil
}
