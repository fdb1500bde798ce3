package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/gbvolkov/shipment-data-maintenance-bot/internal/clock"
	"github.com/gbvolkov/shipment-data-maintenance-bot/pkg/shipment"
)

// FileLedger appends one JSON document per shipment to a file.
type FileLedger struct {
	path   string
	clock  clock.Clock
	logger *zap.Logger

	mu   sync.Mutex
	seen map[string]struct{}
}

func NewFileLedger(path string, logger *zap.Logger, clk clock.Clock) *FileLedger {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &FileLedger{
		path:   path,
		clock:  clk,
		logger: logger.Named("storage.file"),
		seen:   make(map[string]struct{}),
	}
}

func (f *FileLedger) Append(ctx context.Context, s shipment.Shipment) error {
	if err := checkID(s); err != nil {
		return f.fail("append", err)
	}
	if err := ctx.Err(); err != nil {
		return f.fail("append", err)
	}

	data, err := json.Marshal(Record{Shipment: s, CreatedAt: f.clock.Now()})
	if err != nil {
		return f.fail("marshal", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, dup := f.seen[s.ID]; dup {
		return f.fail("append", fmt.Errorf("%s: %w", s.ID, ErrDuplicate))
	}

	file, err := os.OpenFile(f.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return f.fail("open", err)
	}
	defer func(file *os.File) {
		if err := file.Close(); err != nil {
			f.logger.Error("error closing file", zap.Error(err))
		}
	}(file)

	if _, err := file.Write(append(data, '\n')); err != nil {
		return f.fail("write", err)
	}
	if err := file.Sync(); err != nil {
		return f.fail("sync", err)
	}

	f.seen[s.ID] = struct{}{}
	f.logger.Info("shipment stored", zap.String("shipment_id", s.ID), zap.String("path", f.path))
	return nil
}

func (f *FileLedger) fail(op string, err error) error {
	return &Error{Backend: "file " + f.path, Op: op, Err: err}
}
