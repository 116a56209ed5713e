package testutil

import (
	"context"
	"sync"

	ierr "github.com/radu9120/ZeroDue-sub000/internal/errors"
	"github.com/radu9120/ZeroDue-sub000/internal/logger"
	"github.com/radu9120/ZeroDue-sub000/internal/postgres"
	"github.com/radu9120/ZeroDue-sub000/internal/types"
)

var _ postgres.IClient = (*MockPostgresClient)(nil) // Ensure MockPostgresClient implements IClient

// Transactional is implemented by in-memory stores whose writes must be
// undone when the surrounding transaction rolls back
type Transactional interface {
	Snapshot() any
	Restore(snapshot any)
}

type mockTx struct {
	id    string
	depth int
}

// MockPostgresClient emulates the transaction semantics the services rely on.
// Top level transactions are serialised, which is at least as strong as the
// row locks taken in postgres. A failed transaction or savepoint restores
// every registered store to the state it had when the level began.
type MockPostgresClient struct {
	logger *logger.Logger
	stores []Transactional

	// sem is held by the running top level transaction
	sem chan struct{}

	mu             sync.Mutex
	commitFailures int
	commitErr      error
	commits        int
	rollbacks      int
}

// NewMockPostgresClient creates a new mock postgres client
func NewMockPostgresClient(logger *logger.Logger, stores ...Transactional) *MockPostgresClient {
	return &MockPostgresClient{
		logger: logger,
		stores: stores,
		sem:    make(chan struct{}, 1),
	}
}

// InTx reports whether ctx carries an open mock transaction
func InTx(ctx context.Context) bool {
	_, ok := ctx.Value(types.CtxDBTransaction).(*mockTx)
	return ok
}

// WithTx executes the given function within a transaction
func (c *MockPostgresClient) WithTx(ctx context.Context, fn func(context.Context) error) error {
	if tx, ok := ctx.Value(types.CtxDBTransaction).(*mockTx); ok {
		return c.savepoint(ctx, tx, fn)
	}

	if err := ctx.Err(); err != nil {
		return ierr.WithError(err).
			WithHint("Timed out waiting for the database").
			Mark(ierr.ErrTransient)
	}
	select {
	case c.sem <- struct{}{}:
	case <-ctx.Done():
		return ierr.WithError(ctx.Err()).
			WithHint("Timed out waiting for the database").
			Mark(ierr.ErrTransient)
	}
	defer func() { <-c.sem }()

	tx := &mockTx{id: types.GenerateUUID()}
	ctx = context.WithValue(ctx, types.CtxDBTransaction, tx)
	snapshots := c.snapshot()

	c.logger.Debugw("starting mock transaction", "tx_id", tx.id)

	if err := fn(ctx); err != nil {
		c.restore(snapshots)
		c.count(false)
		return err
	}

	if err := c.nextCommitError(); err != nil {
		c.restore(snapshots)
		c.count(false)
		return err
	}

	c.count(true)
	return nil
}

func (c *MockPostgresClient) savepoint(ctx context.Context, tx *mockTx, fn func(context.Context) error) error {
	tx.depth++
	defer func() { tx.depth-- }()

	snapshots := c.snapshot()
	if err := fn(ctx); err != nil {
		c.logger.Debugw("rolling back to mock savepoint", "tx_id", tx.id, "depth", tx.depth)
		c.restore(snapshots)
		return err
	}
	return nil
}

func (c *MockPostgresClient) snapshot() []any {
	snapshots := make([]any, len(c.stores))
	for i, s := range c.stores {
		snapshots[i] = s.Snapshot()
	}
	return snapshots
}

func (c *MockPostgresClient) restore(snapshots []any) {
	for i, s := range c.stores {
		s.Restore(snapshots[i])
	}
}

func (c *MockPostgresClient) nextCommitError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.commitFailures == 0 {
		return nil
	}
	c.commitFailures--
	return c.commitErr
}

func (c *MockPostgresClient) count(committed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if committed {
		c.commits++
	} else {
		c.rollbacks++
	}
}

// FailNextCommits makes the next n top level commits roll back with err
func (c *MockPostgresClient) FailNextCommits(n int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.commitFailures = n
	c.commitErr = err
}

// Commits returns the number of committed top level transactions
func (c *MockPostgresClient) Commits() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.commits
}

// Rollbacks returns the number of rolled back top level transactions
func (c *MockPostgresClient) Rollbacks() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rollbacks
}

// Ping always succeeds
func (c *MockPostgresClient) Ping(ctx context.Context) error {
	return nil
}

func requireMockTx(ctx context.Context, op string) error {
	if !InTx(ctx) {
		return ierr.NewError(op + " requires a transaction").
			WithHint("Row locks can only be taken inside a transaction").
			Mark(ierr.ErrSystem)
	}
	return nil
}
