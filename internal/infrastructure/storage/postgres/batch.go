package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// BatchInserter bulk-inserts rows over the COPY protocol. The stock
// ledger uses it to write movement batches in one round trip.
type BatchInserter struct {
	txm *TxManager
}

// NewBatchInserter creates a new batch inserter.
func NewBatchInserter(txm *TxManager) *BatchInserter {
	return &BatchInserter{txm: txm}
}

// CopyFromSlice writes all rows to table via COPY. Each row must match
// columns positionally. COPY only works inside a transaction.
func (b *BatchInserter) CopyFromSlice(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	tx := b.txm.GetTx(ctx)
	if tx == nil {
		return 0, fmt.Errorf("CopyFromSlice requires transaction context")
	}

	return tx.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
}

// BatchQuery is one statement queued into a batch round trip.
type BatchQuery struct {
	SQL  string
	Args []any
}

// ExecBatch sends all queries in a single round trip and fails on the
// first statement error.
func (b *BatchInserter) ExecBatch(ctx context.Context, queries []BatchQuery) error {
	tx := b.txm.GetTx(ctx)
	if tx == nil {
		return fmt.Errorf("ExecBatch requires transaction context")
	}

	batch := &pgx.Batch{}
	for _, q := range queries {
		batch.Queue(q.SQL, q.Args...)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for range queries {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("batch query failed: %w", err)
		}
	}

	return nil
}
