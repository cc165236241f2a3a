// Package postgres provides PostgreSQL infrastructure components.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	"supplytrack/internal/core/id"
	"supplytrack/internal/domain/audit"
)

// CompressionAlgo specifies the compression algorithm used for large
// audit change payloads.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// auditRow is the sys_audit table shape. Changes above the threshold are
// stored zstd-compressed in changes_compressed with changes left NULL.
type auditRow struct {
	ID                id.ID           `db:"id"`
	UserID            string          `db:"user_id"`
	UserEmail         string          `db:"user_email"`
	Action            string          `db:"action"`
	EntityType        string          `db:"entity_type"`
	EntityID          string          `db:"entity_id"`
	ObjectRepr        string          `db:"object_repr"`
	Changes           json.RawMessage `db:"changes"`
	ChangesCompressed []byte          `db:"changes_compressed"`
	CompressionAlgo   CompressionAlgo `db:"compression_algo"`
	Extra             json.RawMessage `db:"extra"`
	IP                string          `db:"ip"`
	RequestPath       string          `db:"request_path"`
	CreatedAt         time.Time       `db:"created_at"`
}

// AuditRepo implements audit.Repository.
type AuditRepo struct {
	txm               *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int // bytes
}

// NewAuditRepo creates a new audit repository.
func NewAuditRepo(txm *TxManager) (*AuditRepo, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &AuditRepo{
		txm:               txm,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: 10 * 1024, // 10KB
	}, nil
}

// Insert stores one audit entry, compressing large change payloads.
func (r *AuditRepo) Insert(ctx context.Context, entry audit.Entry) error {
	row := auditRow{
		ID:              entry.ID,
		UserID:          entry.UserID,
		UserEmail:       entry.UserEmail,
		Action:          string(entry.Action),
		EntityType:      entry.EntityType,
		EntityID:        entry.EntityID,
		ObjectRepr:      entry.ObjectRepr,
		CompressionAlgo: CompressionNone,
		IP:              entry.IP,
		RequestPath:     entry.RequestPath,
		CreatedAt:       entry.CreatedAt,
	}

	if len(entry.Changes) > 0 {
		raw, err := json.Marshal(entry.Changes)
		if err != nil {
			return fmt.Errorf("marshal changes: %w", err)
		}
		if len(raw) > r.compressThreshold {
			row.ChangesCompressed = r.encoder.EncodeAll(raw, nil)
			row.CompressionAlgo = CompressionZstd
		} else {
			row.Changes = raw
		}
	}

	if len(entry.Extra) > 0 {
		raw, err := json.Marshal(entry.Extra)
		if err != nil {
			return fmt.Errorf("marshal extra: %w", err)
		}
		row.Extra = raw
	}

	sql := `
		INSERT INTO sys_audit (
			id, user_id, user_email, action, entity_type, entity_id,
			object_repr, changes, changes_compressed, compression_algo,
			extra, ip, request_path, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.txm.GetQuerier(ctx).Exec(ctx, sql,
		row.ID, row.UserID, row.UserEmail, row.Action, row.EntityType, row.EntityID,
		row.ObjectRepr, row.Changes, row.ChangesCompressed, row.CompressionAlgo,
		row.Extra, row.IP, row.RequestPath, row.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// ListByEntity returns entries for an entity, newest first, decompressing
// change payloads on the way out.
func (r *AuditRepo) ListByEntity(ctx context.Context, entityType, entityID string, limit int) ([]audit.Entry, error) {
	sql := `
		SELECT id, user_id, user_email, action, entity_type, entity_id,
			   object_repr, changes, changes_compressed, compression_algo,
			   extra, ip, request_path, created_at
		FROM sys_audit
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC
		LIMIT $3
	`

	rows, err := r.txm.GetQuerier(ctx).Query(ctx, sql, entityType, entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit history: %w", err)
	}
	defer rows.Close()

	var entries []audit.Entry
	for rows.Next() {
		var row auditRow
		err := rows.Scan(
			&row.ID, &row.UserID, &row.UserEmail, &row.Action, &row.EntityType, &row.EntityID,
			&row.ObjectRepr, &row.Changes, &row.ChangesCompressed, &row.CompressionAlgo,
			&row.Extra, &row.IP, &row.RequestPath, &row.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}

		entry, err := r.toEntry(row)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

func (r *AuditRepo) toEntry(row auditRow) (audit.Entry, error) {
	entry := audit.Entry{
		ID:          row.ID,
		UserID:      row.UserID,
		UserEmail:   row.UserEmail,
		Action:      audit.Action(row.Action),
		EntityType:  row.EntityType,
		EntityID:    row.EntityID,
		ObjectRepr:  row.ObjectRepr,
		IP:          row.IP,
		RequestPath: row.RequestPath,
		CreatedAt:   row.CreatedAt,
	}

	raw := row.Changes
	if row.CompressionAlgo == CompressionZstd && len(row.ChangesCompressed) > 0 {
		decompressed, err := r.decoder.DecodeAll(row.ChangesCompressed, nil)
		if err != nil {
			return entry, fmt.Errorf("decompress changes: %w", err)
		}
		raw = decompressed
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &entry.Changes); err != nil {
			return entry, fmt.Errorf("unmarshal changes: %w", err)
		}
	}

	if len(row.Extra) > 0 {
		if err := json.Unmarshal(row.Extra, &entry.Extra); err != nil {
			return entry, fmt.Errorf("unmarshal extra: %w", err)
		}
	}

	return entry, nil
}

// Ensure interface compliance.
var _ audit.Repository = (*AuditRepo)(nil)
