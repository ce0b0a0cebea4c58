package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Monce-AI/concierge.aws.monce.ai/internal/core"
)

type DigestRepo struct {
	db *sql.DB
}

func NewDigestRepo(db *sql.DB) *DigestRepo {
	return &DigestRepo{db: db}
}

func (r *DigestRepo) LoadDigests(ctx context.Context) ([]core.Digest, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT type, factory, text, data, timestamp FROM digests ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query digests: %w", err)
	}
	defer rows.Close()

	var digests []core.Digest
	for rows.Next() {
		var d core.Digest
		var factory, data sql.NullString
		var ts string
		if err := rows.Scan(&d.Type, &factory, &d.Text, &data, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan digest: %w", err)
		}
		d.Factory = factory.String
		if data.Valid && data.String != "" {
			d.Data = json.RawMessage(data.String)
		}
		parsed, err := time.Parse(timeLayout, ts)
		if err != nil {
			return nil, fmt.Errorf("corrupt digest timestamp: %w", err)
		}
		d.Timestamp = parsed
		digests = append(digests, d)
	}
	return digests, rows.Err()
}

// SaveDigests replaces the whole collection. An empty set clears it: stale
// digests never survive a recomputation.
func (r *DigestRepo) SaveDigests(ctx context.Context, digests []core.Digest) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM digests`); err != nil {
		return fmt.Errorf("failed to clear digests: %w", err)
	}

	for _, d := range digests {
		var factory any
		if d.Factory != "" {
			factory = d.Factory
		}
		var data any
		if len(d.Data) > 0 {
			data = string(d.Data)
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO digests (type, factory, text, data, timestamp) VALUES (?, ?, ?, ?, ?)`,
			string(d.Type), factory, d.Text, data, d.Timestamp.Format(timeLayout))
		if err != nil {
			return fmt.Errorf("failed to insert digest: %w", err)
		}
	}

	return tx.Commit()
}
