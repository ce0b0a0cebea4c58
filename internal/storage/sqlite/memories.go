package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/Monce-AI/concierge.aws.monce.ai/internal/core"
)

// timeLayout is the persisted timestamp encoding for every collection.
const timeLayout = time.RFC3339Nano

type MemoryRepo struct {
	db *sql.DB
}

func NewMemoryRepo(db *sql.DB) *MemoryRepo {
	return &MemoryRepo{db: db}
}

func (r *MemoryRepo) LoadMemories(ctx context.Context) ([]core.MemoryEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, text, source, tags, extraction, timestamp FROM memories ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query memories: %w", err)
	}
	defer rows.Close()

	var entries []core.MemoryEntry
	for rows.Next() {
		entry, err := scanMemory(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (r *MemoryRepo) SaveMemories(ctx context.Context, entries []core.MemoryEntry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM memories`); err != nil {
		return fmt.Errorf("failed to clear memories: %w", err)
	}
	for i := range entries {
		if err := insertMemory(ctx, tx, &entries[i]); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *MemoryRepo) AppendMemories(ctx context.Context, entries []core.MemoryEntry) ([]core.MemoryEntry, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	for i := range entries {
		if err := insertMemory(ctx, tx, &entries[i]); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *MemoryRepo) Forget(ctx context.Context, query string) (int, error) {
	// Matching folds in Go: sqlite's lower() is ASCII-only, so accented text
	// would escape a SQL-side instr(lower(...)) match.
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `SELECT id, text FROM memories`)
	if err != nil {
		return 0, fmt.Errorf("failed to query memories: %w", err)
	}
	needle := strings.ToLower(query)
	var ids []string
	for rows.Next() {
		var id, text string
		if err := rows.Scan(&id, &text); err != nil {
			rows.Close()
			return 0, fmt.Errorf("failed to scan memory: %w", err)
		}
		if strings.Contains(strings.ToLower(text), needle) {
			ids = append(ids, id)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, err
	}
	rows.Close()

	// Nothing is written when no row matches.
	if len(ids) == 0 {
		return 0, nil
	}
	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, `DELETE FROM memories WHERE id = ?`, id); err != nil {
			return 0, fmt.Errorf("failed to forget memory: %w", err)
		}
	}
	return len(ids), tx.Commit()
}

func insertMemory(ctx context.Context, tx *sql.Tx, entry *core.MemoryEntry) error {
	if entry.ID == "" {
		entry.ID = ulid.Make().String()
	}

	var tags any
	if len(entry.Tags) > 0 {
		b, err := json.Marshal(entry.Tags)
		if err != nil {
			return fmt.Errorf("failed to marshal tags: %w", err)
		}
		tags = string(b)
	}

	var extraction any
	if entry.Extraction != nil {
		b, err := json.Marshal(entry.Extraction)
		if err != nil {
			return fmt.Errorf("failed to marshal extraction: %w", err)
		}
		extraction = string(b)
	}

	var source any
	if entry.Source != "" {
		source = entry.Source
	}

	_, err := tx.ExecContext(ctx,
		`INSERT INTO memories (id, text, source, tags, extraction, timestamp) VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Text, source, tags, extraction, entry.Timestamp.Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to insert memory: %w", err)
	}
	return nil
}

func scanMemory(rows *sql.Rows) (core.MemoryEntry, error) {
	var entry core.MemoryEntry
	var source, tags, extraction sql.NullString
	var ts string

	if err := rows.Scan(&entry.ID, &entry.Text, &source, &tags, &extraction, &ts); err != nil {
		return entry, fmt.Errorf("failed to scan memory: %w", err)
	}

	entry.Source = source.String
	if tags.Valid && tags.String != "" {
		if err := json.Unmarshal([]byte(tags.String), &entry.Tags); err != nil {
			return entry, fmt.Errorf("corrupt tags for memory %s: %w", entry.ID, err)
		}
	}
	if extraction.Valid && extraction.String != "" {
		var rec core.ExtractionRecord
		if err := json.Unmarshal([]byte(extraction.String), &rec); err != nil {
			return entry, fmt.Errorf("corrupt extraction for memory %s: %w", entry.ID, err)
		}
		entry.Extraction = &rec
	}

	parsed, err := time.Parse(timeLayout, ts)
	if err != nil {
		return entry, fmt.Errorf("corrupt timestamp for memory %s: %w", entry.ID, err)
	}
	entry.Timestamp = parsed

	return entry, nil
}
