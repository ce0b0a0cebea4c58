package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Monce-AI/concierge.aws.monce.ai/internal/core"
)

type ConversationRepo struct {
	db  *sql.DB
	cap int
}

func NewConversationRepo(db *sql.DB, cap int) *ConversationRepo {
	return &ConversationRepo{db: db, cap: cap}
}

func (r *ConversationRepo) LoadConversations(ctx context.Context) ([]core.ConversationEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user, assistant, timestamp FROM conversations ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	defer rows.Close()

	var entries []core.ConversationEntry
	for rows.Next() {
		var entry core.ConversationEntry
		var ts string
		if err := rows.Scan(&entry.User, &entry.Assistant, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		parsed, err := time.Parse(timeLayout, ts)
		if err != nil {
			return nil, fmt.Errorf("corrupt conversation timestamp: %w", err)
		}
		entry.Timestamp = parsed
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (r *ConversationRepo) SaveConversation(ctx context.Context, user, assistant string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO conversations (user, assistant, timestamp) VALUES (?, ?, ?)`,
		user, assistant, time.Now().UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to insert conversation: %w", err)
	}

	// Evict oldest entries beyond the cap, in the same transaction.
	_, err = tx.ExecContext(ctx,
		`DELETE FROM conversations WHERE seq NOT IN (SELECT seq FROM conversations ORDER BY seq DESC LIMIT ?)`,
		r.cap)
	if err != nil {
		return fmt.Errorf("failed to trim conversations: %w", err)
	}

	return tx.Commit()
}
