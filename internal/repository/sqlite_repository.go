package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"lifeline/backend/internal/model"
)

type sqliteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository stores timestamps as unix microseconds.
func NewSQLiteRepository(db *sql.DB) Repository {
	return &sqliteRepository{db: db}
}

func (r *sqliteRepository) SaveConversation(ctx context.Context, conv *model.Conversation) error {
	query := `
		INSERT INTO conversations (id, title, created_at, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET title = excluded.title, updated_at = excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, query, conv.ID, conv.Title, conv.CreatedAt.UnixMicro(), conv.UpdatedAt.UnixMicro())
	if err != nil {
		return fmt.Errorf("could not save conversation: %w", err)
	}
	return nil
}

func (r *sqliteRepository) GetConversation(ctx context.Context, id string) (*model.Conversation, error) {
	query := "SELECT id, title, created_at, updated_at FROM conversations WHERE id = ?"
	row := r.db.QueryRowContext(ctx, query, id)

	conv, err := scanConversation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("could not get conversation: %w", err)
	}
	return conv, nil
}

func (r *sqliteRepository) ListConversations(ctx context.Context) ([]model.Conversation, error) {
	query := "SELECT id, title, created_at, updated_at FROM conversations ORDER BY updated_at DESC, created_at DESC"
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("could not list conversations: %w", err)
	}
	defer rows.Close()

	conversations := []model.Conversation{}
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("could not scan conversation: %w", err)
		}
		conversations = append(conversations, *conv)
	}
	return conversations, rows.Err()
}

func (r *sqliteRepository) TouchConversation(ctx context.Context, id string, title *string, at time.Time) error {
	var (
		res sql.Result
		err error
	)
	if title != nil {
		res, err = r.db.ExecContext(ctx, "UPDATE conversations SET title = ?, updated_at = ? WHERE id = ?", *title, at.UnixMicro(), id)
	} else {
		res, err = r.db.ExecContext(ctx, "UPDATE conversations SET updated_at = ? WHERE id = ?", at.UnixMicro(), id)
	}
	if err != nil {
		return fmt.Errorf("could not update conversation: %w", err)
	}
	return requireAffected(res)
}

// DeleteConversation removes the messages first and then the conversation in
// one transaction. Stray messages are removed even when the conversation
// itself is missing.
func (r *sqliteRepository) DeleteConversation(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM messages WHERE conversation_id = ?", id); err != nil {
		return fmt.Errorf("could not delete messages: %w", err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM conversations WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("could not delete conversation: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}
	return requireAffected(res)
}

// AddMessage bumps the parent first so a missing conversation is detected
// before anything is inserted.
func (r *sqliteRepository) AddMessage(ctx context.Context, msg *model.Message) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "UPDATE conversations SET updated_at = ? WHERE id = ?", msg.Timestamp.UnixMicro(), msg.ConversationID)
	if err != nil {
		return fmt.Errorf("could not update conversation timestamp: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return err
	}

	insert := "INSERT INTO messages (id, conversation_id, role, content, timestamp) VALUES (?, ?, ?, ?, ?)"
	_, err = tx.ExecContext(ctx, insert, msg.ID, msg.ConversationID, string(msg.Role), msg.Content, msg.Timestamp.UnixMicro())
	if err != nil {
		return fmt.Errorf("could not insert message: %w", err)
	}

	return tx.Commit()
}

func (r *sqliteRepository) GetMessages(ctx context.Context, conversationID string) ([]model.Message, error) {
	query := `
		SELECT id, conversation_id, role, content, timestamp
		FROM messages
		WHERE conversation_id = ?
		ORDER BY timestamp ASC, rowid ASC
	`
	rows, err := r.db.QueryContext(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("could not get messages: %w", err)
	}
	defer rows.Close()

	messages := []model.Message{}
	for rows.Next() {
		var (
			msg  model.Message
			role string
			ts   int64
		)
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &role, &msg.Content, &ts); err != nil {
			return nil, fmt.Errorf("could not scan message: %w", err)
		}
		msg.Role = model.Role(role)
		msg.Timestamp = time.UnixMicro(ts).UTC()
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

func (r *sqliteRepository) DeleteAll(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM messages"); err != nil {
		return fmt.Errorf("could not delete messages: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM conversations"); err != nil {
		return fmt.Errorf("could not delete conversations: %w", err)
	}
	return tx.Commit()
}

func (r *sqliteRepository) DeleteOrphanedMessages(ctx context.Context) (int, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM messages WHERE conversation_id NOT IN (SELECT id FROM conversations)")
	if err != nil {
		return 0, fmt.Errorf("could not delete orphaned messages: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("could not count orphaned messages: %w", err)
	}
	return int(n), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConversation(row rowScanner) (*model.Conversation, error) {
	var (
		conv             model.Conversation
		created, updated int64
	)
	if err := row.Scan(&conv.ID, &conv.Title, &created, &updated); err != nil {
		return nil, err
	}
	conv.CreatedAt = time.UnixMicro(created).UTC()
	conv.UpdatedAt = time.UnixMicro(updated).UTC()
	return &conv, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
