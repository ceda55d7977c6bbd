package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"chatbot-server/internal/domain"
)

// SQLiteMessageRepository implementa MessageRepository sobre database/sql + go-sqlite3.
// Pensado para desarrollo local y tests; producción usa PgMessageRepository.
type SQLiteMessageRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteMessageRepository(db *sql.DB) *SQLiteMessageRepository {
	return &SQLiteMessageRepository{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (r *SQLiteMessageRepository) conn(ctx context.Context) (*sql.Conn, error) {
	conn, err := r.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return conn, nil
}

func (r *SQLiteMessageRepository) CreateBatch(ctx context.Context, messages []domain.NewMessage) ([]domain.Message, error) {
	const query = `INSERT INTO messages (author, content, created_at) VALUES (?, ?, ?)`

	conn, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	createdAt := r.now()
	created := make([]domain.Message, 0, len(messages))
	for _, m := range messages {
		res, err := tx.ExecContext(ctx, query, string(m.Author), m.Content, createdAt)
		if err != nil {
			return nil, fmt.Errorf("insert message: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("insert message id: %w", err)
		}
		created = append(created, domain.Message{
			ID:         id,
			Author:     m.Author,
			Content:    m.Content,
			Timestamps: domain.Timestamps{CreatedAt: createdAt},
		})
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit messages: %w", err)
	}
	return created, nil
}

func (r *SQLiteMessageRepository) GetByID(ctx context.Context, id int64) (domain.Message, error) {
	conn, err := r.conn(ctx)
	if err != nil {
		return domain.Message{}, err
	}
	defer conn.Close()

	return getLiveSQLiteMessage(ctx, conn, id)
}

func (r *SQLiteMessageRepository) UpdateContent(ctx context.Context, id int64, content string, updatedAt time.Time) (domain.Message, error) {
	const query = `UPDATE messages SET content = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`

	conn, err := r.conn(ctx)
	if err != nil {
		return domain.Message{}, err
	}
	defer conn.Close()

	res, err := conn.ExecContext(ctx, query, content, updatedAt, id)
	if err != nil {
		return domain.Message{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.Message{}, err
	}
	if n == 0 {
		return domain.Message{}, ErrMessageNotFound
	}
	return getLiveSQLiteMessage(ctx, conn, id)
}

func (r *SQLiteMessageRepository) SoftDelete(ctx context.Context, id int64, deletedAt time.Time) error {
	const query = `UPDATE messages SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`

	conn, err := r.conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	res, err := conn.ExecContext(ctx, query, deletedAt, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrMessageNotFound
	}
	return nil
}

func (r *SQLiteMessageRepository) List(ctx context.Context, opts ListOptions) ([]domain.Message, error) {
	const query = `
		SELECT id, author, content, created_at, updated_at, deleted_at
		FROM messages
		WHERE deleted_at IS NULL AND id > ?
		ORDER BY id ASC
		LIMIT ?
	`
	opts = opts.Normalize()

	conn, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	rows, err := conn.QueryContext(ctx, query, opts.AfterID, opts.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]domain.Message, 0, opts.Limit)
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return messages, nil
}

func getLiveSQLiteMessage(ctx context.Context, conn *sql.Conn, id int64) (domain.Message, error) {
	const query = `
		SELECT id, author, content, created_at, updated_at, deleted_at
		FROM messages
		WHERE id = ? AND deleted_at IS NULL
	`
	msg, err := scanMessage(conn.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Message{}, ErrMessageNotFound
	}
	return msg, err
}
