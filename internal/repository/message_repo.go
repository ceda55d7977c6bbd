package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"chatbot-server/internal/domain"
)

var (
	// ErrMessageNotFound se devuelve cuando el id no existe o fue borrado (soft-delete).
	ErrMessageNotFound = errors.New("message not found")
	// ErrStoreUnavailable marca fallas al obtener una conexión del store.
	ErrStoreUnavailable = errors.New("message store unavailable")
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// ListOptions pagina mensajes por cursor de id ascendente.
type ListOptions struct {
	AfterID int64
	Limit   int
}

// Normalize aplica límites por defecto y máximos.
func (o ListOptions) Normalize() ListOptions {
	if o.Limit <= 0 {
		o.Limit = DefaultListLimit
	}
	if o.Limit > MaxListLimit {
		o.Limit = MaxListLimit
	}
	if o.AfterID < 0 {
		o.AfterID = 0
	}
	return o
}

type MessageRepository interface {
	CreateBatch(ctx context.Context, messages []domain.NewMessage) ([]domain.Message, error)
	GetByID(ctx context.Context, id int64) (domain.Message, error)
	UpdateContent(ctx context.Context, id int64, content string, updatedAt time.Time) (domain.Message, error)
	SoftDelete(ctx context.Context, id int64, deletedAt time.Time) error
	List(ctx context.Context, opts ListOptions) ([]domain.Message, error)
}

type rowScanner interface {
	Scan(dest ...any) error
}

type PgMessageRepository struct {
	pool *pgxpool.Pool
}

func NewPgMessageRepository(pool *pgxpool.Pool) *PgMessageRepository {
	return &PgMessageRepository{pool: pool}
}

// acquire obtiene una conexión dedicada a la operación; el caller la libera con Release.
func (r *PgMessageRepository) acquire(ctx context.Context) (*pgxpool.Conn, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return conn, nil
}

func (r *PgMessageRepository) CreateBatch(ctx context.Context, messages []domain.NewMessage) ([]domain.Message, error) {
	const query = `
		INSERT INTO messages (author, content)
		VALUES ($1, $2)
		RETURNING id, author, content, created_at, updated_at, deleted_at
	`

	conn, err := r.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	created := make([]domain.Message, 0, len(messages))
	for _, m := range messages {
		msg, err := scanMessage(tx.QueryRow(ctx, query, string(m.Author), m.Content))
		if err != nil {
			return nil, fmt.Errorf("insert message: %w", err)
		}
		created = append(created, msg)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit messages: %w", err)
	}
	return created, nil
}

func (r *PgMessageRepository) GetByID(ctx context.Context, id int64) (domain.Message, error) {
	const query = `
		SELECT id, author, content, created_at, updated_at, deleted_at
		FROM messages
		WHERE id = $1 AND deleted_at IS NULL
	`

	conn, err := r.acquire(ctx)
	if err != nil {
		return domain.Message{}, err
	}
	defer conn.Release()

	msg, err := scanMessage(conn.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Message{}, ErrMessageNotFound
	}
	return msg, err
}

func (r *PgMessageRepository) UpdateContent(ctx context.Context, id int64, content string, updatedAt time.Time) (domain.Message, error) {
	const query = `
		UPDATE messages
		SET content = $2, updated_at = $3
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING id, author, content, created_at, updated_at, deleted_at
	`

	conn, err := r.acquire(ctx)
	if err != nil {
		return domain.Message{}, err
	}
	defer conn.Release()

	msg, err := scanMessage(conn.QueryRow(ctx, query, id, content, updatedAt))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Message{}, ErrMessageNotFound
	}
	return msg, err
}

func (r *PgMessageRepository) SoftDelete(ctx context.Context, id int64, deletedAt time.Time) error {
	const query = `
		UPDATE messages
		SET deleted_at = $2
		WHERE id = $1 AND deleted_at IS NULL
	`

	conn, err := r.acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, query, id, deletedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrMessageNotFound
	}
	return nil
}

func (r *PgMessageRepository) List(ctx context.Context, opts ListOptions) ([]domain.Message, error) {
	const query = `
		SELECT id, author, content, created_at, updated_at, deleted_at
		FROM messages
		WHERE deleted_at IS NULL AND id > $1
		ORDER BY id ASC
		LIMIT $2
	`
	opts = opts.Normalize()

	conn, err := r.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, query, opts.AfterID, opts.Limit)
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

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return messages, nil
}

func scanMessage(row rowScanner) (domain.Message, error) {
	var msg domain.Message
	var author string
	err := row.Scan(
		&msg.ID,
		&author,
		&msg.Content,
		&msg.CreatedAt,
		&msg.UpdatedAt,
		&msg.DeletedAt,
	)
	if err != nil {
		return domain.Message{}, err
	}
	msg.Author = domain.Author(author)
	return msg, nil
}
