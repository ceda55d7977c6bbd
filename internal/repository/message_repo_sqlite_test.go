package repository

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"chatbot-server/internal/db"
	"chatbot-server/internal/domain"
)

func newTestSQLiteRepo(t *testing.T) *SQLiteMessageRepository {
	t.Helper()
	ctx := context.Background()
	sqlDB, err := db.OpenSQLite(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })
	if err := db.MigrateSQLite(ctx, sqlDB); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewSQLiteMessageRepository(sqlDB)
}

func createExchange(t *testing.T, repo *SQLiteMessageRepository, content string) []domain.Message {
	t.Helper()
	out, err := repo.CreateBatch(context.Background(), []domain.NewMessage{
		{Author: domain.AuthorUser, Content: content},
		{Author: domain.AuthorChatbot, Content: "reply to " + content},
	})
	if err != nil {
		t.Fatalf("create batch: %v", err)
	}
	return out
}

func TestSQLiteMessageRepository_CreateBatchAssignsIncreasingIDs(t *testing.T) {
	repo := newTestSQLiteRepo(t)

	first := createExchange(t, repo, "hola")
	second := createExchange(t, repo, "chau")

	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("expected 2 messages per batch, got %d and %d", len(first), len(second))
	}
	if first[0].Author != domain.AuthorUser || first[1].Author != domain.AuthorChatbot {
		t.Fatalf("expected user then chatbot, got %q then %q", first[0].Author, first[1].Author)
	}
	if !(first[0].ID < first[1].ID && first[1].ID < second[0].ID && second[0].ID < second[1].ID) {
		t.Fatalf("expected increasing ids, got %d %d %d %d", first[0].ID, first[1].ID, second[0].ID, second[1].ID)
	}
	if first[0].CreatedAt.IsZero() {
		t.Fatalf("expected created_at to be set")
	}
}

func TestSQLiteMessageRepository_GetByIDRoundTripsLongContent(t *testing.T) {
	repo := newTestSQLiteRepo(t)
	long := strings.Repeat("a", 1_000_000)
	created := createExchange(t, repo, long)

	got, err := repo.GetByID(context.Background(), created[0].ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if got.Content != long {
		t.Fatalf("expected content of length %d, got %d", len(long), len(got.Content))
	}
	if got.UpdatedAt != nil || got.DeletedAt != nil {
		t.Fatalf("expected nil updated_at/deleted_at, got %+v", got.Timestamps)
	}
}

func TestSQLiteMessageRepository_UpdateContent(t *testing.T) {
	repo := newTestSQLiteRepo(t)
	created := createExchange(t, repo, "hola")
	now := time.Now().UTC()

	updated, err := repo.UpdateContent(context.Background(), created[1].ID, "editado", now)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.ID != created[1].ID || updated.Author != domain.AuthorChatbot {
		t.Fatalf("expected id/author unchanged, got %+v", updated)
	}
	if updated.Content != "editado" {
		t.Fatalf("expected updated content, got %q", updated.Content)
	}
	if updated.UpdatedAt == nil || !updated.UpdatedAt.Equal(now) {
		t.Fatalf("expected updated_at %v, got %v", now, updated.UpdatedAt)
	}

	if _, err := repo.UpdateContent(context.Background(), 9999, "x", now); !errors.Is(err, ErrMessageNotFound) {
		t.Fatalf("expected ErrMessageNotFound, got %v", err)
	}
}

func TestSQLiteMessageRepository_SoftDeleteHidesMessage(t *testing.T) {
	repo := newTestSQLiteRepo(t)
	created := createExchange(t, repo, "hola")
	ctx := context.Background()
	now := time.Now().UTC()

	if err := repo.SoftDelete(ctx, created[0].ID, now); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, created[0].ID); !errors.Is(err, ErrMessageNotFound) {
		t.Fatalf("expected deleted message to be hidden, got %v", err)
	}
	if _, err := repo.UpdateContent(ctx, created[0].ID, "x", now); !errors.Is(err, ErrMessageNotFound) {
		t.Fatalf("expected update of deleted message to fail, got %v", err)
	}
	if err := repo.SoftDelete(ctx, created[0].ID, now); !errors.Is(err, ErrMessageNotFound) {
		t.Fatalf("expected second delete to fail, got %v", err)
	}
	if err := repo.SoftDelete(ctx, 9999, now); !errors.Is(err, ErrMessageNotFound) {
		t.Fatalf("expected ErrMessageNotFound, got %v", err)
	}
}

func TestSQLiteMessageRepository_List(t *testing.T) {
	repo := newTestSQLiteRepo(t)
	ctx := context.Background()
	a := createExchange(t, repo, "a")
	b := createExchange(t, repo, "b")
	if err := repo.SoftDelete(ctx, a[1].ID, time.Now().UTC()); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	all, err := repo.List(ctx, ListOptions{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 live messages, got %d", len(all))
	}

	page, err := repo.List(ctx, ListOptions{AfterID: a[1].ID, Limit: 1})
	if err != nil {
		t.Fatalf("list page: %v", err)
	}
	if len(page) != 1 || page[0].ID != b[0].ID {
		t.Fatalf("expected page with id %d, got %+v", b[0].ID, page)
	}
}

func TestSQLiteMessageRepository_ClosedDBIsUnavailable(t *testing.T) {
	repo := newTestSQLiteRepo(t)
	repo.db.Close()

	_, err := repo.CreateBatch(context.Background(), []domain.NewMessage{{Author: domain.AuthorUser, Content: "hola"}})
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestListOptionsNormalize(t *testing.T) {
	cases := []struct {
		in   ListOptions
		want ListOptions
	}{
		{in: ListOptions{}, want: ListOptions{Limit: DefaultListLimit}},
		{in: ListOptions{Limit: 1000}, want: ListOptions{Limit: MaxListLimit}},
		{in: ListOptions{AfterID: -3, Limit: 5}, want: ListOptions{Limit: 5}},
	}
	for i, c := range cases {
		if got := c.in.Normalize(); got != c.want {
			t.Fatalf("case %d expected %+v, got %+v", i, c.want, got)
		}
	}
}

func TestSQLiteMessageRepository_CreateBatchIsAtomic(t *testing.T) {
	repo := newTestSQLiteRepo(t)
	ctx := context.Background()
	const trigger = `
		CREATE TRIGGER reject_chatbot BEFORE INSERT ON messages
		WHEN NEW.author = 'chatbot'
		BEGIN
			SELECT RAISE(ABORT, 'chatbot insert rejected');
		END
	`
	if _, err := repo.db.ExecContext(ctx, trigger); err != nil {
		t.Fatalf("create trigger: %v", err)
	}

	_, err := repo.CreateBatch(ctx, []domain.NewMessage{
		{Author: domain.AuthorUser, Content: "hola"},
		{Author: domain.AuthorChatbot, Content: "respuesta"},
	})
	if err == nil {
		t.Fatalf("expected error when the second insert fails")
	}

	visible, err := repo.List(ctx, ListOptions{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(visible) != 0 {
		t.Fatalf("expected no rows after failed batch, got %+v", visible)
	}
}
