package account

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"siterelay/internal/sheets"
)

type fakeStore struct {
	mu        sync.Mutex
	rows      map[string][][]string
	appendErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: make(map[string][][]string)}
}

func (f *fakeStore) AppendRow(ctx context.Context, title string, row []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	f.rows[title] = append(f.rows[title], row)
	return nil
}

func (f *fakeStore) FindRow(ctx context.Context, title, value string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows[title] {
		if len(row) > 0 && row[0] == value {
			return row, nil
		}
	}
	return nil, sheets.ErrNotFound
}

func (f *fakeStore) HeaderRow(ctx context.Context, title string) ([]string, error) {
	return nil, nil
}

func (f *fakeStore) EnsureSheet(ctx context.Context, title string, headers []string) error {
	return nil
}

func newTestGateway() (*Gateway, *fakeStore) {
	store := newFakeStore()
	return NewGateway(store, "accounts", time.Second), store
}

func TestRegisterThenLogin(t *testing.T) {
	g, store := newTestGateway()
	ctx := context.Background()

	if err := g.Register(ctx, "Ada Lovelace", "ada@example.com", "s3cret"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	rows := store.rows["accounts"]
	if len(rows) != 1 {
		t.Fatalf("expected 1 account row, got %d", len(rows))
	}
	row := rows[0]
	if len(row) != 4 {
		t.Fatalf("expected 4 columns, got %d: %#v", len(row), row)
	}
	if row[0] != "ada@example.com" || row[2] != "Ada Lovelace" {
		t.Fatalf("unexpected row layout: %#v", row)
	}
	if row[1] == "s3cret" {
		t.Fatalf("raw password must never reach the store")
	}
	if bcrypt.CompareHashAndPassword([]byte(row[1]), []byte("s3cret")) != nil {
		t.Fatalf("stored hash does not match the password")
	}
	if _, err := time.Parse("2006-01-02 15:04:05", row[3]); err != nil {
		t.Fatalf("bad registration timestamp %q: %v", row[3], err)
	}

	user, err := g.Login(ctx, "ada@example.com", "s3cret")
	if err != nil {
		t.Fatalf("Login after register: %v", err)
	}
	if user.Name != "Ada Lovelace" {
		t.Fatalf("unexpected user name %q", user.Name)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	g, store := newTestGateway()
	ctx := context.Background()

	if err := g.Register(ctx, "Ada", "ada@example.com", "one"); err != nil {
		t.Fatalf("first register: %v", err)
	}
	err := g.Register(ctx, "Imposter", "ada@example.com", "two")
	if !errors.Is(err, ErrEmailRegistered) {
		t.Fatalf("expected ErrEmailRegistered, got %v", err)
	}
	if len(store.rows["accounts"]) != 1 {
		t.Fatalf("duplicate register must not add a row, have %d", len(store.rows["accounts"]))
	}
}

func TestLoginWrongPassword(t *testing.T) {
	g, _ := newTestGateway()
	ctx := context.Background()

	if err := g.Register(ctx, "Ada", "ada@example.com", "right"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := g.Login(ctx, "ada@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	g, _ := newTestGateway()
	if _, err := g.Login(context.Background(), "ghost@example.com", "whatever"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	g, _ := newTestGateway()
	if err := g.Register(context.Background(), "", "a@b.c", "pw"); err == nil {
		t.Fatalf("expected validation error for missing name")
	}
	if err := g.Register(context.Background(), "Ada", "", "pw"); err == nil {
		t.Fatalf("expected validation error for missing email")
	}
}
