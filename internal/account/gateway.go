// Package account verifies and registers user credentials against the
// user-accounts sheet.
package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"siterelay/internal/models"
	"siterelay/internal/sheets"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailRegistered    = errors.New("email already registered")
)

// SheetHeaders is the authoritative column layout of the accounts sheet.
// Rows written by Register follow the same order.
var SheetHeaders = []string{"Email", "Password Hash", "Name", "Registration Date"}

// Gateway looks up and appends account rows. Credentials are stored as
// bcrypt hashes; the raw value never reaches the sheet.
type Gateway struct {
	store   sheets.Store
	title   string
	timeout time.Duration
}

func NewGateway(store sheets.Store, accountsSheet string, timeout time.Duration) *Gateway {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Gateway{store: store, title: accountsSheet, timeout: timeout}
}

// Login matches the email against the sheet's first column and compares
// the submitted password with the stored hash.
func (g *Gateway) Login(ctx context.Context, email, password string) (*models.UserRecord, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	row, err := g.store.FindRow(ctx, g.title, email)
	if err != nil {
		if errors.Is(err, sheets.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup account: %w", err)
	}
	if len(row) < 2 {
		return nil, fmt.Errorf("malformed account row for %s", email)
	}
	if bcrypt.CompareHashAndPassword([]byte(row[1]), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	record := &models.UserRecord{Email: row[0], PasswordHash: row[1]}
	if len(row) > 2 {
		record.Name = row[2]
	}
	if len(row) > 3 {
		record.RegisteredAt = row[3]
	}
	return record, nil
}

// Register appends a new account row unless the email already exists.
func (g *Gateway) Register(ctx context.Context, name, email, password string) error {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return errors.New("name, email and password are required")
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	_, err := g.store.FindRow(ctx, g.title, email)
	if err == nil {
		return ErrEmailRegistered
	}
	if !errors.Is(err, sheets.ErrNotFound) {
		return fmt.Errorf("lookup account: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	row := []string{email, string(hash), name, time.Now().Format(models.TimestampLayout)}
	if err := g.store.AppendRow(ctx, g.title, row); err != nil {
		return fmt.Errorf("register account: %w", err)
	}
	return nil
}
