package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"housing-backend/internal/models"
)

var userHeader = []string{"username", "password", "user_type"}

// UserRepository stores user accounts in a CSV file.
// The whole file is read on every call and rewritten on every insert.
type UserRepository struct {
	path string
	// mu serializes file access within this process only, which makes
	// check-then-insert atomic here; two processes sharing the file can still race.
	mu sync.Mutex
}

// NewUserRepository creates a new user repository
func NewUserRepository(path string) *UserRepository {
	return &UserRepository{path: path}
}

// LoadAll returns every account in file order.
// A missing file is created with just the header row.
func (r *UserRepository) LoadAll(ctx context.Context) ([]models.UserAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(ctx)
}

func (r *UserRepository) load(ctx context.Context) ([]models.UserAccount, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := r.writeAll(nil); err != nil {
			return nil, err
		}
		return []models.UserAccount{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open users file: %w: %w", ErrStorageUnavailable, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = len(userHeader)

	users := []models.UserAccount{}
	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse users file: %w: %w", ErrStorageUnavailable, err)
		}
		if first {
			first = false
			if record[0] == userHeader[0] {
				continue
			}
		}
		users = append(users, models.UserAccount{
			Username: record[0],
			Password: record[1],
			UserType: models.UserType(record[2]),
		})
	}

	return users, nil
}

// Create appends a new account and persists the whole collection
func (r *UserRepository) Create(ctx context.Context, user models.UserAccount) error {
	if user.Username == "" || user.Password == "" || user.UserType == "" {
		return fmt.Errorf("username, password and user type are required: %w", ErrInvalidInput)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.load(ctx)
	if err != nil {
		return err
	}

	for _, u := range users {
		if u.Username == user.Username {
			return fmt.Errorf("username %q: %w", user.Username, ErrAlreadyExists)
		}
	}

	return r.writeAll(append(users, user))
}

// GetByUsername retrieves the first account with the exact username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.UserAccount, error) {
	users, err := r.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	for i := range users {
		if users[i].Username == username {
			return &users[i], nil
		}
	}
	return nil, fmt.Errorf("user %q: %w", username, ErrNotFound)
}

// writeAll replaces the file through a temp file and rename so readers
// never observe a half-written collection.
func (r *UserRepository) writeAll(users []models.UserAccount) error {
	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create users dir: %w: %w", ErrStorageUnavailable, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp users file: %w: %w", ErrStorageUnavailable, err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(userHeader); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write users header: %w: %w", ErrStorageUnavailable, err)
	}
	for _, u := range users {
		if err := w.Write([]string{u.Username, u.Password, string(u.UserType)}); err != nil {
			tmp.Close()
			return fmt.Errorf("failed to write user: %w: %w", ErrStorageUnavailable, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to flush users file: %w: %w", ErrStorageUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close users file: %w: %w", ErrStorageUnavailable, err)
	}

	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("failed to replace users file: %w: %w", ErrStorageUnavailable, err)
	}
	return nil
}
