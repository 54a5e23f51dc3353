// Package roster is the core's view of the user directory. The
// assessment core only validates that a student exists and resolves a
// login; account management belongs to the surrounding platform.
package roster

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"github.com/quizcraft/quizcraft-core/internal/errs"
)

type User struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	Role         string `json:"role"` // student|teacher|admin
	PasswordHash string `json:"-"`    // bcrypt
}

type Directory interface {
	Exists(ctx context.Context, id string) (bool, error)
	Get(ctx context.Context, id string) (User, error)
	// GetByUsername backs the login handler.
	GetByUsername(ctx context.Context, username string) (User, error)
}

// SQLDirectory reads the users table.
type SQLDirectory struct {
	db *sql.DB
}

func NewSQLDirectory(db *sql.DB) *SQLDirectory { return &SQLDirectory{db: db} }

func (d *SQLDirectory) Exists(ctx context.Context, id string) (bool, error) {
	var one int
	err := d.db.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id=$1`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (d *SQLDirectory) Get(ctx context.Context, id string) (User, error) {
	return d.get(ctx, `id`, id)
}

func (d *SQLDirectory) GetByUsername(ctx context.Context, username string) (User, error) {
	return d.get(ctx, `username`, username)
}

func (d *SQLDirectory) get(ctx context.Context, col, key string) (User, error) {
	var u User
	err := d.db.QueryRowContext(ctx,
		`SELECT id, username, role, password_hash FROM users WHERE `+col+`=$1`, key).
		Scan(&u.ID, &u.Username, &u.Role, &u.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, errs.NotFoundf("user %s", key)
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}

// InMemoryDirectory is the test/dev stand-in.
type InMemoryDirectory struct {
	mu    sync.RWMutex
	users map[string]User
}

func NewInMemoryDirectory() *InMemoryDirectory {
	return &InMemoryDirectory{users: map[string]User{}}
}

func (d *InMemoryDirectory) Put(u User) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[u.ID] = u
}

func (d *InMemoryDirectory) Exists(_ context.Context, id string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.users[id]
	return ok, nil
}

func (d *InMemoryDirectory) Get(_ context.Context, id string) (User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.users[id]
	if !ok {
		return User{}, errs.NotFoundf("user %s", id)
	}
	return u, nil
}

func (d *InMemoryDirectory) GetByUsername(_ context.Context, username string) (User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, u := range d.users {
		if u.Username == username {
			return u, nil
		}
	}
	return User{}, errs.NotFoundf("user %s", username)
}
