package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/micocomia/5902Group5/internal/models"

	"go.uber.org/zap"
)

const usersFile = "users.json"

// FileUserRepository keeps accounts in memory keyed by username and rewrites
// users.json after every change.
type FileUserRepository struct {
	mu     sync.RWMutex
	path   string
	users  map[string]models.User
	logger *zap.Logger
}

func NewFileUserRepository(dataDir string, logger *zap.Logger) *FileUserRepository {
	return &FileUserRepository{
		path:   filepath.Join(dataDir, usersFile),
		users:  map[string]models.User{},
		logger: logger,
	}
}

// Load replaces the in-memory accounts with the file contents. A corrupt
// file is logged and leaves the repository empty.
func (r *FileUserRepository) Load() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	users := map[string]models.User{}
	if _, err := readJSONFile(r.path, &users); err != nil {
		r.logger.Warn("Discarding unreadable user file", zap.String("path", r.path), zap.Error(err))
		users = nil
	}
	if users == nil {
		users = map[string]models.User{}
	}
	r.users = users

	r.logger.Info("Loaded users", zap.String("path", r.path), zap.Int("count", len(users)))
	return nil
}

func (r *FileUserRepository) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.Username]; ok {
		return fmt.Errorf("username %q: %w", user.Username, ErrDuplicate)
	}

	stored := *user
	stored.Username = strings.Clone(user.Username)
	r.users[stored.Username] = stored
	if err := writeJSONFile(r.path, r.users); err != nil {
		delete(r.users, stored.Username)
		return err
	}
	return nil
}

func (r *FileUserRepository) GetByUsername(_ context.Context, username string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[username]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (r *FileUserRepository) Delete(_ context.Context, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[username]
	if !ok {
		return ErrNotFound
	}

	delete(r.users, username)
	if err := writeJSONFile(r.path, r.users); err != nil {
		r.users[username] = user
		return err
	}
	return nil
}
