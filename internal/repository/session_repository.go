package repository

import (
	"context"
	"errors"
	"fmt"

	"shopease/internal/domain"
	"shopease/internal/storage"
)

var (
	ErrSessionNotFound = errors.New("no active session")
)

// SessionRepository stores the single active session of a visitor
type SessionRepository interface {
	Get(ctx context.Context, clientID string) (*domain.Session, error)
	Set(ctx context.Context, clientID string, session domain.Session) error
	Clear(ctx context.Context, clientID string) error
}

type sessionRepository struct {
	store *storage.Store
}

// NewSessionRepository creates a new instance of SessionRepository
func NewSessionRepository(store *storage.Store) SessionRepository {
	return &sessionRepository{store: store}
}

// Get returns the active session or ErrSessionNotFound
func (r *sessionRepository) Get(ctx context.Context, clientID string) (*domain.Session, error) {
	var session *domain.Session
	found, err := r.store.For(clientID).Get(ctx, storage.KeySession, &session)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if !found || session == nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (r *sessionRepository) Set(ctx context.Context, clientID string, session domain.Session) error {
	if err := r.store.For(clientID).Set(ctx, storage.KeySession, session); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

func (r *sessionRepository) Clear(ctx context.Context, clientID string) error {
	if err := r.store.For(clientID).Remove(ctx, storage.KeySession); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
