package service

import (
	"context"

	"shopease/internal/domain"
	"shopease/internal/storage"

	"go.uber.org/zap"
)

// ThemeService reads and flips the persisted display theme
type ThemeService struct {
	store  *storage.Store
	logger *zap.Logger
}

func NewThemeService(store *storage.Store, logger *zap.Logger) *ThemeService {
	return &ThemeService{store: store, logger: logger}
}

// Current returns the applied theme, light when nothing usable is stored
func (s *ThemeService) Current(ctx context.Context, clientID string) domain.Theme {
	theme, err := storage.GetOr(ctx, s.store.For(clientID), storage.KeyTheme, domain.ThemeLight)
	if err != nil {
		s.logger.Warn("Falling back to light theme", zap.String("client_id", clientID), zap.Error(err))
		return domain.ThemeLight
	}
	return theme.Normalize()
}

// Toggle flips the applied theme and persists the result
func (s *ThemeService) Toggle(ctx context.Context, clientID string) (domain.Theme, error) {
	var next domain.Theme
	err := storage.Update(ctx, s.store.For(clientID), storage.KeyTheme, domain.ThemeLight, func(current domain.Theme) (domain.Theme, error) {
		next = current.Normalize().Toggled()
		return next, nil
	})
	if err != nil {
		return s.Current(ctx, clientID), err
	}

	s.logger.Debug("Theme toggled", zap.String("client_id", clientID), zap.String("theme", string(next)))
	return next, nil
}
