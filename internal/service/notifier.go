package service

import (
	"context"
	"fmt"

	"shopease/internal/domain"
	"shopease/internal/storage"

	"go.uber.org/zap"
)

// Notifier queues non-blocking notices for a visitor's next page render
type Notifier struct {
	store  *storage.Store
	logger *zap.Logger
}

// NewNotifier creates a new Notifier
func NewNotifier(store *storage.Store, logger *zap.Logger) *Notifier {
	return &Notifier{store: store, logger: logger}
}

// Push queues a notice. A notice carrying a tag replaces any queued notice
// with the same tag instead of stacking behind it.
func (n *Notifier) Push(ctx context.Context, clientID string, notice domain.Notice) error {
	err := storage.Update(ctx, n.store.For(clientID), storage.KeyNotices, []domain.Notice{}, func(queue []domain.Notice) ([]domain.Notice, error) {
		if notice.Tag != "" {
			kept := queue[:0]
			for _, q := range queue {
				if q.Tag != notice.Tag {
					kept = append(kept, q)
				}
			}
			queue = kept
		}
		return append(queue, notice), nil
	})
	if err != nil {
		return fmt.Errorf("failed to queue notice: %w", err)
	}

	n.logger.Debug("Notice queued",
		zap.String("client_id", clientID),
		zap.String("kind", string(notice.Kind)),
		zap.String("message", notice.Message),
	)
	return nil
}

// Notify is shorthand for pushing an untagged notice.
// Failures are logged and swallowed; a lost notice never fails the caller.
func (n *Notifier) Notify(ctx context.Context, clientID string, kind domain.NoticeKind, message string) {
	if err := n.Push(ctx, clientID, domain.Notice{Kind: kind, Message: message}); err != nil {
		n.logger.Warn("Failed to queue notice", zap.String("client_id", clientID), zap.Error(err))
	}
}

// Drain returns and removes every queued notice. A notice pushed while
// draining is either returned now or kept for the next drain.
func (n *Notifier) Drain(ctx context.Context, clientID string) ([]domain.Notice, error) {
	var drained []domain.Notice
	err := storage.Update(ctx, n.store.For(clientID), storage.KeyNotices, []domain.Notice{}, func(queue []domain.Notice) ([]domain.Notice, error) {
		drained = queue
		if len(queue) == 0 {
			return nil, storage.ErrUnchanged
		}
		return []domain.Notice{}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to drain notices: %w", err)
	}
	if len(drained) == 0 {
		return nil, nil
	}
	return drained, nil
}
