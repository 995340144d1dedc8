package service

import (
	"context"
	"strings"
	"time"

	"shopease/internal/domain"

	"go.uber.org/zap"
)

const (
	NewsletterNoticeTag = "newsletter"
	NewsletterAutoHide  = 3 * time.Second
	NewsletterMessage   = "Thank you for subscribing to our newsletter!"
)

// NewsletterService acknowledges newsletter signups. Nothing is persisted
// beyond the confirmation notice.
type NewsletterService struct {
	notifier *Notifier
	logger   *zap.Logger
}

func NewNewsletterService(notifier *Notifier, logger *zap.Logger) *NewsletterService {
	return &NewsletterService{notifier: notifier, logger: logger}
}

// Subscribe queues the auto-hiding confirmation. A later submission replaces
// a confirmation that has not been shown yet.
func (s *NewsletterService) Subscribe(ctx context.Context, clientID, email string) error {
	s.logger.Info("Newsletter signup",
		zap.String("client_id", clientID),
		zap.Bool("email_given", strings.TrimSpace(email) != ""),
	)
	return s.notifier.Push(ctx, clientID, domain.Notice{
		Kind:       domain.NoticeSuccess,
		Message:    NewsletterMessage,
		AutoHideMs: int(NewsletterAutoHide / time.Millisecond),
		Tag:        NewsletterNoticeTag,
	})
}
