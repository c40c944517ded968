// README: Best-effort notification fan-out; failures are logged, never returned.
package notification

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"bitebay/internal/infra"
	"bitebay/internal/logger"
	"bitebay/internal/types"
)

const (
	fanOutLimit = 8
	listLimit   = 50
)

type Service struct {
	store        Repository
	mailer       infra.Mailer
	emailEnabled bool
}

func NewService(store Repository, mailer infra.Mailer, emailEnabled bool) *Service {
	if mailer == nil {
		mailer = infra.LogMailer{}
	}
	return &Service{store: store, mailer: mailer, emailEnabled: emailEnabled}
}

// Send inserts one row per message concurrently and returns how many landed.
// It must only be called after the primary mutation has committed.
func (s *Service) Send(ctx context.Context, msgs ...Message) int {
	if len(msgs) == 0 {
		return 0
	}
	log := logger.FromCtx(ctx).With(zap.String("layer", "notification"))

	var sent atomic.Int64
	var g errgroup.Group
	g.SetLimit(fanOutLimit)
	for _, m := range msgs {
		g.Go(func() error {
			n := &Notification{
				ID:        types.NewID(),
				UserID:    m.UserID,
				Title:     m.Title,
				Message:   m.Body,
				Type:      m.Type,
				Payload:   m.Payload,
				CreatedAt: time.Now().UTC(),
			}
			if err := s.store.Insert(ctx, n); err != nil {
				log.Warn("notification insert failed",
					zap.String("user_id", string(m.UserID)),
					zap.String("type", m.Type),
					zap.Error(err))
				return nil
			}
			sent.Add(1)
			s.email(ctx, log, m)
			return nil
		})
	}
	_ = g.Wait()
	return int(sent.Load())
}

func (s *Service) email(ctx context.Context, log *zap.Logger, m Message) {
	if !s.emailEnabled {
		return
	}
	to, err := s.store.EmailFor(ctx, m.UserID)
	if err != nil || to == "" {
		return
	}
	if err := s.mailer.Send(ctx, infra.Email{To: to, Subject: m.Title, Text: m.Body}); err != nil {
		log.Warn("notification email failed", zap.String("user_id", string(m.UserID)), zap.Error(err))
	}
}

func (s *Service) List(ctx context.Context, userID types.ID, unreadOnly bool) ([]Notification, error) {
	return s.store.ListByUser(ctx, userID, unreadOnly, listLimit)
}

func (s *Service) MarkRead(ctx context.Context, userID, id types.ID) error {
	ok, err := s.store.MarkRead(ctx, userID, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}
