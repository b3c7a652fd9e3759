package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/asset-registry/internal/auth"
	"github.com/spec-kit/asset-registry/internal/events"
	"github.com/spec-kit/asset-registry/internal/repository"
)

const defaultTxAttempts = 3

// unitOfWork runs store transactions, rerunning the whole function when the
// store reports a serialization conflict. Any other failure is returned as is.
type unitOfWork struct {
	store    repository.Store
	attempts int
	logger   *zap.Logger
}

func newUnitOfWork(store repository.Store, attempts int, logger *zap.Logger) unitOfWork {
	if attempts <= 0 {
		attempts = defaultTxAttempts
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return unitOfWork{store: store, attempts: attempts, logger: logger}
}

func (u unitOfWork) run(ctx context.Context, fn func(repository.Repositories) error) error {
	var err error
	for attempt := 1; attempt <= u.attempts; attempt++ {
		err = u.store.InTx(ctx, fn)
		if !errors.Is(err, repository.ErrConflict) {
			return err
		}
		u.logger.Debug("unit of work conflicted; retrying", zap.Int("attempt", attempt), zap.Error(err))
	}
	return err
}

// publisher emits events after a unit of work has committed. Delivery
// failures are logged and never undo the committed change.
type publisher struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

func newPublisher(dispatcher events.Dispatcher, logger *zap.Logger, now func() time.Time) publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return publisher{dispatcher: dispatcher, logger: logger, now: now}
}

func (p publisher) publish(ctx context.Context, eventType events.EventType, subjectID int64, actor *auth.Identity, payload interface{}) {
	if p.dispatcher == nil {
		return
	}
	event := events.New(eventType, subjectID, actorOf(actor), p.now(), payload)
	if err := p.dispatcher.Publish(ctx, event); err != nil {
		p.logger.Warn("event delivery failed",
			zap.String("event_type", string(eventType)),
			zap.Int64("subject_id", subjectID),
			zap.Error(err))
	}
}

func actorOf(identity *auth.Identity) events.Actor {
	if identity == nil {
		return events.Actor{}
	}
	return events.Actor{UserID: identity.ID, Email: identity.Email, Role: identity.Role}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
