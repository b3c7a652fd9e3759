package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/asset-registry/internal/auth"
	"github.com/spec-kit/asset-registry/internal/config"
	"github.com/spec-kit/asset-registry/internal/domain"
	"github.com/spec-kit/asset-registry/internal/events"
	"github.com/spec-kit/asset-registry/internal/repository/memory"
	apperrors "github.com/spec-kit/asset-registry/pkg/util/errorutil"
)

const testSecret = "service-test-secret-0123456789abcdef"

var march2025 = time.Date(2025, time.March, 14, 9, 30, 0, 0, time.UTC)

var testAuthConfig = config.AuthConfig{
	JWTSecret:  testSecret,
	BcryptCost: bcrypt.MinCost,
}

var testAssetConfig = config.AssetConfig{TagPrefix: "CMX", TxAttempts: 3}

// recorder captures published events.
type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func newRecorder() (*recorder, events.Dispatcher) {
	r := &recorder{}
	d := events.NewInMemoryDispatcher()
	for _, eventType := range events.AllEventTypes() {
		d.Subscribe(eventType, func(_ context.Context, e events.Event) error {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.events = append(r.events, e)
			return nil
		})
	}
	return r, d
}

func (r *recorder) ofType(eventType events.EventType) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Event
	for _, e := range r.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// clock is a settable time source.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func superAdmin(id int64) *auth.Identity {
	return &auth.Identity{ID: id, Email: "root@example.com", Role: domain.RoleSuperAdmin}
}

func newTestStore() *memory.Store {
	return memory.NewStore()
}

func assertCode(t *testing.T, err error, want string) {
	t.Helper()
	if got := apperrors.CodeOf(err); got != want {
		t.Fatalf("error code = %q (%v), want %q", got, err, want)
	}
}
