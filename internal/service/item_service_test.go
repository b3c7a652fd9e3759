package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/spec-kit/asset-registry/internal/assettag"
	"github.com/spec-kit/asset-registry/internal/auth"
	"github.com/spec-kit/asset-registry/internal/domain"
	"github.com/spec-kit/asset-registry/internal/events"
	"github.com/spec-kit/asset-registry/internal/repository"
	"github.com/spec-kit/asset-registry/internal/repository/memory"
	apperrors "github.com/spec-kit/asset-registry/pkg/util/errorutil"
)

type itemFixture struct {
	svc   *ItemService
	store *memory.Store
	clock *clock
	rec   *recorder
}

func newItemFixture(t *testing.T, encoder QREncoder) *itemFixture {
	t.Helper()
	rec, dispatcher := newRecorder()
	c := &clock{now: march2025}
	store := newTestStore()
	svc := NewItemService(testAssetConfig, ItemDependencies{
		Store:      store,
		Encoder:    encoder,
		Dispatcher: dispatcher,
		Clock:      c.Now,
	})
	return &itemFixture{svc: svc, store: store, clock: c, rec: rec}
}

func laptop() ItemInput {
	return ItemInput{
		Department: domain.DepartmentIT,
		Type:       domain.ItemTypeComputers,
		SubType:    "laptop",
		Serial:     "SN-1",
		Model:      "X1",
		Status:     "In use",
		Location:   "HQ",
	}
}

// seedTagged stores a row that already carries tag, as legacy data would.
func (f *itemFixture) seedTagged(t *testing.T, tag string) *domain.Item {
	t.Helper()
	ctx := context.Background()
	items := f.store.Repositories().Items
	item := &domain.Item{Department: domain.DepartmentIT, Type: domain.ItemTypeComputers, SubType: "legacy"}
	if err := items.InsertShell(ctx, item); err != nil {
		t.Fatalf("InsertShell() error = %v", err)
	}
	item.AssetTag = tag
	if err := items.Update(ctx, item); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	return item
}

type failingEncoder struct{}

func (failingEncoder) Encode(string) ([]byte, error) {
	return nil, apperrors.NewQRGenerationFailed(errors.New("content too long"))
}

// =============================================================================
// Create
// =============================================================================

func TestCreate_AssignsTagAndQR(t *testing.T) {
	f := newItemFixture(t, nil)

	var item *domain.Item
	for i := 0; i < 7; i++ {
		var err error
		item, err = f.svc.Create(context.Background(), nil, laptop())
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	if item.ID != 7 || item.AssetTag != "CMX-IT-2503-CO-LAPTOP-0007" {
		t.Fatalf("item %d tag = %q", item.ID, item.AssetTag)
	}
	img, err := png.Decode(bytes.NewReader(item.QRCode))
	if err != nil {
		t.Fatalf("QR code is not a PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 200 || b.Dy() != 200 {
		t.Errorf("QR size = %dx%d", b.Dx(), b.Dy())
	}

	expected, _ := assettag.NewQREncoder().Encode(item.AssetTag)
	if !bytes.Equal(item.QRCode, expected) {
		t.Error("QR code does not encode the asset tag")
	}
	if got := f.rec.ofType(events.EventAssetTagIssued); len(got) != 7 {
		t.Errorf("issued events = %d, want 7", len(got))
	}
}

func TestCreate_CollisionRollsBackInsert(t *testing.T) {
	f := newItemFixture(t, nil)
	ctx := context.Background()
	legacy := f.seedTagged(t, "CMX-IT-2503-CO-LAPTOP-0002")

	_, err := f.svc.Create(ctx, nil, laptop())
	assertCode(t, err, apperrors.CodeDuplicateAssetTag)
	if err.Error() != "The asset tag: 'CMX-IT-2503-CO-LAPTOP-0002' is already in use." {
		t.Errorf("message = %q", err.Error())
	}

	items, _ := f.svc.List(ctx, repository.ListOptions{})
	if len(items) != 1 || items[0].ID != legacy.ID {
		t.Fatalf("items after collision = %+v, want only the legacy row", items)
	}
	for _, it := range items {
		if it.AssetTag == "" {
			t.Error("a row without tag is visible")
		}
	}
	if got := f.rec.ofType(events.EventAssetTagIssued); len(got) != 0 {
		t.Errorf("issued events = %d, want 0", len(got))
	}

	next, err := f.svc.Create(ctx, nil, laptop())
	if err != nil {
		t.Fatalf("Create() after collision error = %v", err)
	}
	if next.AssetTag != "CMX-IT-2503-CO-LAPTOP-0003" {
		t.Errorf("next tag = %q", next.AssetTag)
	}
}

func TestCreate_QRFailureLeavesNoRow(t *testing.T) {
	f := newItemFixture(t, failingEncoder{})

	_, err := f.svc.Create(context.Background(), nil, laptop())
	assertCode(t, err, apperrors.CodeQRGenerationFailed)
	if de := apperrors.ToDomainError(err); de.HTTPStatus != 500 {
		t.Errorf("status = %d, want 500", de.HTTPStatus)
	}

	items, _ := f.svc.List(context.Background(), repository.ListOptions{})
	if len(items) != 0 {
		t.Errorf("items = %d, want 0", len(items))
	}
}

func TestCreate_ConcurrentRequestsGetDistinctTags(t *testing.T) {
	f := newItemFixture(t, nil)
	const n = 25

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		tags = make(map[string]bool)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			item, err := f.svc.Create(context.Background(), nil, laptop())
			if err != nil {
				t.Errorf("Create() error = %v", err)
				return
			}
			mu.Lock()
			tags[item.AssetTag] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(tags) != n {
		t.Fatalf("distinct tags = %d, want %d", len(tags), n)
	}
	for i := 1; i <= n; i++ {
		if want := fmt.Sprintf("CMX-IT-2503-CO-LAPTOP-%04d", i); !tags[want] {
			t.Errorf("missing tag %s", want)
		}
	}
}

// conflictingStore fails the first failures units of work with ErrConflict.
type conflictingStore struct {
	repository.Store
	mu       sync.Mutex
	failures int
	calls    int
}

func (s *conflictingStore) InTx(ctx context.Context, fn func(repository.Repositories) error) error {
	s.mu.Lock()
	s.calls++
	fail := s.calls <= s.failures
	s.mu.Unlock()
	if fail {
		return fmt.Errorf("%w: could not serialize access", repository.ErrConflict)
	}
	return s.Store.InTx(ctx, fn)
}

func TestCreate_RetriesConflicts(t *testing.T) {
	tests := []struct {
		name      string
		failures  int
		wantErr   bool
		wantCalls int
	}{
		{name: "recovers", failures: 2, wantCalls: 3},
		{name: "gives up", failures: 5, wantErr: true, wantCalls: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &conflictingStore{Store: newTestStore(), failures: tt.failures}
			svc := NewItemService(testAssetConfig, ItemDependencies{Store: store, Clock: func() time.Time { return march2025 }})

			item, err := svc.Create(context.Background(), nil, laptop())
			if tt.wantErr {
				if !errors.Is(err, repository.ErrConflict) {
					t.Fatalf("Create() err = %v, want ErrConflict", err)
				}
			} else if err != nil || item.AssetTag == "" {
				t.Fatalf("Create() = %+v, %v", item, err)
			}
			if store.calls != tt.wantCalls {
				t.Errorf("attempts = %d, want %d", store.calls, tt.wantCalls)
			}
		})
	}
}

// =============================================================================
// Update
// =============================================================================

func TestUpdate_PreservesIssuanceMonth(t *testing.T) {
	f := newItemFixture(t, nil)
	ctx := context.Background()
	created, _ := f.svc.Create(ctx, nil, laptop())

	f.clock.Set(time.Date(2026, time.January, 2, 0, 0, 0, 0, time.UTC))
	input := laptop()
	input.SubType = "desktop"
	updated, err := f.svc.Update(ctx, superAdmin(1), created.ID, input)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if updated.AssetTag != "CMX-IT-2503-CO-DESKTOP-0001" {
		t.Errorf("tag = %q", updated.AssetTag)
	}
	if bytes.Equal(updated.QRCode, created.QRCode) {
		t.Error("QR code should be regenerated when the tag changes")
	}
	reissued := f.rec.ofType(events.EventAssetTagReissued)
	if len(reissued) != 1 {
		t.Fatalf("reissued events = %d, want 1", len(reissued))
	}
	payload := reissued[0].Payload.(events.AssetTagReissuedPayload)
	if payload.OldAssetTag != created.AssetTag || payload.NewAssetTag != updated.AssetTag {
		t.Errorf("payload = %+v", payload)
	}
}

func TestUpdate_NonTagFieldsKeepQR(t *testing.T) {
	f := newItemFixture(t, nil)
	ctx := context.Background()
	created, _ := f.svc.Create(ctx, nil, laptop())

	input := laptop()
	input.Location = "Warehouse"
	input.Status = "Stored"
	updated, err := f.svc.Update(ctx, nil, created.ID, input)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.AssetTag != created.AssetTag || !bytes.Equal(updated.QRCode, created.QRCode) {
		t.Error("tag and QR code should be unchanged")
	}
	if updated.Location != "Warehouse" || updated.Status != "Stored" {
		t.Errorf("updated = %+v", updated)
	}
	if got := f.rec.ofType(events.EventAssetTagReissued); len(got) != 0 {
		t.Errorf("reissued events = %d, want 0", len(got))
	}
}

func TestUpdate_CollisionLeavesItemUntouched(t *testing.T) {
	f := newItemFixture(t, nil)
	ctx := context.Background()
	f.seedTagged(t, "CMX-GSF-2503-FU-CHAIR-0002")
	created, err := f.svc.Create(ctx, nil, laptop())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	input := ItemInput{Department: domain.DepartmentGeneralServices, Type: domain.ItemTypeFurnitures, SubType: "chair", Location: "Lobby"}
	_, err = f.svc.Update(ctx, nil, created.ID, input)
	assertCode(t, err, apperrors.CodeDuplicateAssetTag)

	stored, _ := f.svc.Get(ctx, created.ID)
	if stored.AssetTag != created.AssetTag || stored.Location != "HQ" || stored.Department != domain.DepartmentIT {
		t.Errorf("item mutated after collision: %+v", stored)
	}
}

func TestUpdate_Errors(t *testing.T) {
	f := newItemFixture(t, nil)
	ctx := context.Background()
	malformed := f.seedTagged(t, "CMX-IT-2503")

	_, err := f.svc.Update(ctx, nil, 404, laptop())
	assertCode(t, err, apperrors.CodeItemNotFound)

	_, err = f.svc.Update(ctx, nil, malformed.ID, laptop())
	assertCode(t, err, apperrors.CodeInvalidAssetTag)
}

// =============================================================================
// Read / Delete
// =============================================================================

func TestGetAndQRCode(t *testing.T) {
	f := newItemFixture(t, nil)
	ctx := context.Background()
	created, _ := f.svc.Create(ctx, nil, laptop())

	data, tag, err := f.svc.QRCode(ctx, created.ID)
	if err != nil || tag != created.AssetTag || !bytes.Equal(data, created.QRCode) {
		t.Fatalf("QRCode() = %d bytes, %q, %v", len(data), tag, err)
	}

	_, err = f.svc.Get(ctx, 99)
	assertCode(t, err, apperrors.CodeItemNotFound)
	if err.Error() != "Item: '99' does not exist in the database." {
		t.Errorf("message = %q", err.Error())
	}
}

func TestDelete(t *testing.T) {
	f := newItemFixture(t, nil)
	ctx := context.Background()
	created, _ := f.svc.Create(ctx, nil, laptop())
	actor := &auth.Identity{ID: 2, Role: domain.RoleAdmin}

	if err := f.svc.Delete(ctx, actor, created.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	_, err := f.svc.Get(ctx, created.ID)
	assertCode(t, err, apperrors.CodeItemNotFound)
	assertCode(t, f.svc.Delete(ctx, actor, created.ID), apperrors.CodeItemNotFound)

	deleted := f.rec.ofType(events.EventAssetDeleted)
	if len(deleted) != 1 || deleted[0].Actor.UserID != 2 {
		t.Errorf("deleted events = %+v", deleted)
	}
}
