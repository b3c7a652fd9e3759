package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/asset-registry/internal/assettag"
	"github.com/spec-kit/asset-registry/internal/auth"
	"github.com/spec-kit/asset-registry/internal/config"
	"github.com/spec-kit/asset-registry/internal/domain"
	"github.com/spec-kit/asset-registry/internal/events"
	"github.com/spec-kit/asset-registry/internal/repository"
	apperrors "github.com/spec-kit/asset-registry/pkg/util/errorutil"
)

// QREncoder renders an asset tag into image bytes.
type QREncoder interface {
	Encode(text string) ([]byte, error)
}

// ItemService manages assets and issues their tags.
type ItemService struct {
	store    repository.Store
	tx       unitOfWork
	composer *assettag.Composer
	qr       QREncoder
	now      func() time.Time
	events   publisher
}

// ItemDependencies bundles collaborators for the item service.
type ItemDependencies struct {
	Store      repository.Store
	Encoder    QREncoder
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Clock      func() time.Time
}

// ItemInput carries the caller supplied asset fields.
type ItemInput struct {
	Department domain.Department
	Type       domain.ItemType
	SubType    string
	Serial     string
	Model      string
	Status     string
	Location   string
}

// NewItemService constructs the service.
func NewItemService(cfg config.AssetConfig, deps ItemDependencies) *ItemService {
	now := deps.Clock
	if now == nil {
		now = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	encoder := deps.Encoder
	if encoder == nil {
		encoder = assettag.NewQREncoder()
	}
	return &ItemService{
		store:    deps.Store,
		tx:       newUnitOfWork(deps.Store, cfg.TxAttempts, logger),
		composer: assettag.NewComposer(cfg.TagPrefix),
		qr:       encoder,
		now:      now,
		events:   newPublisher(deps.Dispatcher, logger, now),
	}
}

// List returns assets ordered by id.
func (s *ItemService) List(ctx context.Context, opts repository.ListOptions) ([]domain.Item, error) {
	return s.store.Repositories().Items.List(ctx, opts)
}

// Get fetches one asset.
func (s *ItemService) Get(ctx context.Context, id int64) (*domain.Item, error) {
	item, err := s.store.Repositories().Items.GetByID(ctx, id)
	if err != nil {
		return nil, itemErr(err, id)
	}
	return item, nil
}

// QRCode returns the stored QR image together with the tag it encodes.
func (s *ItemService) QRCode(ctx context.Context, id int64) ([]byte, string, error) {
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if len(item.QRCode) == 0 {
		return nil, "", apperrors.NewItemNotFound(id)
	}
	return item.QRCode, item.AssetTag, nil
}

// Create stores a new asset and assigns its tag and QR code. The row
// insert, the tag uniqueness check and the final write form one unit of work: on a
// tag collision or an encoding failure no row remains.
func (s *ItemService) Create(ctx context.Context, actor *auth.Identity, input ItemInput) (*domain.Item, error) {
	var created *domain.Item
	err := s.tx.run(ctx, func(repos repository.Repositories) error {
		item := &domain.Item{
			Department: input.Department,
			Type:       input.Type,
			SubType:    strings.TrimSpace(input.SubType),
			Serial:     input.Serial,
			Model:      input.Model,
			Status:     input.Status,
			Location:   input.Location,
		}
		if err := repos.Items.InsertShell(ctx, item); err != nil {
			return err
		}

		tag := s.composer.Compose(partsOf(item, assettag.YearMonth(s.now())))
		if err := s.assignTag(ctx, repos, item, tag); err != nil {
			return err
		}
		if err := repos.Items.Update(ctx, item); err != nil {
			return tagErr(err, tag)
		}
		created = item
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.events.publish(ctx, events.EventAssetTagIssued, created.ID, actor, events.AssetTagIssuedPayload{
		AssetTag: created.AssetTag,
	})
	return created, nil
}

// Update replaces the asset fields. The tag keeps its issuance month; when
// department, type or subtype change it is recomputed, checked for uniqueness and
// re-encoded inside the same unit of work.
func (s *ItemService) Update(ctx context.Context, actor *auth.Identity, id int64, input ItemInput) (*domain.Item, error) {
	var (
		updated *domain.Item
		oldTag  string
	)
	err := s.tx.run(ctx, func(repos repository.Repositories) error {
		item, err := repos.Items.GetByID(ctx, id)
		if err != nil {
			return itemErr(err, id)
		}
		yearMonth, err := assettag.ExtractYearMonth(item.AssetTag)
		if err != nil {
			return err
		}

		oldTag = item.AssetTag
		item.Department = input.Department
		item.Type = input.Type
		item.SubType = strings.TrimSpace(input.SubType)
		item.Serial = input.Serial
		item.Model = input.Model
		item.Status = input.Status
		item.Location = input.Location

		tag := s.composer.Compose(partsOf(item, yearMonth))
		if tag != oldTag {
			if err := s.assignTag(ctx, repos, item, tag); err != nil {
				return err
			}
		}
		if err := repos.Items.Update(ctx, item); err != nil {
			return itemErr(tagErr(err, tag), id)
		}
		updated = item
		return nil
	})
	if err != nil {
		return nil, err
	}

	if updated.AssetTag != oldTag {
		s.events.publish(ctx, events.EventAssetTagReissued, id, actor, events.AssetTagReissuedPayload{
			OldAssetTag: oldTag,
			NewAssetTag: updated.AssetTag,
		})
	}
	return updated, nil
}

// Delete removes an asset.
func (s *ItemService) Delete(ctx context.Context, actor *auth.Identity, id int64) error {
	var tag string
	err := s.tx.run(ctx, func(repos repository.Repositories) error {
		item, err := repos.Items.GetByID(ctx, id)
		if err != nil {
			return itemErr(err, id)
		}
		tag = item.AssetTag
		return itemErr(repos.Items.Delete(ctx, id), id)
	})
	if err != nil {
		return err
	}
	s.events.publish(ctx, events.EventAssetDeleted, id, actor, events.AssetDeletedPayload{AssetTag: tag})
	return nil
}

// assignTag checks tag against every other asset and, when free, sets it
// on item together with its QR encoding.
func (s *ItemService) assignTag(ctx context.Context, repos repository.Repositories, item *domain.Item, tag string) error {
	taken, err := repos.Items.TagExists(ctx, tag, item.ID)
	if err != nil {
		return err
	}
	if taken {
		return apperrors.NewDuplicateAssetTag(tag)
	}
	png, err := s.qr.Encode(tag)
	if err != nil {
		return err
	}
	item.AssetTag = tag
	item.QRCode = png
	return nil
}

func partsOf(item *domain.Item, yearMonth string) assettag.Parts {
	return assettag.Parts{
		Department: item.Department,
		Type:       item.Type,
		SubType:    item.SubType,
		YearMonth:  yearMonth,
		ID:         item.ID,
	}
}

func itemErr(err error, id int64) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewItemNotFound(id)
	}
	return err
}

func tagErr(err error, tag string) error {
	if errors.Is(err, repository.ErrDuplicateAssetTag) {
		return apperrors.NewDuplicateAssetTag(tag)
	}
	return err
}
