package memory

import (
	"context"
	"sort"

	"github.com/spec-kit/asset-registry/internal/domain"
	"github.com/spec-kit/asset-registry/internal/repository"
)

type itemRepository struct {
	store *Store
	inTx  bool
}

func (r *itemRepository) InsertShell(ctx context.Context, item *domain.Item) error {
	return r.store.access(r.inTx, func(st *state) error {
		st.nextItemID++
		now := r.store.now()
		item.ID = st.nextItemID
		item.AssetTag = ""
		item.QRCode = nil
		item.CreatedAt = now
		item.UpdatedAt = now
		st.items[item.ID] = item.Clone()
		return nil
	})
}

func (r *itemRepository) Update(ctx context.Context, item *domain.Item) error {
	return r.store.access(r.inTx, func(st *state) error {
		existing, ok := st.items[item.ID]
		if !ok {
			return repository.ErrNotFound
		}
		if item.AssetTag != "" && tagHeldByOther(st, item.AssetTag, item.ID) {
			return repository.ErrDuplicateAssetTag
		}
		item.CreatedAt = existing.CreatedAt
		item.UpdatedAt = r.store.now()
		st.items[item.ID] = item.Clone()
		return nil
	})
}

func (r *itemRepository) GetByID(ctx context.Context, id int64) (*domain.Item, error) {
	var found *domain.Item
	err := r.store.access(r.inTx, func(st *state) error {
		item, ok := st.items[id]
		if !ok {
			return repository.ErrNotFound
		}
		found = item.Clone()
		return nil
	})
	return found, err
}

func (r *itemRepository) List(ctx context.Context, opts repository.ListOptions) ([]domain.Item, error) {
	var items []domain.Item
	err := r.store.access(r.inTx, func(st *state) error {
		items = make([]domain.Item, 0, len(st.items))
		for _, item := range st.items {
			items = append(items, *item.Clone())
		}
		return nil
	})
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return paginate(items, opts), err
}

func (r *itemRepository) Delete(ctx context.Context, id int64) error {
	return r.store.access(r.inTx, func(st *state) error {
		if _, ok := st.items[id]; !ok {
			return repository.ErrNotFound
		}
		delete(st.items, id)
		return nil
	})
}

func (r *itemRepository) TagExists(ctx context.Context, tag string, excludeID int64) (bool, error) {
	var exists bool
	err := r.store.access(r.inTx, func(st *state) error {
		exists = tagHeldByOther(st, tag, excludeID)
		return nil
	})
	return exists, err
}

func tagHeldByOther(st *state, tag string, id int64) bool {
	for otherID, item := range st.items {
		if otherID != id && item.AssetTag == tag {
			return true
		}
	}
	return false
}
