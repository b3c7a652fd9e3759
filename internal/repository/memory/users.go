package memory

import (
	"context"
	"sort"

	"github.com/spec-kit/asset-registry/internal/domain"
	"github.com/spec-kit/asset-registry/internal/repository"
)

type userRepository struct {
	store *Store
	inTx  bool
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	return r.store.access(r.inTx, func(st *state) error {
		for _, existing := range st.users {
			if sameEmail(existing.Email, user.Email) {
				return repository.ErrDuplicateEmail
			}
		}
		st.nextUserID++
		now := r.store.now()
		user.ID = st.nextUserID
		user.CreatedAt = now
		user.UpdatedAt = now
		stored := *user
		st.users[user.ID] = &stored
		return nil
	})
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	return r.store.access(r.inTx, func(st *state) error {
		if _, ok := st.users[user.ID]; !ok {
			return repository.ErrNotFound
		}
		for id, existing := range st.users {
			if id != user.ID && sameEmail(existing.Email, user.Email) {
				return repository.ErrDuplicateEmail
			}
		}
		user.UpdatedAt = r.store.now()
		stored := *user
		st.users[user.ID] = &stored
		return nil
	})
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	var found *domain.User
	err := r.store.access(r.inTx, func(st *state) error {
		user, ok := st.users[id]
		if !ok {
			return repository.ErrNotFound
		}
		cp := *user
		found = &cp
		return nil
	})
	return found, err
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var found *domain.User
	err := r.store.access(r.inTx, func(st *state) error {
		for _, user := range st.users {
			if sameEmail(user.Email, email) {
				cp := *user
				found = &cp
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return found, err
}

func (r *userRepository) List(ctx context.Context, opts repository.ListOptions) ([]domain.User, error) {
	var users []domain.User
	err := r.store.access(r.inTx, func(st *state) error {
		users = make([]domain.User, 0, len(st.users))
		for _, user := range st.users {
			users = append(users, *user)
		}
		return nil
	})
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return paginate(users, opts), err
}

func (r *userRepository) Delete(ctx context.Context, id int64) error {
	return r.store.access(r.inTx, func(st *state) error {
		if _, ok := st.users[id]; !ok {
			return repository.ErrNotFound
		}
		delete(st.users, id)
		return nil
	})
}
