package service

import (
	"context"
	"errors"
	"testing"

	"github.com/spec-kit/asset-registry/internal/auth"
	"github.com/spec-kit/asset-registry/internal/domain"
	"github.com/spec-kit/asset-registry/internal/events"
	"github.com/spec-kit/asset-registry/internal/repository"
	apperrors "github.com/spec-kit/asset-registry/pkg/util/errorutil"
)

func newUserService(dispatcher events.Dispatcher) *UserService {
	return NewUserService(testAuthConfig, UserDependencies{Store: newTestStore(), Dispatcher: dispatcher})
}

func mustCreateUser(t *testing.T, svc *UserService, email string, role domain.Role) *domain.User {
	t.Helper()
	user, err := svc.Create(context.Background(), superAdmin(1), CreateUserInput{Name: "U", Email: email, Password: "pw", Role: role})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return user
}

func TestUserService_CreateGetList(t *testing.T) {
	svc := newUserService(nil)
	ctx := context.Background()

	a := mustCreateUser(t, svc, "a@example.com", domain.RoleStaff)
	b := mustCreateUser(t, svc, "b@example.com", domain.RoleAdmin)

	got, err := svc.Get(ctx, b.ID)
	if err != nil || got.Email != "b@example.com" || got.Role != domain.RoleAdmin {
		t.Fatalf("Get() = %+v, %v", got, err)
	}

	users, err := svc.List(ctx, repository.ListOptions{})
	if err != nil || len(users) != 2 || users[0].ID != a.ID {
		t.Fatalf("List() = %+v, %v", users, err)
	}

	_, err = svc.Get(ctx, 404)
	assertCode(t, err, apperrors.CodeUserNotFound)
	if msg := err.Error(); msg != "User: '404' does not exist in the database." {
		t.Errorf("message = %q", msg)
	}
}

func TestUserService_CreateDuplicateEmail(t *testing.T) {
	svc := newUserService(nil)
	mustCreateUser(t, svc, "a@example.com", domain.RoleStaff)

	_, err := svc.Create(context.Background(), superAdmin(1), CreateUserInput{Email: "a@example.com", Password: "pw", Role: domain.RoleStaff})
	assertCode(t, err, apperrors.CodeDuplicateEmail)
}

func TestUserService_UpdateCredentials(t *testing.T) {
	rec, dispatcher := newRecorder()
	svc := newUserService(dispatcher)
	ctx := context.Background()
	user := mustCreateUser(t, svc, "old@example.com", domain.RoleStaff)
	mustCreateUser(t, svc, "taken@example.com", domain.RoleStaff)

	updated, err := svc.UpdateCredentials(ctx, superAdmin(1), user.ID, UpdateCredentialsInput{Email: "New@Example.com", Password: "new-pass"})
	if err != nil {
		t.Fatalf("UpdateCredentials() error = %v", err)
	}
	if updated.Email != "new@example.com" || auth.ComparePassword(updated.PasswordHash, "new-pass") != nil {
		t.Errorf("updated = %+v", updated)
	}
	if got := rec.ofType(events.EventUserCredentialsChanged); len(got) != 1 {
		t.Errorf("credential events = %d, want 1", len(got))
	}

	_, err = svc.UpdateCredentials(ctx, superAdmin(1), user.ID, UpdateCredentialsInput{Email: "taken@example.com", Password: "x"})
	assertCode(t, err, apperrors.CodeDuplicateEmail)

	// Keeping the same email is not a conflict with oneself.
	if _, err := svc.UpdateCredentials(ctx, superAdmin(1), user.ID, UpdateCredentialsInput{Email: "new@example.com", Password: "y"}); err != nil {
		t.Fatalf("UpdateCredentials() same email error = %v", err)
	}

	_, err = svc.UpdateCredentials(ctx, superAdmin(1), 404, UpdateCredentialsInput{Email: "z@example.com", Password: "x"})
	assertCode(t, err, apperrors.CodeUserNotFound)
}

func TestUserService_UpdateRole(t *testing.T) {
	rec, dispatcher := newRecorder()
	svc := newUserService(dispatcher)
	ctx := context.Background()
	root := mustCreateUser(t, svc, "root@example.com", domain.RoleSuperAdmin)
	staff := mustCreateUser(t, svc, "staff@example.com", domain.RoleStaff)
	actor := superAdmin(root.ID)

	tests := []struct {
		name     string
		target   int64
		role     domain.Role
		wantCode string
	}{
		{name: "self", target: root.ID, role: domain.RoleStaff, wantCode: apperrors.CodeSelfOperation},
		{name: "invalid role", target: staff.ID, role: "OWNER", wantCode: apperrors.CodeValidationFailed},
		{name: "missing user", target: 404, role: domain.RoleAdmin, wantCode: apperrors.CodeUserNotFound},
		{name: "promote", target: staff.ID, role: domain.RoleAdmin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := svc.UpdateRole(ctx, actor, tt.target, tt.role)
			if tt.wantCode != "" {
				assertCode(t, err, tt.wantCode)
				return
			}
			if err != nil {
				t.Fatalf("UpdateRole() error = %v", err)
			}
			if user.Role != tt.role {
				t.Errorf("Role = %s, want %s", user.Role, tt.role)
			}
		})
	}

	self, _ := svc.Get(ctx, root.ID)
	if self.Role != domain.RoleSuperAdmin {
		t.Error("self-operation must not change the caller's role")
	}
	changed := rec.ofType(events.EventUserRoleChanged)
	if len(changed) != 1 {
		t.Fatalf("role events = %d, want 1", len(changed))
	}
	payload := changed[0].Payload.(events.UserRoleChangedPayload)
	if payload.OldRole != domain.RoleStaff || payload.NewRole != domain.RoleAdmin || changed[0].Actor.UserID != root.ID {
		t.Errorf("event = %+v", changed[0])
	}
}

func TestUserService_Delete(t *testing.T) {
	svc := newUserService(nil)
	ctx := context.Background()
	root := mustCreateUser(t, svc, "root@example.com", domain.RoleSuperAdmin)
	other := mustCreateUser(t, svc, "other@example.com", domain.RoleStaff)

	assertCode(t, svc.Delete(ctx, superAdmin(root.ID), root.ID), apperrors.CodeSelfOperation)

	if err := svc.Delete(ctx, superAdmin(root.ID), other.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	_, err := svc.Get(ctx, other.ID)
	assertCode(t, err, apperrors.CodeUserNotFound)

	assertCode(t, svc.Delete(ctx, superAdmin(root.ID), other.ID), apperrors.CodeUserNotFound)
}

func TestUserService_RetriesSerializationConflicts(t *testing.T) {
	ops := map[string]func(*UserService, int64) error{
		"update credentials": func(svc *UserService, id int64) error {
			_, err := svc.UpdateCredentials(context.Background(), superAdmin(1), id, UpdateCredentialsInput{Email: "new@example.com", Password: "pw-new"})
			return err
		},
		"update role": func(svc *UserService, id int64) error {
			_, err := svc.UpdateRole(context.Background(), superAdmin(1), id, domain.RoleAdmin)
			return err
		},
		"delete": func(svc *UserService, id int64) error {
			return svc.Delete(context.Background(), superAdmin(1), id)
		},
	}

	for name, op := range ops {
		for _, tt := range []struct {
			failures  int
			wantErr   bool
			wantCalls int
		}{
			{failures: 2, wantCalls: 3},
			{failures: 5, wantErr: true, wantCalls: 3},
		} {
			store := &conflictingStore{Store: newTestStore(), failures: tt.failures}
			svc := NewUserService(testAuthConfig, UserDependencies{Store: store})
			target := mustCreateUser(t, svc, "target@example.com", domain.RoleStaff)

			err := op(svc, target.ID)
			if tt.wantErr {
				if !errors.Is(err, repository.ErrConflict) {
					t.Errorf("%s with %d conflicts: err = %v, want ErrConflict", name, tt.failures, err)
				}
			} else if err != nil {
				t.Errorf("%s with %d conflicts: err = %v", name, tt.failures, err)
			}
			if store.calls != tt.wantCalls {
				t.Errorf("%s with %d conflicts: attempts = %d, want %d", name, tt.failures, store.calls, tt.wantCalls)
			}
		}
	}
}
