package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/taikai/internal/model"
)

// --- モック定義 ---

type mockUserRepo struct {
	findByIDFn       func(ctx context.Context, id string) (*model.User, error)
	updateFullNameFn func(ctx context.Context, id, fullName string) error
	deleteByIDFn     func(ctx context.Context, id string) error
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return nil, nil
}

func (m *mockUserRepo) FindRoleByID(ctx context.Context, id string) (model.Role, error) {
	return "", nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error { return nil }

func (m *mockUserRepo) UpdateFullName(ctx context.Context, id, fullName string) error {
	if m.updateFullNameFn != nil {
		return m.updateFullNameFn(ctx, id, fullName)
	}
	return nil
}

func (m *mockUserRepo) DeleteByID(ctx context.Context, id string) error {
	if m.deleteByIDFn != nil {
		return m.deleteByIDFn(ctx, id)
	}
	return nil
}

type mockSessionRepo struct {
	deleteByUserIDFn func(ctx context.Context, userID string) error
}

func (m *mockSessionRepo) Create(ctx context.Context, session *model.Session) error { return nil }
func (m *mockSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	return nil, nil
}
func (m *mockSessionRepo) Refresh(ctx context.Context, id string, expiresAt time.Time) error {
	return nil
}
func (m *mockSessionRepo) DeleteByID(ctx context.Context, id string) error { return nil }
func (m *mockSessionRepo) DeleteByUserID(ctx context.Context, userID string) error {
	if m.deleteByUserIDFn != nil {
		return m.deleteByUserIDFn(ctx, userID)
	}
	return nil
}
func (m *mockSessionRepo) DeleteExpired(ctx context.Context) (int64, error) { return 0, nil }

type mockParticipationDeleter struct {
	deleteByUserIDFn func(ctx context.Context, userID string) error
}

func (m *mockParticipationDeleter) DeleteByUserID(ctx context.Context, userID string) error {
	if m.deleteByUserIDFn != nil {
		return m.deleteByUserIDFn(ctx, userID)
	}
	return nil
}

func existingUser(id string) *model.User {
	return &model.User{
		ID:       id,
		Email:    "hanako@example.com",
		FullName: "佐藤花子",
		Role:     model.RoleParticipant,
	}
}

// --- GetProfile ---

func TestGetProfile_Success(t *testing.T) {
	userRepo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return existingUser(id), nil
		},
	}
	svc := NewService(userRepo, &mockSessionRepo{}, &mockParticipationDeleter{})

	user, err := svc.GetProfile(context.Background(), "user-1")

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.FullName != "佐藤花子" {
		t.Errorf("FullName = %q", user.FullName)
	}
}

func TestGetProfile_UnknownUser(t *testing.T) {
	svc := NewService(&mockUserRepo{}, &mockSessionRepo{}, &mockParticipationDeleter{})

	_, err := svc.GetProfile(context.Background(), "ghost")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUserNotFound {
		t.Errorf("err = %v, want %s", err, model.ErrCodeUserNotFound)
	}
}

func TestGetProfile_Unauthenticated(t *testing.T) {
	svc := NewService(&mockUserRepo{}, &mockSessionRepo{}, &mockParticipationDeleter{})

	_, err := svc.GetProfile(context.Background(), "")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUnauthorized {
		t.Errorf("err = %v, want %s", err, model.ErrCodeUnauthorized)
	}
}

// --- UpdateFullName ---

func TestUpdateFullName_Success(t *testing.T) {
	var gotName string
	userRepo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return existingUser(id), nil
		},
		updateFullNameFn: func(ctx context.Context, id, fullName string) error {
			gotName = fullName
			return nil
		},
	}
	svc := NewService(userRepo, &mockSessionRepo{}, &mockParticipationDeleter{})

	user, err := svc.UpdateFullName(context.Background(), "user-1", "  佐藤華子  ")

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotName != "佐藤華子" {
		t.Errorf("stored name = %q, want trimmed", gotName)
	}
	if user.FullName != "佐藤華子" {
		t.Errorf("returned FullName = %q", user.FullName)
	}
	if user.Role != model.RoleParticipant {
		t.Errorf("role must be unchanged, got %q", user.Role)
	}
}

func TestUpdateFullName_EmptyName(t *testing.T) {
	userRepo := &mockUserRepo{
		updateFullNameFn: func(ctx context.Context, id, fullName string) error {
			t.Fatal("store must not be called for empty names")
			return nil
		},
	}
	svc := NewService(userRepo, &mockSessionRepo{}, &mockParticipationDeleter{})

	_, err := svc.UpdateFullName(context.Background(), "user-1", "   ")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeRequiredFieldsMissing {
		t.Errorf("err = %v, want %s", err, model.ErrCodeRequiredFieldsMissing)
	}
}

// --- Withdraw ---

func TestWithdraw_DeletesInOrder(t *testing.T) {
	var order []string
	userRepo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return existingUser(id), nil
		},
		deleteByIDFn: func(ctx context.Context, id string) error {
			order = append(order, "user")
			return nil
		},
	}
	sessionRepo := &mockSessionRepo{
		deleteByUserIDFn: func(ctx context.Context, userID string) error {
			order = append(order, "sessions")
			return nil
		},
	}
	partDeleter := &mockParticipationDeleter{
		deleteByUserIDFn: func(ctx context.Context, userID string) error {
			order = append(order, "participations")
			return nil
		},
	}
	svc := NewService(userRepo, sessionRepo, partDeleter)

	if err := svc.Withdraw(context.Background(), "user-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"participations", "sessions", "user"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %q, want %q", i, order[i], want[i])
		}
	}
}

func TestWithdraw_UnknownUser(t *testing.T) {
	partDeleter := &mockParticipationDeleter{
		deleteByUserIDFn: func(ctx context.Context, userID string) error {
			t.Fatal("nothing must be deleted for unknown users")
			return nil
		},
	}
	svc := NewService(&mockUserRepo{}, &mockSessionRepo{}, partDeleter)

	err := svc.Withdraw(context.Background(), "ghost")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUserNotFound {
		t.Errorf("err = %v, want %s", err, model.ErrCodeUserNotFound)
	}
}

func TestWithdraw_StopsOnParticipationDeleteFailure(t *testing.T) {
	userDeleted := false
	userRepo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return existingUser(id), nil
		},
		deleteByIDFn: func(ctx context.Context, id string) error {
			userDeleted = true
			return nil
		},
	}
	partDeleter := &mockParticipationDeleter{
		deleteByUserIDFn: func(ctx context.Context, userID string) error {
			return errors.New("deadlock detected")
		},
	}
	svc := NewService(userRepo, &mockSessionRepo{}, partDeleter)

	if err := svc.Withdraw(context.Background(), "user-1"); err == nil {
		t.Fatal("expected error")
	}
	if userDeleted {
		t.Error("user must not be deleted when an earlier step fails")
	}
}
