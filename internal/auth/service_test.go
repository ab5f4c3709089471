package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/taikai/internal/model"
)

// --- モック ---

type mockUserRepo struct {
	findByIDFn    func(ctx context.Context, id string) (*model.User, error)
	findByEmailFn func(ctx context.Context, email string) (*model.User, error)
	createFn      func(ctx context.Context, user *model.User) error
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.findByEmailFn != nil {
		return m.findByEmailFn(ctx, email)
	}
	return nil, nil
}
func (m *mockUserRepo) FindRoleByID(ctx context.Context, id string) (model.Role, error) {
	return "", nil
}
func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}
func (m *mockUserRepo) UpdateFullName(ctx context.Context, id, fullName string) error {
	return nil
}
func (m *mockUserRepo) DeleteByID(ctx context.Context, id string) error {
	return nil
}

type mockSessionRepo struct {
	createFn   func(ctx context.Context, session *model.Session) error
	findByIDFn func(ctx context.Context, id string) (*model.Session, error)
	deleteFn   func(ctx context.Context, id string) error
}

func (m *mockSessionRepo) Create(ctx context.Context, session *model.Session) error {
	if m.createFn != nil {
		return m.createFn(ctx, session)
	}
	return nil
}
func (m *mockSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockSessionRepo) Refresh(ctx context.Context, id string, expiresAt time.Time) error {
	return nil
}
func (m *mockSessionRepo) DeleteByID(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}
func (m *mockSessionRepo) DeleteByUserID(ctx context.Context, userID string) error {
	return nil
}
func (m *mockSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	return 0, nil
}

func newTestService(userRepo *mockUserRepo, sessionRepo *mockSessionRepo) *Service {
	return NewService(userRepo, sessionRepo, ServiceConfig{SessionMaxAge: 3600})
}

// --- サインアップ ---

// TestService_SignUp_CreatesUserWithRole はロール付きでユーザーが作成されることを検証する。
func TestService_SignUp_CreatesUserWithRole(t *testing.T) {
	var created *model.User
	userRepo := &mockUserRepo{
		createFn: func(ctx context.Context, user *model.User) error {
			created = user
			return nil
		},
	}

	svc := newTestService(userRepo, &mockSessionRepo{})

	user, err := svc.SignUp(context.Background(), SignUpInput{
		Email:    "Runner@Example.com",
		Password: "password123",
		FullName: " 山田 太郎 ",
		Role:     "event_manager",
	})
	if err != nil {
		t.Fatalf("SignUp returned error: %v", err)
	}

	if created == nil {
		t.Fatal("expected user to be created")
	}
	if user.Email != "runner@example.com" {
		t.Errorf("Email = %q, want normalized %q", user.Email, "runner@example.com")
	}
	if user.FullName != "山田 太郎" {
		t.Errorf("FullName = %q, want trimmed %q", user.FullName, "山田 太郎")
	}
	if user.Role != model.RoleEventManager {
		t.Errorf("Role = %q, want %q", user.Role, model.RoleEventManager)
	}
	if user.PasswordHash == "" || user.PasswordHash == "password123" {
		t.Error("password must be stored hashed")
	}
	if user.ID == "" {
		t.Error("user ID must be generated")
	}
}

// TestService_SignUp_DefaultRoleIsParticipant はロール未指定時のデフォルトを検証する。
func TestService_SignUp_DefaultRoleIsParticipant(t *testing.T) {
	svc := newTestService(&mockUserRepo{}, &mockSessionRepo{})

	user, err := svc.SignUp(context.Background(), SignUpInput{
		Email:    "athlete@example.com",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("SignUp returned error: %v", err)
	}
	if user.Role != model.RoleParticipant {
		t.Errorf("Role = %q, want %q", user.Role, model.RoleParticipant)
	}
}

// TestService_SignUp_LegacyRoleAlias は旧フォームのevent_creatorが受理されることを検証する。
func TestService_SignUp_LegacyRoleAlias(t *testing.T) {
	svc := newTestService(&mockUserRepo{}, &mockSessionRepo{})

	user, err := svc.SignUp(context.Background(), SignUpInput{
		Email:    "manager@example.com",
		Password: "password123",
		Role:     "event_creator",
	})
	if err != nil {
		t.Fatalf("SignUp returned error: %v", err)
	}
	if user.Role != model.RoleEventManager {
		t.Errorf("Role = %q, want %q", user.Role, model.RoleEventManager)
	}
}

// TestService_SignUp_UnknownRole_ReturnsError は未知のロールが拒否されることを検証する。
func TestService_SignUp_UnknownRole_ReturnsError(t *testing.T) {
	createCalled := false
	userRepo := &mockUserRepo{
		createFn: func(ctx context.Context, user *model.User) error {
			createCalled = true
			return nil
		},
	}
	svc := newTestService(userRepo, &mockSessionRepo{})

	_, err := svc.SignUp(context.Background(), SignUpInput{
		Email:    "x@example.com",
		Password: "password123",
		Role:     "admin",
	})

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidRole {
		t.Fatalf("expected INVALID_ROLE error, got %v", err)
	}
	if createCalled {
		t.Error("user must not be created with an unknown role")
	}
}

// TestService_SignUp_DuplicateEmail は重複メールアドレスの拒否を検証する。
func TestService_SignUp_DuplicateEmail(t *testing.T) {
	userRepo := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{ID: "existing", Email: email}, nil
		},
	}
	svc := newTestService(userRepo, &mockSessionRepo{})

	_, err := svc.SignUp(context.Background(), SignUpInput{
		Email:    "taken@example.com",
		Password: "password123",
	})

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeEmailAlreadyExists {
		t.Fatalf("expected EMAIL_ALREADY_EXISTS error, got %v", err)
	}
}

// TestService_SignUp_MissingFields は必須項目欠落の検証がストア呼び出し前に行われることを検証する。
func TestService_SignUp_MissingFields(t *testing.T) {
	lookupCalled := false
	userRepo := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			lookupCalled = true
			return nil, nil
		},
	}
	svc := newTestService(userRepo, &mockSessionRepo{})

	_, err := svc.SignUp(context.Background(), SignUpInput{Email: "", Password: ""})

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeRequiredFieldsMissing {
		t.Fatalf("expected REQUIRED_FIELDS_MISSING error, got %v", err)
	}
	if lookupCalled {
		t.Error("store must not be called when validation fails")
	}
}

// --- サインイン ---

func signedUpUser(t *testing.T, password string) *model.User {
	t.Helper()
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	return &model.User{
		ID:           "user-1",
		Email:        "runner@example.com",
		FullName:     "Runner",
		Role:         model.RoleParticipant,
		PasswordHash: hash,
	}
}

// TestService_SignIn_Success は正しい認証情報でセッションが発行されることを検証する。
func TestService_SignIn_Success(t *testing.T) {
	user := signedUpUser(t, "password123")
	var savedSession *model.Session

	userRepo := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			if email == "runner@example.com" {
				return user, nil
			}
			return nil, nil
		},
	}
	sessionRepo := &mockSessionRepo{
		createFn: func(ctx context.Context, session *model.Session) error {
			savedSession = session
			return nil
		},
	}

	svc := newTestService(userRepo, sessionRepo)

	session, gotUser, err := svc.SignIn(context.Background(), "Runner@Example.com", "password123")
	if err != nil {
		t.Fatalf("SignIn returned error: %v", err)
	}
	if session == nil || savedSession == nil {
		t.Fatal("expected session to be created and persisted")
	}
	if session.UserID != "user-1" {
		t.Errorf("session.UserID = %q, want %q", session.UserID, "user-1")
	}
	if gotUser.Role != model.RoleParticipant {
		t.Errorf("user.Role = %q, want %q", gotUser.Role, model.RoleParticipant)
	}
	if !session.ExpiresAt.After(time.Now()) {
		t.Error("session must expire in the future")
	}
}

// TestService_SignIn_WrongPassword はパスワード不一致が認証情報エラーになることを検証する。
func TestService_SignIn_WrongPassword(t *testing.T) {
	user := signedUpUser(t, "password123")
	userRepo := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return user, nil
		},
	}
	svc := newTestService(userRepo, &mockSessionRepo{})

	_, _, err := svc.SignIn(context.Background(), "runner@example.com", "wrong")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidCredentials {
		t.Fatalf("expected INVALID_CREDENTIALS error, got %v", err)
	}
}

// TestService_SignIn_UnknownEmail は未登録メールアドレスが同一のエラーになることを検証する。
func TestService_SignIn_UnknownEmail(t *testing.T) {
	svc := newTestService(&mockUserRepo{}, &mockSessionRepo{})

	_, _, err := svc.SignIn(context.Background(), "nobody@example.com", "password123")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidCredentials {
		t.Fatalf("expected INVALID_CREDENTIALS error, got %v", err)
	}
}

// --- サインアウト / 現在ユーザー ---

// TestService_SignOut_DeletesSession はセッションが削除されることを検証する。
func TestService_SignOut_DeletesSession(t *testing.T) {
	deleted := ""
	sessionRepo := &mockSessionRepo{
		deleteFn: func(ctx context.Context, id string) error {
			deleted = id
			return nil
		},
	}
	svc := newTestService(&mockUserRepo{}, sessionRepo)

	if err := svc.SignOut(context.Background(), "session-1"); err != nil {
		t.Fatalf("SignOut returned error: %v", err)
	}
	if deleted != "session-1" {
		t.Errorf("deleted session = %q, want %q", deleted, "session-1")
	}
}

// TestService_GetCurrentUser_ExpiredSession は期限切れセッションが
// 型付きのUNAUTHORIZEDエラーになることを検証する。
func TestService_GetCurrentUser_ExpiredSession(t *testing.T) {
	sessionRepo := &mockSessionRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			// 期限切れはリポジトリがnilを返す
			return nil, nil
		},
	}
	svc := newTestService(&mockUserRepo{}, sessionRepo)

	_, err := svc.GetCurrentUser(context.Background(), "expired-session")
	if err == nil {
		t.Fatal("expected error for expired session")
	}
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUnauthorized {
		t.Errorf("err = %v, want APIError %s", err, model.ErrCodeUnauthorized)
	}
}

// TestService_GetCurrentUser_StoreFailure はストア障害が未認証扱いに
// 化けないことを検証する。
func TestService_GetCurrentUser_StoreFailure(t *testing.T) {
	sessionRepo := &mockSessionRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			return nil, errors.New("connection refused")
		},
	}
	svc := newTestService(&mockUserRepo{}, sessionRepo)

	_, err := svc.GetCurrentUser(context.Background(), "session-1")
	if err == nil {
		t.Fatal("expected error for store failure")
	}
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		t.Errorf("store failure must not map to APIError, got %v", apiErr)
	}
}

// TestService_GetCurrentUser_Success はセッションからユーザーが解決されることを検証する。
func TestService_GetCurrentUser_Success(t *testing.T) {
	sessionRepo := &mockSessionRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			return &model.Session{ID: id, UserID: "user-1", ExpiresAt: time.Now().Add(time.Hour)}, nil
		},
	}
	userRepo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: id, Email: "runner@example.com", Role: model.RoleParticipant}, nil
		},
	}
	svc := newTestService(userRepo, sessionRepo)

	user, err := svc.GetCurrentUser(context.Background(), "session-1")
	if err != nil {
		t.Fatalf("GetCurrentUser returned error: %v", err)
	}
	if user.ID != "user-1" {
		t.Errorf("user.ID = %q, want %q", user.ID, "user-1")
	}
}
