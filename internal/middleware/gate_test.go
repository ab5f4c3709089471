package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/taikai/internal/model"
)

// --- モック定義 ---

type mockResolver struct {
	resolveFn func(w http.ResponseWriter, r *http.Request) (*model.Session, error)
}

func (m *mockResolver) Resolve(w http.ResponseWriter, r *http.Request) (*model.Session, error) {
	if m.resolveFn != nil {
		return m.resolveFn(w, r)
	}
	return nil, nil
}

type mockRoleFinder struct {
	findRoleFn func(ctx context.Context, id string) (model.Role, error)
}

func (m *mockRoleFinder) FindRoleByID(ctx context.Context, id string) (model.Role, error) {
	if m.findRoleFn != nil {
		return m.findRoleFn(ctx, id)
	}
	return "", nil
}

func validSession(userID string) *model.Session {
	return &model.Session{
		ID:        "session-1",
		UserID:    userID,
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

// serveGate はゲートを通してリクエストを処理し、ページが描画されたかを返す。
func serveGate(t *testing.T, resolver SessionResolver, roles RoleFinder, path string) (*httptest.ResponseRecorder, bool) {
	t.Helper()

	rendered := false
	gate := NewAccessGate(resolver, roles)
	handler := gate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rendered = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	return w, rendered
}

// --- 規則2: 未認証の保護領域アクセス ---

func TestAccessGate_DashboardWithoutSession_RedirectsHome(t *testing.T) {
	for _, path := range []string{"/dashboard", "/dashboard/athlete", "/dashboard/profile"} {
		w, rendered := serveGate(t, &mockResolver{}, &mockRoleFinder{}, path)

		resp := w.Result()
		if resp.StatusCode != http.StatusTemporaryRedirect {
			t.Errorf("%s: status = %d, want %d", path, resp.StatusCode, http.StatusTemporaryRedirect)
		}
		if loc := resp.Header.Get("Location"); loc != "/" {
			t.Errorf("%s: Location = %q, want %q", path, loc, "/")
		}
		if rendered {
			t.Errorf("%s: page must not be rendered for unauthenticated access", path)
		}
	}
}

func TestAccessGate_DashboardWithSession_Renders(t *testing.T) {
	resolver := &mockResolver{
		resolveFn: func(w http.ResponseWriter, r *http.Request) (*model.Session, error) {
			return validSession("user-1"), nil
		},
	}

	w, rendered := serveGate(t, resolver, &mockRoleFinder{}, "/dashboard")

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
	if !rendered {
		t.Error("authenticated dashboard request must render")
	}
}

// --- 規則3: ランディングページのロール別ルーティング ---

func TestAccessGate_HomeWithParticipant_RedirectsAthleteDashboard(t *testing.T) {
	resolver := &mockResolver{
		resolveFn: func(w http.ResponseWriter, r *http.Request) (*model.Session, error) {
			return validSession("user-1"), nil
		},
	}
	roles := &mockRoleFinder{
		findRoleFn: func(ctx context.Context, id string) (model.Role, error) {
			return model.RoleParticipant, nil
		},
	}

	w, rendered := serveGate(t, resolver, roles, "/")

	resp := w.Result()
	if resp.StatusCode != http.StatusTemporaryRedirect {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusTemporaryRedirect)
	}
	if loc := resp.Header.Get("Location"); loc != "/dashboard/athlete" {
		t.Errorf("Location = %q, want %q", loc, "/dashboard/athlete")
	}
	if rendered {
		t.Error("landing page must not render for a signed-in participant")
	}
}

func TestAccessGate_HomeWithManager_RedirectsManagerDashboard(t *testing.T) {
	resolver := &mockResolver{
		resolveFn: func(w http.ResponseWriter, r *http.Request) (*model.Session, error) {
			return validSession("user-1"), nil
		},
	}
	roles := &mockRoleFinder{
		findRoleFn: func(ctx context.Context, id string) (model.Role, error) {
			return model.RoleEventManager, nil
		},
	}

	w, _ := serveGate(t, resolver, roles, "/")

	if loc := w.Result().Header.Get("Location"); loc != "/dashboard" {
		t.Errorf("Location = %q, want %q", loc, "/dashboard")
	}
}

func TestAccessGate_HomeWithUnknownRole_RedirectsManagerDashboard(t *testing.T) {
	// ロールが解決できた場合、participant以外はすべて運営者ダッシュボードへ
	resolver := &mockResolver{
		resolveFn: func(w http.ResponseWriter, r *http.Request) (*model.Session, error) {
			return validSession("user-1"), nil
		},
	}
	roles := &mockRoleFinder{
		findRoleFn: func(ctx context.Context, id string) (model.Role, error) {
			return "", nil
		},
	}

	w, _ := serveGate(t, resolver, roles, "/")

	if loc := w.Result().Header.Get("Location"); loc != "/dashboard" {
		t.Errorf("Location = %q, want %q", loc, "/dashboard")
	}
}

func TestAccessGate_HomeRoleLookupFails_StillRedirectsManagerDashboard(t *testing.T) {
	// ロール参照の失敗は伝播させず、運営者ダッシュボードへの安全なデフォルトを適用する
	resolver := &mockResolver{
		resolveFn: func(w http.ResponseWriter, r *http.Request) (*model.Session, error) {
			return validSession("user-1"), nil
		},
	}
	roles := &mockRoleFinder{
		findRoleFn: func(ctx context.Context, id string) (model.Role, error) {
			return "", errors.New("users table unreachable")
		},
	}

	w, rendered := serveGate(t, resolver, roles, "/")

	resp := w.Result()
	if resp.StatusCode != http.StatusTemporaryRedirect {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusTemporaryRedirect)
	}
	if loc := resp.Header.Get("Location"); loc != "/dashboard" {
		t.Errorf("Location = %q, want %q", loc, "/dashboard")
	}
	if rendered {
		t.Error("page must not render when the role lookup fails on the landing page")
	}
}

func TestAccessGate_HomeWithoutSession_Renders(t *testing.T) {
	w, rendered := serveGate(t, &mockResolver{}, &mockRoleFinder{}, "/")

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
	if !rendered {
		t.Error("landing page must render for anonymous visitors")
	}
}

// --- 規則1: フェイルオープン ---

func TestAccessGate_ResolverError_FailsOpen(t *testing.T) {
	resolver := &mockResolver{
		resolveFn: func(w http.ResponseWriter, r *http.Request) (*model.Session, error) {
			return nil, errors.New("session store unreachable")
		},
	}

	// 保護領域であっても、解決自体の失敗ではブロックしない
	for _, path := range []string{"/", "/dashboard", "/competitions"} {
		w, rendered := serveGate(t, resolver, &mockRoleFinder{}, path)

		if w.Result().StatusCode != http.StatusOK {
			t.Errorf("%s: status = %d, want %d (fail-open)", path, w.Result().StatusCode, http.StatusOK)
		}
		if !rendered {
			t.Errorf("%s: page must render when session resolution fails", path)
		}
	}
}

// --- Cookie更新の伝播 ---

func TestAccessGate_CookieRotationPropagatesOnRedirect(t *testing.T) {
	// resolverが書き込んだCookie更新はリダイレクトレスポンスにも含まれる
	resolver := &mockResolver{
		resolveFn: func(w http.ResponseWriter, r *http.Request) (*model.Session, error) {
			http.SetCookie(w, &http.Cookie{Name: "session_id", Value: "rotated", Path: "/"})
			return validSession("user-1"), nil
		},
	}
	roles := &mockRoleFinder{
		findRoleFn: func(ctx context.Context, id string) (model.Role, error) {
			return model.RoleParticipant, nil
		},
	}

	w, _ := serveGate(t, resolver, roles, "/")

	resp := w.Result()
	if resp.StatusCode != http.StatusTemporaryRedirect {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusTemporaryRedirect)
	}
	cookies := resp.Cookies()
	found := false
	for _, c := range cookies {
		if c.Name == "session_id" && c.Value == "rotated" {
			found = true
		}
	}
	if !found {
		t.Error("rotated session cookie must be present on the redirect response")
	}
}

// --- 対象外パス ---

func TestAccessGate_SkipsAPIAndAssets(t *testing.T) {
	resolveCalled := false
	resolver := &mockResolver{
		resolveFn: func(w http.ResponseWriter, r *http.Request) (*model.Session, error) {
			resolveCalled = true
			return nil, nil
		},
	}

	for _, path := range []string{"/api/competitions", "/auth/signin", "/health", "/metrics", "/static/app.js", "/favicon.ico"} {
		resolveCalled = false
		w, rendered := serveGate(t, resolver, &mockRoleFinder{}, path)

		if !rendered {
			t.Errorf("%s: must pass through the gate", path)
		}
		if w.Result().StatusCode != http.StatusOK {
			t.Errorf("%s: status = %d, want %d", path, w.Result().StatusCode, http.StatusOK)
		}
		if resolveCalled {
			t.Errorf("%s: resolver must not be called for skipped paths", path)
		}
	}
}

// --- コンテキスト注入 ---

func TestAccessGate_InjectsUserIDForRenderedPages(t *testing.T) {
	resolver := &mockResolver{
		resolveFn: func(w http.ResponseWriter, r *http.Request) (*model.Session, error) {
			return validSession("user-42"), nil
		},
	}

	gate := NewAccessGate(resolver, &mockRoleFinder{})
	var captured string
	handler := gate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/competitions", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if captured != "user-42" {
		t.Errorf("userID in context = %q, want %q", captured, "user-42")
	}
}
