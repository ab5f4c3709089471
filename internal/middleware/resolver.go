package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/taikai/internal/model"
)

// SessionResolver はページリクエストのCookieからセッションを解決する。
//
// 戻り値の規約:
//   - セッションが存在しない・期限切れの場合は (nil, nil)。認証されていないことは
//     ドメイン上の結果でありエラーではない。
//   - 解決処理自体が失敗した場合（ストア到達不能など）のみ (nil, err)。
//
// 副作用として、有効期限の近いセッションを延長し、更新後のCookieを
// レスポンスに書き込むことがある。呼び出し側は判定結果に関わらず
// この書き込みをレスポンスに含めなければならない。
type SessionResolver interface {
	Resolve(w http.ResponseWriter, r *http.Request) (*model.Session, error)
}

// SessionStore はCookieSessionResolverが必要とするセッション操作のインターフェース。
// repository.SessionRepositoryの部分集合として定義する。
type SessionStore interface {
	FindByID(ctx context.Context, id string) (*model.Session, error)
	Refresh(ctx context.Context, id string, expiresAt time.Time) error
}

// CookieConfig はセッションCookieの属性設定。
type CookieConfig struct {
	SessionMaxAge int // 秒
	CookieSecure  bool
	CookieDomain  string
}

// CookieSessionResolver はsession_id CookieとセッションストアでSessionResolverを実装する。
// 残り有効期間が最大値の半分を切ったセッションはスライディング方式で延長し、
// 新しい有効期限のCookieをレスポンスに再設定する。
type CookieSessionResolver struct {
	sessions SessionStore
	config   CookieConfig
}

// NewCookieSessionResolver はCookieSessionResolverを生成する。
func NewCookieSessionResolver(sessions SessionStore, config CookieConfig) *CookieSessionResolver {
	return &CookieSessionResolver{
		sessions: sessions,
		config:   config,
	}
}

// Resolve はCookieからセッションを解決する。
func (cr *CookieSessionResolver) Resolve(w http.ResponseWriter, r *http.Request) (*model.Session, error) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil, nil
	}

	session, err := cr.sessions.FindByID(r.Context(), cookie.Value)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, nil
	}

	maxAge := time.Duration(cr.config.SessionMaxAge) * time.Second
	remaining := time.Until(session.ExpiresAt)

	// スライディング延長: 残り有効期間が半分を切ったら延長し、Cookieを再設定する
	if remaining < maxAge/2 {
		newExpiry := time.Now().Add(maxAge)
		if err := cr.sessions.Refresh(r.Context(), session.ID, newExpiry); err != nil {
			// 延長の失敗はセッションの有効性を損なわない
			slog.Warn("failed to refresh session expiry",
				slog.String("session_id", session.ID),
				slog.String("error", err.Error()),
			)
		} else {
			session.ExpiresAt = newExpiry
			http.SetCookie(w, &http.Cookie{
				Name:     sessionCookieName,
				Value:    session.ID,
				Path:     "/",
				Domain:   cr.config.CookieDomain,
				MaxAge:   cr.config.SessionMaxAge,
				HttpOnly: true,
				Secure:   cr.config.CookieSecure,
				SameSite: http.SameSiteLaxMode,
			})
		}
	}

	return session, nil
}

// compile-time interface check
var _ SessionResolver = (*CookieSessionResolver)(nil)
