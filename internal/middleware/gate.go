package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/taikai/internal/model"
)

// ルーティング先のパス。
const (
	pathHome             = "/"
	pathManagerDashboard = "/dashboard"
	pathAthleteDashboard = "/dashboard/athlete"
)

// protectedPrefix は認証必須のページ領域のプレフィックス。
const protectedPrefix = "/dashboard"

// gateSkipPrefixes はゲート判定の対象外となるパスのプレフィックス。
// APIルートと静的アセットはページではないためリダイレクトしない。
var gateSkipPrefixes = []string{"/api/", "/auth/", "/static/", "/health", "/metrics", "/favicon.ico"}

// RoleFinder はゲートのロール参照に必要なインターフェース。
// repository.UserRepositoryの部分集合として定義する。
type RoleFinder interface {
	FindRoleByID(ctx context.Context, id string) (model.Role, error)
}

// NewAccessGate はページリクエストのアクセス制御とロール別ルーティングを行う
// ミドルウェアを返す。判定表（上から順に評価し、最初に一致した規則を適用）:
//
//  1. セッション解決自体が失敗 → ログに記録してそのまま描画（フェイルオープン）。
//     インフラ障害でページ全体をブロックしない。
//  2. パスが/dashboard配下でセッションなし → / へリダイレクト。
//  3. パスが / でセッションあり → ロールを参照し、
//     participant → /dashboard/athlete、それ以外（参照失敗を含む）→ /dashboard。
//  4. それ以外 → そのまま描画。
//
// resolverがCookieを更新した場合、その更新はリダイレクトを含む全経路で
// レスポンスに反映される（resolverが判定前にレスポンスへ書き込むため）。
func NewAccessGate(resolver SessionResolver, roles RoleFinder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path

			if gateSkips(path) {
				next.ServeHTTP(w, r)
				return
			}

			// Cookieの更新（スライディング延長）はこの時点でwに書き込まれる
			session, err := resolver.Resolve(w, r)
			if err != nil {
				// 規則1: フェイルオープン。観測のためログには残す
				slog.Error("session resolution failed, failing open",
					slog.String("path", path),
					slog.String("error", err.Error()),
				)
				next.ServeHTTP(w, r)
				return
			}

			// 規則2: 未認証で保護領域へのアクセス
			if strings.HasPrefix(path, protectedPrefix) && session == nil {
				http.Redirect(w, r, pathHome, http.StatusTemporaryRedirect)
				return
			}

			// 規則3: 認証済みでランディングページへのアクセス
			if path == pathHome && session != nil {
				role, err := roles.FindRoleByID(r.Context(), session.UserID)
				if err != nil {
					// ロール参照の失敗は運営者ダッシュボードへの安全なデフォルト。
					// 無言で握りつぶさず、ログで観測可能にする
					slog.Error("role lookup failed, defaulting to manager dashboard",
						slog.String("user_id", session.UserID),
						slog.String("error", err.Error()),
					)
					http.Redirect(w, r, pathManagerDashboard, http.StatusTemporaryRedirect)
					return
				}

				if role == model.RoleParticipant {
					http.Redirect(w, r, pathAthleteDashboard, http.StatusTemporaryRedirect)
				} else {
					http.Redirect(w, r, pathManagerDashboard, http.StatusTemporaryRedirect)
				}
				return
			}

			// 規則4: そのまま描画。認証済みならユーザーIDをコンテキストに載せる
			if session != nil {
				r = r.WithContext(ContextWithUserID(r.Context(), session.UserID))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// gateSkips はパスがゲート判定の対象外かどうかを返す。
func gateSkips(path string) bool {
	for _, prefix := range gateSkipPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
