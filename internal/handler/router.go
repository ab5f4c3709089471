package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/taikai/internal/metrics"
	"github.com/hitoshi/taikai/internal/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionResolver   middleware.SessionResolver
	RoleFinder        middleware.RoleFinder
	SessionFinder     middleware.SessionFinder
	RateLimiter       *middleware.RateLimiter
	CSRFConfig        middleware.CSRFConfig
	CORSAllowedOrigin string
	Logger            *slog.Logger

	// メトリクス
	Collector *metrics.Collector
	Gatherer  prometheus.Gatherer

	// サービス
	AuthService          AuthServiceInterface
	AuthConfig           AuthHandlerConfig
	CompetitionService   CompetitionServiceInterface
	ParticipationService ParticipationServiceInterface
	UserService          UserServiceInterface

	// 変更通知
	EventSubscriber EventSubscriber

	// ヘルスチェック
	HealthCheck func() error
}

// NewRouter は全ルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging →
//	  ページ: AccessGate
//	  API:    Session → CSRF → RateLimit(General)
//
// 認証ルート（/auth/*）とヘルスチェック・メトリクスはセッション必須チェーンの外に置く。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	var observer middleware.StatusObserver
	if deps.Collector != nil {
		observer = func(method, path string, statusCode int, duration time.Duration) {
			deps.Collector.RecordHTTPStatus(statusCode)
			deps.Collector.RecordRequestLatency(duration)
		}
	}

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger, observer))

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	compHandler := NewCompetitionHandler(deps.CompetitionService)
	partHandler := NewParticipationHandler(deps.ParticipationService)
	profileHandler := NewProfileHandler(deps.UserService, deps.AuthConfig)
	var gauge SubscriberGauge
	if deps.Collector != nil {
		gauge = deps.Collector
	}
	eventsHandler := NewEventsHandler(deps.EventSubscriber, gauge)
	pageHandler := NewPageHandler()

	// --- 運用エンドポイント ---

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		if deps.HealthCheck != nil {
			if err := deps.HealthCheck(); err != nil {
				slog.Error("health check failed", slog.String("error", err.Error()))
				http.Error(w, "unhealthy", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	if deps.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.Gatherer))
	}

	// --- 認証ルート（セッション必須チェーンの外） ---

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", authHandler.SignUp)
		r.Post("/signin", authHandler.SignIn)
		r.Post("/signout", authHandler.SignOut)
		r.Get("/me", authHandler.Me)
	})

	// --- 公開API（認証は任意） ---

	r.Group(func(r chi.Router) {
		r.Use(middleware.NewOptionalSessionMiddleware(deps.SessionFinder))

		r.Get("/api/competitions", compHandler.ListVisible)
		r.Get("/api/competitions/{id}", compHandler.GetDetail)
		r.Get("/api/events", eventsHandler.Stream)
		r.Get("/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig).ServeHTTP)
	})

	// --- 認証必須API ---
	// ミドルウェアスタック: Session → CSRF → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// 大会管理
		// GET /api/competitions/{id} は公開グループ側にある。同一パターンに
		// サブルーターをマウントするとそのGETを上書きするため、フラットに登録する。
		r.Get("/api/competitions/mine", compHandler.ListMine)
		r.Post("/api/competitions", compHandler.Create)
		r.Put("/api/competitions/{id}", compHandler.Update)
		r.Delete("/api/competitions/{id}", compHandler.Delete)

		// 参加登録（専用レート制限を追加）
		r.With(deps.RateLimiter.JoinMiddleware()).Post("/api/competitions/{id}/join", partHandler.Join)
		r.Get("/api/competitions/{id}/participants", partHandler.Roster)
		r.Get("/api/participations/mine", partHandler.ListJoined)

		// プロフィール
		r.Route("/api/profile", func(r chi.Router) {
			r.Get("/", profileHandler.GetProfile)
			r.Put("/", profileHandler.UpdateProfile)
		})

		// 退会
		r.Delete("/api/users/me", profileHandler.Withdraw)
	})

	// --- ページルート（アクセスゲート） ---

	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAccessGate(deps.SessionResolver, deps.RoleFinder))

		r.Get("/", pageHandler.Home)
		r.Get("/dashboard", pageHandler.ManagerDashboard)
		r.Get("/dashboard/athlete", pageHandler.AthleteDashboard)
		r.Get("/dashboard/profile", pageHandler.Profile)
		r.Get("/competitions", pageHandler.Competitions)
		r.Get("/competition/{id}", pageHandler.CompetitionDetail)
	})

	return r
}
