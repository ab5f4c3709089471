package handler

import (
	"html/template"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/taikai/internal/middleware"
)

// pageTemplate は全ページ共通の最小シェル。
// 表示内容はクライアント側が各APIから取得して描画する。
const pageTemplate = `<!DOCTYPE html>
<html lang="ja">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}} - Taikai</title>
</head>
<body>
<div id="app"
     data-page="{{.Page}}"
     {{if .CompetitionID}}data-competition-id="{{.CompetitionID}}"{{end}}
     {{if .Authenticated}}data-authenticated="true"{{end}}></div>
<script src="/static/app.js"></script>
</body>
</html>
`

// pageData はページシェルのテンプレートデータ。
type pageData struct {
	Title         string
	Page          string
	CompetitionID string
	Authenticated bool
}

// PageHandler はページシェルを描画するHTTPハンドラー。
// アクセス制御とロール別リダイレクトはアクセスゲートミドルウェアが担い、
// このハンドラーは常に描画のみを行う。
type PageHandler struct {
	tmpl *template.Template
}

// NewPageHandler はPageHandlerを生成する。
func NewPageHandler() *PageHandler {
	return &PageHandler{
		tmpl: template.Must(template.New("page").Parse(pageTemplate)),
	}
}

func (h *PageHandler) render(w http.ResponseWriter, r *http.Request, data pageData) {
	if _, err := middleware.UserIDFromContext(r.Context()); err == nil {
		data.Authenticated = true
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.tmpl.Execute(w, data); err != nil {
		slog.Error("failed to render page",
			slog.String("page", data.Page),
			slog.String("error", err.Error()),
		)
	}
}

// Home はランディングページを描画する。
// GET /
func (h *PageHandler) Home(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, pageData{Title: "ホーム", Page: "home"})
}

// ManagerDashboard は運営者ダッシュボードを描画する。
// GET /dashboard
func (h *PageHandler) ManagerDashboard(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, pageData{Title: "大会管理", Page: "dashboard"})
}

// AthleteDashboard は選手ダッシュボードを描画する。
// GET /dashboard/athlete
func (h *PageHandler) AthleteDashboard(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, pageData{Title: "参加大会", Page: "dashboard-athlete"})
}

// Profile はプロフィールページを描画する。
// GET /dashboard/profile
func (h *PageHandler) Profile(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, pageData{Title: "プロフィール", Page: "profile"})
}

// Competitions は公開大会一覧ページを描画する。
// GET /competitions
func (h *PageHandler) Competitions(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, pageData{Title: "大会一覧", Page: "competitions"})
}

// CompetitionDetail は大会詳細ページを描画する。
// GET /competition/{id}
func (h *PageHandler) CompetitionDetail(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, pageData{
		Title:         "大会詳細",
		Page:          "competition-detail",
		CompetitionID: chi.URLParam(r, "id"),
	})
}
