package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/todoman/internal/metrics"
	"github.com/hitoshi/todoman/internal/middleware"
	"github.com/hitoshi/todoman/internal/model"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// 認証・セッション
	AuthService AuthServiceInterface
	Sessions    SessionServiceInterface

	// タスク
	TaskService TaskServiceInterface

	// 画面
	Renderer PageRenderer
	Cookie   CookieConfig

	// 運用
	HealthChecker HealthChecker
	Metrics       metrics.MetricsCollector
	Gatherer      prometheus.Gatherer
	Logger        *slog.Logger
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → RequestID → Metrics → Session → Logging
//
// Sessionは匿名リクエストも通すため全ルートに適用し、
// 認証が必要なルートのみRequireAuthで匿名を拒否する。
func NewRouter(deps *RouterDeps) http.Handler {
	collector := deps.Metrics
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewRequestIDMiddleware())
	r.Use(middleware.NewMetricsMiddleware(collector))
	r.Use(middleware.NewSessionMiddleware(deps.Sessions))
	r.Use(middleware.NewLoggingMiddleware(logger))

	r.NotFound(notFound)

	authHandler := NewAuthHandler(deps.AuthService, deps.Sessions, deps.Renderer, collector, deps.Cookie)
	taskHandler := NewTaskHandler(deps.TaskService, deps.Renderer, collector, deps.Cookie)
	healthHandler := NewHealthHandler(deps.HealthChecker)

	// --- 運用エンドポイント ---
	r.Get("/health", healthHandler.Health)
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	// --- 認証不要のルート ---
	r.Get("/", authHandler.Index)
	r.Get("/register", authHandler.RegisterPage)
	r.Post("/register", authHandler.Register)
	r.Get("/login", authHandler.LoginPage)
	r.Post("/login", authHandler.Login)

	// ログアウトは冪等なので期限切れのセッションでもCookieを削除できるよう公開する
	r.Get("/logout", authHandler.Logout)
	r.Post("/logout", authHandler.Logout)

	r.Post("/api/register", authHandler.APIRegister)
	r.Post("/api/login", authHandler.APILogin)
	r.Post("/api/logout", authHandler.APILogout)

	// --- 認証が必要なルート ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewRequireAuthMiddleware())

		r.Get("/dashboard", taskHandler.Dashboard)

		r.Post("/todos", taskHandler.CreateTask)
		r.Post("/todos/{id:[0-9]+}/toggle", taskHandler.ToggleTask)
		r.Post("/todos/{id:[0-9]+}/delete", taskHandler.DeleteTask)

		// 旧URLとの互換。GETでは変更せずダッシュボードのフォームへ誘導する
		r.Post("/add-todo", taskHandler.CreateTask)
		r.Post("/complete-todo/{id:[0-9]+}", taskHandler.ToggleTask)
		r.Post("/delete-todo/{id:[0-9]+}", taskHandler.DeleteTask)
		r.Get("/complete-todo/{id:[0-9]+}", taskHandler.LegacyLink)
		r.Get("/delete-todo/{id:[0-9]+}", taskHandler.LegacyLink)

		r.Get("/api/me", authHandler.APIMe)
		r.Route("/api/tasks", func(r chi.Router) {
			r.Get("/", taskHandler.APIListTasks)
			r.Post("/", taskHandler.APICreateTask)
			r.Post("/{id:[0-9]+}/toggle", taskHandler.APIToggleTask)
			r.Delete("/{id:[0-9]+}", taskHandler.APIDeleteTask)
		})
	})

	return r
}

// notFound はAPIにはJSON、画面には標準の404を返す。
func notFound(w http.ResponseWriter, r *http.Request) {
	if middleware.IsAPIRequest(r) {
		middleware.WriteErrorResponse(w, http.StatusNotFound, &model.APIError{
			Code:     "NOT_FOUND",
			Message:  "指定されたURLは存在しません。",
			Category: "system",
			Action:   "URLを確認してください。",
		})
		return
	}
	http.NotFound(w, r)
}
