// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hitoshi/todoman/internal/auth"
	"github.com/hitoshi/todoman/internal/metrics"
	"github.com/hitoshi/todoman/internal/middleware"
	"github.com/hitoshi/todoman/internal/model"
	"github.com/hitoshi/todoman/internal/view"
)

// AuthServiceInterface は認証ハンドラーが必要とするユーザー登録・認証のインターフェース。
type AuthServiceInterface interface {
	Register(ctx context.Context, input auth.RegisterInput) (*model.User, error)
	Authenticate(ctx context.Context, email, password string) (*model.User, error)
}

// SessionServiceInterface はセッションの発行・解決・破棄のインターフェース。
type SessionServiceInterface interface {
	StartSession(ctx context.Context, user *model.User) (string, *model.Session, error)
	Resolve(ctx context.Context, token string) (*model.User, error)
	EndSession(ctx context.Context, token string) error
}

// PageRenderer はHTML画面を描画するインターフェース。
type PageRenderer interface {
	Render(w http.ResponseWriter, status int, page string, data view.PageData)
}

// registeredMessage は登録完了後にログイン画面で表示するメッセージ。
const registeredMessage = "登録が完了しました。ログインしてください。"

// AuthHandler はユーザー登録・ログイン・ログアウトのHTTPハンドラー。
type AuthHandler struct {
	service  AuthServiceInterface
	sessions SessionServiceInterface
	renderer PageRenderer
	metrics  metrics.MetricsCollector
	cookie   CookieConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(
	service AuthServiceInterface,
	sessions SessionServiceInterface,
	renderer PageRenderer,
	collector metrics.MetricsCollector,
	cookie CookieConfig,
) *AuthHandler {
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	return &AuthHandler{
		service:  service,
		sessions: sessions,
		renderer: renderer,
		metrics:  collector,
		cookie:   cookie,
	}
}

// Index はトップ画面を表示する。ログイン済みの場合はダッシュボードへリダイレクトする。
// GET /
func (h *AuthHandler) Index(w http.ResponseWriter, r *http.Request) {
	if user := middleware.UserFromContext(r.Context()); user != nil {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	h.renderer.Render(w, http.StatusOK, view.PageIndex, view.PageData{
		Title: "ようこそ",
		Flash: view.PopFlash(w, r),
	})
}

// RegisterPage はユーザー登録画面を表示する。
// GET /register
func (h *AuthHandler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, http.StatusOK, view.PageRegister, view.PageData{
		Title: "ユーザー登録",
		Flash: view.PopFlash(w, r),
	})
}

// Register はフォームから送信されたユーザー登録を処理する。
// 成功時はログイン画面へリダイレクトし、失敗時は入力値を残して再表示する。
// POST /register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	req, err := parseRegisterForm(w, r)
	if err == nil {
		_, err = h.service.Register(r.Context(), req.toInput())
	}
	h.metrics.RecordRegistration(resultLabel(err))

	if err != nil {
		status, apiErr := middleware.ResolveError(err)
		logServerError(r, "failed to register user", status, err)
		h.renderer.Render(w, status, view.PageRegister, view.PageData{
			Title: "ユーザー登録",
			Flash: &view.Flash{Kind: view.FlashError, Message: apiErr.Message},
			Form:  req.formValues(),
		})
		return
	}

	view.SetFlash(w, view.Flash{Kind: view.FlashSuccess, Message: registeredMessage}, h.cookie.Secure)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// LoginPage はログイン画面を表示する。
// GET /login
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, http.StatusOK, view.PageLogin, view.PageData{
		Title: "ログイン",
		Flash: view.PopFlash(w, r),
	})
}

// Login はフォームから送信されたログインを処理する。
// 成功時はセッションCookieを設定してダッシュボードへリダイレクトする。
// 失敗時はメールアドレス未登録とパスワード不一致を区別しないメッセージを表示する。
// POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	req, err := parseLoginForm(w, r)
	if err != nil {
		h.metrics.RecordLogin(resultLabel(err))
		h.renderLoginFailure(w, r, req, err)
		return
	}

	if _, err := h.startSession(w, r, req); err != nil {
		h.renderLoginFailure(w, r, req, err)
		return
	}

	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// Logout はセッションを破棄し、Cookieを削除してトップ画面へリダイレクトする。
// GET /logout, POST /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.EndSession(r.Context(), middleware.TokenFromRequest(r)); err != nil {
		// Cookieは削除し、セッション行は期限切れ後にクリーンアップで消える
		slog.Error("failed to end session",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.RequestIDFromContext(r.Context())),
		)
	}
	clearSessionCookie(w, h.cookie)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// APIRegister はJSONでユーザー登録を行う。
// POST /api/register
func (h *AuthHandler) APIRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	err := decodeJSON(w, r, &req)
	var user *model.User
	if err == nil {
		user, err = h.service.Register(r.Context(), req.toInput())
	}
	h.metrics.RecordRegistration(resultLabel(err))

	if err != nil {
		writeAPIError(w, r, "failed to register user", err)
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, newUserResponse(user))
}

// APILogin はJSONでログインし、セッショントークンを返す。
// ブラウザからも使えるよう同じトークンをCookieにも設定する。
// POST /api/login
func (h *AuthHandler) APILogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.metrics.RecordLogin(resultLabel(err))
		writeAPIError(w, r, "failed to login", err)
		return
	}

	resp, err := h.startSession(w, r, req)
	if err != nil {
		writeAPIError(w, r, "failed to login", err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, resp)
}

// APILogout はセッションを破棄する。トークンが無効でも成功を返す。
// POST /api/logout
func (h *AuthHandler) APILogout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.EndSession(r.Context(), middleware.TokenFromRequest(r)); err != nil {
		writeAPIError(w, r, "failed to end session", err)
		return
	}
	clearSessionCookie(w, h.cookie)
	w.WriteHeader(http.StatusNoContent)
}

// APIMe はログイン中のユーザー情報を返す。
// GET /api/me
func (h *AuthHandler) APIMe(w http.ResponseWriter, r *http.Request) {
	user, err := auth.RequireAuthenticated(middleware.UserFromContext(r.Context()))
	if err != nil {
		writeAPIError(w, r, "failed to get current user", err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, newUserResponse(user))
}

// startSession は資格情報を検証してセッションを開始し、Cookieを設定する。
func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, req LoginRequest) (*loginResponse, error) {
	user, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.metrics.RecordLogin(resultLabel(err))
		return nil, err
	}

	token, session, err := h.sessions.StartSession(r.Context(), user)
	h.metrics.RecordLogin(resultLabel(err))
	if err != nil {
		return nil, err
	}

	setSessionCookie(w, h.cookie, token, session.ExpiresAt)
	return &loginResponse{
		Token:     token,
		ExpiresAt: session.ExpiresAt,
		User:      newUserResponse(user),
	}, nil
}

// renderLoginFailure はログイン画面をエラーメッセージ付きで再表示する。
func (h *AuthHandler) renderLoginFailure(w http.ResponseWriter, r *http.Request, req LoginRequest, err error) {
	status, apiErr := middleware.ResolveError(err)
	logServerError(r, "failed to login", status, err)
	h.renderer.Render(w, status, view.PageLogin, view.PageData{
		Title: "ログイン",
		Flash: &view.Flash{Kind: view.FlashError, Message: apiErr.Message},
		Form:  map[string]string{"email": req.Email},
	})
}

// writeAPIError はエラーをJSONレスポンスとして書き込む。
func writeAPIError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	status := middleware.WriteError(w, err)
	logServerError(r, msg, status, err)
}

// logServerError はサーバー側の障害のみエラーログに記録する。
// 入力値不正などクライアント起因のエラーは記録しない。
func logServerError(r *http.Request, msg string, status int, err error) {
	if status < http.StatusInternalServerError {
		return
	}
	slog.Error(msg,
		slog.String("error", err.Error()),
		slog.Int("status", status),
		slog.String("request_id", middleware.RequestIDFromContext(r.Context())),
	)
}
