// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/todoman/internal/model"
)

// SessionCookieName はセッショントークンを保持するCookie名。
const SessionCookieName = "todoman_session"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

var (
	// userContextKey はリクエストコンテキストに解決済みユーザーを格納するためのキー。
	userContextKey = contextKey("user")
	// requestIDContextKey はリクエストIDを格納するためのキー。
	requestIDContextKey = contextKey("request_id")
)

// SessionResolver はトークンからユーザーを解決するインターフェース。
// 無効なトークンの場合はnil, nilを返す。
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*model.User, error)
}

// NewSessionMiddleware はCookieまたはAuthorizationヘッダーからセッショントークンを読み取り、
// 解決したユーザーをリクエストコンテキストに注入するミドルウェアを返す。
// 未認証のリクエストも拒否せずに匿名のまま次へ渡す。
// ストア障害でユーザーを解決できない場合のみ503を返す。
func NewSessionMiddleware(resolver SessionResolver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, err := resolver.Resolve(r.Context(), token)
			if err != nil {
				slog.Error("failed to resolve session",
					slog.String("error", err.Error()),
					slog.String("request_id", RequestIDFromContext(r.Context())),
				)
				writeResolveFailure(w, r, err)
				return
			}
			if user == nil {
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
		})
	}
}

// TokenFromRequest はリクエストからセッショントークンを取り出す。
// Cookieを優先し、なければ "Authorization: Bearer" ヘッダーを使う。
func TokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	authz := r.Header.Get("Authorization")
	if len(authz) > len("Bearer ") && strings.EqualFold(authz[:len("Bearer ")], "Bearer ") {
		return strings.TrimSpace(authz[len("Bearer "):])
	}
	return ""
}

// UserFromContext はリクエストコンテキストから解決済みユーザーを取得する。
// 匿名の場合はnilを返す。
func UserFromContext(ctx context.Context) *model.User {
	user, _ := ctx.Value(userContextKey).(*model.User)
	return user
}

// ContextWithUser はコンテキストにユーザーを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// IsAPIRequest はJSON APIへのリクエストかどうかを返す。
func IsAPIRequest(r *http.Request) bool {
	return r.URL.Path == "/api" || strings.HasPrefix(r.URL.Path, "/api/")
}

// writeResolveFailure はセッション解決時のストア障害をレスポンスに変換する。
func writeResolveFailure(w http.ResponseWriter, r *http.Request, err error) {
	if IsAPIRequest(r) {
		WriteError(w, err)
		return
	}
	status, apiErr := ResolveError(err)
	http.Error(w, apiErr.Message, status)
}
