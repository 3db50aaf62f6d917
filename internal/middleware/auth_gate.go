package middleware

import (
	"net/http"

	"github.com/hitoshi/todoman/internal/model"
)

// LoginPath は未認証のHTMLリクエストのリダイレクト先。
const LoginPath = "/login"

// NewRequireAuthMiddleware は匿名のリクエストを拒否するミドルウェアを返す。
// APIへのリクエストには401のJSONを、画面へのリクエストにはログイン画面へのリダイレクトを返す。
// NewSessionMiddlewareの後に適用すること。
func NewRequireAuthMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if UserFromContext(r.Context()) != nil {
				next.ServeHTTP(w, r)
				return
			}

			if IsAPIRequest(r) {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewNotAuthenticatedError())
				return
			}
			http.Redirect(w, r, LoginPath, http.StatusSeeOther)
		})
	}
}
