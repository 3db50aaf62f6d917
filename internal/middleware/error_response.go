package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/todoman/internal/model"
)

// ErrorResponseBody はAPIエラーレスポンスの統一フォーマット。
// 原因カテゴリと対処方法を含む。
type ErrorResponseBody struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// statusByCode はAPIErrorのコードとHTTPステータスの対応。
var statusByCode = map[string]int{
	model.ErrCodeValidation:         http.StatusBadRequest,
	model.ErrCodeDuplicateEmail:     http.StatusConflict,
	model.ErrCodeInvalidCredentials: http.StatusUnauthorized,
	model.ErrCodeUnauthorized:       http.StatusUnauthorized,
	model.ErrCodeTaskNotFound:       http.StatusNotFound,
	model.ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	model.ErrCodeInternal:           http.StatusInternalServerError,
}

// ResolveError はサービス層のエラーをHTTPステータスとユーザー向けのAPIErrorに変換する。
// 未知のエラーは詳細を隠して500として扱う。
func ResolveError(err error) (int, *model.APIError) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		if status, ok := statusByCode[apiErr.Code]; ok {
			return status, apiErr
		}
	}
	if errors.Is(err, model.ErrTransientStore) {
		return http.StatusServiceUnavailable, model.NewServiceUnavailableError()
	}
	return http.StatusInternalServerError, model.NewInternalError()
}

// WriteJSON は任意の値をJSONレスポンスとして書き込む。
func WriteJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// WriteErrorResponse は統一エラーフォーマットでHTTPエラーレスポンスを書き込む。
// すべてのAPIエンドポイントで一貫したエラーレスポンスを提供する。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	WriteJSON(w, statusCode, ErrorResponseBody{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// WriteError はエラーを変換して統一エラーフォーマットで書き込み、書き込んだステータスを返す。
func WriteError(w http.ResponseWriter, err error) int {
	status, apiErr := ResolveError(err)
	WriteErrorResponse(w, status, apiErr)
	return status
}

// WriteInternalServerError は内部サーバーエラーの統一レスポンスを書き込む。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusInternalServerError, model.NewInternalError())
}
