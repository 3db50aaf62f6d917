package view

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
)

const flashCookieName = "todoman_flash"

// フラッシュメッセージの種類
const (
	FlashSuccess = "success"
	FlashError   = "error"
)

// Flash はリダイレクト後の画面に一度だけ表示するメッセージ。
type Flash struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// SetFlash はフラッシュメッセージをCookieに保存する。
func SetFlash(w http.ResponseWriter, flash Flash, secure bool) {
	raw, err := json.Marshal(flash)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    base64.RawURLEncoding.EncodeToString(raw),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// PopFlash はCookieからフラッシュメッセージを取り出し、Cookieを削除する。
// メッセージがない場合や壊れている場合はnilを返す。
func PopFlash(w http.ResponseWriter, r *http.Request) *Flash {
	cookie, err := r.Cookie(flashCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}

	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	raw, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil
	}
	var flash Flash
	if err := json.Unmarshal(raw, &flash); err != nil || flash.Message == "" {
		return nil
	}
	if flash.Kind != FlashSuccess && flash.Kind != FlashError {
		flash.Kind = FlashError
	}
	return &flash
}
