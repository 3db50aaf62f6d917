package view

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSetFlash_ThenPopFlash(t *testing.T) {
	w := httptest.NewRecorder()
	SetFlash(w, Flash{Kind: FlashSuccess, Message: "登録が完了しました。"}, false)

	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != flashCookieName {
		t.Fatalf("cookies = %+v", cookies)
	}
	if !cookies[0].HttpOnly {
		t.Error("flash cookie should be HttpOnly")
	}

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req.AddCookie(cookies[0])
	w2 := httptest.NewRecorder()

	flash := PopFlash(w2, req)
	if flash == nil {
		t.Fatal("expected flash")
	}
	if flash.Kind != FlashSuccess || flash.Message != "登録が完了しました。" {
		t.Errorf("flash = %+v", flash)
	}

	// 取り出した後はCookieを削除する
	cleared := w2.Result().Cookies()
	if len(cleared) != 1 || cleared[0].MaxAge >= 0 {
		t.Errorf("flash cookie should be cleared, got %+v", cleared)
	}
}

func TestPopFlash_NoCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if flash := PopFlash(httptest.NewRecorder(), req); flash != nil {
		t.Errorf("flash = %+v, want nil", flash)
	}
}

func TestPopFlash_BrokenCookie(t *testing.T) {
	for _, value := range []string{"!!!not-base64", "bm90LWpzb24"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: flashCookieName, Value: value})
		if flash := PopFlash(httptest.NewRecorder(), req); flash != nil {
			t.Errorf("PopFlash(%q) = %+v, want nil", value, flash)
		}
	}
}
