package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/todoman/internal/auth"
	"github.com/hitoshi/todoman/internal/model"
)

// maxBodyBytes はリクエストボディの上限。
const maxBodyBytes = 1 << 20

// RegisterRequest はユーザー登録の入力値。
// 画面からはフォーム、APIからはJSONで受け取る。
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Tier     string `json:"subscription_tier"`
}

// toInput はサービス層の入力値に変換する。
func (req RegisterRequest) toInput() auth.RegisterInput {
	return auth.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Tier:     req.Tier,
	}
}

// formValues は再表示用のフォーム値を返す。パスワードは含めない。
func (req RegisterRequest) formValues() map[string]string {
	return map[string]string{
		"name":              req.Name,
		"email":             req.Email,
		"subscription_tier": req.Tier,
	}
}

// LoginRequest はログインの入力値。
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TaskRequest はタスク作成の入力値。所有者はリクエストから受け取らない。
type TaskRequest struct {
	Title string `json:"title"`
}

// parseRegisterForm はフォームから登録の入力値を読み取る。
func parseRegisterForm(w http.ResponseWriter, r *http.Request) (RegisterRequest, error) {
	if err := parseForm(w, r); err != nil {
		return RegisterRequest{}, err
	}
	return RegisterRequest{
		Name:     r.PostForm.Get("name"),
		Email:    r.PostForm.Get("email"),
		Password: r.PostForm.Get("password"),
		Tier:     r.PostForm.Get("subscription_tier"),
	}, nil
}

// parseLoginForm はフォームからログインの入力値を読み取る。
func parseLoginForm(w http.ResponseWriter, r *http.Request) (LoginRequest, error) {
	if err := parseForm(w, r); err != nil {
		return LoginRequest{}, err
	}
	return LoginRequest{
		Email:    r.PostForm.Get("email"),
		Password: r.PostForm.Get("password"),
	}, nil
}

// parseTaskForm はフォームからタスクの入力値を読み取る。
func parseTaskForm(w http.ResponseWriter, r *http.Request) (TaskRequest, error) {
	if err := parseForm(w, r); err != nil {
		return TaskRequest{}, err
	}
	return TaskRequest{Title: r.PostForm.Get("title")}, nil
}

func parseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		return model.NewValidationError("フォームの内容を読み取れません")
	}
	return nil
}

// decodeJSON はJSONボディをdstに読み込む。
// 未知のフィールドや複数のJSON値を含む場合は入力値不正とする。
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return model.NewValidationError("リクエストボディが空です")
		}
		return model.NewValidationError("JSONの形式が正しくありません")
	}
	if dec.More() {
		return model.NewValidationError("JSONの形式が正しくありません")
	}
	return nil
}

// parseTaskID はURLパスのタスクIDを読み取る。
// 0以下のIDはサービス層で未検出として扱うため、ここでは数値変換のみ行う。
func parseTaskID(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "id"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, model.NewValidationError("タスクIDが正しくありません")
	}
	return id, nil
}
