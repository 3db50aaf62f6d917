package handler

import (
	"errors"
	"time"

	"github.com/hitoshi/todoman/internal/metrics"
	"github.com/hitoshi/todoman/internal/model"
)

// userResponse はユーザー情報のレスポンス。パスワードハッシュは含めない。
type userResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Tier      string    `json:"subscription_tier"`
	CreatedAt time.Time `json:"created_at"`
}

func newUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Tier:      string(u.Tier),
		CreatedAt: u.CreatedAt,
	}
}

// taskResponse はタスクのレスポンス。
type taskResponse struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"created_at"`
}

func newTaskResponse(t *model.Task) taskResponse {
	return taskResponse{
		ID:        t.ID,
		Title:     t.Title,
		Completed: t.Completed,
		CreatedAt: t.CreatedAt,
	}
}

// taskListResponse はタスク一覧のレスポンス。
type taskListResponse struct {
	Tasks []taskResponse `json:"tasks"`
}

func newTaskListResponse(tasks []*model.Task) taskListResponse {
	resp := taskListResponse{Tasks: make([]taskResponse, 0, len(tasks))}
	for _, t := range tasks {
		resp.Tasks = append(resp.Tasks, newTaskResponse(t))
	}
	return resp
}

// loginResponse はAPIログインのレスポンス。
type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      userResponse `json:"user"`
}

// resultLabel はエラーをメトリクスの結果ラベルに変換する。
func resultLabel(err error) string {
	switch {
	case err == nil:
		return metrics.ResultSuccess
	case errors.Is(err, model.ErrValidation), errors.Is(err, model.ErrInvalidCredentials):
		return metrics.ResultInvalid
	case errors.Is(err, model.ErrDuplicateEmail):
		return metrics.ResultDuplicate
	case errors.Is(err, model.ErrTaskNotFound):
		return metrics.ResultNotFound
	case errors.Is(err, model.ErrNotAuthenticated):
		return metrics.ResultUnauthorized
	default:
		return metrics.ResultError
	}
}
