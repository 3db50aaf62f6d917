package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/todoman/internal/metrics"
	"github.com/hitoshi/todoman/internal/middleware"
	"github.com/hitoshi/todoman/internal/model"
	"github.com/hitoshi/todoman/internal/view"
)

// タスク操作のメトリクスラベル
const (
	opList   = "list"
	opCreate = "create"
	opToggle = "toggle"
	opDelete = "delete"
)

// TaskServiceInterface はタスクハンドラーが必要とするサービスインターフェース。
// 所有者は常にセッションから解決したユーザーを渡す。
type TaskServiceInterface interface {
	ListTasks(ctx context.Context, owner *model.User) ([]*model.Task, error)
	CreateTask(ctx context.Context, owner *model.User, title string) (*model.Task, error)
	ToggleTask(ctx context.Context, owner *model.User, taskID int64) (*model.Task, error)
	DeleteTask(ctx context.Context, owner *model.User, taskID int64) error
}

// TaskHandler はタスク関連のHTTPハンドラー。
type TaskHandler struct {
	service  TaskServiceInterface
	renderer PageRenderer
	metrics  metrics.MetricsCollector
	cookie   CookieConfig
}

// NewTaskHandler はTaskHandlerを生成する。
func NewTaskHandler(
	service TaskServiceInterface,
	renderer PageRenderer,
	collector metrics.MetricsCollector,
	cookie CookieConfig,
) *TaskHandler {
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	return &TaskHandler{
		service:  service,
		renderer: renderer,
		metrics:  collector,
		cookie:   cookie,
	}
}

// Dashboard はログイン中のユーザーのタスク一覧画面を表示する。
// GET /dashboard
func (h *TaskHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	tasks, err := h.service.ListTasks(r.Context(), user)
	h.metrics.RecordTaskOperation(opList, resultLabel(err))
	if err != nil {
		status, apiErr := middleware.ResolveError(err)
		logServerError(r, "failed to list tasks", status, err)
		http.Error(w, apiErr.Message, status)
		return
	}

	h.renderer.Render(w, http.StatusOK, view.PageDashboard, view.PageData{
		Title: "ダッシュボード",
		User:  user,
		Tasks: tasks,
		Flash: view.PopFlash(w, r),
	})
}

// CreateTask はフォームから送信されたタスクを作成する。
// POST /todos, POST /add-todo
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	req, err := parseTaskForm(w, r)
	if err == nil {
		_, err = h.service.CreateTask(r.Context(), middleware.UserFromContext(r.Context()), req.Title)
	}
	h.metrics.RecordTaskOperation(opCreate, resultLabel(err))
	h.redirectToDashboard(w, r, "failed to create task", err)
}

// ToggleTask はタスクの完了状態を切り替える。
// POST /todos/{id}/toggle, POST /complete-todo/{id}
func (h *TaskHandler) ToggleTask(w http.ResponseWriter, r *http.Request) {
	id, err := parseTaskID(r)
	if err == nil {
		_, err = h.service.ToggleTask(r.Context(), middleware.UserFromContext(r.Context()), id)
	}
	h.metrics.RecordTaskOperation(opToggle, resultLabel(err))
	h.redirectToDashboard(w, r, "failed to toggle task", err)
}

// DeleteTask はタスクを削除する。
// POST /todos/{id}/delete, POST /delete-todo/{id}
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := parseTaskID(r)
	if err == nil {
		err = h.service.DeleteTask(r.Context(), middleware.UserFromContext(r.Context()), id)
	}
	h.metrics.RecordTaskOperation(opDelete, resultLabel(err))
	h.redirectToDashboard(w, r, "failed to delete task", err)
}

// LegacyLink は旧URLへのGETリンクを受け、タスクを変更せずにダッシュボードへ戻す。
// GETはクロスサイトの遷移でもセッションCookieが送られるため、変更はPOSTでのみ受け付ける。
// GET /complete-todo/{id}, GET /delete-todo/{id}
func (h *TaskHandler) LegacyLink(w http.ResponseWriter, r *http.Request) {
	view.SetFlash(w, view.Flash{
		Kind:    view.FlashError,
		Message: "この操作はダッシュボードのボタンから行ってください。",
	}, h.cookie.Secure)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// APIListTasks はログイン中のユーザーのタスク一覧を返す。
// GET /api/tasks
func (h *TaskHandler) APIListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.service.ListTasks(r.Context(), middleware.UserFromContext(r.Context()))
	h.metrics.RecordTaskOperation(opList, resultLabel(err))
	if err != nil {
		writeAPIError(w, r, "failed to list tasks", err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, newTaskListResponse(tasks))
}

// APICreateTask はタスクを作成する。
// POST /api/tasks
func (h *TaskHandler) APICreateTask(w http.ResponseWriter, r *http.Request) {
	var req TaskRequest
	err := decodeJSON(w, r, &req)
	var task *model.Task
	if err == nil {
		task, err = h.service.CreateTask(r.Context(), middleware.UserFromContext(r.Context()), req.Title)
	}
	h.metrics.RecordTaskOperation(opCreate, resultLabel(err))
	if err != nil {
		writeAPIError(w, r, "failed to create task", err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, newTaskResponse(task))
}

// APIToggleTask はタスクの完了状態を切り替え、更新後のタスクを返す。
// POST /api/tasks/{id}/toggle
func (h *TaskHandler) APIToggleTask(w http.ResponseWriter, r *http.Request) {
	id, err := parseTaskID(r)
	var task *model.Task
	if err == nil {
		task, err = h.service.ToggleTask(r.Context(), middleware.UserFromContext(r.Context()), id)
	}
	h.metrics.RecordTaskOperation(opToggle, resultLabel(err))
	if err != nil {
		writeAPIError(w, r, "failed to toggle task", err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, newTaskResponse(task))
}

// APIDeleteTask はタスクを削除する。
// DELETE /api/tasks/{id}
func (h *TaskHandler) APIDeleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := parseTaskID(r)
	if err == nil {
		err = h.service.DeleteTask(r.Context(), middleware.UserFromContext(r.Context()), id)
	}
	h.metrics.RecordTaskOperation(opDelete, resultLabel(err))
	if err != nil {
		writeAPIError(w, r, "failed to delete task", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// redirectToDashboard はフォーム操作の結果に応じてダッシュボードへリダイレクトする。
// クライアント起因のエラーはフラッシュメッセージで通知し、サーバー障害はエラー画面を返す。
func (h *TaskHandler) redirectToDashboard(w http.ResponseWriter, r *http.Request, msg string, err error) {
	if err != nil {
		status, apiErr := middleware.ResolveError(err)
		if status >= http.StatusInternalServerError {
			logServerError(r, msg, status, err)
			http.Error(w, apiErr.Message, status)
			return
		}
		view.SetFlash(w, view.Flash{Kind: view.FlashError, Message: apiErr.Message}, h.cookie.Secure)
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}
