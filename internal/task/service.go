// Package task はユーザーごとのタスク管理のドメインロジックを提供する。
// すべての操作は呼び出し元が解決済みのユーザーを引数で受け取り、
// そのユーザーが所有するタスクだけを対象にする。
package task

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/hitoshi/todoman/internal/auth"
	"github.com/hitoshi/todoman/internal/model"
	"github.com/hitoshi/todoman/internal/repository"
)

// Service はタスク管理のサービス層。
type Service struct {
	taskRepo repository.TaskRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(taskRepo repository.TaskRepository) *Service {
	return &Service{taskRepo: taskRepo}
}

// ListTasks は所有者のタスク一覧を作成順に返す。
func (s *Service) ListTasks(ctx context.Context, owner *model.User) ([]*model.Task, error) {
	owner, err := auth.RequireAuthenticated(owner)
	if err != nil {
		return nil, err
	}

	tasks, err := s.taskRepo.ListByUserID(ctx, owner.ID)
	if err != nil {
		return nil, fmt.Errorf("タスク一覧の取得に失敗しました: %w", err)
	}
	return tasks, nil
}

// CreateTask は所有者のタスクを作成する。
// タイトルは前後の空白のみ取り除いて入力どおりに保存する。
// HTMLとして解釈されうる文字もそのまま保持し、エスケープは出力側で行う。
func (s *Service) CreateTask(ctx context.Context, owner *model.User, title string) (*model.Task, error) {
	owner, err := auth.RequireAuthenticated(owner)
	if err != nil {
		return nil, err
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, model.NewValidationError("タイトルを入力してください")
	}
	if utf8.RuneCountInString(title) > model.TitleMaxLength {
		return nil, model.NewValidationError(fmt.Sprintf("タイトルは%d文字以内で入力してください", model.TitleMaxLength))
	}

	t := &model.Task{
		Title:     title,
		Completed: false,
		UserID:    owner.ID,
	}
	if err := s.taskRepo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("タスクの作成に失敗しました: %w", err)
	}

	slog.Info("task created",
		slog.Int64("user_id", owner.ID),
		slog.Int64("task_id", t.ID),
	)
	return t, nil
}

// ToggleTask は所有者のタスクの完了状態を反転する。
// 存在しないタスクと他人のタスクはどちらもTaskNotFoundエラーになる。
func (s *Service) ToggleTask(ctx context.Context, owner *model.User, taskID int64) (*model.Task, error) {
	owner, err := auth.RequireAuthenticated(owner)
	if err != nil {
		return nil, err
	}
	if taskID <= 0 {
		return nil, model.NewTaskNotFoundError(taskID)
	}

	t, err := s.taskRepo.ToggleCompleted(ctx, taskID, owner.ID)
	if err != nil {
		return nil, fmt.Errorf("タスクの更新に失敗しました: %w", err)
	}
	if t == nil {
		slog.Info("task toggle rejected",
			slog.Int64("user_id", owner.ID),
			slog.Int64("task_id", taskID),
		)
		return nil, model.NewTaskNotFoundError(taskID)
	}

	slog.Info("task toggled",
		slog.Int64("user_id", owner.ID),
		slog.Int64("task_id", t.ID),
		slog.Bool("completed", t.Completed),
	)
	return t, nil
}

// DeleteTask は所有者のタスクを削除する。
// 存在しないタスクと他人のタスクはどちらもTaskNotFoundエラーになる。
func (s *Service) DeleteTask(ctx context.Context, owner *model.User, taskID int64) error {
	owner, err := auth.RequireAuthenticated(owner)
	if err != nil {
		return err
	}
	if taskID <= 0 {
		return model.NewTaskNotFoundError(taskID)
	}

	deleted, err := s.taskRepo.DeleteByIDAndUserID(ctx, taskID, owner.ID)
	if err != nil {
		return fmt.Errorf("タスクの削除に失敗しました: %w", err)
	}
	if !deleted {
		slog.Info("task delete rejected",
			slog.Int64("user_id", owner.ID),
			slog.Int64("task_id", taskID),
		)
		return model.NewTaskNotFoundError(taskID)
	}

	slog.Info("task deleted",
		slog.Int64("user_id", owner.ID),
		slog.Int64("task_id", taskID),
	)
	return nil
}
