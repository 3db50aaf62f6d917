package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/hitoshi/todoman/internal/model"
)

// PostgresTaskRepo はPostgreSQLを使用したタスクリポジトリ。
// 更新と削除は所有者IDを条件に含めた単一のSQL文で行い、
// 所有者の確認と変更の間に他のリクエストが割り込まないようにする。
type PostgresTaskRepo struct {
	db      *sql.DB
	timeout time.Duration
}

// NewPostgresTaskRepo はPostgresTaskRepoを生成する。
func NewPostgresTaskRepo(db *sql.DB, timeout time.Duration) *PostgresTaskRepo {
	return &PostgresTaskRepo{db: db, timeout: timeout}
}

// ListByUserID は指定ユーザーのタスクを作成順に返す。
func (r *PostgresTaskRepo) ListByUserID(ctx context.Context, userID int64) ([]*model.Task, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, completed, user_id, created_at
		 FROM tasks
		 WHERE user_id = $1
		 ORDER BY created_at ASC, id ASC`,
		userID,
	)
	if err != nil {
		return nil, wrapError("failed to list tasks", err)
	}
	defer rows.Close()

	tasks := []*model.Task{}
	for rows.Next() {
		task := &model.Task{}
		if err := rows.Scan(&task.ID, &task.Title, &task.Completed, &task.UserID, &task.CreatedAt); err != nil {
			return nil, wrapError("failed to scan task", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError("failed to iterate tasks", err)
	}
	return tasks, nil
}

// Create はタスクを作成する。
func (r *PostgresTaskRepo) Create(ctx context.Context, task *model.Task) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	err := r.db.QueryRowContext(ctx,
		`INSERT INTO tasks (title, completed, user_id)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		task.Title, task.Completed, task.UserID,
	).Scan(&task.ID, &task.CreatedAt)
	if err != nil {
		return wrapError("failed to insert task", err)
	}
	return nil
}

// ToggleCompleted は所有者が一致するタスクの完了フラグを反転する。
func (r *PostgresTaskRepo) ToggleCompleted(ctx context.Context, id, userID int64) (*model.Task, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	task := &model.Task{}
	err := r.db.QueryRowContext(ctx,
		`UPDATE tasks SET completed = NOT completed
		 WHERE id = $1 AND user_id = $2
		 RETURNING id, title, completed, user_id, created_at`,
		id, userID,
	).Scan(&task.ID, &task.Title, &task.Completed, &task.UserID, &task.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapError("failed to toggle task", err)
	}
	return task, nil
}

// DeleteByIDAndUserID は所有者が一致するタスクを削除する。
func (r *PostgresTaskRepo) DeleteByIDAndUserID(ctx context.Context, id, userID int64) (bool, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	result, err := r.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return false, wrapError("failed to delete task", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, wrapError("failed to get rows affected", err)
	}
	return rowsAffected > 0, nil
}

// compile-time interface check
var _ TaskRepository = (*PostgresTaskRepo)(nil)
