// Package repository はデータ永続化のインターフェースとPostgreSQL実装を提供する。
package repository

import (
	"context"

	"github.com/hitoshi/todoman/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成し、採番されたIDと作成日時をuserに設定する。
	// メールアドレスが既に存在する場合はmodel.ErrDuplicateEmailを返す。
	Create(ctx context.Context, user *model.User) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。存在しない場合もエラーにしない。
	DeleteByID(ctx context.Context, id string) error
	// DeleteExpired は期限切れのセッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context) (int64, error)
}

// TaskRepository はタスクデータの永続化インターフェース。
// 変更系の操作はすべて所有者IDで絞り込む。
type TaskRepository interface {
	// ListByUserID は指定ユーザーのタスクを作成順に返す。
	ListByUserID(ctx context.Context, userID int64) ([]*model.Task, error)

	// Create はタスクを作成し、採番されたIDと作成日時をtaskに設定する。
	Create(ctx context.Context, task *model.Task) error

	// ToggleCompleted はidとuserIDが一致するタスクの完了フラグを反転し、更新後のタスクを返す。
	// 一致するタスクがない場合はnilを返す。
	ToggleCompleted(ctx context.Context, id, userID int64) (*model.Task, error)

	// DeleteByIDAndUserID はidとuserIDが一致するタスクを削除する。
	// 削除対象が存在しなかった場合はfalseを返す。
	DeleteByIDAndUserID(ctx context.Context, id, userID int64) (bool, error)
}
