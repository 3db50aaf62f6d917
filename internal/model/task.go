package model

import "time"

// TitleMaxLength はタスクタイトルの最大文字数。
const TitleMaxLength = 200

// Task はユーザーが所有するToDoを表す。
// UserIDは作成時に認証済みユーザーから設定され、付け替えられることはない。
type Task struct {
	ID        int64
	Title     string
	Completed bool
	UserID    int64
	CreatedAt time.Time
}
