// Command todoman はマルチユーザー対応のToDoリストWebアプリケーションを起動する。
//
// サブコマンド:
//
//	serve        Webサーバーを起動する（デフォルト）
//	worker       期限切れセッションを定期的に削除する
//	migrate      未適用のマイグレーションを適用する
//	healthcheck  起動中のサーバーの/healthを確認する
package main

import (
	"log/slog"
	"os"

	"github.com/hitoshi/todoman/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
