// Package view はHTML画面のレンダリングとフラッシュメッセージを提供する。
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/hitoshi/todoman/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

// 画面名
const (
	PageIndex     = "index"
	PageRegister  = "register"
	PageLogin     = "login"
	PageDashboard = "dashboard"
)

var pages = []string{PageIndex, PageRegister, PageLogin, PageDashboard}

// PageData はテンプレートに渡す値。
type PageData struct {
	Title          string
	User           *model.User
	Tasks          []*model.Task
	Flash          *Flash
	Form           map[string]string
	Tiers          []model.Tier
	TitleMaxLength int
}

// Renderer は埋め込みテンプレートから画面を生成する。
// テンプレートは起動時に一度だけパースする。
type Renderer struct {
	templates map[string]*template.Template
}

// NewRenderer は全画面のテンプレートをパースしてRendererを生成する。
func NewRenderer() (*Renderer, error) {
	r := &Renderer{templates: make(map[string]*template.Template, len(pages))}
	for _, page := range pages {
		tmpl, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+page+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", page, err)
		}
		r.templates[page] = tmpl
	}
	return r, nil
}

// Render は画面をレンダリングしてレスポンスに書き込む。
// 実行時エラーで中途半端なHTMLを返さないよう、一度バッファに書き出す。
func (r *Renderer) Render(w http.ResponseWriter, status int, page string, data PageData) {
	tmpl, ok := r.templates[page]
	if !ok {
		slog.Error("unknown page", slog.String("page", page))
		http.Error(w, "内部エラーが発生しました。", http.StatusInternalServerError)
		return
	}

	if data.Form == nil {
		data.Form = map[string]string{}
	}
	if data.Tiers == nil {
		data.Tiers = []model.Tier{model.TierFree, model.TierPro, model.TierEnterprise}
	}
	if data.TitleMaxLength == 0 {
		data.TitleMaxLength = model.TitleMaxLength
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		slog.Error("failed to render template",
			slog.String("page", page),
			slog.String("error", err.Error()),
		)
		http.Error(w, "内部エラーが発生しました。", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
