// Package auth はユーザー登録、パスワード認証、セッション管理を提供する。
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/hitoshi/todoman/internal/model"
	"github.com/hitoshi/todoman/internal/repository"
)

// 入力値の上限。usersテーブルのカラム長に合わせる。
const (
	NameMaxLength  = 100
	EmailMaxLength = 120
)

// RegisterInput はユーザー登録の入力値。
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Tier     string
}

// Service はユーザー登録とパスワード認証のビジネスロジックを提供する。
type Service struct {
	userRepo repository.UserRepository
	hasher   *PasswordHasher
}

// NewService はServiceを生成する。
func NewService(userRepo repository.UserRepository, hasher *PasswordHasher) *Service {
	return &Service{
		userRepo: userRepo,
		hasher:   hasher,
	}
}

// Register は新規ユーザーを登録する。
// 同じメールアドレスが既に存在する場合はDuplicateEmailエラーを返す。
// 名前は前後の空白のみ取り除いて入力どおりに保存する。
// パスワードはハッシュ化して保存し、平文はログにも出力しない。
func (s *Service) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	name := strings.TrimSpace(input.Name)
	email := NormalizeEmail(input.Email)

	if name == "" {
		return nil, model.NewValidationError("名前を入力してください")
	}
	if utf8.RuneCountInString(name) > NameMaxLength {
		return nil, model.NewValidationError(fmt.Sprintf("名前は%d文字以内で入力してください", NameMaxLength))
	}
	if !isValidEmail(email) {
		return nil, model.NewValidationError("メールアドレスの形式が正しくありません")
	}
	if utf8.RuneCountInString(email) > EmailMaxLength {
		return nil, model.NewValidationError(fmt.Sprintf("メールアドレスは%d文字以内で入力してください", EmailMaxLength))
	}
	if input.Password == "" {
		return nil, model.NewValidationError("パスワードを入力してください")
	}
	if len(input.Password) > MaxPasswordBytes {
		return nil, model.NewValidationError(fmt.Sprintf("パスワードは%dバイト以内で入力してください", MaxPasswordBytes))
	}
	tier, ok := model.ParseTier(strings.TrimSpace(input.Tier))
	if !ok {
		return nil, model.NewValidationError("プランの指定が正しくありません")
	}

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, model.NewDuplicateEmailError()
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Tier:         tier,
	}
	// 同時登録による一意制約違反はリポジトリが重複エラーに変換する
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("user registered",
		slog.Int64("user_id", user.ID),
		slog.String("tier", string(user.Tier)),
	)
	return user, nil
}

// Authenticate はメールアドレスとパスワードを照合し、一致したユーザーを返す。
// 未登録とパスワード不一致はどちらも同じInvalidCredentialsエラーになる。
func (s *Service) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, model.NewInvalidCredentialsError()
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		s.hasher.CompareDummy(password)
		slog.Info("authentication failed", slog.String("reason", "unknown_email"))
		return nil, model.NewInvalidCredentialsError()
	}
	if !s.hasher.Compare(user.PasswordHash, password) {
		slog.Info("authentication failed",
			slog.String("reason", "password_mismatch"),
			slog.Int64("user_id", user.ID),
		)
		return nil, model.NewInvalidCredentialsError()
	}

	slog.Info("user authenticated", slog.Int64("user_id", user.ID))
	return user, nil
}

// NormalizeEmail は前後の空白を除去し小文字に揃える。
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// isValidEmail は@の前後に文字があり、空白を含まないことを確認する。
func isValidEmail(email string) bool {
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}
	return !strings.ContainsAny(email, " \t\r\n")
}
