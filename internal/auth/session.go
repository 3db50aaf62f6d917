package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/todoman/internal/model"
	"github.com/hitoshi/todoman/internal/repository"
)

// SessionManager はセッションの発行、解決、破棄を行う。
// セッション本体はsessionsテーブルに保存し、クライアントには署名付きトークンを渡す。
type SessionManager struct {
	sessionRepo repository.SessionRepository
	userRepo    repository.UserRepository
	codec       *TokenCodec
	maxAge      time.Duration
	now         func() time.Time
}

// NewSessionManager はSessionManagerを生成する。
func NewSessionManager(
	sessionRepo repository.SessionRepository,
	userRepo repository.UserRepository,
	codec *TokenCodec,
	maxAge time.Duration,
) *SessionManager {
	return &SessionManager{
		sessionRepo: sessionRepo,
		userRepo:    userRepo,
		codec:       codec,
		maxAge:      maxAge,
		now:         time.Now,
	}
}

// MaxAge はセッションの有効期間を返す。Cookieの有効期限に使う。
func (m *SessionManager) MaxAge() time.Duration {
	return m.maxAge
}

// StartSession はユーザーのセッションを作成し、クライアントに渡すトークンを返す。
func (m *SessionManager) StartSession(ctx context.Context, user *model.User) (string, *model.Session, error) {
	if user == nil {
		return "", nil, model.NewNotAuthenticatedError()
	}

	now := m.now()
	session := &model.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: now.Add(m.maxAge),
		CreatedAt: now,
	}

	if err := m.sessionRepo.Create(ctx, session); err != nil {
		return "", nil, fmt.Errorf("failed to save session: %w", err)
	}

	token, err := m.codec.Sign(session)
	if err != nil {
		return "", nil, err
	}

	slog.Info("session started", slog.Int64("user_id", user.ID))
	return token, session, nil
}

// Resolve はトークンに紐づくユーザーを返す。
// トークンが空、不正、期限切れ、ログアウト済みの場合は匿名としてnil, nilを返す。
// エラーを返すのはストア障害の場合のみ。
func (m *SessionManager) Resolve(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, nil
	}

	claims, err := m.codec.Parse(token)
	if err != nil {
		slog.Debug("session token rejected", slog.String("error", err.Error()))
		return nil, nil
	}

	session, err := m.sessionRepo.FindByID(ctx, claims.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil || session.UserID != claims.UserID {
		return nil, nil
	}

	user, err := m.userRepo.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// EndSession はトークンのセッションを破棄する。
// 空や不正なトークン、既に破棄済みのセッションに対しては何もしない。
func (m *SessionManager) EndSession(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	claims, err := m.codec.ParseIgnoringExpiry(token)
	if err != nil {
		return nil
	}

	if err := m.sessionRepo.DeleteByID(ctx, claims.SessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("session ended", slog.Int64("user_id", claims.UserID))
	return nil
}

// RequireAuthenticated は匿名（nil）の場合にNotAuthenticatedエラーを返す。
func RequireAuthenticated(user *model.User) (*model.User, error) {
	if user == nil {
		return nil, model.NewNotAuthenticatedError()
	}
	return user, nil
}
