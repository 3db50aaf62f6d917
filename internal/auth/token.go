package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hitoshi/todoman/internal/model"
)

const tokenIssuer = "todoman"

// ErrInvalidToken はトークンの形式不正、署名不一致、期限切れを表す。
var ErrInvalidToken = errors.New("invalid session token")

// TokenClaims はセッショントークンから取り出した情報。
type TokenClaims struct {
	SessionID string
	UserID    int64
	ExpiresAt time.Time
}

// TokenCodec はセッションをHS256署名付きJWTに変換する。
// jtiにセッションID、subにユーザーIDを格納する。
type TokenCodec struct {
	secret []byte
	now    func() time.Time
}

// NewTokenCodec はTokenCodecを生成する。
func NewTokenCodec(secret string) *TokenCodec {
	return &TokenCodec{secret: []byte(secret), now: time.Now}
}

// Sign はセッションの署名付きトークンを生成する。
func (c *TokenCodec) Sign(session *model.Session) (string, error) {
	claims := jwt.RegisteredClaims{
		ID:        session.ID,
		Subject:   strconv.FormatInt(session.UserID, 10),
		Issuer:    tokenIssuer,
		IssuedAt:  jwt.NewNumericDate(session.CreatedAt),
		ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// Parse はトークンを検証し、クレームを返す。期限切れのトークンはErrInvalidTokenになる。
func (c *TokenCodec) Parse(tokenString string) (*TokenClaims, error) {
	return c.parse(tokenString,
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(c.now),
	)
}

// ParseIgnoringExpiry は署名のみを検証してクレームを返す。
// ログアウト時に期限切れのトークンからもセッションIDを取り出すために使う。
func (c *TokenCodec) ParseIgnoringExpiry(tokenString string) (*TokenClaims, error) {
	return c.parse(tokenString, jwt.WithoutClaimsValidation())
}

func (c *TokenCodec) parse(tokenString string, opts ...jwt.ParserOption) (*TokenClaims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	registered := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, registered, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if registered.Issuer != tokenIssuer || registered.ID == "" {
		return nil, ErrInvalidToken
	}

	userID, err := strconv.ParseInt(registered.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return nil, ErrInvalidToken
	}

	claims := &TokenClaims{SessionID: registered.ID, UserID: userID}
	if registered.ExpiresAt != nil {
		claims.ExpiresAt = registered.ExpiresAt.Time
	}
	return claims, nil
}
