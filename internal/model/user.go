// Package model はドメインモデルを定義する。
package model

import "time"

// Tier はユーザーの契約プランを表す。
type Tier string

const (
	// TierFree は無料プラン。登録時に未指定の場合のデフォルト。
	TierFree Tier = "free"
	// TierPro は有料プラン。
	TierPro Tier = "pro"
	// TierEnterprise は法人向けプラン。
	TierEnterprise Tier = "enterprise"
)

// ParseTier は文字列をTierに変換する。
// 空文字列はTierFreeとして扱い、未知の値の場合はfalseを返す。
func ParseTier(s string) (Tier, bool) {
	switch Tier(s) {
	case "":
		return TierFree, true
	case TierFree, TierPro, TierEnterprise:
		return Tier(s), true
	default:
		return "", false
	}
}

// User はサービス利用ユーザー（認証主体）を表す。
// IDはストアが採番し、以後変更されない。
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Tier         Tier
	CreatedAt    time.Time
}

// Session はユーザーのログインセッションを表す。
// クライアントにはIDを含む署名付きトークンのみを渡す。
type Session struct {
	ID        string
	UserID    int64
	ExpiresAt time.Time
	CreatedAt time.Time
}
