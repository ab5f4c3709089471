// Package model はドメインモデルを定義する。
package model

import (
	"fmt"
	"time"
)

// Role はユーザーの役割を表す閉じた列挙型。
// 値は participant（選手）と event_manager（大会運営者）の2種類のみ。
type Role string

const (
	// RoleParticipant は大会に参加登録する選手。
	RoleParticipant Role = "participant"
	// RoleEventManager は大会を作成・管理する運営者。
	RoleEventManager Role = "event_manager"
)

// ParseRole は文字列をRoleに変換する。
// 旧サインアップフォームが送信していた "event_creator" は event_manager の別名として受理する。
// それ以外の未知の値はエラーを返す。
func ParseRole(s string) (Role, error) {
	switch s {
	case string(RoleParticipant):
		return RoleParticipant, nil
	case string(RoleEventManager), "event_creator":
		return RoleEventManager, nil
	default:
		return "", fmt.Errorf("unknown role: %q", s)
	}
}

// Valid はRoleが定義済みの値であることを検証する。
func (r Role) Valid() bool {
	return r == RoleParticipant || r == RoleEventManager
}

// User はサービス利用ユーザーを表す。
// roleはサインアップ時に確定し、以後このコアから書き換えられることはない。
type User struct {
	ID           string
	Email        string
	FullName     string
	Role         Role
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session はユーザーのログインセッションを表す。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}
