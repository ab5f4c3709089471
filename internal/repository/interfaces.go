// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/taikai/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// FindRoleByID は指定IDのユーザーのロールを取得する。
	// ユーザーが存在しない場合は空文字列を返す（エラーにしない）。
	FindRoleByID(ctx context.Context, id string) (model.Role, error)

	// Create はユーザーを作成する。
	Create(ctx context.Context, user *model.User) error

	// UpdateFullName は表示名を更新する。roleはこの層からも書き換えない。
	UpdateFullName(ctx context.Context, id, fullName string) error

	// DeleteByID は指定IDのユーザーを削除する。
	// 関連するsessions、competition_participantsはCASCADE削除され、
	// 作成した大会はcreated_byがNULLになって残る。
	DeleteByID(ctx context.Context, id string) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// Refresh はセッションの有効期限を延長する。
	Refresh(ctx context.Context, id string, expiresAt time.Time) error
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
	// DeleteExpired は期限切れセッションを削除し、削除行数を返す。
	DeleteExpired(ctx context.Context) (int64, error)
}

// CompetitionRepository は大会データの永続化インターフェース。
// 変更系はすべて所有者IDでフィルタし、所有権をストア呼び出し時に再検証する。
type CompetitionRepository interface {
	// FindByID は指定IDの大会を作成者名付きで取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.CompetitionWithCreator, error)

	// FindOwnedByID はidとownerIDの両方に一致する大会を取得する。見つからない場合はnilを返す。
	// 更新前の所有権チェックに使用する。
	FindOwnedByID(ctx context.Context, id, ownerID string) (*model.Competition, error)

	// ListByCreator は指定ユーザーが作成した大会を作成日時降順で返す。
	ListByCreator(ctx context.Context, creatorID string) ([]model.CompetitionWithCreator, error)

	// ListVisible はis_visible = trueの大会を作成日時降順で返す。
	ListVisible(ctx context.Context) ([]model.CompetitionWithCreator, error)

	// Create は大会を作成する。
	Create(ctx context.Context, comp *model.Competition) error

	// UpdateOwned はidとcreated_byの両方でフィルタして可変フィールドを更新し、
	// 影響行数を返す。created_byは変更しない。
	UpdateOwned(ctx context.Context, comp *model.Competition) (int64, error)

	// DeleteOwned はidとcreated_byの両方でフィルタして削除し、影響行数を返す。
	DeleteOwned(ctx context.Context, id, ownerID string) (int64, error)
}

// ParticipationRepository は参加登録データの永続化インターフェース。
type ParticipationRepository interface {
	// FindByUserAndCompetition は(userID, competitionID)の参加登録を取得する。
	// 見つからない場合はnilを返す。
	FindByUserAndCompetition(ctx context.Context, userID, competitionID string) (*model.Participation, error)

	// Create は参加登録を作成する。
	// (user_id, competition_id)の一意制約違反はIsUniqueViolationで判別可能なエラーとして返す。
	Create(ctx context.Context, p *model.Participation) error

	// ListCompetitionIDsByUser はユーザーが参加登録済みの大会IDを返す。
	ListCompetitionIDsByUser(ctx context.Context, userID string) ([]string, error)

	// ListParticipants は大会の参加者名簿を登録日時昇順で返す。
	ListParticipants(ctx context.Context, competitionID string) ([]model.Participant, error)

	// DeleteByUserID はユーザーの全参加登録を削除する。退会処理用。
	DeleteByUserID(ctx context.Context, userID string) error
}
