package model

import "time"

// Competition は運営者が作成する大会レコードを表す。
// CreatedByは作成時に確定し、以後変更されない。
// 更新・削除はCreatedByと一致するユーザーのみが行える。
type Competition struct {
	ID               string
	Name             string
	Description      string
	EventDate        string // 日付のみの不透明な文字列（"2025-05-01"）。タイムゾーン正規化は行わない
	Venue            string
	Sport            string
	CreatedBy        string
	IsVisible        bool
	RegistrationOpen bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// CompetitionWithCreator は大会と作成者名を結合した読み取り用の構造体。
type CompetitionWithCreator struct {
	Competition
	CreatorFullName string
}

// Participation はユーザー1人と大会1件の参加登録を表す。
// (UserID, CompetitionID) の組につき最大1件。作成後に更新されることはない。
type Participation struct {
	ID            string
	UserID        string
	CompetitionID string
	JoinedAt      time.Time
}

// Participant は参加者名簿の1行。
// Emailは大会作成者または運営者ロールにのみ開示される。
type Participant struct {
	UserID   string
	FullName string
	Email    string
	JoinedAt time.Time
}
