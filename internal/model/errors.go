// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, competition, participation, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized          = "UNAUTHORIZED"
	ErrCodeEmailAlreadyExists    = "EMAIL_ALREADY_EXISTS"
	ErrCodeInvalidCredentials    = "INVALID_CREDENTIALS"
	ErrCodeInvalidRole           = "INVALID_ROLE"
	ErrCodeRequiredFieldsMissing = "REQUIRED_FIELDS_MISSING"
	ErrCodeCompetitionNotFound   = "COMPETITION_NOT_FOUND"
	ErrCodeNoPermission          = "NO_PERMISSION"
	ErrCodeNothingUpdated        = "NOTHING_UPDATED"
	ErrCodeAlreadyRegistered     = "ALREADY_REGISTERED"
	ErrCodeUserNotFound          = "USER_NOT_FOUND"
)

// NewUnauthorizedError は未認証エラーを生成する。
// すべての変更操作はセッションなしで呼ばれた場合にこのエラーを返す。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "ログインが必要です。",
		Category: "auth",
		Action:   "ログインしてから再度お試しください。",
	}
}

// NewEmailAlreadyExistsError はメールアドレス重複エラーを生成する。
func NewEmailAlreadyExistsError() *APIError {
	return &APIError{
		Code:     ErrCodeEmailAlreadyExists,
		Message:  "このメールアドレスのアカウントは既に存在します。",
		Category: "auth",
		Action:   "サインインするか、別のメールアドレスをご利用ください。",
	}
}

// NewInvalidCredentialsError は認証情報不一致エラーを生成する。
// メールアドレス未登録とパスワード不一致は区別しない。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewInvalidRoleError は未知のロール指定エラーを生成する。
func NewInvalidRoleError(role string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRole,
		Message:  fmt.Sprintf("無効なロールです: %s", role),
		Category: "validation",
		Action:   "participant または event_manager を指定してください。",
	}
}

// NewRequiredFieldsMissingError は必須項目欠落エラーを生成する。
// ストア呼び出しの前に検出される。
func NewRequiredFieldsMissingError() *APIError {
	return &APIError{
		Code:     ErrCodeRequiredFieldsMissing,
		Message:  "すべての必須項目を入力してください。",
		Category: "validation",
		Action:   "大会名・開催日・会場・競技種目をすべて入力してください。",
	}
}

// NewCompetitionNotFoundError は大会未検出または権限なしエラーを生成する。
// 他人の大会の存在を漏らさないため、未検出と権限なしは同一のエラーにする。
func NewCompetitionNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeCompetitionNotFound,
		Message:  "大会が見つからないか、編集する権限がありません。",
		Category: "competition",
		Action:   "大会IDを確認してください。",
	}
}

// NewNoPermissionError は削除の所有権フィルタで0行だった場合のエラーを生成する。
func NewNoPermissionError() *APIError {
	return &APIError{
		Code:     ErrCodeNoPermission,
		Message:  "大会は削除されませんでした。権限がない可能性があります。",
		Category: "competition",
		Action:   "自分が作成した大会のみ削除できます。",
	}
}

// NewNothingUpdatedError は所有権チェック通過後に更新対象が消えていた場合のエラーを生成する。
// チェックと更新の間で行が削除されたレースに対する防御。
func NewNothingUpdatedError() *APIError {
	return &APIError{
		Code:     ErrCodeNothingUpdated,
		Message:  "大会は更新されませんでした。権限がない可能性があります。",
		Category: "competition",
		Action:   "大会一覧を再読み込みして再度お試しください。",
	}
}

// NewAlreadyRegisteredError は参加登録の重複エラーを生成する。
// 事前チェックで検出された場合もストアの一意制約違反で検出された場合も
// 同一のこのエラーに集約する。
func NewAlreadyRegisteredError() *APIError {
	return &APIError{
		Code:     ErrCodeAlreadyRegistered,
		Message:  "この大会には既に参加登録済みです。",
		Category: "participation",
		Action:   "参加中の大会一覧を確認してください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}
