// Package user はプロフィール管理と退会処理のドメインロジックを提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hitoshi/taikai/internal/model"
	"github.com/hitoshi/taikai/internal/repository"
)

// ParticipationDeleter は参加登録の一括削除インターフェース。
type ParticipationDeleter interface {
	DeleteByUserID(ctx context.Context, userID string) error
}

// Service はユーザー管理のサービス層。
// プロフィールの参照・更新と退会処理を提供する。
type Service struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	partDeleter ParticipationDeleter
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	partDeleter ParticipationDeleter,
) *Service {
	return &Service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		partDeleter: partDeleter,
	}
}

// GetProfile は自分のプロフィールを返す。
func (s *Service) GetProfile(ctx context.Context, userID string) (*model.User, error) {
	if userID == "" {
		return nil, model.NewUnauthorizedError()
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

// UpdateFullName は表示名を更新する。ロールはこの操作では変更できない。
func (s *Service) UpdateFullName(ctx context.Context, userID, fullName string) (*model.User, error) {
	if userID == "" {
		return nil, model.NewUnauthorizedError()
	}

	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return nil, model.NewRequiredFieldsMissingError()
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	if err := s.userRepo.UpdateFullName(ctx, userID, fullName); err != nil {
		return nil, fmt.Errorf("表示名の更新に失敗しました: %w", err)
	}

	user.FullName = fullName
	return user, nil
}

// Withdraw はユーザーの退会処理を実行する。
// 削除順序: 参加登録 → セッション → ユーザー。
// 作成した大会は削除せず残す（名簿の整合性維持のため作成者行のみ消えない）。
func (s *Service) Withdraw(ctx context.Context, userID string) error {
	if userID == "" {
		return model.NewUnauthorizedError()
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return model.NewUserNotFoundError()
	}

	slog.Info("退会処理を開始します",
		slog.String("user_id", userID),
	)

	// 1. 参加登録を削除
	if err := s.partDeleter.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("参加登録の削除に失敗しました: %w", err)
	}

	// 2. セッションを削除
	if err := s.sessionRepo.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("セッションの削除に失敗しました: %w", err)
	}

	// 3. ユーザーを削除
	if err := s.userRepo.DeleteByID(ctx, userID); err != nil {
		return fmt.Errorf("ユーザーの削除に失敗しました: %w", err)
	}

	slog.Info("退会処理が完了しました",
		slog.String("user_id", userID),
	)

	return nil
}
