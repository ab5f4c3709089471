// Package competition は大会の作成・編集・削除と参照のドメインロジックを提供する。
package competition

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/taikai/internal/model"
	"github.com/hitoshi/taikai/internal/notify"
	"github.com/hitoshi/taikai/internal/repository"
)

// Sanitizer は説明文のサニタイズインターフェース。
type Sanitizer interface {
	Sanitize(input string) string
}

// Recorder は大会操作のメトリクス記録インターフェース。
// metrics.MetricsCollectorの部分集合。
type Recorder interface {
	RecordCompetitionCreated()
	RecordCompetitionUpdated()
	RecordCompetitionDeleted()
}

// Service は大会のサービス層。
// すべての変更操作は認証済みユーザーIDを要求し、所有権はストア呼び出し時に
// created_byフィルタで再検証される。変更の成功後に変更通知を発行する。
type Service struct {
	compRepo  repository.CompetitionRepository
	userRepo  repository.UserRepository
	sanitizer Sanitizer
	publisher notify.Publisher
	recorder  Recorder
}

// NewService はServiceの新しいインスタンスを生成する。
// recorderはnilでもよい（メトリクス収集なし）。
func NewService(
	compRepo repository.CompetitionRepository,
	userRepo repository.UserRepository,
	sanitizer Sanitizer,
	publisher notify.Publisher,
	recorder Recorder,
) *Service {
	return &Service{
		compRepo:  compRepo,
		userRepo:  userRepo,
		sanitizer: sanitizer,
		publisher: publisher,
		recorder:  recorder,
	}
}

// CreateInput は大会作成の入力。
// 作成フォームには説明欄がないため、Descriptionは空のまま渡される想定。
type CreateInput struct {
	Name        string
	Description string
	EventDate   string
	Venue       string
	Sport       string
}

// Create は大会を作成する。
// フロー: 認証チェック → 必須項目検証 → 説明のデフォルト補完とサニタイズ → 保存 → 通知
func (s *Service) Create(ctx context.Context, userID string, input CreateInput) (*model.Competition, error) {
	if userID == "" {
		return nil, model.NewUnauthorizedError()
	}

	name := strings.TrimSpace(input.Name)
	eventDate := strings.TrimSpace(input.EventDate)
	venue := strings.TrimSpace(input.Venue)
	sport := strings.TrimSpace(input.Sport)

	if name == "" || eventDate == "" || venue == "" || sport == "" {
		return nil, model.NewRequiredFieldsMissingError()
	}

	// 説明が未入力の場合は競技種目から補完する
	description := strings.TrimSpace(input.Description)
	if description == "" {
		description = fmt.Sprintf("%s competition", sport)
	}
	description = s.sanitizer.Sanitize(description)

	now := time.Now()
	comp := &model.Competition{
		ID:               uuid.New().String(),
		Name:             name,
		Description:      description,
		EventDate:        eventDate,
		Venue:            venue,
		Sport:            sport,
		CreatedBy:        userID,
		IsVisible:        true,
		RegistrationOpen: true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.compRepo.Create(ctx, comp); err != nil {
		return nil, fmt.Errorf("大会の保存に失敗しました: %w", err)
	}

	s.publisher.Publish(notify.Event{
		Table: notify.TableCompetitions,
		Op:    notify.OpInsert,
		RowID: comp.ID,
	})
	if s.recorder != nil {
		s.recorder.RecordCompetitionCreated()
	}

	return comp, nil
}

// UpdateInput は大会更新の入力。全フィールドを置き換える（last write wins）。
type UpdateInput struct {
	Name             string
	Description      string
	EventDate        string
	Venue            string
	Sport            string
	IsVisible        bool
	RegistrationOpen bool
}

// Update は自分が作成した大会を更新する。
// 所有権の事前チェックの後、ストア側でもid + created_byでフィルタして更新する。
// 事前チェック通過後に影響行数が0の場合、チェックと更新の間で行が消えた
// レースとみなし、別のエラーで報告する。
func (s *Service) Update(ctx context.Context, userID, id string, input UpdateInput) (*model.Competition, error) {
	if userID == "" {
		return nil, model.NewUnauthorizedError()
	}

	name := strings.TrimSpace(input.Name)
	eventDate := strings.TrimSpace(input.EventDate)
	venue := strings.TrimSpace(input.Venue)
	sport := strings.TrimSpace(input.Sport)

	if name == "" || eventDate == "" || venue == "" || sport == "" {
		return nil, model.NewRequiredFieldsMissingError()
	}

	// 所有権の事前チェック。未検出と権限なしは区別しない
	existing, err := s.compRepo.FindOwnedByID(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("大会の検索に失敗しました: %w", err)
	}
	if existing == nil {
		return nil, model.NewCompetitionNotFoundError()
	}

	comp := &model.Competition{
		ID:               id,
		Name:             name,
		Description:      s.sanitizer.Sanitize(strings.TrimSpace(input.Description)),
		EventDate:        eventDate,
		Venue:            venue,
		Sport:            sport,
		CreatedBy:        userID,
		IsVisible:        input.IsVisible,
		RegistrationOpen: input.RegistrationOpen,
		CreatedAt:        existing.CreatedAt,
		UpdatedAt:        time.Now(),
	}

	rows, err := s.compRepo.UpdateOwned(ctx, comp)
	if err != nil {
		return nil, fmt.Errorf("大会の更新に失敗しました: %w", err)
	}
	if rows == 0 {
		return nil, model.NewNothingUpdatedError()
	}

	s.publisher.Publish(notify.Event{
		Table: notify.TableCompetitions,
		Op:    notify.OpUpdate,
		RowID: id,
	})
	if s.recorder != nil {
		s.recorder.RecordCompetitionUpdated()
	}

	return comp, nil
}

// Delete は自分が作成した大会を削除する。
// ストア側でid + created_byフィルタのみで削除し、影響行数0を権限なしとして報告する。
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if userID == "" {
		return model.NewUnauthorizedError()
	}

	rows, err := s.compRepo.DeleteOwned(ctx, id, userID)
	if err != nil {
		return fmt.Errorf("大会の削除に失敗しました: %w", err)
	}
	if rows == 0 {
		return model.NewNoPermissionError()
	}

	s.publisher.Publish(notify.Event{
		Table: notify.TableCompetitions,
		Op:    notify.OpDelete,
		RowID: id,
	})
	if s.recorder != nil {
		s.recorder.RecordCompetitionDeleted()
	}

	return nil
}

// ListMine は自分が作成した大会を作成日時降順で返す。運営者ダッシュボード用。
func (s *Service) ListMine(ctx context.Context, userID string) ([]model.CompetitionWithCreator, error) {
	if userID == "" {
		return nil, model.NewUnauthorizedError()
	}

	comps, err := s.compRepo.ListByCreator(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("大会一覧の取得に失敗しました: %w", err)
	}
	return comps, nil
}

// ListVisible は公開中の大会を作成日時降順で返す。認証不要。
func (s *Service) ListVisible(ctx context.Context) ([]model.CompetitionWithCreator, error) {
	comps, err := s.compRepo.ListVisible(ctx)
	if err != nil {
		return nil, fmt.Errorf("大会一覧の取得に失敗しました: %w", err)
	}
	return comps, nil
}

// GetDetail は大会の詳細を返す。viewerIDは未認証の場合は空文字列。
// 非公開の大会は作成者本人または運営者ロールにのみ開示し、
// それ以外には存在自体を伏せる。
func (s *Service) GetDetail(ctx context.Context, viewerID, id string) (*model.CompetitionWithCreator, error) {
	comp, err := s.compRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("大会の検索に失敗しました: %w", err)
	}
	if comp == nil {
		return nil, model.NewCompetitionNotFoundError()
	}

	if !comp.IsVisible {
		if viewerID == "" {
			return nil, model.NewCompetitionNotFoundError()
		}
		if comp.CreatedBy != viewerID {
			role, err := s.userRepo.FindRoleByID(ctx, viewerID)
			if err != nil {
				return nil, fmt.Errorf("ロールの取得に失敗しました: %w", err)
			}
			if role != model.RoleEventManager {
				return nil, model.NewCompetitionNotFoundError()
			}
		}
	}

	return comp, nil
}
