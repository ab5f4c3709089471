// Package participation は大会への参加登録と名簿参照のドメインロジックを提供する。
package participation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/taikai/internal/model"
	"github.com/hitoshi/taikai/internal/notify"
	"github.com/hitoshi/taikai/internal/repository"
)

// Recorder は参加登録のメトリクス記録インターフェース。
// metrics.MetricsCollectorの部分集合。
type Recorder interface {
	RecordJoin()
}

// Service は参加登録のサービス層。
type Service struct {
	partRepo  repository.ParticipationRepository
	compRepo  repository.CompetitionRepository
	userRepo  repository.UserRepository
	publisher notify.Publisher
	recorder  Recorder
}

// NewService はServiceの新しいインスタンスを生成する。
// recorderはnilでもよい（メトリクス収集なし）。
func NewService(
	partRepo repository.ParticipationRepository,
	compRepo repository.CompetitionRepository,
	userRepo repository.UserRepository,
	publisher notify.Publisher,
	recorder Recorder,
) *Service {
	return &Service{
		partRepo:  partRepo,
		compRepo:  compRepo,
		userRepo:  userRepo,
		publisher: publisher,
		recorder:  recorder,
	}
}

// Join は大会に参加登録する。
// 事前チェックで既存の登録を検出するが、同時リクエストのレースは
// ストアの(user_id, competition_id)一意制約が防ぐ。どちらの経路で
// 検出されても同じ「登録済み」エラーに集約する。
func (s *Service) Join(ctx context.Context, userID, competitionID string) (*model.Participation, error) {
	if userID == "" {
		return nil, model.NewUnauthorizedError()
	}

	comp, err := s.compRepo.FindByID(ctx, competitionID)
	if err != nil {
		return nil, fmt.Errorf("大会の検索に失敗しました: %w", err)
	}
	if comp == nil {
		return nil, model.NewCompetitionNotFoundError()
	}

	existing, err := s.partRepo.FindByUserAndCompetition(ctx, userID, competitionID)
	if err != nil {
		return nil, fmt.Errorf("参加登録の確認に失敗しました: %w", err)
	}
	if existing != nil {
		return nil, model.NewAlreadyRegisteredError()
	}

	p := &model.Participation{
		ID:            uuid.New().String(),
		UserID:        userID,
		CompetitionID: competitionID,
		JoinedAt:      time.Now(),
	}

	if err := s.partRepo.Create(ctx, p); err != nil {
		if repository.IsUniqueViolation(err) {
			// 事前チェックとINSERTの間に別リクエストが登録を完了したレース
			return nil, model.NewAlreadyRegisteredError()
		}
		return nil, fmt.Errorf("参加登録の保存に失敗しました: %w", err)
	}

	s.publisher.Publish(notify.Event{
		Table: notify.TableParticipants,
		Op:    notify.OpInsert,
		RowID: p.ID,
	})
	if s.recorder != nil {
		s.recorder.RecordJoin()
	}

	return p, nil
}

// ListJoinedIDs はユーザーが参加登録済みの大会IDを返す。
// 選手ダッシュボードの「参加中」表示用。
func (s *Service) ListJoinedIDs(ctx context.Context, userID string) ([]string, error) {
	if userID == "" {
		return nil, model.NewUnauthorizedError()
	}

	ids, err := s.partRepo.ListCompetitionIDsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("参加登録一覧の取得に失敗しました: %w", err)
	}
	return ids, nil
}

// Roster は大会の参加者名簿を返す。
// メールアドレスは大会の作成者本人または運営者ロールにのみ開示し、
// それ以外の閲覧者には伏せる。
func (s *Service) Roster(ctx context.Context, viewerID, competitionID string) ([]model.Participant, error) {
	if viewerID == "" {
		return nil, model.NewUnauthorizedError()
	}

	comp, err := s.compRepo.FindByID(ctx, competitionID)
	if err != nil {
		return nil, fmt.Errorf("大会の検索に失敗しました: %w", err)
	}
	if comp == nil {
		return nil, model.NewCompetitionNotFoundError()
	}

	participants, err := s.partRepo.ListParticipants(ctx, competitionID)
	if err != nil {
		return nil, fmt.Errorf("参加者名簿の取得に失敗しました: %w", err)
	}

	if comp.CreatedBy != viewerID {
		role, err := s.userRepo.FindRoleByID(ctx, viewerID)
		if err != nil {
			return nil, fmt.Errorf("ロールの取得に失敗しました: %w", err)
		}
		if role != model.RoleEventManager {
			for i := range participants {
				participants[i].Email = ""
			}
		}
	}

	return participants, nil
}
