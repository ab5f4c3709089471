package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/taikai/internal/model"
)

// uniqueViolationCode はPostgreSQLのunique_violationエラーコード。
const uniqueViolationCode = "23505"

// IsUniqueViolation はエラーがPostgreSQLの一意制約違反かどうかを判定する。
// joinの事前チェックをすり抜けた同時登録はこの違反として現れる。
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolationCode
	}
	return false
}

// PostgresParticipationRepo はPostgreSQLを使用した参加登録リポジトリ。
type PostgresParticipationRepo struct {
	db *sql.DB
}

// NewPostgresParticipationRepo はPostgresParticipationRepoを生成する。
func NewPostgresParticipationRepo(db *sql.DB) *PostgresParticipationRepo {
	return &PostgresParticipationRepo{db: db}
}

// FindByUserAndCompetition は(userID, competitionID)の参加登録を取得する。
// 見つからない場合はnilを返す。
func (r *PostgresParticipationRepo) FindByUserAndCompetition(ctx context.Context, userID, competitionID string) (*model.Participation, error) {
	p := &model.Participation{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, competition_id, joined_at
		 FROM competition_participants
		 WHERE user_id = $1 AND competition_id = $2`,
		userID, competitionID,
	).Scan(&p.ID, &p.UserID, &p.CompetitionID, &p.JoinedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find participation: %w", err)
	}

	return p, nil
}

// Create は参加登録を作成する。
// 挿入された行のjoined_atを読み戻す。一意制約違反はそのままのエラーとして返し、
// 呼び出し側がIsUniqueViolationで判別する。
func (r *PostgresParticipationRepo) Create(ctx context.Context, p *model.Participation) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO competition_participants (id, user_id, competition_id, joined_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING joined_at`,
		p.ID, p.UserID, p.CompetitionID, p.JoinedAt,
	).Scan(&p.JoinedAt)

	if err == sql.ErrNoRows {
		return fmt.Errorf("no data returned from participation insert")
	}
	if err != nil {
		// 一意制約違反の原型を保持するため、ここではラップしない
		return err
	}

	return nil
}

// ListCompetitionIDsByUser はユーザーが参加登録済みの大会IDを返す。
func (r *PostgresParticipationRepo) ListCompetitionIDsByUser(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT competition_id FROM competition_participants WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list participations: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan participation row: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participation rows: %w", err)
	}
	return ids, nil
}

// ListParticipants は大会の参加者名簿を登録日時昇順で返す。
func (r *PostgresParticipationRepo) ListParticipants(ctx context.Context, competitionID string) ([]model.Participant, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT p.user_id, u.full_name, u.email, p.joined_at
		 FROM competition_participants p
		 JOIN users u ON u.id = p.user_id
		 WHERE p.competition_id = $1
		 ORDER BY p.joined_at ASC`,
		competitionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	var participants []model.Participant
	for rows.Next() {
		var p model.Participant
		if err := rows.Scan(&p.UserID, &p.FullName, &p.Email, &p.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan participant row: %w", err)
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participant rows: %w", err)
	}
	return participants, nil
}

// DeleteByUserID はユーザーの全参加登録を削除する。
func (r *PostgresParticipationRepo) DeleteByUserID(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM competition_participants WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete user participations: %w", err)
	}
	return nil
}

// compile-time interface check
var _ ParticipationRepository = (*PostgresParticipationRepo)(nil)
