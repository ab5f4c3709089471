package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/taikai/internal/model"
)

// PostgresCompetitionRepo はPostgreSQLを使用した大会リポジトリ。
type PostgresCompetitionRepo struct {
	db *sql.DB
}

// NewPostgresCompetitionRepo はPostgresCompetitionRepoを生成する。
func NewPostgresCompetitionRepo(db *sql.DB) *PostgresCompetitionRepo {
	return &PostgresCompetitionRepo{db: db}
}

// created_byは作成者の退会でNULLになるため、作成者はLEFT JOINで引き、
// NULLは空文字列に畳んで返す。
const competitionWithCreatorColumns = `
	c.id, c.name, c.description, c.event_date, c.venue, c.sport,
	COALESCE(c.created_by::text, ''), c.is_visible, c.registration_open, c.created_at, c.updated_at,
	COALESCE(u.full_name, '')`

// FindByID は指定IDの大会を作成者名付きで取得する。見つからない場合はnilを返す。
func (r *PostgresCompetitionRepo) FindByID(ctx context.Context, id string) (*model.CompetitionWithCreator, error) {
	comp := &model.CompetitionWithCreator{}
	err := r.db.QueryRowContext(ctx,
		`SELECT `+competitionWithCreatorColumns+`
		 FROM competitions c
		 LEFT JOIN users u ON u.id = c.created_by
		 WHERE c.id = $1`,
		id,
	).Scan(
		&comp.ID, &comp.Name, &comp.Description, &comp.EventDate, &comp.Venue, &comp.Sport,
		&comp.CreatedBy, &comp.IsVisible, &comp.RegistrationOpen, &comp.CreatedAt, &comp.UpdatedAt,
		&comp.CreatorFullName,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find competition by ID: %w", err)
	}

	return comp, nil
}

// FindOwnedByID はidとownerIDの両方に一致する大会を取得する。見つからない場合はnilを返す。
func (r *PostgresCompetitionRepo) FindOwnedByID(ctx context.Context, id, ownerID string) (*model.Competition, error) {
	comp := &model.Competition{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, description, event_date, venue, sport,
		        created_by, is_visible, registration_open, created_at, updated_at
		 FROM competitions
		 WHERE id = $1 AND created_by = $2`,
		id, ownerID,
	).Scan(
		&comp.ID, &comp.Name, &comp.Description, &comp.EventDate, &comp.Venue, &comp.Sport,
		&comp.CreatedBy, &comp.IsVisible, &comp.RegistrationOpen, &comp.CreatedAt, &comp.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find owned competition: %w", err)
	}

	return comp, nil
}

// ListByCreator は指定ユーザーが作成した大会を作成日時降順で返す。
func (r *PostgresCompetitionRepo) ListByCreator(ctx context.Context, creatorID string) ([]model.CompetitionWithCreator, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+competitionWithCreatorColumns+`
		 FROM competitions c
		 LEFT JOIN users u ON u.id = c.created_by
		 WHERE c.created_by = $1
		 ORDER BY c.created_at DESC`,
		creatorID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list competitions by creator: %w", err)
	}
	defer rows.Close()

	return scanCompetitionsWithCreator(rows)
}

// ListVisible はis_visible = trueの大会を作成日時降順で返す。
func (r *PostgresCompetitionRepo) ListVisible(ctx context.Context) ([]model.CompetitionWithCreator, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+competitionWithCreatorColumns+`
		 FROM competitions c
		 LEFT JOIN users u ON u.id = c.created_by
		 WHERE c.is_visible = true
		 ORDER BY c.created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list visible competitions: %w", err)
	}
	defer rows.Close()

	return scanCompetitionsWithCreator(rows)
}

// Create は大会を作成する。
func (r *PostgresCompetitionRepo) Create(ctx context.Context, comp *model.Competition) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO competitions
		   (id, name, description, event_date, venue, sport,
		    created_by, is_visible, registration_open, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		comp.ID, comp.Name, comp.Description, comp.EventDate, comp.Venue, comp.Sport,
		comp.CreatedBy, comp.IsVisible, comp.RegistrationOpen, comp.CreatedAt, comp.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert competition: %w", err)
	}
	return nil
}

// UpdateOwned はidとcreated_byの両方でフィルタして可変フィールドを更新し、影響行数を返す。
// created_byは変更しない。
func (r *PostgresCompetitionRepo) UpdateOwned(ctx context.Context, comp *model.Competition) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE competitions
		 SET name = $3, description = $4, event_date = $5, venue = $6, sport = $7,
		     is_visible = $8, registration_open = $9, updated_at = $10
		 WHERE id = $1 AND created_by = $2`,
		comp.ID, comp.CreatedBy,
		comp.Name, comp.Description, comp.EventDate, comp.Venue, comp.Sport,
		comp.IsVisible, comp.RegistrationOpen, comp.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to update competition: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected, nil
}

// DeleteOwned はidとcreated_byの両方でフィルタして削除し、影響行数を返す。
func (r *PostgresCompetitionRepo) DeleteOwned(ctx context.Context, id, ownerID string) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM competitions WHERE id = $1 AND created_by = $2`,
		id, ownerID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete competition: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected, nil
}

// scanCompetitionsWithCreator は結果セットを読み切ってスライスに変換する。
func scanCompetitionsWithCreator(rows *sql.Rows) ([]model.CompetitionWithCreator, error) {
	var comps []model.CompetitionWithCreator
	for rows.Next() {
		var comp model.CompetitionWithCreator
		if err := rows.Scan(
			&comp.ID, &comp.Name, &comp.Description, &comp.EventDate, &comp.Venue, &comp.Sport,
			&comp.CreatedBy, &comp.IsVisible, &comp.RegistrationOpen, &comp.CreatedAt, &comp.UpdatedAt,
			&comp.CreatorFullName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan competition row: %w", err)
		}
		comps = append(comps, comp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate competition rows: %w", err)
	}
	return comps, nil
}

// compile-time interface check
var _ CompetitionRepository = (*PostgresCompetitionRepo)(nil)
