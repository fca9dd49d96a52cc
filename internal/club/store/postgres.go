package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"sportclub/internal/club/models"
	"sportclub/internal/directive"
	"sportclub/internal/platform/postgres"
	id "sportclub/pkg/domain"
	"sportclub/pkg/platform/sentinel"
	"sportclub/pkg/platform/tx"
)

const clubColumns = `id, fantasy_name, legal_name, founding_date, rut, email, phone, website, active,
	president_id, secretary_id, treasurer_id, director_id, created_at, updated_at`

// Postgres persists clubs, one column per directive position.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Postgres) conn(ctx context.Context) execer {
	if t, ok := tx.From(ctx); ok {
		return t
	}
	return s.db
}

func (s *Postgres) Create(ctx context.Context, c *models.Club) error {
	_, err := s.conn(ctx).ExecContext(ctx, `INSERT INTO clubs (`+clubColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`, clubArgs(c)...)
	if err != nil {
		return fmt.Errorf("create club: %w", postgres.TranslateError(err))
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, clubID id.ClubID) (*models.Club, error) {
	row := s.conn(ctx).QueryRowContext(ctx, `SELECT `+clubColumns+` FROM clubs WHERE id = $1`, uuid.UUID(clubID))
	return scanClub(row)
}

func (s *Postgres) List(ctx context.Context) ([]*models.Club, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, `SELECT `+clubColumns+` FROM clubs ORDER BY fantasy_name, id`)
	if err != nil {
		return nil, fmt.Errorf("list clubs: %w", err)
	}
	defer rows.Close()
	var out []*models.Club
	for rows.Next() {
		c, err := scanClub(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list clubs: %w", err)
	}
	return out, nil
}

// Delete removes the club. Members referencing it are detached by the
// foreign key's ON DELETE SET NULL.
func (s *Postgres) Delete(ctx context.Context, clubID id.ClubID) error {
	res, err := s.conn(ctx).ExecContext(ctx, `DELETE FROM clubs WHERE id = $1`, uuid.UUID(clubID))
	if err != nil {
		return fmt.Errorf("delete club: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete club: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// Execute locks the club row for the duration of validate and mutate so two
// administrators committing slates are serialized.
func (s *Postgres) Execute(ctx context.Context, clubID id.ClubID, validate func(*models.Club) error, mutate func(*models.Club)) (*models.Club, error) {
	var c *models.Club
	err := tx.Run(ctx, s.db, func(ctx context.Context, t *sql.Tx) error {
		row := t.QueryRowContext(ctx, `SELECT `+clubColumns+` FROM clubs WHERE id = $1 FOR UPDATE`, uuid.UUID(clubID))
		locked, err := scanClub(row)
		if err != nil {
			return err
		}
		if err := validate(locked); err != nil {
			return err
		}
		mutate(locked)
		_, err = t.ExecContext(ctx, `UPDATE clubs SET fantasy_name=$2, legal_name=$3, founding_date=$4,
			rut=$5, email=$6, phone=$7, website=$8, active=$9, president_id=$10, secretary_id=$11,
			treasurer_id=$12, director_id=$13, created_at=$14, updated_at=$15 WHERE id=$1`, clubArgs(locked)...)
		if err != nil {
			return fmt.Errorf("update club: %w", postgres.TranslateError(err))
		}
		c = locked
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func clubArgs(c *models.Club) []any {
	var founding any
	if !c.FoundingDate.IsZero() {
		founding = c.FoundingDate
	}
	args := []any{uuid.UUID(c.ID), c.FantasyName, c.LegalName, founding, c.RUT, c.Email, c.Phone, c.Website, c.Active}
	for _, role := range directive.Roles {
		var member any
		if m, ok := c.Slate.Get(role); ok {
			member = uuid.UUID(m)
		}
		args = append(args, member)
	}
	return append(args, c.CreatedAt, c.UpdatedAt)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanClub(row scanner) (*models.Club, error) {
	var (
		c        models.Club
		clubID   uuid.UUID
		founding sql.NullTime
		slots    [len(directive.Roles)]uuid.NullUUID
	)
	err := row.Scan(&clubID, &c.FantasyName, &c.LegalName, &founding, &c.RUT, &c.Email, &c.Phone, &c.Website, &c.Active,
		&slots[0], &slots[1], &slots[2], &slots[3], &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan club: %w", err)
	}
	c.ID = id.ClubID(clubID)
	if founding.Valid {
		c.FoundingDate = founding.Time.UTC()
	}
	assignments := make(map[directive.Role]id.UserID, len(directive.Roles))
	for i, role := range directive.Roles {
		if slots[i].Valid {
			assignments[role] = id.UserID(slots[i].UUID)
		}
	}
	// A stored slate that breaks uniqueness is corruption, not user input.
	c.Slate, err = directive.NewSlate(assignments)
	if err != nil {
		return nil, fmt.Errorf("scan club %s slate: %w", c.ID, err)
	}
	return &c, nil
}
