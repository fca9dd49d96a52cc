package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"sportclub/internal/identifier"
	"sportclub/internal/member/models"
	"sportclub/internal/platform/postgres"
	id "sportclub/pkg/domain"
	"sportclub/pkg/platform/sentinel"
	"sportclub/pkg/platform/tx"
)

const memberColumns = `id, display_name, first_name, paternal_surname, maternal_surname, email,
	password_hash, birth_date, sex, identifier_kind, identifier_value, phone, emergency_phone,
	roles, club_id, created_at, updated_at`

// Postgres persists members in PostgreSQL.
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

func (s *Postgres) Create(ctx context.Context, m *models.Member) error {
	_, err := s.conn(ctx).ExecContext(ctx, `INSERT INTO members (`+memberColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`, memberArgs(m)...)
	if err != nil {
		return fmt.Errorf("create member: %w", postgres.TranslateError(err))
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, userID id.UserID) (*models.Member, error) {
	row := s.conn(ctx).QueryRowContext(ctx, `SELECT `+memberColumns+` FROM members WHERE id = $1`, uuid.UUID(userID))
	return scanMember(row)
}

func (s *Postgres) FindByEmail(ctx context.Context, email string) (*models.Member, error) {
	row := s.conn(ctx).QueryRowContext(ctx, `SELECT `+memberColumns+` FROM members WHERE lower(email) = $1`, models.NormalizeEmail(email))
	return scanMember(row)
}

func (s *Postgres) List(ctx context.Context) ([]*models.Member, error) {
	return s.query(ctx, `SELECT `+memberColumns+` FROM members ORDER BY created_at, id`)
}

func (s *Postgres) ListByClub(ctx context.Context, clubID id.ClubID) ([]*models.Member, error) {
	return s.query(ctx, `SELECT `+memberColumns+` FROM members WHERE club_id = $1 ORDER BY created_at, id`, uuid.UUID(clubID))
}

// ClearClub detaches every member of clubID and reports how many changed.
func (s *Postgres) ClearClub(ctx context.Context, clubID id.ClubID, at time.Time) (int, error) {
	res, err := s.conn(ctx).ExecContext(ctx, `UPDATE members SET club_id = NULL, updated_at = $2 WHERE club_id = $1`,
		uuid.UUID(clubID), at)
	if err != nil {
		return 0, fmt.Errorf("clear club members: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clear club members: %w", err)
	}
	return int(n), nil
}

func (s *Postgres) query(ctx context.Context, q string, args ...any) ([]*models.Member, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()
	var out []*models.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return out, nil
}

// Execute locks the row with SELECT ... FOR UPDATE, runs validate and mutate,
// and writes the result in the same transaction.
func (s *Postgres) Execute(ctx context.Context, userID id.UserID, validate func(*models.Member) error, mutate func(*models.Member)) (*models.Member, error) {
	var m *models.Member
	err := tx.Run(ctx, s.db, func(ctx context.Context, t *sql.Tx) error {
		row := t.QueryRowContext(ctx, `SELECT `+memberColumns+` FROM members WHERE id = $1 FOR UPDATE`, uuid.UUID(userID))
		locked, err := scanMember(row)
		if err != nil {
			return err
		}
		if err := validate(locked); err != nil {
			return err
		}
		mutate(locked)
		_, err = t.ExecContext(ctx, `UPDATE members SET display_name=$2, first_name=$3, paternal_surname=$4,
			maternal_surname=$5, email=$6, password_hash=$7, birth_date=$8, sex=$9, identifier_kind=$10,
			identifier_value=$11, phone=$12, emergency_phone=$13, roles=$14, club_id=$15, created_at=$16,
			updated_at=$17 WHERE id=$1`, memberArgs(locked)...)
		if err != nil {
			return fmt.Errorf("update member: %w", postgres.TranslateError(err))
		}
		m = locked
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func memberArgs(m *models.Member) []any {
	roles := make([]string, 0, len(m.Roles))
	for _, r := range m.Roles {
		roles = append(roles, r.String())
	}
	var club any
	if m.HasClub() {
		club = uuid.UUID(m.ClubID)
	}
	return []any{
		uuid.UUID(m.ID), m.DisplayName, m.FirstName, m.PaternalSurname, m.MaternalSurname, m.Email,
		string(m.PasswordHash), m.BirthDate, m.Sex, string(m.IdentifierKind), m.IdentifierValue,
		m.Phone, m.EmergencyPhone, pq.Array(roles), club, m.CreatedAt, m.UpdatedAt,
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMember(row scanner) (*models.Member, error) {
	var (
		m      models.Member
		userID uuid.UUID
		hash   string
		kind   string
		roles  []string
		club   uuid.NullUUID
	)
	err := row.Scan(&userID, &m.DisplayName, &m.FirstName, &m.PaternalSurname, &m.MaternalSurname, &m.Email,
		&hash, &m.BirthDate, &m.Sex, &kind, &m.IdentifierValue, &m.Phone, &m.EmergencyPhone,
		pq.Array(&roles), &club, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan member: %w", err)
	}
	m.ID = id.UserID(userID)
	m.PasswordHash = []byte(hash)
	m.IdentifierKind = identifier.Kind(kind)
	m.Roles, err = id.ParseRoles(roles)
	if err != nil {
		return nil, fmt.Errorf("scan member roles: %w", err)
	}
	if club.Valid {
		m.ClubID = id.ClubID(club.UUID)
	}
	m.BirthDate = m.BirthDate.UTC()
	return &m, nil
}
