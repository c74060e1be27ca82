package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"carbonledger/internal/ledger"
	"carbonledger/pkg/domain"
	dErrors "carbonledger/pkg/domain-errors"
	"carbonledger/pkg/platform/sentinel"
	txcontext "carbonledger/pkg/platform/tx"
)

// PostgresStore persists projects in PostgreSQL. Project ids come from a
// sequence, so an id consumed by a failed registration is never handed out
// again even though the enclosing transaction rolled back.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbtx {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) NextID(ctx context.Context) (domain.ProjectID, error) {
	var id int64
	err := s.execer(ctx).QueryRowContext(ctx, `SELECT nextval('project_ids')`).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("next project id: %w", err)
	}
	return domain.ProjectID(id), nil
}

func (s *PostgresStore) Save(ctx context.Context, project ledger.Project) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO projects (id, name, location, project_type, description, issuer, created_at, total_credits_issued)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		int64(project.ID), project.Name, project.Location, project.ProjectType,
		project.Description, project.Issuer.String(), project.CreatedAt,
		project.TotalCreditsIssued.Int64(),
	)
	if err != nil {
		return fmt.Errorf("save project: %w", err)
	}
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, id domain.ProjectID) (ledger.Project, error) {
	row := s.execer(ctx).QueryRowContext(ctx, `
		SELECT id, name, location, project_type, description, issuer, created_at, total_credits_issued
		FROM projects WHERE id = $1`, int64(id))
	return scanProject(row)
}

func (s *PostgresStore) List(ctx context.Context) ([]ledger.Project, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT id, name, location, project_type, description, issuer, created_at, total_credits_issued
		FROM projects ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	projects := make([]ledger.Project, 0)
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

func (s *PostgresStore) RecordIssuance(ctx context.Context, id domain.ProjectID, amount domain.Amount) error {
	ex := s.execer(ctx)

	var total int64
	err := ex.QueryRowContext(ctx,
		`SELECT total_credits_issued FROM projects WHERE id = $1 FOR UPDATE`,
		int64(id)).Scan(&total)
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("lock project for issuance: %w", err)
	}

	newTotal, err := domain.Amount(total).Add(amount)
	if err != nil {
		return err
	}
	if _, err := ex.ExecContext(ctx,
		`UPDATE projects SET total_credits_issued = $2 WHERE id = $1`,
		int64(id), newTotal.Int64()); err != nil {
		return fmt.Errorf("record issuance: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (ledger.Project, error) {
	var (
		p      ledger.Project
		id     int64
		issuer string
		total  int64
	)
	err := row.Scan(&id, &p.Name, &p.Location, &p.ProjectType, &p.Description, &issuer, &p.CreatedAt, &total)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Project{}, sentinel.ErrNotFound
	}
	if err != nil {
		return ledger.Project{}, dErrors.Wrap(err, dErrors.CodeInternal, "scan project")
	}
	p.ID = domain.ProjectID(id)
	p.Issuer = domain.AccountID(issuer)
	p.TotalCreditsIssued = domain.Amount(total)
	return p, nil
}
