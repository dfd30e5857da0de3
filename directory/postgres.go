package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	authcore "github.com/oleanderhq/authcore"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Postgres reads users and role assignments from the backend's Postgres
// database. Expected schema:
//
//	users(id uuid, name text, email text unique)
//	roles(id, name text)
//	user_roles(user_id, role_id)
type Postgres struct {
	db *sql.DB
}

// OpenPostgres opens a pooled connection through the pgx stdlib driver.
func OpenPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	return &Postgres{db: db}, nil
}

// NewPostgres wraps an existing database handle.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Close releases the connection pool.
func (p *Postgres) Close() error {
	return p.db.Close()
}

// Ping verifies the database is reachable.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// FindByEmail resolves an email to the user's id and display name.
func (p *Postgres) FindByEmail(ctx context.Context, email string) (authcore.UserRecord, error) {
	query :=
		`SELECT id, name FROM users
		 WHERE email = $1
		 `

	var rec authcore.UserRecord
	err := p.db.QueryRowContext(ctx, query, email).Scan(&rec.ID, &rec.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return authcore.UserRecord{}, authcore.ErrNotFound
		}
		return authcore.UserRecord{}, fmt.Errorf("db error: %w", err)
	}

	return rec, nil
}

// Roles returns the user's current role names.
func (p *Postgres) Roles(ctx context.Context, userID string) ([]string, error) {
	query :=
		`SELECT r.name FROM roles r
		 JOIN user_roles ur ON ur.role_id = r.id
		 WHERE ur.user_id = $1
		 ORDER BY r.name
		 `

	rows, err := p.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var roles []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		roles = append(roles, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return roles, nil
}
