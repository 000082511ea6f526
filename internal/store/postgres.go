package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dreamplay/lineup/internal/models"
)

// Postgres implements Store using PostgreSQL.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a Postgres store from a DSN. Caller must call Close when done.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Close closes the connection pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

// Ping checks connectivity.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *Postgres) GetStateByName(ctx context.Context, name string) (*models.State, error) {
	var s models.State
	err := p.pool.QueryRow(ctx,
		`SELECT id, name FROM states WHERE name = $1`, name,
	).Scan(&s.ID, &s.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("GetStateByName: %w", err)
	}
	return &s, nil
}

func (p *Postgres) GetDefaultPackageByState(ctx context.Context, stateID int64) (*models.DefaultPackage, error) {
	var pkg models.DefaultPackage
	err := p.pool.QueryRow(ctx,
		`SELECT id, state_id, package_name, file_name, validity_hours
		 FROM default_packages WHERE state_id = $1
		 ORDER BY id LIMIT 1`, stateID,
	).Scan(&pkg.ID, &pkg.StateID, &pkg.PackageName, &pkg.FileName, &pkg.ValidityHours)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("GetDefaultPackageByState: %w", err)
	}
	return &pkg, nil
}

func (p *Postgres) GetDefaultPackageByID(ctx context.Context, id int64) (*models.DefaultPackage, error) {
	var pkg models.DefaultPackage
	err := p.pool.QueryRow(ctx,
		`SELECT id, state_id, package_name, file_name, validity_hours
		 FROM default_packages WHERE id = $1`, id,
	).Scan(&pkg.ID, &pkg.StateID, &pkg.PackageName, &pkg.FileName, &pkg.ValidityHours)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("GetDefaultPackageByID: %w", err)
	}
	return &pkg, nil
}

func (p *Postgres) GetDemoUser(ctx context.Context, mobile string) (*models.DemoUser, error) {
	var u models.DemoUser
	err := p.pool.QueryRow(ctx,
		`SELECT id, mobile_number, state_id, default_pack_id, default_pack,
		        validity_hours, COALESCE(file_name, ''), COALESCE(device_ids, ''), created_at
		 FROM demo_users WHERE mobile_number = $1`, mobile,
	).Scan(&u.ID, &u.MobileNumber, &u.StateID, &u.DefaultPackID, &u.DefaultPack,
		&u.ValidityHours, &u.FileName, &u.DeviceIDs, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("GetDemoUser: %w", err)
	}
	return &u, nil
}

func (p *Postgres) CreateDemoUser(ctx context.Context, u *models.DemoUser) error {
	err := p.pool.QueryRow(ctx,
		`INSERT INTO demo_users (mobile_number, state_id, default_pack_id, default_pack,
		                         validity_hours, file_name, device_ids, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		u.MobileNumber, u.StateID, u.DefaultPackID, u.DefaultPack,
		u.ValidityHours, u.FileName, u.DeviceIDs, u.CreatedAt,
	).Scan(&u.ID)
	if err != nil {
		return fmt.Errorf("CreateDemoUser: %w", err)
	}
	return nil
}

func (p *Postgres) UpdateDemoUserDevices(ctx context.Context, mobile, deviceIDs string) error {
	tag, err := p.pool.Exec(ctx,
		`UPDATE demo_users SET device_ids = $1 WHERE mobile_number = $2`,
		deviceIDs, mobile,
	)
	if err != nil {
		return fmt.Errorf("UpdateDemoUserDevices: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) RenewDemoUser(ctx context.Context, mobile string, validityHours int, createdAt time.Time) error {
	tag, err := p.pool.Exec(ctx,
		`UPDATE demo_users SET validity_hours = $1, created_at = $2 WHERE mobile_number = $3`,
		validityHours, createdAt, mobile,
	)
	if err != nil {
		return fmt.Errorf("RenewDemoUser: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) DeleteDemoUser(ctx context.Context, mobile string) error {
	tag, err := p.pool.Exec(ctx,
		`DELETE FROM demo_users WHERE mobile_number = $1`, mobile,
	)
	if err != nil {
		return fmt.Errorf("DeleteDemoUser: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) GetPartnerPackage(ctx context.Context, code string) (*models.PartnerPackage, error) {
	var pkg models.PartnerPackage
	err := p.pool.QueryRow(ctx,
		`SELECT id, partner_id, partner_code, package_name,
		        COALESCE(file_name, ''), COALESCE(device_ids, '')
		 FROM partner_packages WHERE partner_code = $1
		 ORDER BY id LIMIT 1`, code,
	).Scan(&pkg.ID, &pkg.PartnerID, &pkg.PartnerCode, &pkg.PackageName, &pkg.FileName, &pkg.DeviceIDs)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("GetPartnerPackage: %w", err)
	}
	return &pkg, nil
}

func (p *Postgres) UpdatePartnerDevices(ctx context.Context, code, deviceIDs string) error {
	tag, err := p.pool.Exec(ctx,
		`UPDATE partner_packages SET device_ids = $1 WHERE partner_code = $2`,
		deviceIDs, code,
	)
	if err != nil {
		return fmt.Errorf("UpdatePartnerDevices: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) ListScrollingMessages(ctx context.Context) ([]models.ScrollingMessage, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, scrolling_name, script, time_schedule FROM scrolling_messages ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("ListScrollingMessages: %w", err)
	}
	defer rows.Close()

	var msgs []models.ScrollingMessage
	for rows.Next() {
		var m models.ScrollingMessage
		var schedule []byte
		if err := rows.Scan(&m.ID, &m.ScrollingName, &m.Script, &schedule); err != nil {
			return nil, fmt.Errorf("ListScrollingMessages scan: %w", err)
		}
		// Legacy rows may hold a bare timestamp instead of a JSON array.
		if err := json.Unmarshal(schedule, &m.TimeSchedule); err != nil {
			m.TimeSchedule = []string{string(schedule)}
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListScrollingMessages rows: %w", err)
	}
	return msgs, nil
}
