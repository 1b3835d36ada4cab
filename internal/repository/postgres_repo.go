package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/prakasadw/billsync-backend/internal/model"
	"github.com/shopspring/decimal"
)

type DBConfig struct {
	Host string
	Port string
	User string
	Pass string
	Name string
}

type PostgresRepo struct {
	DB *sql.DB
}

func NewPostgresRepoFromConfig(cfg *DBConfig) (*PostgresRepo, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Pass, cfg.Name)
	if env := os.Getenv("DATABASE_URL"); env != "" {
		dsn = env
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return &PostgresRepo{DB: db}, nil
}

func NewPostgresRepoFromDB(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{DB: db}
}

func (r *PostgresRepo) RunMigrations(ctx context.Context) error {
	queries := []string{
		`CREATE EXTENSION IF NOT EXISTS "pgcrypto";`,
		`CREATE TABLE IF NOT EXISTS admins (
            id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            username VARCHAR(100) UNIQUE NOT NULL,
            password_hash TEXT NOT NULL,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT now()
        );`,
		`CREATE TABLE IF NOT EXISTS customer_sales (
            id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            org_id TEXT NOT NULL,
            source_id TEXT,
            customer_id TEXT,
            project_id TEXT,
            description TEXT,
            quantity NUMERIC(12,2) NOT NULL DEFAULT 0,
            unit_price NUMERIC(12,2) NOT NULL DEFAULT 0,
            total_price NUMERIC(12,2) NOT NULL DEFAULT 0,
            sale_date DATE NOT NULL,
            invoice_id TEXT,
            synced_at TIMESTAMP WITH TIME ZONE,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT now(),
            updated_at TIMESTAMP WITH TIME ZONE DEFAULT now(),
            UNIQUE (org_id, source_id)
        );`,
		`CREATE TABLE IF NOT EXISTS sync_runs (
            id UUID PRIMARY KEY,
            org_id TEXT NOT NULL,
            run_type TEXT NOT NULL,
            mode TEXT NOT NULL,
            range_start DATE NOT NULL,
            range_end DATE NOT NULL,
            status TEXT NOT NULL,
            created_count INT NOT NULL DEFAULT 0,
            updated_count INT NOT NULL DEFAULT 0,
            deleted_count INT NOT NULL DEFAULT 0,
            error_count INT NOT NULL DEFAULT 0,
            duration_ms BIGINT NOT NULL DEFAULT 0,
            details JSONB,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT now()
        );`,
	}
	for _, q := range queries {
		if _, err := r.DB.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

// ADMINS

func (r *PostgresRepo) GetAdminByUsername(ctx context.Context, username string) (*model.Admin, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at
         FROM admins WHERE username = $1 LIMIT 1`, username)

	var a model.Admin
	if err := row.Scan(&a.ID, &a.Username, &a.PasswordHash, &a.CreatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *PostgresRepo) UpsertAdmin(ctx context.Context, username, passwordHash string) error {
	_, err := r.DB.ExecContext(ctx, `
        INSERT INTO admins (username, password_hash) VALUES ($1,$2)
        ON CONFLICT (username) DO UPDATE SET password_hash = $2
    `, username, passwordHash)
	return err
}

// CUSTOMER SALES

// QuerySalesRange returns every sale of the org with sale_date inside the
// inclusive range, ordered by date then source id.
func (r *PostgresRepo) QuerySalesRange(ctx context.Context, orgID string, start, end time.Time) ([]model.SaleRecord, error) {
	q := `
        SELECT id, org_id, source_id, customer_id, project_id, description,
               quantity, unit_price, total_price, sale_date,
               invoice_id, synced_at, created_at, updated_at
        FROM customer_sales
        WHERE org_id = $1 AND sale_date BETWEEN $2 AND $3
        ORDER BY sale_date, source_id
    `
	rows, err := r.DB.QueryContext(ctx, q, orgID, start.Format("2006-01-02"), end.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.SaleRecord{}
	for rows.Next() {
		var s model.SaleRecord
		var (
			sourceID, customerID, projectID, description, invoiceID sql.NullString
			quantity, unitPrice, totalPrice                         string
			syncedAt                                                sql.NullTime
		)
		if err := rows.Scan(
			&s.ID, &s.OrgID, &sourceID, &customerID, &projectID, &description,
			&quantity, &unitPrice, &totalPrice, &s.SaleDate,
			&invoiceID, &syncedAt, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, err
		}

		if sourceID.Valid {
			v := sourceID.String
			s.SourceID = &v
		}
		s.CustomerID = customerID.String
		s.ProjectID = projectID.String
		s.Description = description.String
		if invoiceID.Valid {
			v := invoiceID.String
			s.InvoiceID = &v
		}
		if syncedAt.Valid {
			v := syncedAt.Time
			s.SyncedAt = &v
		}

		if s.Quantity, err = decimal.NewFromString(quantity); err != nil {
			return nil, fmt.Errorf("bad quantity for sale %s: %w", s.ID, err)
		}
		if s.UnitPrice, err = decimal.NewFromString(unitPrice); err != nil {
			return nil, fmt.Errorf("bad unit_price for sale %s: %w", s.ID, err)
		}
		if s.TotalPrice, err = decimal.NewFromString(totalPrice); err != nil {
			return nil, fmt.Errorf("bad total_price for sale %s: %w", s.ID, err)
		}

		out = append(out, s)
	}
	return out, rows.Err()
}

// InsertSale writes a new synced sale. The (org_id, source_id) conflict path
// makes re-applying an already-applied create a no-op refresh instead of an
// error.
func (r *PostgresRepo) InsertSale(ctx context.Context, s *model.SaleRecord) error {
	_, err := r.DB.ExecContext(ctx, `
        INSERT INTO customer_sales (
            org_id, source_id, customer_id, project_id, description,
            quantity, unit_price, total_price, sale_date, synced_at, updated_at
        ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9, now(), now())
        ON CONFLICT (org_id, source_id) DO UPDATE SET
            customer_id = EXCLUDED.customer_id,
            project_id = EXCLUDED.project_id,
            description = EXCLUDED.description,
            quantity = EXCLUDED.quantity,
            unit_price = EXCLUDED.unit_price,
            total_price = EXCLUDED.total_price,
            sale_date = EXCLUDED.sale_date,
            synced_at = now(),
            updated_at = now()
    `,
		s.OrgID, s.SourceID, s.CustomerID, s.ProjectID, s.Description,
		s.Quantity, s.UnitPrice, s.TotalPrice, s.SaleDate.Format("2006-01-02"),
	)
	return err
}

// UpdateSaleFields writes only the changed columns. Invoiced rows are refused
// at the SQL level: zero rows affected comes back as an error so the applier
// records it instead of silently skipping.
func (r *PostgresRepo) UpdateSaleFields(ctx context.Context, id string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}

	cols := make([]string, 0, len(fields))
	for col := range fields {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	q := "UPDATE customer_sales SET "
	args := []interface{}{}
	i := 1
	for _, col := range cols {
		if i > 1 {
			q += ", "
		}
		q += fmt.Sprintf("%s = $%d", col, i)
		args = append(args, fields[col])
		i++
	}
	q += fmt.Sprintf(", synced_at = now(), updated_at = now() WHERE id = $%d AND invoice_id IS NULL", i)
	args = append(args, id)

	res, err := r.DB.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("sale %s not updated (missing or invoiced)", id)
	}
	return nil
}

// DeleteSale removes an orphaned sale. Same guard as updates: invoiced rows
// stay put.
func (r *PostgresRepo) DeleteSale(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx,
		`DELETE FROM customer_sales WHERE id = $1 AND invoice_id IS NULL`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("sale %s not deleted (missing or invoiced)", id)
	}
	return nil
}

// SYNC RUNS

func (r *PostgresRepo) CreateSyncRun(ctx context.Context, run *model.SyncRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	var details interface{}
	if len(run.Details) > 0 {
		details = []byte(run.Details)
	}
	_, err := r.DB.ExecContext(ctx, `
        INSERT INTO sync_runs (
            id, org_id, run_type, mode, range_start, range_end, status,
            created_count, updated_count, deleted_count, error_count,
            duration_ms, details
        ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
    `,
		run.ID, run.OrgID, run.RunType, run.Mode,
		run.RangeStart.Format("2006-01-02"), run.RangeEnd.Format("2006-01-02"),
		run.Status,
		run.CreatedCount, run.UpdatedCount, run.DeletedCount, run.ErrorCount,
		run.DurationMs, details,
	)
	return err
}

func (r *PostgresRepo) GetSyncHistory(ctx context.Context, orgID string, limit int) ([]model.SyncRun, error) {
	if limit <= 0 {
		limit = 20
	}
	q := `
        SELECT id, org_id, run_type, mode, range_start, range_end, status,
               created_count, updated_count, deleted_count, error_count,
               duration_ms, details, created_at
        FROM sync_runs
        WHERE org_id = $1
        ORDER BY created_at DESC
        LIMIT $2
    `
	rows, err := r.DB.QueryContext(ctx, q, orgID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.SyncRun{}
	for rows.Next() {
		var run model.SyncRun
		var details []byte
		if err := rows.Scan(
			&run.ID, &run.OrgID, &run.RunType, &run.Mode,
			&run.RangeStart, &run.RangeEnd, &run.Status,
			&run.CreatedCount, &run.UpdatedCount, &run.DeletedCount, &run.ErrorCount,
			&run.DurationMs, &details, &run.CreatedAt,
		); err != nil {
			return nil, err
		}
		if len(details) > 0 {
			run.Details = json.RawMessage(details)
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

// GetPendingSince returns the time of the earliest review run recorded after
// the last apply, or nil when nothing is pending. This is the persisted
// "drift reviewed, not yet applied" marker.
func (r *PostgresRepo) GetPendingSince(ctx context.Context, orgID string) (*time.Time, error) {
	row := r.DB.QueryRowContext(ctx, `
        SELECT MIN(created_at) FROM sync_runs
        WHERE org_id = $1 AND run_type = 'review'
          AND created_at > COALESCE(
            (SELECT MAX(created_at) FROM sync_runs WHERE org_id = $1 AND run_type = 'apply'),
            'epoch'::timestamptz)
    `, orgID)

	var t sql.NullTime
	if err := row.Scan(&t); err != nil {
		return nil, err
	}
	if !t.Valid {
		return nil, nil
	}
	return &t.Time, nil
}
