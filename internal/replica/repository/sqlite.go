package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/charcosud/inventory-agent/internal/apperr"
	"github.com/charcosud/inventory-agent/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS products (
    id             TEXT PRIMARY KEY,
    sku            TEXT NOT NULL UNIQUE,
    name           TEXT NOT NULL,
    supplier       TEXT NOT NULL DEFAULT '',
    unit           TEXT NOT NULL DEFAULT 'kg',
    cost_per_unit  TEXT NOT NULL,
    price_per_unit TEXT NOT NULL,
    current_stock  TEXT NOT NULL,
    min_stock      TEXT NOT NULL,
    is_active      INTEGER NOT NULL DEFAULT 1,
    created_at     TIMESTAMP NOT NULL,
    updated_at     TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS clients (
    id            TEXT PRIMARY KEY,
    name          TEXT NOT NULL,
    tax_id        TEXT NOT NULL UNIQUE,
    address       TEXT NOT NULL DEFAULT '',
    commune       TEXT NOT NULL DEFAULT '',
    contact_name  TEXT NOT NULL DEFAULT '',
    contact_phone TEXT NOT NULL DEFAULT '',
    email         TEXT,
    is_active     INTEGER NOT NULL DEFAULT 1,
    created_at    TIMESTAMP NOT NULL,
    updated_at    TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS pending_operations (
    id          TEXT PRIMARY KEY,
    kind        TEXT NOT NULL,
    status      TEXT NOT NULL,
    payload     TEXT NOT NULL,
    actor_id    TEXT,
    retry_count INTEGER NOT NULL DEFAULT 0,
    last_error  TEXT,
    created_at  TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_pending_operations_created_at ON pending_operations (created_at);
CREATE INDEX IF NOT EXISTS idx_pending_operations_status ON pending_operations (status);

CREATE TABLE IF NOT EXISTS sync_metadata (
    key         TEXT PRIMARY KEY,
    last_sync   TIMESTAMP NOT NULL,
    in_progress INTEGER NOT NULL DEFAULT 0
);
`

// Open opens (creating if needed) the agent's SQLite database at path.
// Use ":memory:" for tests.
func Open(path string) (*sqlx.DB, error) {
	dsn := path + "?_busy_timeout=5000&_journal_mode=WAL"
	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// A single connection serializes all replica access, matching the
	// single-writer model and avoiding SQLITE_BUSY on :memory: databases.
	db.SetMaxOpenConns(1)
	return db, nil
}

type SQLiteRepository struct {
	DB *sqlx.DB
}

func NewSQLiteRepository(db *sqlx.DB) (*SQLiteRepository, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("initialize replica schema: %w", err)
	}
	return &SQLiteRepository{DB: db}, nil
}

// ===== Products =====

func (r *SQLiteRepository) UpsertProducts(ctx context.Context, products []model.Product) error {
	if len(products) == 0 {
		return nil
	}
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
        INSERT INTO products (
            id, sku, name, supplier, unit, cost_per_unit, price_per_unit,
            current_stock, min_stock, is_active, created_at, updated_at
        )
        VALUES (
            :id, :sku, :name, :supplier, :unit, :cost_per_unit, :price_per_unit,
            :current_stock, :min_stock, :is_active, :created_at, :updated_at
        )
        ON CONFLICT (id) DO UPDATE SET
            sku = excluded.sku,
            name = excluded.name,
            supplier = excluded.supplier,
            unit = excluded.unit,
            cost_per_unit = excluded.cost_per_unit,
            price_per_unit = excluded.price_per_unit,
            current_stock = excluded.current_stock,
            min_stock = excluded.min_stock,
            is_active = excluded.is_active,
            updated_at = excluded.updated_at
    `
	for i := range products {
		if _, err := tx.NamedExecContext(ctx, query, &products[i]); err != nil {
			return fmt.Errorf("upsert product %s: %w", products[i].ID, err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRepository) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	var p model.Product
	err := r.DB.GetContext(ctx, &p, `SELECT * FROM products WHERE id = $1 LIMIT 1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *SQLiteRepository) ListProducts(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := r.DB.SelectContext(ctx, &products, `SELECT * FROM products`)
	return products, err
}

func (r *SQLiteRepository) AdjustStock(ctx context.Context, productID string, newStock decimal.Decimal) error {
	res, err := r.DB.ExecContext(ctx, `
        UPDATE products SET current_stock = $1, updated_at = $2 WHERE id = $3
    `, newStock, time.Now().UTC(), productID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperr.NotFound("product %s not cached locally", productID)
	}
	return nil
}

// ===== Clients =====

func (r *SQLiteRepository) UpsertClients(ctx context.Context, clients []model.Client) error {
	if len(clients) == 0 {
		return nil
	}
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
        INSERT INTO clients (
            id, name, tax_id, address, commune, contact_name, contact_phone,
            email, is_active, created_at, updated_at
        )
        VALUES (
            :id, :name, :tax_id, :address, :commune, :contact_name, :contact_phone,
            :email, :is_active, :created_at, :updated_at
        )
        ON CONFLICT (id) DO UPDATE SET
            name = excluded.name,
            tax_id = excluded.tax_id,
            address = excluded.address,
            commune = excluded.commune,
            contact_name = excluded.contact_name,
            contact_phone = excluded.contact_phone,
            email = excluded.email,
            is_active = excluded.is_active,
            updated_at = excluded.updated_at
    `
	for i := range clients {
		if _, err := tx.NamedExecContext(ctx, query, &clients[i]); err != nil {
			return fmt.Errorf("upsert client %s: %w", clients[i].ID, err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRepository) GetClient(ctx context.Context, id string) (*model.Client, error) {
	var c model.Client
	err := r.DB.GetContext(ctx, &c, `SELECT * FROM clients WHERE id = $1 LIMIT 1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *SQLiteRepository) ListClients(ctx context.Context) ([]model.Client, error) {
	var clients []model.Client
	err := r.DB.SelectContext(ctx, &clients, `SELECT * FROM clients`)
	return clients, err
}

// ===== Pending operation queue =====

func (r *SQLiteRepository) Enqueue(ctx context.Context, op *model.PendingOperation) (string, error) {
	_, err := r.DB.NamedExecContext(ctx, `
        INSERT INTO pending_operations (
            id, kind, status, payload, actor_id, retry_count, last_error, created_at
        )
        VALUES (
            :id, :kind, :status, :payload, :actor_id, :retry_count, :last_error, :created_at
        )
    `, op)
	if err != nil {
		return "", fmt.Errorf("enqueue %s operation: %w", op.Kind, err)
	}
	return op.ID, nil
}

func (r *SQLiteRepository) ListOpsByStatus(ctx context.Context, status model.OperationStatus) ([]model.PendingOperation, error) {
	var ops []model.PendingOperation
	err := r.DB.SelectContext(ctx, &ops, `
        SELECT * FROM pending_operations WHERE status = $1 ORDER BY created_at ASC
    `, status)
	return ops, err
}

func (r *SQLiteRepository) ListAllOps(ctx context.Context) ([]model.PendingOperation, error) {
	var ops []model.PendingOperation
	err := r.DB.SelectContext(ctx, &ops, `
        SELECT * FROM pending_operations ORDER BY created_at ASC
    `)
	return ops, err
}

func (r *SQLiteRepository) UpdateOpStatus(ctx context.Context, id string, status model.OperationStatus, errText *string) error {
	// A failed transition also increments the retry counter.
	res, err := r.DB.ExecContext(ctx, `
        UPDATE pending_operations
        SET status = $1,
            last_error = COALESCE($2, last_error),
            retry_count = retry_count + (CASE WHEN $1 = 'failed' THEN 1 ELSE 0 END)
        WHERE id = $3
    `, status, errText, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperr.NotFound("pending operation %s", id)
	}
	return nil
}

func (r *SQLiteRepository) RemoveOp(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM pending_operations WHERE id = $1`, id)
	return err
}

func (r *SQLiteRepository) PurgeCompleted(ctx context.Context) (int, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM pending_operations WHERE status = $1`, model.OpCompleted)
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	return int(affected), err
}

// ===== Sync metadata =====

func (r *SQLiteRepository) LastSync(ctx context.Context, key string) (time.Time, error) {
	var meta model.SyncMetadata
	err := r.DB.GetContext(ctx, &meta, `SELECT * FROM sync_metadata WHERE key = $1`, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, nil
		}
		return time.Time{}, err
	}
	return meta.LastSync, nil
}

func (r *SQLiteRepository) SetLastSync(ctx context.Context, key string, ts time.Time) error {
	_, err := r.DB.ExecContext(ctx, `
        INSERT INTO sync_metadata (key, last_sync, in_progress) VALUES ($1, $2, 0)
        ON CONFLICT (key) DO UPDATE SET last_sync = excluded.last_sync
    `, key, ts.UTC())
	return err
}

func (r *SQLiteRepository) InProgress(ctx context.Context, key string) (bool, error) {
	var meta model.SyncMetadata
	err := r.DB.GetContext(ctx, &meta, `SELECT * FROM sync_metadata WHERE key = $1`, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return meta.InProgress, nil
}

func (r *SQLiteRepository) SetInProgress(ctx context.Context, key string, inProgress bool) error {
	_, err := r.DB.ExecContext(ctx, `
        INSERT INTO sync_metadata (key, last_sync, in_progress) VALUES ($1, $2, $3)
        ON CONFLICT (key) DO UPDATE SET in_progress = excluded.in_progress
    `, key, time.Time{}, inProgress)
	return err
}
