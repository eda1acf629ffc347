package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store provides access to products and webhooks in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a Store over an existing connection pool.
// The pool's lifecycle is owned by the caller.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const productColumns = "id, sku, name, description, price, active, created_at, updated_at"

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.Description, &p.Price, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// ListProducts returns products matching the filter, most recently
// updated first.
func (s *Store) ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error) {
	var (
		conds []string
		args  []any
	)

	addLike := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, "%"+value+"%")
		conds = append(conds, fmt.Sprintf("%s ILIKE $%d", column, len(args)))
	}

	addLike("sku", filter.SKU)
	addLike("name", filter.Name)
	addLike("description", filter.Description)
	if filter.Active != nil {
		args = append(args, *filter.Active)
		conds = append(conds, fmt.Sprintf("active = $%d", len(args)))
	}

	query := "SELECT " + productColumns + " FROM products"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY updated_at DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := make([]Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("product rows: %w", err)
	}

	return products, nil
}

// GetProduct returns one product by id, or ErrNotFound.
func (s *Store) GetProduct(ctx context.Context, id uuid.UUID) (Product, error) {
	p, err := scanProduct(s.pool.QueryRow(ctx,
		"SELECT "+productColumns+" FROM products WHERE id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	if err != nil {
		return Product{}, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// CreateProduct inserts one product and returns it with server-assigned
// id and timestamps.
func (s *Store) CreateProduct(ctx context.Context, rec ProductRecord) (Product, error) {
	p, err := scanProduct(s.pool.QueryRow(ctx, `
		INSERT INTO products (id, sku, name, description, price, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING `+productColumns,
		uuid.New(), rec.SKU, rec.Name, rec.Description, rec.Price, rec.Active))
	if err != nil {
		return Product{}, fmt.Errorf("create product: %w", err)
	}
	return p, nil
}

// UpdateProduct overwrites all mutable fields of a product.
func (s *Store) UpdateProduct(ctx context.Context, id uuid.UUID, rec ProductRecord) (Product, error) {
	p, err := scanProduct(s.pool.QueryRow(ctx, `
		UPDATE products
		SET sku = $2, name = $3, description = $4, price = $5, active = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING `+productColumns,
		id, rec.SKU, rec.Name, rec.Description, rec.Price, rec.Active))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	if err != nil {
		return Product{}, fmt.Errorf("update product: %w", err)
	}
	return p, nil
}

// DeleteProduct removes one product by id, or returns ErrNotFound.
func (s *Store) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAllProducts removes every product and returns the count removed.
func (s *Store) DeleteAllProducts(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, "DELETE FROM products")
	if err != nil {
		return 0, fmt.Errorf("delete all products: %w", err)
	}
	return tag.RowsAffected(), nil
}

const webhookColumns = "id, name, url, events, active, created_at"

func scanWebhook(row pgx.Row) (Webhook, error) {
	var w Webhook
	err := row.Scan(&w.ID, &w.Name, &w.URL, &w.Events, &w.Active, &w.CreatedAt)
	return w, err
}

// ListWebhooks returns all registered webhooks, newest first.
func (s *Store) ListWebhooks(ctx context.Context) ([]Webhook, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+webhookColumns+" FROM webhooks ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("list webhooks: %w", err)
	}
	defer rows.Close()

	webhooks := make([]Webhook, 0)
	for rows.Next() {
		w, err := scanWebhook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan webhook: %w", err)
		}
		webhooks = append(webhooks, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("webhook rows: %w", err)
	}

	return webhooks, nil
}

// GetWebhook returns one webhook by id, or ErrNotFound.
func (s *Store) GetWebhook(ctx context.Context, id uuid.UUID) (Webhook, error) {
	w, err := scanWebhook(s.pool.QueryRow(ctx,
		"SELECT "+webhookColumns+" FROM webhooks WHERE id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Webhook{}, ErrNotFound
	}
	if err != nil {
		return Webhook{}, fmt.Errorf("get webhook: %w", err)
	}
	return w, nil
}

// CreateWebhook registers a new webhook endpoint.
func (s *Store) CreateWebhook(ctx context.Context, wh Webhook) (Webhook, error) {
	if wh.Events == nil {
		wh.Events = []string{}
	}
	created, err := scanWebhook(s.pool.QueryRow(ctx, `
		INSERT INTO webhooks (id, name, url, events, active, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING `+webhookColumns,
		uuid.New(), wh.Name, wh.URL, wh.Events, wh.Active))
	if err != nil {
		return Webhook{}, fmt.Errorf("create webhook: %w", err)
	}
	return created, nil
}

// UpdateWebhook overwrites a webhook's mutable fields.
func (s *Store) UpdateWebhook(ctx context.Context, id uuid.UUID, wh Webhook) (Webhook, error) {
	if wh.Events == nil {
		wh.Events = []string{}
	}
	updated, err := scanWebhook(s.pool.QueryRow(ctx, `
		UPDATE webhooks
		SET name = $2, url = $3, events = $4, active = $5
		WHERE id = $1
		RETURNING `+webhookColumns,
		id, wh.Name, wh.URL, wh.Events, wh.Active))
	if errors.Is(err, pgx.ErrNoRows) {
		return Webhook{}, ErrNotFound
	}
	if err != nil {
		return Webhook{}, fmt.Errorf("update webhook: %w", err)
	}
	return updated, nil
}

// DeleteWebhook removes one webhook by id, or returns ErrNotFound.
func (s *Store) DeleteWebhook(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM webhooks WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
