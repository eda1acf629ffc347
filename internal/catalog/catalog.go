// Package catalog provides the persistent product catalog store.
//
// The store wraps a shared pgx connection pool that is opened once at
// process start and injected into every consumer, so the import worker
// and the HTTP API reuse the same long-lived connections. The package
// exposes two write surfaces: single-row CRUD used by the API, and the
// batched last-write-wins upsert used by the import pipeline.
package catalog

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// ErrNotFound is returned when a product or webhook does not exist.
var ErrNotFound = errors.New("not found")

// StoreError wraps a failed catalog write. The import orchestrator
// converts it into a failed job status instead of crashing the worker.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("StoreError: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Product is a catalog entry. SKU is unique case-insensitively.
type Product struct {
	ID          uuid.UUID      `json:"id"`
	SKU         string         `json:"sku"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Price       pgtype.Numeric `json:"price"`
	Active      bool           `json:"active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// ProductRecord is the normalized unit consumed by the batch upsert.
// Price carries Valid=false for an absent or unparseable value, which
// persists as NULL.
type ProductRecord struct {
	SKU         string
	Name        string
	Description string
	Price       pgtype.Numeric
	Active      bool
}

// ProductFilter narrows ListProducts results. String fields are
// substring matches (case-insensitive); a nil Active matches both.
type ProductFilter struct {
	SKU         string
	Name        string
	Description string
	Active      *bool
}

// Webhook is a registered outbound notification endpoint.
type Webhook struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	Events    []string  `json:"events"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}
