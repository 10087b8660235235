package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/anthropics/chemlab-engine/internal/domain"
)

// Fixed inventory slot keys.
const (
	SlotChemicals = "chemicals"
	SlotEquipment = "equipment"
)

// InventoryRepo persists stocked catalog records under fixed string keys.
// Whole lists are replaced on save; there is no per-item addressing.
type InventoryRepo struct{}

// Save replaces the item list stored under key.
func (r *InventoryRepo) Save(ctx context.Context, db *sql.DB, key string, items []domain.CatalogRecord) error {
	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode inventory %q: %w", key, err)
	}

	const q = `INSERT INTO inventory (slot_key, items_json, updated_at)
VALUES (?, ?, ?)
ON CONFLICT(slot_key) DO UPDATE SET items_json = excluded.items_json, updated_at = excluded.updated_at`
	if _, err := db.ExecContext(ctx, q, key, string(payload), time.Now().Unix()); err != nil {
		return fmt.Errorf("save inventory %q: %w", key, err)
	}
	return nil
}

// Load returns the item list stored under key. A missing key yields an
// empty list, not an error.
func (r *InventoryRepo) Load(ctx context.Context, db *sql.DB, key string) ([]domain.CatalogRecord, error) {
	const q = `SELECT items_json FROM inventory WHERE slot_key = ?`

	var payload string
	err := db.QueryRowContext(ctx, q, key).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load inventory %q: %w", key, err)
	}

	var items []domain.CatalogRecord
	if err := json.Unmarshal([]byte(payload), &items); err != nil {
		return nil, fmt.Errorf("decode inventory %q: %w", key, err)
	}
	return items, nil
}
