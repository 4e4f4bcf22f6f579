package model

import "time"

// Sync metadata keys, one row per synchronized resource class.
const (
	SyncKeyProducts   = "products"
	SyncKeyClients    = "clients"
	SyncKeyOperations = "operations"
)

type SyncMetadata struct {
	Key        string    `db:"key" json:"key"`
	LastSync   time.Time `db:"last_sync" json:"last_sync"`
	InProgress bool      `db:"in_progress" json:"in_progress"`
}
