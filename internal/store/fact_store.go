package store

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/knowbase/knowbase/internal/capability"
)

// FactStore implements capability.FactSaver over the facts table.
type FactStore struct {
	db *DB
}

var _ capability.FactSaver = (*FactStore)(nil)

// NewFactStore creates the fact store adapter.
func NewFactStore(db *DB) *FactStore {
	return &FactStore{db: db}
}

// SaveFact persists one selected fact and returns its memory id.
func (f *FactStore) SaveFact(ctx context.Context, req capability.SaveFactRequest) (capability.SaveFactResponse, error) {
	if req.FactText == "" || req.UserID == "" || req.DomainID == "" {
		return capability.SaveFactResponse{Status: capability.StatusError, Error: "MISSING_REQUIRED_FIELD"}, nil
	}

	memoryID := "mem_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	if _, err := f.db.sql.ExecContext(ctx,
		`INSERT INTO facts (id, user_id, domain_id, fact_text, source_url)
		 VALUES (?, ?, ?, ?, ?)`,
		memoryID, req.UserID, req.DomainID, req.FactText, req.SourceURL,
	); err != nil {
		return capability.SaveFactResponse{Status: capability.StatusError, Error: "MEMORY_WRITE_ERROR: " + err.Error()}, nil
	}

	return capability.SaveFactResponse{
		Status: capability.StatusSuccess,
		Data:   &capability.SaveFactData{MemoryID: memoryID},
	}, nil
}
