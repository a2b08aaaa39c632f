package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knowbase/knowbase/internal/capability"
	"github.com/knowbase/knowbase/internal/kb"
)

// DomainStore implements capability.DomainDirectory and
// capability.DraftPersister over the domains and facts tables.
// Snapshot summaries and exports are derived from the stored facts.
type DomainStore struct {
	db        *DB
	exportDir string
}

var (
	_ capability.DomainDirectory = (*DomainStore)(nil)
	_ capability.DraftPersister  = (*DomainStore)(nil)
)

// NewDomainStore creates the directory adapter. exportDir receives
// generated markdown reports; it is created on demand.
func NewDomainStore(db *DB, exportDir string) *DomainStore {
	return &DomainStore{db: db, exportDir: exportDir}
}

// FetchDomains lists a user's domains with status filtering and the
// requested level of detail. Status "empty" is a legitimate outcome,
// not an error.
func (d *DomainStore) FetchDomains(ctx context.Context, req capability.FetchDomainsRequest) (capability.FetchDomainsResponse, error) {
	query := `SELECT id, name, status, description, keywords FROM domains WHERE user_id = ?`
	args := []any{req.UserID}
	switch req.StatusFilter {
	case kb.FilterActive:
		query += ` AND status = 'active'`
	case kb.FilterInactive:
		query += ` AND status = 'inactive'`
	case kb.FilterAll, "":
		// no extra constraint
	default:
		return capability.FetchDomainsResponse{Status: capability.StatusError, Error: "INVALID_STATUS_FILTER"}, nil
	}
	query += ` ORDER BY created_at`

	rows, err := d.db.sql.QueryContext(ctx, query, args...)
	if err != nil {
		return capability.FetchDomainsResponse{Status: capability.StatusError, Error: "STORE_UNAVAILABLE: " + err.Error()}, nil
	}
	defer rows.Close()

	var domains []kb.Domain
	for rows.Next() {
		var dom kb.Domain
		var keywordsJSON string
		if err := rows.Scan(&dom.DomainID, &dom.Name, &dom.Status, &dom.Description, &keywordsJSON); err != nil {
			return capability.FetchDomainsResponse{Status: capability.StatusError, Error: "STORE_UNAVAILABLE: " + err.Error()}, nil
		}
		if req.ViewMode == kb.ViewDetailed {
			_ = json.Unmarshal([]byte(keywordsJSON), &dom.Keywords)
		} else {
			dom.Description = ""
			dom.Keywords = nil
		}
		domains = append(domains, dom)
	}
	if err := rows.Err(); err != nil {
		return capability.FetchDomainsResponse{Status: capability.StatusError, Error: "STORE_UNAVAILABLE: " + err.Error()}, nil
	}

	if len(domains) == 0 {
		return capability.FetchDomainsResponse{Status: capability.StatusEmpty}, nil
	}
	return capability.FetchDomainsResponse{Status: capability.StatusSuccess, Data: domains}, nil
}

// ToggleDomain flips a domain between active and inactive after an
// ownership check.
func (d *DomainStore) ToggleDomain(ctx context.Context, req capability.ToggleDomainRequest) (capability.ToggleDomainResponse, error) {
	var ownerID, status string
	err := d.db.sql.QueryRowContext(ctx,
		`SELECT user_id, status FROM domains WHERE id = ?`, req.DomainID,
	).Scan(&ownerID, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return capability.ToggleDomainResponse{Status: capability.StatusError, Error: "DOMAIN_NOT_FOUND"}, nil
	}
	if err != nil {
		return capability.ToggleDomainResponse{Status: capability.StatusError, Error: "STORE_UNAVAILABLE: " + err.Error()}, nil
	}
	if ownerID != req.UserID {
		return capability.ToggleDomainResponse{Status: capability.StatusError, Error: "PERMISSION_DENIED"}, nil
	}

	newStatus := string(kb.DomainActive)
	if status == string(kb.DomainActive) {
		newStatus = string(kb.DomainInactive)
	}
	if _, err := d.db.sql.ExecContext(ctx,
		`UPDATE domains SET status = ?, updated_at = datetime('now') WHERE id = ?`,
		newStatus, req.DomainID,
	); err != nil {
		return capability.ToggleDomainResponse{Status: capability.StatusError, Error: "STORE_UNAVAILABLE: " + err.Error()}, nil
	}

	return capability.ToggleDomainResponse{
		Status: capability.StatusSuccess,
		Data: &capability.ToggleDomainData{
			DomainID:       req.DomainID,
			PreviousStatus: status,
			NewStatus:      newStatus,
		},
	}, nil
}

// GenerateSnapshot summarizes one domain from its stored facts.
func (d *DomainStore) GenerateSnapshot(ctx context.Context, req capability.SnapshotRequest) (capability.SnapshotResponse, error) {
	name, err := d.domainName(ctx, req.DomainID)
	if err != nil {
		return capability.SnapshotResponse{Status: capability.StatusError, Error: err.Error()}, nil
	}

	var meta capability.SnapshotMeta
	err = d.db.sql.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(LENGTH(fact_text)), 0), COUNT(DISTINCT source_url)
		 FROM facts WHERE domain_id = ? AND user_id = ?`,
		req.DomainID, req.UserID,
	).Scan(&meta.FactCount, &meta.TotalCharLength, &meta.SourceCount)
	if err != nil {
		return capability.SnapshotResponse{Status: capability.StatusError, Error: "STORE_UNAVAILABLE: " + err.Error()}, nil
	}

	recent, err := d.recentFacts(ctx, req.UserID, req.DomainID, 3)
	if err != nil {
		return capability.SnapshotResponse{Status: capability.StatusError, Error: "STORE_UNAVAILABLE: " + err.Error()}, nil
	}

	super := fmt.Sprintf("%s: %d facts from %d sources.", name, meta.FactCount, meta.SourceCount)
	extended := super
	if len(recent) > 0 {
		extended = super + " Latest: " + strings.Join(recent, " | ")
	}

	return capability.SnapshotResponse{
		Status: capability.StatusSuccess,
		Data: &capability.SnapshotData{
			DomainID:        req.DomainID,
			DomainName:      name,
			SuperSummary:    super,
			ExtendedSummary: extended,
			MetaInfo:        meta,
		},
	}, nil
}

// ExportSnapshot writes a markdown report of the domain's facts to the
// export directory and returns its location.
func (d *DomainStore) ExportSnapshot(ctx context.Context, req capability.ExportRequest) (capability.ExportResponse, error) {
	name, err := d.domainName(ctx, req.DomainID)
	if err != nil {
		return capability.ExportResponse{Status: capability.StatusError, Error: err.Error()}, nil
	}

	rows, err := d.db.sql.QueryContext(ctx,
		`SELECT fact_text, source_url FROM facts
		 WHERE domain_id = ? AND user_id = ? ORDER BY created_at`,
		req.DomainID, req.UserID,
	)
	if err != nil {
		return capability.ExportResponse{Status: capability.StatusError, Error: "STORE_UNAVAILABLE: " + err.Error()}, nil
	}
	defer rows.Close()

	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", name)
	for rows.Next() {
		var text, source string
		if err := rows.Scan(&text, &source); err != nil {
			return capability.ExportResponse{Status: capability.StatusError, Error: "STORE_UNAVAILABLE: " + err.Error()}, nil
		}
		fmt.Fprintf(&sb, "- %s\n", text)
		if source != "" {
			fmt.Fprintf(&sb, "  - source: %s\n", source)
		}
	}
	if err := rows.Err(); err != nil {
		return capability.ExportResponse{Status: capability.StatusError, Error: "STORE_UNAVAILABLE: " + err.Error()}, nil
	}

	if err := os.MkdirAll(d.exportDir, 0o700); err != nil {
		return capability.ExportResponse{Status: capability.StatusError, Error: "EXPORT_WRITE_FAILED: " + err.Error()}, nil
	}
	path := filepath.Join(d.exportDir, fmt.Sprintf("domain_%s.md", req.DomainID))
	content := sb.String()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return capability.ExportResponse{Status: capability.StatusError, Error: "EXPORT_WRITE_FAILED: " + err.Error()}, nil
	}

	return capability.ExportResponse{
		Status: capability.StatusSuccess,
		Data: &capability.ExportData{
			DomainID:      req.DomainID,
			DownloadURL:   "file://" + path,
			FileSizeBytes: int64(len(content)),
			FileFormat:    "markdown",
		},
	}, nil
}

// PersistDraft writes a confirmed draft as an active domain. An id
// collision with another user's domain is rejected.
func (d *DomainStore) PersistDraft(ctx context.Context, userID string, draft kb.Draft) error {
	keywords, err := json.Marshal(draft.Keywords)
	if err != nil {
		return fmt.Errorf("encoding keywords: %w", err)
	}

	var ownerID string
	err = d.db.sql.QueryRowContext(ctx,
		`SELECT user_id FROM domains WHERE id = ?`, draft.DomainID,
	).Scan(&ownerID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = d.db.sql.ExecContext(ctx,
			`INSERT INTO domains (id, user_id, name, status, description, keywords)
			 VALUES (?, ?, ?, 'active', ?, ?)`,
			draft.DomainID, userID, draft.Name, draft.Description, string(keywords),
		)
	case err != nil:
		return fmt.Errorf("checking domain: %w", err)
	case ownerID != userID:
		return fmt.Errorf("domain %s belongs to another user", draft.DomainID)
	default:
		_, err = d.db.sql.ExecContext(ctx,
			`UPDATE domains SET name = ?, description = ?, keywords = ?, updated_at = datetime('now')
			 WHERE id = ?`,
			draft.Name, draft.Description, string(keywords), draft.DomainID,
		)
	}
	if err != nil {
		return fmt.Errorf("persisting domain: %w", err)
	}
	return nil
}

func (d *DomainStore) domainName(ctx context.Context, domainID string) (string, error) {
	var name string
	err := d.db.sql.QueryRowContext(ctx,
		`SELECT name FROM domains WHERE id = ?`, domainID,
	).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", errors.New("DOMAIN_NOT_FOUND")
	}
	if err != nil {
		return "", fmt.Errorf("STORE_UNAVAILABLE: %w", err)
	}
	return name, nil
}

func (d *DomainStore) recentFacts(ctx context.Context, userID, domainID string, limit int) ([]string, error) {
	rows, err := d.db.sql.QueryContext(ctx,
		`SELECT fact_text FROM facts
		 WHERE domain_id = ? AND user_id = ?
		 ORDER BY created_at DESC LIMIT ?`,
		domainID, userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var facts []string
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, err
		}
		facts = append(facts, text)
	}
	return facts, rows.Err()
}
