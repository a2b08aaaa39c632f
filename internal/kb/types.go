// Package kb defines the core entities of the knowledge-base agent:
// knowledge domains, domain drafts, and candidate facts.
package kb

// DomainStatus is the lifecycle status of a knowledge domain.
type DomainStatus string

const (
	DomainActive   DomainStatus = "active"
	DomainInactive DomainStatus = "inactive"
)

// StatusFilter selects which domains a directory fetch returns.
type StatusFilter string

const (
	FilterAll      StatusFilter = "ALL"
	FilterActive   StatusFilter = "ACTIVE"
	FilterInactive StatusFilter = "INACTIVE"
)

// ViewMode controls how much detail a directory fetch includes.
type ViewMode string

const (
	ViewBrief    ViewMode = "BRIEF"
	ViewDetailed ViewMode = "DETAILED"
)

// Domain is a named knowledge domain owned by a user.
// Description and Keywords are only populated in DETAILED view.
type Domain struct {
	DomainID    string   `json:"domain_id"`
	Name        string   `json:"name"`
	Status      string   `json:"status"`
	Description string   `json:"domain_description,omitempty"`
	Keywords    []string `json:"domain_keywords,omitempty"`
}

// Draft is an unpersisted candidate domain awaiting user confirmation.
type Draft struct {
	DomainID    string   `json:"domain_id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
}

// CandidateFact is a fact extracted from fetched content, awaiting
// user selection. It is never persisted by the core; the caller keeps
// the list across turns until the user confirms a save.
type CandidateFact struct {
	DomainID  string `json:"domain_id"`
	FactID    string `json:"fact_id"`
	Content   string `json:"content"`
	SourceURL string `json:"source_url"`
}

// User is an authenticated user record.
type User struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// URLKind classifies a URL for content fetching.
type URLKind string

const (
	URLPDF      URLKind = "PDF"
	URLYouTube  URLKind = "YOUTUBE"
	URLOrdinary URLKind = "ORDINARY"
)
