// Package capability defines the request/response contracts between the
// agent core and its external collaborators: auth, the domain directory,
// content fetching, AI analysis, draft prettification, and the fact store.
//
// Adapter failures are reported in-band through the Status field of each
// response; the Go error returns are reserved for transport and
// programmer errors. Status comparison is case-sensitive per adapter:
// every capability reports "success" except prettify, which reports
// "SUCCESS".
package capability

import (
	"context"

	"github.com/knowbase/knowbase/internal/kb"
)

// Status sentinels.
const (
	StatusSuccess = "success"
	StatusEmpty   = "empty"
	StatusError   = "error"

	// StatusPrettifyOK is the prettify capability's success sentinel.
	StatusPrettifyOK = "SUCCESS"
)

// AuthRequest asks to authenticate (or register) a user by name.
type AuthRequest struct {
	Username string `json:"username"`
}

// AuthData is the successful auth payload.
type AuthData struct {
	UserID    string `json:"user_id"`
	IsNewUser bool   `json:"is_new_user"`
}

// AuthResponse is the auth capability response.
type AuthResponse struct {
	Status string    `json:"status"`
	Data   *AuthData `json:"data,omitempty"`
	Error  string    `json:"error,omitempty"`
}

// Authenticator resolves a display name to a user record.
type Authenticator interface {
	Auth(ctx context.Context, req AuthRequest) (AuthResponse, error)
}

// NameRequest asks to extract a person's name from free text.
type NameRequest struct {
	UserInput string `json:"user_input"`
}

// NameResponse reports whether a name was detected.
type NameResponse struct {
	Status      string  `json:"status"`
	Detected    bool    `json:"detected"`
	Name        string  `json:"name,omitempty"`
	Confidence  float64 `json:"confidence,omitempty"`
	ErrorDetail string  `json:"error_detail,omitempty"`
}

// NameExtractor pulls a user's name out of an introduction message.
type NameExtractor interface {
	ExtractName(ctx context.Context, req NameRequest) (NameResponse, error)
}

// FetchDomainsRequest lists a user's knowledge domains.
type FetchDomainsRequest struct {
	UserID       string          `json:"user_id"`
	StatusFilter kb.StatusFilter `json:"status_filter"`
	ViewMode     kb.ViewMode     `json:"view_mode"`
}

// FetchDomainsResponse carries the matching domains. Status is "empty"
// (not an error) when the user has no matching domains.
type FetchDomainsResponse struct {
	Status string      `json:"status"`
	Data   []kb.Domain `json:"data"`
	Error  string      `json:"error,omitempty"`
}

// ToggleDomainRequest flips a domain between active and inactive.
type ToggleDomainRequest struct {
	UserID   string `json:"user_id"`
	DomainID string `json:"domain_id"`
}

// ToggleDomainData reports the status transition.
type ToggleDomainData struct {
	DomainID       string `json:"domain_id"`
	PreviousStatus string `json:"previous_status"`
	NewStatus      string `json:"new_status"`
}

// ToggleDomainResponse is the toggle capability response.
type ToggleDomainResponse struct {
	Status string            `json:"status"`
	Data   *ToggleDomainData `json:"data,omitempty"`
	Error  string            `json:"error,omitempty"`
}

// SnapshotRequest asks for a summary of one domain's stored facts.
type SnapshotRequest struct {
	UserID   string `json:"user_id"`
	DomainID string `json:"domain_id"`
}

// SnapshotMeta describes the underlying fact set.
type SnapshotMeta struct {
	FactCount       int `json:"fact_count"`
	TotalCharLength int `json:"total_char_length"`
	SourceCount     int `json:"source_count"`
}

// SnapshotData is the generated summary.
type SnapshotData struct {
	DomainID        string       `json:"domain_id"`
	DomainName      string       `json:"domain_name"`
	SuperSummary    string       `json:"super_summary"`
	ExtendedSummary string       `json:"extended_summary"`
	MetaInfo        SnapshotMeta `json:"meta_info"`
}

// SnapshotResponse is the snapshot capability response.
type SnapshotResponse struct {
	Status string        `json:"status"`
	Data   *SnapshotData `json:"data,omitempty"`
	Error  string        `json:"error,omitempty"`
}

// ExportRequest asks for a downloadable detailed report of a domain.
type ExportRequest struct {
	UserID   string `json:"user_id"`
	DomainID string `json:"domain_id"`
}

// ExportData points at the produced report.
type ExportData struct {
	DomainID      string `json:"domain_id"`
	DownloadURL   string `json:"download_url"`
	FileSizeBytes int64  `json:"file_size_bytes"`
	FileFormat    string `json:"file_format"`
}

// ExportResponse is the export capability response.
type ExportResponse struct {
	Status string      `json:"status"`
	Data   *ExportData `json:"data,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// DomainDirectory groups the domain read/write operations the router
// and the intake pipeline call.
type DomainDirectory interface {
	FetchDomains(ctx context.Context, req FetchDomainsRequest) (FetchDomainsResponse, error)
	ToggleDomain(ctx context.Context, req ToggleDomainRequest) (ToggleDomainResponse, error)
	GenerateSnapshot(ctx context.Context, req SnapshotRequest) (SnapshotResponse, error)
	ExportSnapshot(ctx context.Context, req ExportRequest) (ExportResponse, error)
}

// RelevanceRequest scores content against one domain.
type RelevanceRequest struct {
	ContentText       string   `json:"content_text"`
	DomainName        string   `json:"domain_name"`
	DomainDescription string   `json:"domain_description"`
	DomainKeywords    []string `json:"domain_keywords"`
}

// RelevanceResponse carries the 0–1 score and the model's reasoning.
type RelevanceResponse struct {
	Status         string  `json:"status"`
	RelevanceScore float64 `json:"relevance_score"`
	Reasoning      string  `json:"reasoning"`
	ErrorDetail    string  `json:"error_detail,omitempty"`
}

// RelevanceScorer decides how relevant fetched content is to a domain.
type RelevanceScorer interface {
	ScoreRelevance(ctx context.Context, req RelevanceRequest) (RelevanceResponse, error)
}

// ExtractFactsRequest asks for atomic facts relevant to a domain.
type ExtractFactsRequest struct {
	ContentText            string   `json:"content_text"`
	DomainName             string   `json:"domain_name"`
	DomainDescription      string   `json:"domain_description"`
	DomainKeywords         []string `json:"domain_keywords"`
	RelevanceJustification string   `json:"relevance_justification"`
}

// ExtractedFact is one fact produced by the extraction capability.
type ExtractedFact struct {
	FactID        string `json:"fact_id"`
	Content       string `json:"content"`
	Justification string `json:"justification"`
}

// ExtractFactsResponse lists the extracted facts.
type ExtractFactsResponse struct {
	Status         string          `json:"status"`
	Facts          []ExtractedFact `json:"facts"`
	ExtractedCount int             `json:"extracted_count"`
	ErrorDetail    string          `json:"error_detail,omitempty"`
}

// FactExtractor produces candidate facts from content.
type FactExtractor interface {
	ExtractFacts(ctx context.Context, req ExtractFactsRequest) (ExtractFactsResponse, error)
}

// PrettifyRequest turns a raw free-text description into a draft.
type PrettifyRequest struct {
	RawInputText string `json:"raw_input_text"`
}

// PrettifyData is the structured draft content.
type PrettifyData struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
}

// PrettifyResponse reports "SUCCESS" (upper case) when it worked.
type PrettifyResponse struct {
	Status       string        `json:"status"`
	Data         *PrettifyData `json:"data,omitempty"`
	ErrorDetails string        `json:"error_details,omitempty"`
}

// Prettifier structures a raw domain description.
type Prettifier interface {
	PrettifyDomain(ctx context.Context, req PrettifyRequest) (PrettifyResponse, error)
}

// FetchResponse is the common shape of all content fetch results.
// Exactly one of the metadata fields is meaningful per fetch kind.
type FetchResponse struct {
	Status      string `json:"status"`
	Content     string `json:"content"`
	PageTitle   string `json:"page_title,omitempty"`
	PageCount   int    `json:"page_count,omitempty"`
	VideoTitle  string `json:"video_title,omitempty"`
	ErrorDetail string `json:"error_detail,omitempty"`
}

// ContentFetcher retrieves text from a URL in one of three formats.
type ContentFetcher interface {
	FetchPage(ctx context.Context, url string) (FetchResponse, error)
	FetchPDF(ctx context.Context, url string) (FetchResponse, error)
	FetchTranscript(ctx context.Context, url string) (FetchResponse, error)
}

// SaveFactRequest persists one selected fact.
type SaveFactRequest struct {
	FactText  string `json:"fact_text"`
	SourceURL string `json:"source_url"`
	UserID    string `json:"user_id"`
	DomainID  string `json:"domain_id"`
}

// SaveFactData identifies the stored record.
type SaveFactData struct {
	MemoryID string `json:"memory_id"`
}

// SaveFactResponse is the fact store response.
type SaveFactResponse struct {
	Status string        `json:"status"`
	Data   *SaveFactData `json:"data,omitempty"`
	Error  string        `json:"error,omitempty"`
}

// FactSaver persists user-selected facts.
type FactSaver interface {
	SaveFact(ctx context.Context, req SaveFactRequest) (SaveFactResponse, error)
}

// DraftPersister writes a confirmed domain draft to durable storage.
// The lifecycle machine only calls it when persistence is enabled for
// the deployment; a returned error maps to WRITE_ERROR.
type DraftPersister interface {
	PersistDraft(ctx context.Context, userID string, draft kb.Draft) error
}
