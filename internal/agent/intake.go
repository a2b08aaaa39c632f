package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/knowbase/knowbase/internal/capability"
	"github.com/knowbase/knowbase/internal/kb"
	"github.com/knowbase/knowbase/internal/logging"
	"github.com/knowbase/knowbase/internal/session"
)

// IntakeConfig carries the intake pipeline's tunables.
type IntakeConfig struct {
	// RelevanceThreshold is the minimum score fetched content must
	// exceed (strictly) against a domain for facts to be extracted.
	RelevanceThreshold float64
}

const defaultRelevanceThreshold = 0.7

// Intake runs the document intake pipeline: classify a URL, fetch its
// content, score it against the user's active domains, extract
// candidate facts, and persist the facts the user later selects.
type Intake struct {
	cfg       IntakeConfig
	fetcher   capability.ContentFetcher
	dirs      capability.DomainDirectory
	relevance capability.RelevanceScorer
	extractor capability.FactExtractor
	saver     capability.FactSaver
	log       *logging.Logger
}

// NewIntake creates a document intake pipeline.
func NewIntake(
	cfg IntakeConfig,
	fetcher capability.ContentFetcher,
	dirs capability.DomainDirectory,
	relevance capability.RelevanceScorer,
	extractor capability.FactExtractor,
	saver capability.FactSaver,
	log *logging.Logger,
) *Intake {
	if cfg.RelevanceThreshold == 0 {
		cfg.RelevanceThreshold = defaultRelevanceThreshold
	}
	return &Intake{
		cfg:       cfg,
		fetcher:   fetcher,
		dirs:      dirs,
		relevance: relevance,
		extractor: extractor,
		saver:     saver,
		log:       log.Sub("agent.intake"),
	}
}

// Handle processes one intake request. Save mode runs when the request
// carries both a fact selection and the candidate payload; otherwise
// the discovery pipeline runs.
func (in *Intake) Handle(ctx context.Context, req IntakeRequest, state session.State) (*IntakeResult, error) {
	if state == nil {
		return nil, ErrStateRequired
	}
	_, endSpan := logging.Span(in.log, "intake", req.SessionID)
	defer endSpan()

	work := state.Clone()
	finalize := func(res *IntakeResult) *IntakeResult {
		if delta := session.Diff(state, work); len(delta) > 0 {
			res.StateDelta = delta
		}
		res.SessionID = req.SessionID
		return res
	}

	userID := work.GetString(session.KeyUserID)
	if userID == "" {
		return finalize(&IntakeResult{
			Status:          StatusIntakeError,
			ErrorDetail:     "user_id_required",
			Reasoning:       "Missing user_id in session state.",
			ResponseMessage: "Please introduce yourself before sharing documents.",
		}), nil
	}

	if len(req.SelectedFactIDs) > 0 && len(req.FactsPayload) > 0 {
		return finalize(in.saveSelected(ctx, req, userID)), nil
	}
	return finalize(in.discover(ctx, req, work, userID)), nil
}

// saveSelected persists the user-selected subset of candidate facts.
// Every selected id counts as an attempt, including ids absent from
// the payload.
func (in *Intake) saveSelected(ctx context.Context, req IntakeRequest, userID string) *IntakeResult {
	byID := make(map[string]kb.CandidateFact, len(req.FactsPayload))
	for _, f := range req.FactsPayload {
		byID[f.FactID] = f
	}

	// The count reports attempts, not store results; a failed write
	// still counts for the user-facing tally.
	attempted := 0
	for _, factID := range req.SelectedFactIDs {
		fact, ok := byID[factID]
		if !ok {
			continue
		}
		attempted++
		res, err := in.saver.SaveFact(ctx, capability.SaveFactRequest{
			FactText:  fact.Content,
			SourceURL: fact.SourceURL,
			UserID:    userID,
			DomainID:  fact.DomainID,
		})
		if err != nil || res.Status != capability.StatusSuccess {
			in.log.ErrorEvent("FACT_SAVE_FAILED").
				Str("factId", factID).
				Str("domainId", fact.DomainID).
				Str("sessionId", req.SessionID).
				Send()
		}
	}

	in.log.Event("FACT_SAVE_BATCH").
		Int("selected", len(req.SelectedFactIDs)).
		Int("attempted", attempted).
		Str("sessionId", req.SessionID).
		Send()

	return &IntakeResult{
		Status:          StatusIntakeOK,
		Reasoning:       fmt.Sprintf("Saved %d of %d selected facts.", attempted, len(req.SelectedFactIDs)),
		ResponseMessage: fmt.Sprintf("Saved %d facts to your knowledge base.", attempted),
		SavedCount:      attempted,
	}
}

// discover fetches the document, scores it against the user's active
// domains and extracts candidate facts for review.
func (in *Intake) discover(ctx context.Context, req IntakeRequest, work session.State, userID string) *IntakeResult {
	targetURL := work.GetString(session.KeyURL)
	if targetURL == "" {
		targetURL = urlPattern.FindString(req.RawText)
	}
	if targetURL == "" {
		return &IntakeResult{
			Status:          StatusIntakeError,
			ErrorDetail:     "url_missing",
			Reasoning:       "No URL in session state or message text.",
			ResponseMessage: "I could not find a link in your message. Please share the URL again.",
		}
	}

	urlType := classifyURL(targetURL)
	work.Set(session.KeyURL, targetURL)
	work.Set(session.KeyURLType, string(urlType))
	in.log.Event("DOC_CLASSIFIED").
		Str("url", logging.Mask(targetURL)).
		Str("urlType", string(urlType)).
		Str("sessionId", req.SessionID).
		Send()

	fetched, err := in.fetch(ctx, targetURL, urlType)
	if err != nil || fetched.Status != capability.StatusSuccess || fetched.Content == "" {
		detail := fetched.ErrorDetail
		if err != nil {
			detail = err.Error()
		}
		in.log.ErrorEvent("CONTENT_FETCH_FAILED").
			Str("url", logging.Mask(targetURL)).
			Str("urlType", string(urlType)).
			Str("detail", detail).
			Str("sessionId", req.SessionID).
			Send()
		work.Clear(session.KeyURL)
		work.Clear(session.KeyURLType)
		return &IntakeResult{
			Status:          StatusIntakeError,
			ErrorDetail:     "content_unavailable",
			Reasoning:       fmt.Sprintf("Fetch failed for %s document.", urlType),
			ResponseMessage: "I could not read that document. Please check the link and try again.",
		}
	}

	domainsRes, err := in.dirs.FetchDomains(ctx, capability.FetchDomainsRequest{
		UserID:       userID,
		StatusFilter: kb.FilterActive,
		ViewMode:     kb.ViewDetailed,
	})
	if err != nil || domainsRes.Status != capability.StatusSuccess || len(domainsRes.Data) == 0 {
		in.log.Event("NO_ACTIVE_DOMAINS").
			Str("userId", userID).
			Str("sessionId", req.SessionID).
			Send()
		work.Clear(session.KeyURL)
		work.Clear(session.KeyURLType)
		return &IntakeResult{
			Status:          StatusNoRelevance,
			Reasoning:       "No active domains to score against.",
			ResponseMessage: "You have no active domains. Create or enable a domain first, then share the link again.",
		}
	}
	in.log.Event("DOMAINS_RETRIEVED").
		Int("count", len(domainsRes.Data)).
		Str("sessionId", req.SessionID).
		Send()

	candidates := in.extractCandidates(ctx, req.SessionID, fetched.Content, targetURL, domainsRes.Data)

	work.Clear(session.KeyURL)
	work.Clear(session.KeyURLType)

	if len(candidates) == 0 {
		in.log.Event("NO_RELEVANT_FACTS").
			Str("sessionId", req.SessionID).
			Send()
		return &IntakeResult{
			Status:          StatusNoRelevance,
			Reasoning:       "No domain cleared the relevance threshold with extractable facts.",
			ResponseMessage: "That document did not match any of your active domains.",
		}
	}

	in.log.Event("FACTS_EXTRACTED").
		Int("count", len(candidates)).
		Str("sessionId", req.SessionID).
		Send()
	return &IntakeResult{
		Status:          StatusReviewRequired,
		Reasoning:       fmt.Sprintf("Extracted %d candidate facts across active domains.", len(candidates)),
		ResponseMessage: fmt.Sprintf("I found %d facts. Review them and tell me which to save.", len(candidates)),
		CandidateFacts:  candidates,
	}
}

// extractCandidates scores the content against each domain and
// extracts facts from the domains that pass. A failing score or
// extraction drops only that domain.
func (in *Intake) extractCandidates(ctx context.Context, sessionID, content, sourceURL string, domains []kb.Domain) []kb.CandidateFact {
	var candidates []kb.CandidateFact
	for _, d := range domains {
		score, err := in.relevance.ScoreRelevance(ctx, capability.RelevanceRequest{
			ContentText:       content,
			DomainName:        d.Name,
			DomainDescription: d.Description,
			DomainKeywords:    d.Keywords,
		})
		if err != nil || score.Status != capability.StatusSuccess || score.RelevanceScore <= in.cfg.RelevanceThreshold {
			in.log.Event("DOMAIN_DROPPED").
				Str("domainId", d.DomainID).
				Float64("score", score.RelevanceScore).
				Str("sessionId", sessionID).
				Send()
			continue
		}

		extracted, err := in.extractor.ExtractFacts(ctx, capability.ExtractFactsRequest{
			ContentText:            content,
			DomainName:             d.Name,
			DomainDescription:      d.Description,
			DomainKeywords:         d.Keywords,
			RelevanceJustification: score.Reasoning,
		})
		if err != nil || extracted.Status != capability.StatusSuccess {
			in.log.ErrorEvent("FACT_EXTRACTION_FAILED").
				Str("domainId", d.DomainID).
				Str("sessionId", sessionID).
				Send()
			continue
		}

		for i, f := range extracted.Facts {
			candidates = append(candidates, kb.CandidateFact{
				DomainID:  d.DomainID,
				FactID:    fmt.Sprintf("%s_%d_%s", d.DomainID, i, uuid.NewString()[:4]),
				Content:   f.Content,
				SourceURL: sourceURL,
			})
		}
	}
	return candidates
}

// fetch dispatches on the classified URL type.
func (in *Intake) fetch(ctx context.Context, url string, kind kb.URLKind) (capability.FetchResponse, error) {
	switch kind {
	case kb.URLPDF:
		return in.fetcher.FetchPDF(ctx, url)
	case kb.URLYouTube:
		return in.fetcher.FetchTranscript(ctx, url)
	default:
		return in.fetcher.FetchPage(ctx, url)
	}
}

// classifyURL decides which fetch path a URL takes. The PDF check is
// a substring match, so query-string PDFs classify as PDF too.
func classifyURL(url string) kb.URLKind {
	lowered := strings.ToLower(url)
	if strings.Contains(lowered, "pdf") {
		return kb.URLPDF
	}
	if strings.Contains(lowered, "youtube.com/watch") || strings.Contains(lowered, "youtu.be/") {
		return kb.URLYouTube
	}
	return kb.URLOrdinary
}
