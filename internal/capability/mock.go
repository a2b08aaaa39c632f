package capability

import "context"

// Mock capability doubles. Each mirrors its interface with overridable
// func fields; the zero value returns the same canned responses the
// deployment uses when real AI/storage is switched off.

// MockAuthenticator is a test double for Authenticator.
type MockAuthenticator struct {
	AuthFunc func(ctx context.Context, req AuthRequest) (AuthResponse, error)
}

func (m *MockAuthenticator) Auth(ctx context.Context, req AuthRequest) (AuthResponse, error) {
	if m.AuthFunc != nil {
		return m.AuthFunc(ctx, req)
	}
	return AuthResponse{
		Status: StatusSuccess,
		Data:   &AuthData{UserID: "user_mock", IsNewUser: false},
	}, nil
}

// MockNameExtractor is a test double for NameExtractor. Without an
// override it applies the same heuristic the mock deployment uses:
// a single alphabetic word, or the last word after "my name is".
type MockNameExtractor struct {
	ExtractFunc func(ctx context.Context, req NameRequest) (NameResponse, error)
}

func (m *MockNameExtractor) ExtractName(ctx context.Context, req NameRequest) (NameResponse, error) {
	if m.ExtractFunc != nil {
		return m.ExtractFunc(ctx, req)
	}
	if name := HeuristicName(req.UserInput); name != "" {
		return NameResponse{Status: StatusSuccess, Detected: true, Name: name, Confidence: 0.9}, nil
	}
	return NameResponse{Status: StatusSuccess, Detected: false}, nil
}

// MockDirectory is a test double for DomainDirectory.
type MockDirectory struct {
	FetchFunc    func(ctx context.Context, req FetchDomainsRequest) (FetchDomainsResponse, error)
	ToggleFunc   func(ctx context.Context, req ToggleDomainRequest) (ToggleDomainResponse, error)
	SnapshotFunc func(ctx context.Context, req SnapshotRequest) (SnapshotResponse, error)
	ExportFunc   func(ctx context.Context, req ExportRequest) (ExportResponse, error)
}

func (m *MockDirectory) FetchDomains(ctx context.Context, req FetchDomainsRequest) (FetchDomainsResponse, error) {
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, req)
	}
	return FetchDomainsResponse{Status: StatusEmpty}, nil
}

func (m *MockDirectory) ToggleDomain(ctx context.Context, req ToggleDomainRequest) (ToggleDomainResponse, error) {
	if m.ToggleFunc != nil {
		return m.ToggleFunc(ctx, req)
	}
	return ToggleDomainResponse{
		Status: StatusSuccess,
		Data:   &ToggleDomainData{DomainID: req.DomainID, PreviousStatus: "active", NewStatus: "inactive"},
	}, nil
}

func (m *MockDirectory) GenerateSnapshot(ctx context.Context, req SnapshotRequest) (SnapshotResponse, error) {
	if m.SnapshotFunc != nil {
		return m.SnapshotFunc(ctx, req)
	}
	return SnapshotResponse{
		Status: StatusSuccess,
		Data: &SnapshotData{
			DomainID:        req.DomainID,
			DomainName:      "Domain",
			SuperSummary:    "Mock snapshot summary.",
			ExtendedSummary: "Mock extended snapshot summary.",
			MetaInfo:        SnapshotMeta{FactCount: 12, TotalCharLength: 2400, SourceCount: 5},
		},
	}, nil
}

func (m *MockDirectory) ExportSnapshot(ctx context.Context, req ExportRequest) (ExportResponse, error) {
	if m.ExportFunc != nil {
		return m.ExportFunc(ctx, req)
	}
	return ExportResponse{
		Status: StatusSuccess,
		Data: &ExportData{
			DomainID:      req.DomainID,
			DownloadURL:   "https://mock-bucket.s3.mock/exports/domain_report.md",
			FileSizeBytes: 2048,
			FileFormat:    "markdown",
		},
	}, nil
}

// MockRelevance is a test double for RelevanceScorer. The default
// score of 0.9 sits above the stock 0.7 threshold.
type MockRelevance struct {
	ScoreFunc func(ctx context.Context, req RelevanceRequest) (RelevanceResponse, error)
}

func (m *MockRelevance) ScoreRelevance(ctx context.Context, req RelevanceRequest) (RelevanceResponse, error) {
	if m.ScoreFunc != nil {
		return m.ScoreFunc(ctx, req)
	}
	return RelevanceResponse{
		Status:         StatusSuccess,
		RelevanceScore: 0.9,
		Reasoning:      "Mock relevance scoring.",
	}, nil
}

// MockExtractor is a test double for FactExtractor.
type MockExtractor struct {
	ExtractFunc func(ctx context.Context, req ExtractFactsRequest) (ExtractFactsResponse, error)
}

func (m *MockExtractor) ExtractFacts(ctx context.Context, req ExtractFactsRequest) (ExtractFactsResponse, error) {
	if m.ExtractFunc != nil {
		return m.ExtractFunc(ctx, req)
	}
	facts := []ExtractedFact{
		{FactID: "fact_mock_1", Content: "Mock fact 1", Justification: req.RelevanceJustification},
		{FactID: "fact_mock_2", Content: "Mock fact 2", Justification: req.RelevanceJustification},
	}
	return ExtractFactsResponse{Status: StatusSuccess, Facts: facts, ExtractedCount: len(facts)}, nil
}

// MockPrettifier is a test double for Prettifier.
type MockPrettifier struct {
	PrettifyFunc func(ctx context.Context, req PrettifyRequest) (PrettifyResponse, error)
}

func (m *MockPrettifier) PrettifyDomain(ctx context.Context, req PrettifyRequest) (PrettifyResponse, error) {
	if m.PrettifyFunc != nil {
		return m.PrettifyFunc(ctx, req)
	}
	return PrettifyResponse{
		Status: StatusPrettifyOK,
		Data: &PrettifyData{
			Name:        "Mock Domain",
			Description: req.RawInputText,
			Keywords:    []string{"mock"},
		},
	}, nil
}

// MockFetcher is a test double for ContentFetcher.
type MockFetcher struct {
	PageFunc       func(ctx context.Context, url string) (FetchResponse, error)
	PDFFunc        func(ctx context.Context, url string) (FetchResponse, error)
	TranscriptFunc func(ctx context.Context, url string) (FetchResponse, error)
}

func (m *MockFetcher) FetchPage(ctx context.Context, url string) (FetchResponse, error) {
	if m.PageFunc != nil {
		return m.PageFunc(ctx, url)
	}
	return FetchResponse{Status: StatusSuccess, Content: "Mock page content.", PageTitle: "Mock Page"}, nil
}

func (m *MockFetcher) FetchPDF(ctx context.Context, url string) (FetchResponse, error) {
	if m.PDFFunc != nil {
		return m.PDFFunc(ctx, url)
	}
	return FetchResponse{Status: StatusSuccess, Content: "Mock PDF content.", PageCount: 1}, nil
}

func (m *MockFetcher) FetchTranscript(ctx context.Context, url string) (FetchResponse, error) {
	if m.TranscriptFunc != nil {
		return m.TranscriptFunc(ctx, url)
	}
	return FetchResponse{Status: StatusSuccess, Content: "Mock transcript.", VideoTitle: "Mock Video"}, nil
}

// MockFactSaver is a test double for FactSaver. Calls records every
// request so tests can assert on invocation counts.
type MockFactSaver struct {
	SaveFunc func(ctx context.Context, req SaveFactRequest) (SaveFactResponse, error)
	Calls    []SaveFactRequest
}

func (m *MockFactSaver) SaveFact(ctx context.Context, req SaveFactRequest) (SaveFactResponse, error) {
	m.Calls = append(m.Calls, req)
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, req)
	}
	return SaveFactResponse{Status: StatusSuccess, Data: &SaveFactData{MemoryID: "mem_mock"}}, nil
}
