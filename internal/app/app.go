// Package app wires configuration, storage, capabilities, and the
// agent core into a runnable application.
package app

import (
	"fmt"

	"github.com/knowbase/knowbase/internal/agent"
	"github.com/knowbase/knowbase/internal/capability"
	"github.com/knowbase/knowbase/internal/config"
	"github.com/knowbase/knowbase/internal/content"
	"github.com/knowbase/knowbase/internal/logging"
	"github.com/knowbase/knowbase/internal/session"
	"github.com/knowbase/knowbase/internal/store"
)

// App holds the assembled application.
type App struct {
	Cfg config.Config
	Log *logging.Logger
	DB  *store.DB

	Sessions  session.Store
	Router    *agent.Router
	Intake    *agent.Intake
	Lifecycle *agent.Lifecycle
	Chat      *agent.Conversation
}

// analyzer is the AI capability bundle the core needs.
type analyzer struct {
	capability.NameExtractor
	capability.RelevanceScorer
	capability.FactExtractor
	capability.Prettifier
}

// New builds the application from configuration. Storage directories
// must already exist (see config.Paths.EnsureDirs).
func New(cfg config.Config, paths config.Paths, log *logging.Logger) (*App, error) {
	db, err := store.Open(paths.Database(&cfg), log)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	authStore := store.NewAuthStore(db)
	domainStore := store.NewDomainStore(db, paths.ExportDir(&cfg))
	factStore := store.NewFactStore(db)
	sessions := store.NewSQLiteSessionStore(db)

	ai := buildAnalyzer(cfg, log)
	fetcher := content.NewFetcher()

	router := agent.NewRouter(
		agent.RouterConfig{},
		authStore,
		ai,
		domainStore,
		log,
	)
	intake := agent.NewIntake(
		agent.IntakeConfig{RelevanceThreshold: cfg.Thresholds.Relevance},
		fetcher,
		domainStore,
		ai,
		ai,
		factStore,
		log,
	)
	lifecycle := agent.NewLifecycle(ai, domainStore, cfg.PersistDomains(), log)
	chat := agent.NewConversation(router, intake, lifecycle, sessions)

	return &App{
		Cfg:       cfg,
		Log:       log,
		DB:        db,
		Sessions:  sessions,
		Router:    router,
		Intake:    intake,
		Lifecycle: lifecycle,
		Chat:      chat,
	}, nil
}

// Close releases held resources.
func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}

// buildAnalyzer selects the AI backend. Without a Gemini key the mock
// capabilities keep the whole pipeline runnable offline.
func buildAnalyzer(cfg config.Config, log *logging.Logger) analyzer {
	if cfg.AI.Provider == "gemini" && cfg.AI.APIKey != "" {
		g := capability.NewGeminiAnalyzer(
			cfg.AI.APIKey,
			modelParams(cfg.AI.ModelFor("router")),
			modelParams(cfg.AI.ModelFor("intake")),
			modelParams(cfg.AI.ModelFor("drafts")),
		)
		g.SetPrompts(cfg.Prompts)
		return analyzer{
			NameExtractor:   g,
			RelevanceScorer: g,
			FactExtractor:   g,
			Prettifier:      g,
		}
	}

	log.Info().Msg("AI provider is mock; analysis capabilities return canned results")
	return analyzer{
		NameExtractor:   &capability.MockNameExtractor{},
		RelevanceScorer: &capability.MockRelevance{},
		FactExtractor:   &capability.MockExtractor{},
		Prettifier:      &capability.MockPrettifier{},
	}
}

func modelParams(e config.ModelEntry) capability.ModelParams {
	p := capability.ModelParams{
		ModelID:         e.Model,
		MaxOutputTokens: e.MaxOutputTokens,
	}
	if e.Temperature != nil {
		p.Temperature = *e.Temperature
	}
	if e.TopP != nil {
		p.TopP = *e.TopP
	}
	if e.TopK != nil {
		p.TopK = *e.TopK
	}
	return p
}
