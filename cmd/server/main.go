package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AngelCh415/paidmedia-mmm/internal/catalog"
	"github.com/AngelCh415/paidmedia-mmm/internal/chat"
	"github.com/AngelCh415/paidmedia-mmm/internal/config"
	"github.com/AngelCh415/paidmedia-mmm/internal/httpx"
	"github.com/AngelCh415/paidmedia-mmm/internal/ingest"
	"github.com/AngelCh415/paidmedia-mmm/internal/metrics"
	"github.com/AngelCh415/paidmedia-mmm/internal/models"
	"github.com/AngelCh415/paidmedia-mmm/internal/recommend"
	"github.com/AngelCh415/paidmedia-mmm/internal/store"
	"github.com/AngelCh415/paidmedia-mmm/internal/synth"
	"github.com/AngelCh415/paidmedia-mmm/internal/telemetry"
)

func main() {
	cfg := config.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	cat, err := catalog.Default()
	if err != nil {
		logger.Error("catalog", slog.String("err", err.Error()))
		os.Exit(1)
	}
	tel := telemetry.New()

	// serie semanal y agenda, deterministas por semilla
	st := store.NewMemoryStore()
	n := st.Load(synth.GenerateWeekly(synth.NewLCG(cfg.SeriesSeed), cat.Series, cfg.SeriesStart, cfg.SeriesWeeks))
	schedule := synth.GenerateSchedule(synth.NewLCG(cfg.ScheduleSeed), cat.Schedule, cfg.ScheduleStart, synth.DefaultScheduleDays)
	logger.Info("series generated", slog.Int("records", n), slog.Int("weeks", cfg.SeriesWeeks), slog.Int64("seed", cfg.SeriesSeed))

	mSvc := metrics.NewService(st, logger)
	mSvc.OnSkip(tel.RowsSkipped)

	book := recommend.NewBook(recommend.Build(cat, time.Now()), cat.Curves)
	book.OnTransition(func(s models.RecommendationStatus) {
		tel.Transition(s)
		logger.Debug("recommendation transition", slog.String("status", string(s)))
	})

	script, err := chat.DefaultScript()
	if err != nil {
		logger.Error("chat script", slog.String("err", err.Error()))
		os.Exit(1)
	}
	provider := newProvider(cfg, script, logger)
	system := func() (string, error) { return chat.SystemPrompt(cat, book.List(models.StatusPending)) }
	session := chat.NewSession(provider, system, logger)
	session.OnOutcome(tel.ChatStream)

	loader := ingest.NewLoader(ingest.NewHTTPClient(cfg.HTTPTimeout), logger, cfg)

	r := httpx.NewRouter(httpx.Deps{
		Log:          logger,
		Catalog:      cat,
		Metrics:      mSvc,
		Loader:       loader,
		Book:         book,
		Schedule:     schedule,
		Telemetry:    tel,
		Provider:     provider,
		Session:      session,
		System:       system,
		Script:       script,
		ChatTimeout:  cfg.ChatTimeout,
		HorizonWeeks: cfg.SourceHorizonWeeks,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", slog.String("err", err.Error()))
		}
	}()

	logger.Info("starting server",
		slog.String("port", cfg.Port),
		slog.String("chat_provider", provider.Name()),
		slog.String("source", loader.Source()))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", slog.String("err", err.Error()))
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// newProvider picks the completion backend. Gemini init errors fall back to the
// scripted answers so the dashboard keeps working offline.
func newProvider(cfg config.Config, script *chat.Script, log *slog.Logger) chat.Provider {
	switch cfg.ChatProvider {
	case "openai":
		if cfg.LLMAPIKey != "" {
			return chat.NewOpenAIProvider(cfg.LLMEndpoint, cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMTemperature, cfg.LLMMaxTokens)
		}
		log.Warn("openai selected without LLM_API_KEY, using scripted answers")
	case "gemini":
		p, err := chat.NewGeminiProvider(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel, cfg.LLMTemperature, cfg.LLMMaxTokens)
		if err == nil {
			return p
		}
		log.Warn("gemini unavailable, using scripted answers", slog.String("err", err.Error()))
	case "scripted":
	default:
		log.Warn("unknown CHAT_PROVIDER, using scripted answers", slog.String("provider", cfg.ChatProvider))
	}
	return chat.NewScriptedProvider(script, 30*time.Millisecond)
}
