package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/AngelCh415/paidmedia-mmm/internal/config"
	"github.com/AngelCh415/paidmedia-mmm/internal/utils"
)

// Loader extracts the source document (URL first, then file) and decodes the
// office-level summary table.
type Loader struct {
	c       HTTPClient
	log     *slog.Logger
	path    string
	url     string
	backoff utils.Backoff
}

func NewLoader(c HTTPClient, log *slog.Logger, cfg config.Config) *Loader {
	return &Loader{
		c:       c,
		log:     log,
		path:    cfg.SourcePath,
		url:     cfg.SourceURL,
		backoff: utils.NewBackoff(100*time.Millisecond, 2),
	}
}

func (l *Loader) Configured() bool { return l.url != "" || l.path != "" }

// Source names where rows come from, for logs and the KPI payload.
func (l *Loader) Source() string {
	switch {
	case l.url != "":
		return "markdown-url"
	case l.path != "":
		return "markdown-file"
	}
	return "none"
}

func (l *Loader) Load(ctx context.Context) (Summary, error) {
	if !l.Configured() {
		return Summary{}, ErrNotConfigured
	}
	var (
		doc []byte
		err error
	)
	if l.url != "" {
		doc, err = GetWithRetry(ctx, l.c, l.url, l.backoff)
	} else {
		doc, err = os.ReadFile(l.path)
	}
	if err != nil {
		return Summary{}, fmt.Errorf("read source: %w", err)
	}

	s, err := ParseSummary(doc)
	if err != nil {
		return Summary{}, err
	}
	l.log.Info("source loaded", slog.String("source", l.Source()), slog.Int("rows", len(s.Rows)), slog.Int("skipped", s.Skipped))
	return s, nil
}
