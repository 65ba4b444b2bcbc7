package chat

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/AngelCh415/paidmedia-mmm/internal/models"
)

//go:embed scripts.yaml
var scriptsYAML []byte

type Table struct {
	Headers []string   `yaml:"headers"`
	Rows    [][]string `yaml:"rows"`
}

type Exchange struct {
	Trigger  []string `yaml:"trigger"`
	Example  string   `yaml:"example"`
	Response string   `yaml:"response"`
	Table    *Table   `yaml:"table"`
}

// Content is the response text with its table, if any, rendered as markdown.
func (e Exchange) Content() string {
	if e.Table == nil || len(e.Table.Headers) == 0 {
		return e.Response
	}
	var b strings.Builder
	b.WriteString(e.Response)
	b.WriteString("\n\n| ")
	b.WriteString(strings.Join(e.Table.Headers, " | "))
	b.WriteString(" |\n|")
	b.WriteString(strings.Repeat("---|", len(e.Table.Headers)))
	for _, r := range e.Table.Rows {
		b.WriteString("\n| ")
		b.WriteString(strings.Join(r, " | "))
		b.WriteString(" |")
	}
	return b.String()
}

type Script struct {
	Prompts   []string   `yaml:"prompts"`
	Exchanges []Exchange `yaml:"exchanges"`
	Fallback  string     `yaml:"fallback"`
}

func DefaultScript() (*Script, error) { return ParseScript(scriptsYAML) }

func ParseScript(b []byte) (*Script, error) {
	var s Script
	if err := yaml.UnmarshalStrict(b, &s); err != nil {
		return nil, fmt.Errorf("chat script: %w", err)
	}
	for i := range s.Exchanges {
		for j, t := range s.Exchanges[i].Trigger {
			s.Exchanges[i].Trigger[j] = strings.ToLower(t)
		}
	}
	return &s, nil
}

// Match returns the first exchange with any trigger contained in input.
func (s *Script) Match(input string) (Exchange, bool) {
	lower := strings.ToLower(input)
	for _, e := range s.Exchanges {
		for _, t := range e.Trigger {
			if strings.Contains(lower, t) {
				return e, true
			}
		}
	}
	return Exchange{}, false
}

func (s *Script) Reply(input string) string {
	if e, ok := s.Match(input); ok {
		return e.Content()
	}
	return s.Fallback
}

// ScriptedProvider answers from the embedded script, streamed word by word.
type ScriptedProvider struct {
	script *Script
	delay  time.Duration
}

func NewScriptedProvider(s *Script, delay time.Duration) *ScriptedProvider {
	return &ScriptedProvider{script: s, delay: delay}
}

func (p *ScriptedProvider) Name() string { return "scripted" }

func (p *ScriptedProvider) Stream(ctx context.Context, _ string, turns []models.Turn) (Stream, error) {
	text, ok := lastUserTurn(turns)
	if !ok {
		return nil, ErrNoTurns
	}
	return &wordStream{ctx: ctx, chunks: strings.SplitAfter(p.script.Reply(text), " "), delay: p.delay}, nil
}

type wordStream struct {
	ctx    context.Context
	chunks []string
	i      int
	delay  time.Duration
	closed bool
}

func (w *wordStream) Recv() (string, error) {
	if w.closed {
		return "", context.Canceled
	}
	if err := w.ctx.Err(); err != nil {
		return "", err
	}
	if w.i >= len(w.chunks) {
		return "", io.EOF
	}
	if w.i > 0 && w.delay > 0 {
		t := time.NewTimer(w.delay)
		select {
		case <-w.ctx.Done():
			t.Stop()
			return "", w.ctx.Err()
		case <-t.C:
		}
	}
	c := w.chunks[w.i]
	w.i++
	return c, nil
}

func (w *wordStream) Close() error {
	w.closed = true
	return nil
}
