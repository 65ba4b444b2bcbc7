package chat

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AngelCh415/paidmedia-mmm/internal/models"
)

// Session is the server-held conversation. History only grows; one send runs at a
// time and appends streamed chunks to a single agent message.
type Session struct {
	provider Provider
	system   func() (string, error)
	log      *slog.Logger

	sendMu sync.Mutex
	mu     sync.RWMutex
	msgs   []models.ChatMessage

	now       func() time.Time
	onOutcome func(provider, outcome string)
}

func NewSession(p Provider, system func() (string, error), log *slog.Logger) *Session {
	return &Session{provider: p, system: system, log: log, now: time.Now}
}

// OnOutcome registers a hook called once per finished send.
func (s *Session) OnOutcome(fn func(provider, outcome string)) { s.onOutcome = fn }

func (s *Session) Provider() string { return s.provider.Name() }

func (s *Session) Messages() []models.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.ChatMessage(nil), s.msgs...)
}

func (s *Session) append(m models.ChatMessage) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, m)
	return len(s.msgs) - 1
}

// update applies fn to message i and returns a copy of the result.
func (s *Session) update(i int, fn func(*models.ChatMessage)) models.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.msgs[i])
	return s.msgs[i]
}

// turns converts the history into provider turns, leaving out failed agent
// placeholders.
func (s *Session) turns() []models.Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Turn, 0, len(s.msgs))
	for _, m := range s.msgs {
		if m.Role == models.RoleAgent && (m.Content == "" || (m.Error != "" && m.Content == "Error: "+m.Error)) {
			continue
		}
		out = append(out, models.Turn{Role: m.Role, Content: m.Content})
	}
	return out
}

// Send appends the user text, streams the answer into a new agent message and
// calls onUpdate after every chunk. The final agent message is returned even on
// failure: an open error becomes "Error: ..." content, a mid-stream error keeps
// the partial content and sets Error.
func (s *Session) Send(ctx context.Context, text string, onUpdate func(models.ChatMessage)) (models.ChatMessage, error) {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	s.append(models.ChatMessage{ID: uuid.NewString(), Role: models.RoleUser, Content: text, Timestamp: s.now()})
	turns := s.turns()
	idx := s.append(models.ChatMessage{ID: uuid.NewString(), Role: models.RoleAgent, Timestamp: s.now()})

	publish := func(m models.ChatMessage) {
		if onUpdate != nil {
			onUpdate(m)
		}
	}

	system, err := s.system()
	var stream Stream
	if err == nil {
		stream, err = s.provider.Stream(ctx, system, turns)
	}
	if err != nil {
		m := s.update(idx, func(m *models.ChatMessage) {
			m.Content = "Error: " + err.Error()
			m.Error = err.Error()
		})
		publish(m)
		s.finish(ctx, err)
		return m, err
	}

	err = Pipe(stream, func(chunk string) error {
		publish(s.update(idx, func(m *models.ChatMessage) { m.Content += chunk }))
		return nil
	})
	if err != nil {
		// se conserva el contenido parcial
		m := s.update(idx, func(m *models.ChatMessage) { m.Error = err.Error() })
		publish(m)
		s.finish(ctx, err)
		return m, err
	}
	s.finish(ctx, nil)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.msgs[idx], nil
}

func (s *Session) finish(ctx context.Context, err error) {
	outcome := Outcome(ctx, err)
	if err != nil {
		s.log.Warn("chat stream failed", slog.String("provider", s.provider.Name()), slog.String("outcome", outcome), slog.String("err", err.Error()))
	}
	if s.onOutcome != nil {
		s.onOutcome(s.provider.Name(), outcome)
	}
}

// Outcome classifies a finished stream as ok, canceled or error.
func Outcome(ctx context.Context, err error) string {
	switch {
	case err == nil || errors.Is(err, io.EOF):
		return "ok"
	case errors.Is(err, context.Canceled) || ctx.Err() != nil:
		return "canceled"
	}
	return "error"
}
