package httpx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/AngelCh415/paidmedia-mmm/internal/chat"
	"github.com/AngelCh415/paidmedia-mmm/internal/models"
	"github.com/AngelCh415/paidmedia-mmm/internal/utils"
)

type chatRequest struct {
	Messages []models.Turn `json:"messages" validate:"required,min=1,dive"`
}

type sendRequest struct {
	Text string `json:"text" validate:"required"`
}

// normalize trims the text so whitespace-only messages fail validation.
func (s *sendRequest) normalize() { s.Text = strings.TrimSpace(s.Text) }

func (d Deps) chatContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.ChatTimeout > 0 {
		return context.WithTimeout(ctx, d.ChatTimeout)
	}
	return context.WithCancel(ctx)
}

// textWriter streams plain text chunks, flushing after each write.
type textWriter struct {
	w       http.ResponseWriter
	f       http.Flusher
	started bool
}

func newTextWriter(w http.ResponseWriter) *textWriter {
	f, _ := w.(http.Flusher)
	return &textWriter{w: w, f: f}
}

func (t *textWriter) write(chunk string) error {
	if !t.started {
		t.w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		t.w.Header().Set("Cache-Control", "no-cache")
		t.w.Header().Set("X-Content-Type-Options", "nosniff")
		t.w.WriteHeader(http.StatusOK)
		t.started = true
	}
	if _, err := t.w.Write([]byte(chunk)); err != nil {
		return err
	}
	if t.f != nil {
		t.f.Flush()
	}
	return nil
}

// chatStateless answers a client-held conversation without touching the session.
func (d Deps) chatStateless(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	system, err := d.System()
	if err != nil {
		writeError(w, 500, err.Error())
		return
	}

	ctx, cancel := d.chatContext(r.Context())
	defer cancel()
	stream, err := d.Provider.Stream(ctx, system, req.Messages)
	if err != nil {
		d.chatOutcome(ctx, err)
		code := http.StatusBadGateway
		if errors.Is(err, chat.ErrNoTurns) {
			code = http.StatusBadRequest
		}
		writeError(w, code, err.Error())
		return
	}

	tw := newTextWriter(w)
	err = chat.Pipe(stream, tw.write)
	d.chatOutcome(ctx, err)
	if err != nil {
		d.Log.Warn("chat stream interrupted", slog.String("rid", utils.RID(r.Context())), slog.String("err", err.Error()))
		tw.write(fmt.Sprintf("\n\n[stream interrupted: %s]", err))
	}
}

func (d Deps) chatOutcome(ctx context.Context, err error) {
	d.Telemetry.ChatStream(d.Provider.Name(), chat.Outcome(ctx, err))
}

// chatSend streams the agent reply of the server-held session as plain text.
func (d Deps) chatSend(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	ctx, cancel := d.chatContext(r.Context())
	defer cancel()

	tw := newTextWriter(w)
	sent := 0
	m, err := d.Session.Send(ctx, req.Text, func(m models.ChatMessage) {
		if m.Error != "" || len(m.Content) <= sent {
			return
		}
		if tw.write(m.Content[sent:]) == nil {
			sent = len(m.Content)
		}
	})
	if err == nil {
		return
	}
	if !tw.started {
		writeJSON(w, http.StatusBadGateway, map[string]any{"error": err.Error(), "message": m})
		return
	}
	tw.write(fmt.Sprintf("\n\n[stream interrupted: %s]", err))
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// el dashboard se sirve desde otro origen en desarrollo
	CheckOrigin: func(r *http.Request) bool { return true },
}

type wsFrame struct {
	Type    string `json:"type"` // chunk | done | error
	ID      string `json:"id,omitempty"`
	Content string `json:"content"`
}

// chatWS runs session sends over a websocket. Each client frame {text} produces
// chunk frames followed by one done or error frame.
func (d Deps) chatWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		d.Log.Warn("websocket upgrade failed", slog.String("err", err.Error()))
		return
	}
	defer conn.Close()
	rid := utils.RID(r.Context())

	for {
		var req sendRequest
		if err := conn.ReadJSON(&req); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				d.Log.Debug("websocket closed", slog.String("rid", rid), slog.String("err", err.Error()))
			}
			return
		}
		req.normalize()
		if err := models.Validate(req); err != nil {
			if conn.WriteJSON(wsFrame{Type: "error", Content: err.Error()}) != nil {
				return
			}
			continue
		}

		ctx, cancel := d.chatContext(context.Background())
		sent := 0
		var writeErr error
		m, err := d.Session.Send(ctx, req.Text, func(m models.ChatMessage) {
			if writeErr != nil || m.Error != "" || len(m.Content) <= sent {
				return
			}
			writeErr = conn.WriteJSON(wsFrame{Type: "chunk", ID: m.ID, Content: m.Content[sent:]})
			if writeErr != nil {
				// el cliente se fue, se corta el stream
				cancel()
				return
			}
			sent = len(m.Content)
		})
		cancel()
		if writeErr != nil {
			return
		}

		final := wsFrame{Type: "done", ID: m.ID, Content: m.Content}
		if err != nil {
			final = wsFrame{Type: "error", ID: m.ID, Content: err.Error()}
		}
		if conn.WriteJSON(final) != nil {
			return
		}
	}
}
