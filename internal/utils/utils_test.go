package utils

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type observed struct {
	method, route string
	status        int
}

type recorder struct{ got []observed }

func (r *recorder) ObserveRequest(method, route string, status int, _ float64) {
	r.got = append(r.got, observed{method, route, status})
}

func TestMiddlewareChain(t *testing.T) {
	var buf bytes.Buffer
	obs := &recorder{}
	mux := chi.NewRouter()
	mux.Use(RequestID)
	mux.Use(Logger(slog.New(slog.NewJSONHandler(&buf, nil))))
	mux.Use(Instrument(obs))
	mux.Get("/api/offices/{id}", func(w http.ResponseWriter, r *http.Request) {
		if RID(r.Context()) == "" {
			t.Error("request id missing from context")
		}
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/offices/2372", nil))

	if _, err := uuid.Parse(rec.Header().Get("X-Request-ID")); err != nil {
		t.Fatalf("bad request id header: %v", err)
	}
	if len(obs.got) != 1 || obs.got[0] != (observed{"GET", "/api/offices/{id}", http.StatusTeapot}) {
		t.Fatalf("observed = %+v", obs.got)
	}
	if !strings.Contains(buf.String(), `"status":418`) || !strings.Contains(buf.String(), `"route":"/api/offices/{id}"`) {
		t.Fatalf("log line = %s", buf.String())
	}
}

func TestRequestIDReusesValidHeader(t *testing.T) {
	id := uuid.NewString()
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", id)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get("X-Request-ID") != id {
		t.Fatalf("got %q", rec.Header().Get("X-Request-ID"))
	}
}

func TestBackoffRetriesThenSucceeds(t *testing.T) {
	b := NewBackoff(time.Millisecond, 3)
	calls := 0
	err := b.Do(context.Background(), func(i int) error {
		calls++
		if i < 2 {
			return errors.New("flaky")
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Fatalf("err = %v calls = %d", err, calls)
	}
}

func TestBackoffPermanentStops(t *testing.T) {
	b := NewBackoff(time.Millisecond, 3)
	calls := 0
	boom := errors.New("boom")
	err := b.Do(context.Background(), func(int) error {
		calls++
		return Permanent(boom)
	})
	if !errors.Is(err, boom) || calls != 1 {
		t.Fatalf("err = %v calls = %d", err, calls)
	}
}

func TestBackoffHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b := NewBackoff(time.Hour, 3)
	err := b.Do(ctx, func(int) error { return errors.New("down") })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}
