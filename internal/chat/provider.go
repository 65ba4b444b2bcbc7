// Package chat is the boundary to the completion service behind the dashboard
// assistant: providers that stream text, the system prompt and the conversation
// session that accumulates streamed chunks.
package chat

import (
	"context"
	"errors"
	"io"

	"github.com/AngelCh415/paidmedia-mmm/internal/models"
)

// Stream yields response chunks in arrival order. Recv returns io.EOF once the
// response is complete. Close cancels the upstream request.
type Stream interface {
	Recv() (string, error)
	Close() error
}

type Provider interface {
	Name() string
	Stream(ctx context.Context, system string, turns []models.Turn) (Stream, error)
}

var ErrNoTurns = errors.New("no user turn to answer")

// ErrTruncated is returned when a stream closes before the backend signalled
// completion.
var ErrTruncated = errors.New("stream ended before completion")

// Pipe drains s into write until the stream ends. It returns nil on io.EOF.
func Pipe(s Stream, write func(chunk string) error) error {
	defer s.Close()
	for {
		chunk, err := s.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := write(chunk); err != nil {
			return err
		}
	}
}

func lastUserTurn(turns []models.Turn) (string, bool) {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == models.RoleUser {
			return turns[i].Content, true
		}
	}
	return "", false
}
