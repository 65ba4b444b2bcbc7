package chat

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/AngelCh415/paidmedia-mmm/internal/models"
)

// OpenAIProvider talks to any OpenAI-compatible /chat/completions endpoint.
type OpenAIProvider struct {
	endpoint    string
	apiKey      string
	model       string
	temperature float64
	maxTokens   int
	client      *http.Client
}

func NewOpenAIProvider(endpoint, apiKey, model string, temperature float64, maxTokens int) *OpenAIProvider {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
	return &OpenAIProvider{
		endpoint:    strings.TrimRight(endpoint, "/"),
		apiKey:      apiKey,
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
		// sin timeout: el contexto controla la duracion del stream
		client: &http.Client{Transport: transport},
	}
}

func (p *OpenAIProvider) Name() string { return "openai" }

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Stream      bool      `json:"stream,omitempty"`
}

type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content,omitempty"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}

func toMessages(system string, turns []models.Turn) []message {
	out := make([]message, 0, len(turns)+1)
	out = append(out, message{Role: "system", Content: system})
	for _, t := range turns {
		role := "user"
		if t.Role == models.RoleAgent {
			role = "assistant"
		}
		out = append(out, message{Role: role, Content: t.Content})
	}
	return out
}

func (p *OpenAIProvider) Stream(ctx context.Context, system string, turns []models.Turn) (Stream, error) {
	if _, ok := lastUserTurn(turns); !ok {
		return nil, ErrNoTurns
	}
	body, err := json.Marshal(chatRequest{
		Model:       p.model,
		Messages:    toMessages(system, turns),
		Temperature: p.temperature,
		MaxTokens:   p.maxTokens,
		Stream:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := p.client.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("API error %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	return &sseStream{body: resp.Body, sc: sc, cancel: cancel}, nil
}

type sseStream struct {
	body   io.ReadCloser
	sc     *bufio.Scanner
	cancel context.CancelFunc
	done   bool
}

func (s *sseStream) Recv() (string, error) {
	for !s.done && s.sc.Scan() {
		line := s.sc.Text()
		// formato SSE: "data: {...}"
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			s.done = true
			break
		}
		var chunk streamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			continue
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		c := chunk.Choices[0]
		if c.FinishReason != nil {
			s.done = true
		}
		if c.Delta.Content != "" {
			return c.Delta.Content, nil
		}
	}
	if s.done {
		return "", io.EOF
	}
	if err := s.sc.Err(); err != nil {
		return "", fmt.Errorf("stream reading error: %w", err)
	}
	// el body se cerro sin [DONE] ni finish_reason
	return "", ErrTruncated
}

func (s *sseStream) Close() error {
	s.cancel()
	return s.body.Close()
}
