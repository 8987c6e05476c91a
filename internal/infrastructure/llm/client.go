package llm

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gamalhq/gamal/internal/domain/entity"
	"github.com/gamalhq/gamal/internal/domain/service"
	apperrors "github.com/gamalhq/gamal/pkg/errors"
)

// Config points the client at an OpenAI-compatible endpoint.
type Config struct {
	BaseURL   string
	APIKey    string
	Model     string
	Streaming bool // false forces non-streaming requests regardless of sink
}

// Client talks to the chat-completions endpoint. One instance is shared by
// all pipeline runs; it keeps no per-call state.
type Client struct {
	baseURL   string
	apiKey    string
	model     string
	streaming bool
	http      *http.Client
	log       *zap.Logger
}

// NewClient builds the chat client. No overall request timeout is set:
// streamed completions legitimately take minutes, and callers cancel via
// context instead.
func NewClient(cfg Config, log *zap.Logger) *Client {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ResponseHeaderTimeout: 300 * time.Second,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   5,
		TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
	}

	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		model:     cfg.Model,
		streaming: cfg.Streaming,
		http:      &http.Client{Transport: transport},
		log:       log,
	}
}

var _ service.ChatClient = (*Client)(nil)

// Chat posts the messages and returns the assistant text. With a sink and
// streaming enabled the transcript is decoded incrementally and every delta
// is forwarded as it arrives; otherwise the sink (if any) fires once with
// the whole trimmed answer.
func (c *Client) Chat(ctx context.Context, messages []entity.Message, sink service.StreamSink) (string, error) {
	streaming := sink != nil && c.streaming

	body, err := json.Marshal(chatRequest{
		Messages:    messages,
		Model:       c.model,
		Stop:        stopSequences,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		Stream:      streaming,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	c.log.Debug("chat request",
		zap.String("model", c.model),
		zap.Bool("stream", streaming),
		zap.Int("messages", len(messages)),
		zap.ByteString("payload", body),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if streaming {
		req.Header.Set("Accept", "text/event-stream")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", apperrors.NewLLMError("chat request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(resp.Body)
		return "", apperrors.NewLLMError(
			fmt.Sprintf("chat endpoint returned %d: %s", resp.StatusCode, truncateForLog(string(detail), 200)), nil)
	}

	if streaming {
		return c.readStream(resp.Body, sink)
	}
	return c.readWhole(resp.Body, sink)
}

// readWhole decodes a non-streaming reply and extracts the first choice.
func (c *Client) readWhole(body io.Reader, sink service.StreamSink) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", apperrors.NewLLMError("read chat response", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", apperrors.NewLLMError("malformed chat response", err)
	}
	if len(parsed.Choices) == 0 {
		return "", apperrors.NewLLMError("chat response has no choices", nil)
	}

	answer := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if sink != nil {
		sink(answer)
	}
	c.log.Debug("chat response", zap.String("answer", truncateForLog(answer, 200)))
	return answer, nil
}

// readStream feeds the body through the carry-over decoder, raw read by raw
// read, so split frames reassemble exactly as they would in one read.
func (c *Client) readStream(body io.Reader, sink service.StreamSink) (string, error) {
	dec := newStreamDecoder(sink)
	buf := make([]byte, 4096)
	for {
		n, err := body.Read(buf)
		if n > 0 {
			if dec.Push(buf[:n]) {
				break
			}
		}
		if err == io.EOF {
			dec.Finish()
			break
		}
		if err != nil {
			return "", apperrors.NewLLMError("chat stream read failed", err)
		}
	}

	answer := dec.Answer()
	c.log.Debug("chat stream done", zap.String("answer", truncateForLog(answer, 200)))
	return answer, nil
}

func truncateForLog(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
