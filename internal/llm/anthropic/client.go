package anthropic

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"resume-feedback/internal/extract"
	"resume-feedback/internal/llm"
	"resume-feedback/internal/shared/storage/object"
)

const (
	defaultModel     = "claude-3-7-sonnet-latest"
	apiVersion       = "2023-06-01"
	defaultMaxTokens = 4096
	mimePDF          = "application/pdf"
)

var apiURL = "https://api.anthropic.com/v1/messages"

// Client implements llm.Client using the Anthropic Messages API. PDFs are sent as
// document blocks; other formats fall back to extracted text.
type Client struct {
	apiKey     string
	model      string
	maxTokens  int
	store      object.ObjectStore
	httpClient *http.Client
}

// NewClient constructs a new Anthropic client reading resumes from store.
func NewClient(apiKey, model string, store object.ObjectStore) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY is required")
	}
	if store == nil {
		return nil, fmt.Errorf("object store is required")
	}
	if strings.TrimSpace(model) == "" {
		model = defaultModel
	}
	timeout := 120 * time.Second
	if raw := strings.TrimSpace(os.Getenv("ANTHROPIC_TIMEOUT_SECONDS")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			timeout = time.Duration(parsed) * time.Second
		}
	}
	return &Client{
		apiKey:     apiKey,
		model:      model,
		maxTokens:  defaultMaxTokens,
		store:      store,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

type documentSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type contentBlock struct {
	Type   string          `json:"type"`
	Text   string          `json:"text,omitempty"`
	Source *documentSource `json:"source,omitempty"`
}

type message struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type messagesResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Role    string `json:"role"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      *struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Feedback loads the resume at resumePath and asks the model to review it.
func (c *Client) Feedback(ctx context.Context, resumePath string, instructions string) (*llm.Response, error) {
	resumeBlock, err := c.resumeBlock(ctx, resumePath)
	if err != nil {
		return nil, fmt.Errorf("anthropic feedback: %w", err)
	}

	reqBody := messagesRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages: []message{{
			Role:    "user",
			Content: []contentBlock{resumeBlock, {Type: "text", Text: instructions}},
		}},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", apiVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return nil, fmt.Errorf("anthropic request timeout: %w", err)
		}
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var parsed messagesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("anthropic http status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}
		return nil, fmt.Errorf("anthropic response parse: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("anthropic http status %d: %s (%s)", resp.StatusCode, parsed.Error.Message, parsed.Error.Type)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("anthropic http status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	blocks := make([]llm.Block, 0, len(parsed.Content))
	for _, b := range parsed.Content {
		if b.Type != "text" {
			continue
		}
		blocks = append(blocks, llm.Block{Type: b.Type, Text: b.Text})
	}
	if len(blocks) == 0 {
		return nil, fmt.Errorf("anthropic response missing text content")
	}

	out := &llm.Response{
		Message: llm.Message{Role: "assistant", Content: llm.BlockContent(blocks...)},
		Model:   parsed.Model,
	}
	if parsed.Usage != nil {
		out.Usage = &llm.Usage{InputTokens: parsed.Usage.InputTokens, OutputTokens: parsed.Usage.OutputTokens}
		log.Printf("llm response provider=anthropic model=%s input_tokens=%d output_tokens=%d stop_reason=%s",
			c.model, parsed.Usage.InputTokens, parsed.Usage.OutputTokens, parsed.StopReason)
	} else {
		log.Printf("llm response provider=anthropic model=%s stop_reason=%s", c.model, parsed.StopReason)
	}
	return out, nil
}

func (c *Client) resumeBlock(ctx context.Context, resumePath string) (contentBlock, error) {
	body, err := c.store.Open(ctx, resumePath)
	if err != nil {
		return contentBlock{}, fmt.Errorf("open resume key=%s: %w", resumePath, err)
	}
	raw, err := io.ReadAll(body)
	body.Close()
	if err != nil {
		return contentBlock{}, fmt.Errorf("read resume key=%s: %w", resumePath, err)
	}

	if http.DetectContentType(raw) == mimePDF {
		return contentBlock{
			Type: "document",
			Source: &documentSource{
				Type:      "base64",
				MediaType: mimePDF,
				Data:      base64.StdEncoding.EncodeToString(raw),
			},
		}, nil
	}

	text, err := extract.ExtractText(ctx, c.store, resumePath)
	if err != nil {
		return contentBlock{}, err
	}
	return contentBlock{Type: "text", Text: "Resume Text:\n" + text}, nil
}

var _ llm.Client = (*Client)(nil)
