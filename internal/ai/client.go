// Package ai drafts reply bodies through an OpenAI-compatible chat
// completion endpoint. A missing API key disables the engine entirely; the
// pipeline then falls back to similarity retrieval.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mvidal/replydraft/internal/model"
)

const (
	// maxSampleReplies caps how many past replies are included in the
	// prompt as a style guide.
	maxSampleReplies = 5

	// MinReplyLength is the shortest cleaned completion accepted as a
	// usable draft body.
	MinReplyLength = 10

	completionsPath = "/v1/chat/completions"
)

const systemPrompt = "You are an assistant that drafts email reply bodies. " +
	"Output only the body of the reply, never a subject line. " +
	"Mirror the tone and phrasing of the sample past replies when they are provided. " +
	"Be specific to the incoming message; do not produce generic boilerplate. " +
	"Keep the reply under 180 words. " +
	"Never ask the sender for information already present in their message."

// Client calls the completion API to suggest reply bodies.
type Client struct {
	apiKey      string
	modelName   string
	baseURL     string
	temperature float64
	maxTokens   int
	httpClient  *http.Client
	log         *logrus.Entry
}

// NewClient creates a completion client from the OpenAI configuration.
func NewClient(cfg model.OpenAIConfig, log *logrus.Entry) *Client {
	return &Client{
		apiKey:      cfg.APIKey,
		modelName:   cfg.Model,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		log: log,
	}
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	Messages    []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// SuggestReply asks the completion API for a reply body to the incoming
// message, using up to five past replies as a style guide. It returns ""
// when the engine is disabled, the call fails, or the cleaned output is too
// short to be a usable draft.
func (c *Client) SuggestReply(ctx context.Context, incoming string, pastReplies []string, subject, from string) string {
	if !c.Enabled() {
		return ""
	}

	raw, err := c.complete(ctx, buildUserPrompt(incoming, pastReplies, subject, from))
	if err != nil {
		c.log.WithError(err).Warn("completion request failed")
		return ""
	}

	cleaned := CleanReply(raw)
	if len(cleaned) < MinReplyLength {
		c.log.WithField("length", len(cleaned)).Debug("completion too short, discarding")
		return ""
	}
	return cleaned
}

// buildUserPrompt assembles the user message: optional subject/from
// context, the incoming body, sample past replies, and a final instruction
// to start directly with the reply content.
func buildUserPrompt(incoming string, pastReplies []string, subject, from string) string {
	var b strings.Builder

	if subject != "" {
		fmt.Fprintf(&b, "Subject: %s\n", subject)
	}
	if from != "" {
		fmt.Fprintf(&b, "From: %s\n", from)
	}
	if b.Len() > 0 {
		b.WriteString("\n")
	}

	body := strings.TrimSpace(incoming)
	if body == "" {
		body = "(the message body is empty)"
	}
	fmt.Fprintf(&b, "Incoming email:\n%s\n\n", body)

	if len(pastReplies) > 0 {
		samples := pastReplies
		if len(samples) > maxSampleReplies {
			samples = samples[:maxSampleReplies]
		}
		b.WriteString("Here are some of my past replies. Mirror their style where appropriate:\n")
		b.WriteString(strings.Join(samples, "\n---\n"))
		b.WriteString("\n\n")
	}

	b.WriteString("Write the suggested reply now. Start directly with the reply content.\n")
	return b.String()
}

// complete performs the chat completion call and returns the raw message
// text of the first choice.
func (c *Client) complete(ctx context.Context, userPrompt string) (string, error) {
	reqBody := chatRequest{
		Model:       c.modelName,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
	}

	data, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.baseURL+completionsPath, bytes.NewReader(data),
	)
	if err != nil {
		return "", fmt.Errorf("creating completion request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("executing completion request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading completion response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("completion API status %d: %s", resp.StatusCode, respBody)
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("parsing completion response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("completion response contained no choices")
	}

	return parsed.Choices[0].Message.Content, nil
}
