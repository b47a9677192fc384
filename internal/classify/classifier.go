package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/danhajduk/synthia/internal/store"
)

const (
	defaultModel   = "gpt-4o-mini"
	defaultAPIURL  = "https://api.openai.com/v1/chat/completions"
	maxTokens      = 300
	temperature    = 0.3
	importantLabel = "Important"

	systemRole = "You are an AI that filters important email senders and returns structured JSON output."
)

// responseSchema is embedded in the system prompt so the model returns
// machine-parseable output.
const responseSchema = `{
  "type": "object",
  "properties": {
    "important_senders": {
      "type": "array",
      "items": {"type": "string"}
    }
  },
  "required": ["important_senders"]
}`

// Classifier asks a text-completion service which senders look important and
// merges the answers into the store's important-sender set. Transport and
// HTTP failures are returned to the caller; malformed model output means
// "no senders identified", not a failure.
type Classifier struct {
	apiKey string
	store  store.Store
	model  string
	apiURL string
	client *http.Client
	logger *zap.Logger
}

// New creates a Classifier. An empty model selects the default.
func New(apiKey string, s store.Store, model string, logger *zap.Logger) *Classifier {
	if model == "" {
		model = defaultModel
	}
	return &Classifier{
		apiKey: apiKey,
		store:  s,
		model:  model,
		apiURL: defaultAPIURL,
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}
}

// ClassifyNew classifies the senders present in the aggregates but not yet
// flagged important, and merges every sender judged important into the store.
// Senders already classified never trigger another request; an empty
// candidate set issues no request at all.
func (c *Classifier) ClassifyNew(ctx context.Context) ([]string, error) {
	senders, err := c.store.UnclassifiedSenders(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load unclassified senders: %w", err)
	}
	if len(senders) == 0 {
		c.logger.Debug("no new senders to classify")
		return nil, nil
	}

	important, err := c.classify(ctx, senders)
	if err != nil {
		return nil, err
	}

	for _, sender := range important {
		if err := c.store.AddImportantSender(ctx, sender, importantLabel); err != nil {
			return nil, fmt.Errorf("failed to merge important sender: %w", err)
		}
	}

	c.logger.Info("classified senders",
		zap.Int("candidates", len(senders)),
		zap.Int("important", len(important)),
	)
	return important, nil
}

// classify performs one chat-completion call. Transport and HTTP failures are
// returned; output the model garbled is treated as zero senders identified.
func (c *Classifier) classify(ctx context.Context, senders []string) ([]string, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("classifier API key not configured")
	}

	sendersJSON, err := json.MarshalIndent(map[string][]string{"senders": senders}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal senders: %w", err)
	}

	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{
				Role: "system",
				Content: systemRole +
					"\nEnsure the response strictly follows this JSON format without additional text:\n\n" +
					responseSchema,
			},
			{
				Role: "user",
				Content: "Identify important email senders from the following JSON list and return them in JSON format:\n\n" +
					string(sendersJSON),
			},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call classifier API: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("classifier API error (%d): %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var cr chatResponse
	if err := json.Unmarshal(respBody, &cr); err != nil {
		return nil, fmt.Errorf("failed to decode response envelope: %w", err)
	}
	if len(cr.Choices) == 0 {
		c.logger.Warn("classifier returned no choices")
		return nil, nil
	}

	return c.parseContent(cr.Choices[0].Message.Content, senders), nil
}

// parseContent extracts the important-sender list from the model's reply.
// The content is normalized first (models like wrapping JSON in code fences);
// anything that still fails to parse yields an empty result.
func (c *Classifier) parseContent(content string, candidates []string) []string {
	cleaned := strings.ReplaceAll(content, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)

	var parsed struct {
		ImportantSenders []string `json:"important_senders"`
	}
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		c.logger.Warn("failed to parse classifier output, treating as empty",
			zap.Error(err),
		)
		return nil
	}

	// Only accept senders we actually asked about.
	candidateSet := make(map[string]struct{}, len(candidates))
	for _, s := range candidates {
		candidateSet[s] = struct{}{}
	}

	var important []string
	for _, s := range parsed.ImportantSenders {
		if _, ok := candidateSet[s]; ok {
			important = append(important, s)
		}
	}
	return important
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}
