package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/omarsolano/factura-bridge/internal/core/domain"
	"github.com/omarsolano/factura-bridge/internal/infrastructure/llm"
)

const systemPrompt = "Eres un asistente especializado en extraer información de facturas de Costa Rica. Siempre responde en formato JSON válido."

// Client classifies invoice text through the OpenAI chat-completions API.
// Calls are single-shot: a failure degrades the pipeline to its fallback
// path, so no retries are attempted here.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	defaultID  domain.AccountID
	httpClient *http.Client
}

func New(baseURL, apiKey, model string, defaultID domain.AccountID, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		defaultID:  defaultID,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) Classify(ctx context.Context, text string, categories []domain.AccountingCategory) ([]domain.RawLineItem, error) {
	request := map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": llm.BuildPrompt(text, categories, c.defaultID)},
		},
		"temperature": 0.1,
		"max_tokens":  2000,
	}

	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := c.postJSON(ctx, "/chat/completions", request, &response); err != nil {
		return nil, err
	}
	if len(response.Choices) == 0 {
		return nil, domain.WrapError(domain.ErrClassification, "openai classify", fmt.Errorf("completion has no choices"))
	}

	items, err := llm.DecodeLineItems(response.Choices[0].Message.Content)
	if err != nil {
		return nil, domain.WrapError(domain.ErrClassification, "openai classify", err)
	}
	return items, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal classify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create classify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("openai classify request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		msg := strings.TrimSpace(string(excerpt))
		if msg == "" {
			return fmt.Errorf("openai classify status: %s", resp.Status)
		}
		return fmt.Errorf("openai classify status: %s: %s", resp.Status, msg)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode classify response: %w", err)
	}
	return nil
}
