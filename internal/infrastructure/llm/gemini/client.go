package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/omarsolano/factura-bridge/internal/core/domain"
	"github.com/omarsolano/factura-bridge/internal/infrastructure/llm"
)

// Client is the alternate classification provider, speaking the Gemini
// generateContent API. Same single-shot contract as the primary.
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
		"contents": []map[string]any{
			{"parts": []map[string]string{
				{"text": llm.BuildPrompt(text, categories, c.defaultID)},
			}},
		},
		"generationConfig": map[string]any{
			"temperature":     0.1,
			"maxOutputTokens": 2000,
		},
	}

	var response struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}

	path := fmt.Sprintf("/models/%s:generateContent?key=%s", c.model, url.QueryEscape(c.apiKey))
	if err := c.postJSON(ctx, path, request, &response); err != nil {
		return nil, err
	}
	if len(response.Candidates) == 0 || len(response.Candidates[0].Content.Parts) == 0 {
		return nil, domain.WrapError(domain.ErrClassification, "gemini classify", fmt.Errorf("completion has no candidates"))
	}

	items, err := llm.DecodeLineItems(response.Candidates[0].Content.Parts[0].Text)
	if err != nil {
		return nil, domain.WrapError(domain.ErrClassification, "gemini classify", err)
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

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gemini classify request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		msg := strings.TrimSpace(string(excerpt))
		if msg == "" {
			return fmt.Errorf("gemini classify status: %s", resp.Status)
		}
		return fmt.Errorf("gemini classify status: %s: %s", resp.Status, msg)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode classify response: %w", err)
	}
	return nil
}
