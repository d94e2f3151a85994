package fireworks

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tomide-ade/docuverify/constants"
	"github.com/tomide-ade/docuverify/internal/common"
	"github.com/tomide-ade/docuverify/internal/llm"
)

const systemPrompt = "You are a KYC document parser. Return strict JSON only. " +
	"If a field is unreadable, set it to null and add it to missing_fields."

const userText = "Extract passport or driver's license fields into the provided schema. " +
	"Return ai_confidence, missing_fields, evidence with absolute pixel bboxes, and mrz_raw. " +
	"Do not add commentary."

// Extract implements llm.Extractor against the Fireworks chat/completions
// API. Exactly two attempts are made: the primary model, then one fallback
// model configuration. Any failure after the fallback surfaces as a
// classified error, never a raw fault.
func (c *Client) Extract(ctx context.Context, req llm.ExtractRequest) (*llm.ExtractionResult, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	dataURL := toDataURL(req.ImageBytes, req.MIMEType)
	schema := llm.BuildDocumentJSONSchema()

	c.log.Info("llm.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"mime", req.MIMEType,
		"image_bytes", len(req.ImageBytes),
		"doc_hint", string(req.DocumentHint),
	)

	// Explicit two-attempt policy: primary then fallback, nothing more.
	models := []string{c.cfg.Model, c.cfg.FallbackModel}
	var lastRaw []byte
	var lastErr error
	for attempt, model := range models {
		body := c.buildBody(model, dataURL, schema, req.DocumentHint)
		res, raw, err := c.attempt(ctx, rid, body)
		if err == nil {
			c.log.Info("llm.extract.ok",
				"req_id", rid, "model", model, "attempt", attempt+1,
				"document_type", string(res.DocumentType),
				"ai_confidence", res.AIConfidence,
				"missing_fields", len(res.MissingFields),
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return res, raw, nil
		}
		lastRaw, lastErr = raw, err
		c.log.Warn("llm.extract.attempt_failed",
			"req_id", rid, "model", model, "attempt", attempt+1, "error", err,
		)
	}

	c.log.Error("llm.extract.failed",
		"req_id", rid, "error", lastErr,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil, lastRaw, common.NewAppError(
		"EXTRACTION_FAILED",
		"failed to parse structured output after fallback attempt",
		fmt.Errorf("%w: %w", common.ErrExtraction, lastErr),
	)
}

func (c *Client) attempt(ctx context.Context, rid string, body map[string]any) (*llm.ExtractionResult, []byte, error) {
	raw, err := c.post(ctx, strings.TrimRight(c.cfg.BaseURL, "/")+"/chat/completions", body)
	if err != nil {
		return nil, raw, err
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content any             `json:"content"`
				Parsed  json.RawMessage `json:"parsed"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		return nil, raw, fmt.Errorf("decode completion envelope: %w", err)
	}
	if len(cc.Choices) == 0 {
		return nil, raw, fmt.Errorf("no choices in completion response")
	}

	msg := cc.Choices[0].Message
	var doc []byte
	if len(msg.Parsed) > 0 && string(msg.Parsed) != "null" {
		doc = msg.Parsed
	} else {
		doc, err = llm.CoerceJSON(llm.ContentToString(msg.Content))
		if err != nil {
			return nil, raw, err
		}
	}

	schema := llm.BuildDocumentJSONSchema()
	if err := llm.ValidateJSONAgainstSchema(schema, doc); err != nil {
		c.log.Warn("llm.extract.schema_validation_failed", "req_id", rid, "error", err)
		return nil, doc, err
	}

	var out llm.ExtractionResult
	if err := json.Unmarshal(doc, &out); err != nil {
		return nil, doc, fmt.Errorf("unmarshal fields: %w", err)
	}
	out.Normalize()
	return &out, doc, nil
}

func (c *Client) buildBody(model, dataURL string, schema map[string]any, hint constants.DocumentType) map[string]any {
	user := userText
	if hint == constants.Passport || hint == constants.DriversLicense {
		user = "The document is expected to be a " + string(hint) + ". " + user
	}
	return map[string]any{
		"model":           model,
		"temperature":     0,
		"max_tokens":      c.cfg.MaxTokens,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": systemPrompt},
			{
				"role": "user",
				"content": []map[string]any{
					{"type": "text", "text": "JSON Schema:\n" + mustJSON(schema)},
					{"type": "text", "text": user},
					{"type": "image_url", "image_url": map[string]any{"url": dataURL}},
				},
			},
		},
	}
}

func (c *Client) post(ctx context.Context, url string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fireworks http error: %w", err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			c.log.Warn("fireworks response body close error", "error", err)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return raw, fmt.Errorf("fireworks status %d: %s", resp.StatusCode, string(raw))
	}
	return raw, nil
}

func toDataURL(imageBytes []byte, mimeType string) string {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(imageBytes)
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
