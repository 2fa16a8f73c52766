package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/fluencykaizen/backend/internal/caption"
	"github.com/fluencykaizen/backend/internal/whisper"
)

const (
	geminiAPIBase = "https://generativelanguage.googleapis.com/v1beta/models"
	defaultModel  = "gemini-2.5-flash"
	maxAttempts   = 3
)

// ModelResolver returns the current Gemini model from settings.
type ModelResolver func() string

// AnalysisError reports an analysis that exhausted its retry budget.
// Errors holds every attempt's failure reason in order.
type AnalysisError struct {
	Attempts int
	Errors   []string
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("analysis failed after %d attempts: %s", e.Attempts, strings.Join(e.Errors, "; "))
}

// LastError returns the most recent attempt's failure reason.
func (e *AnalysisError) LastError() string {
	if len(e.Errors) == 0 {
		return ""
	}
	return e.Errors[len(e.Errors)-1]
}

// Client turns a transcript into validated ClipData via the Gemini
// generateContent API.
type Client struct {
	apiKey        string
	modelResolver ModelResolver
	limits        caption.Limits
	httpClient    *http.Client

	// BaseURL overrides the Gemini endpoint, for tests.
	BaseURL string
}

func NewClient(apiKey string, modelResolver ModelResolver, limits caption.Limits) *Client {
	return &Client{
		apiKey:        apiKey,
		modelResolver: modelResolver,
		limits:        limits,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
		BaseURL: geminiAPIBase,
	}
}

func (c *Client) currentModel() string {
	if c.modelResolver != nil {
		if m := c.modelResolver(); m != "" {
			return m
		}
	}
	return defaultModel
}

type contentPart struct {
	Text string `json:"text"`
}

type content struct {
	Role  string        `json:"role"`
	Parts []contentPart `json:"parts"`
}

// Analyze sends the transcript to Gemini and returns validated,
// normalized, limit-enforced ClipData.
//
// Parse and validation failures are retried up to maxAttempts within
// the same conversation: the failed response stays in the history and
// a corrective prompt names the exact violation. Stateless re-prompting
// tends to repeat the same mistake; keeping the conversation lets the
// model patch its previous answer instead.
func (c *Client) Analyze(ctx context.Context, transcript *whisper.Transcript, videoFileName string) (*caption.ClipData, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("gemini API key not configured")
	}

	model := c.currentModel()
	prompt := buildPrompt(transcript, videoFileName, c.limits)
	history := []content{
		{Role: "user", Parts: []contentPart{{Text: prompt}}},
	}

	var attemptErrors []string
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt == 1 {
			log.Printf("[gemini] sending transcript to %s", model)
		} else {
			log.Printf("[gemini] retry %d/%d: re-sending with correction context", attempt, maxAttempts)
			retry := buildRetryPrompt(attemptErrors[len(attemptErrors)-1])
			history = append(history, content{Role: "user", Parts: []contentPart{{Text: retry}}})
		}

		responseText, err := c.generate(ctx, model, history)
		if err != nil {
			attemptErrors = append(attemptErrors, err.Error())
			log.Printf("[gemini] attempt %d/%d failed: %v", attempt, maxAttempts, err)
			continue
		}

		history = append(history, content{Role: "model", Parts: []contentPart{{Text: responseText}}})

		data, err := parseClipData(responseText)
		if err == nil {
			err = caption.Validate(data)
		}
		if err != nil {
			attemptErrors = append(attemptErrors, err.Error())
			log.Printf("[gemini] attempt %d/%d failed: %v", attempt, maxAttempts, err)
			continue
		}

		caption.NormalizeTimestamps(data)
		caption.BackfillEnglish(data, transcript)
		caption.EnforceLimits(data, c.limits)

		log.Printf("[gemini] analysis complete: %gs clip selected", data.Clip.Duration())
		return data, nil
	}

	return nil, &AnalysisError{Attempts: maxAttempts, Errors: attemptErrors}
}

// generate performs one generateContent call with the accumulated
// conversation and returns the model's text.
func (c *Client) generate(ctx context.Context, model string, history []content) (string, error) {
	reqBody := map[string]interface{}{
		"contents": history,
		"generationConfig": map[string]interface{}{
			"responseMimeType": "application/json",
			"responseSchema":   responseSchema,
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/%s:generateContent", c.BaseURL, model)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonBody))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("gemini API request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini API error (status %d): %s", resp.StatusCode, string(body))
	}

	var geminiResp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
			FinishReason string `json:"finishReason"`
		} `json:"candidates"`
		PromptFeedback struct {
			BlockReason string `json:"blockReason"`
		} `json:"promptFeedback"`
	}
	if err := json.Unmarshal(body, &geminiResp); err != nil {
		return "", fmt.Errorf("parse gemini response: %w", err)
	}

	if len(geminiResp.Candidates) == 0 || len(geminiResp.Candidates[0].Content.Parts) == 0 {
		if geminiResp.PromptFeedback.BlockReason != "" {
			return "", fmt.Errorf("gemini blocked: %s", geminiResp.PromptFeedback.BlockReason)
		}
		return "", fmt.Errorf("empty gemini response")
	}

	if fr := geminiResp.Candidates[0].FinishReason; fr != "" && fr != "STOP" {
		log.Printf("[gemini] WARNING: finishReason=%s", fr)
	}

	return geminiResp.Candidates[0].Content.Parts[0].Text, nil
}

var fencedJSONRe = regexp.MustCompile("```(?:json)?\\n?([\\s\\S]*?)\\n?```")

// parseClipData parses the model output as JSON, falling back to a
// fenced code block when the model wrapped the document despite
// instructions.
func parseClipData(responseText string) (*caption.ClipData, error) {
	var data caption.ClipData
	if err := json.Unmarshal([]byte(responseText), &data); err == nil {
		return &data, nil
	}

	if m := fencedJSONRe.FindStringSubmatch(responseText); m != nil {
		if err := json.Unmarshal([]byte(m[1]), &data); err == nil {
			return &data, nil
		}
	}

	snippet := responseText
	if len(snippet) > 200 {
		snippet = snippet[:200]
	}
	return nil, &caption.ValidationError{
		Reason: fmt.Sprintf("Failed to parse response as JSON: %s", snippet),
	}
}
