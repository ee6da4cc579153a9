// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedResponse marks a provider body that arrived but could not be
// decoded.
var ErrMalformedResponse = errors.New("malformed provider response")

// CompletionRequest is a legacy single-prompt text completion
type CompletionRequest struct {
	Model       string   `json:"model"`
	Prompt      string   `json:"prompt"`
	Temperature *float64 `json:"temperature,omitempty"`
}

// CompletionResponse holds the generated choices of a text completion
type CompletionResponse struct {
	ID      string             `json:"id"`
	Model   string             `json:"model"`
	Choices []CompletionChoice `json:"choices"`
}

// CompletionChoice is one generated text
type CompletionChoice struct {
	Index        int    `json:"index"`
	Text         string `json:"text"`
	FinishReason string `json:"finish_reason"`
}

// ImageRequest asks for generated images
type ImageRequest struct {
	Model   string `json:"model"`
	Prompt  string `json:"prompt"`
	Size    string `json:"size"`    // e.g. "1024x1024"
	Quality string `json:"quality"` // "standard", "hd"
	N       int    `json:"n"`
}

// ImageResponse lists generated images
type ImageResponse struct {
	Created int64       `json:"created"`
	Data    []ImageData `json:"data"`
}

// ImageData is one generated image
type ImageData struct {
	URL           string `json:"url,omitempty"`
	RevisedPrompt string `json:"revised_prompt,omitempty"`
}

// TranscriptionRequest uploads an audio file for transcription
type TranscriptionRequest struct {
	Model       string
	Filename    string
	ContentType string
	Audio       []byte
}

// TranscriptionResponse holds the transcript
type TranscriptionResponse struct {
	Text string `json:"text"`
}

// ModerationRequest classifies a piece of text
type ModerationRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

// ModerationResponse is the classification returned by the provider.
// Raw keeps the body exactly as received.
type ModerationResponse struct {
	ID      string             `json:"id"`
	Model   string             `json:"model"`
	Results []ModerationResult `json:"results"`
	Raw     json.RawMessage    `json:"-"`
}

// ModerationResult is the verdict for one input
type ModerationResult struct {
	Flagged                   bool                `json:"flagged"`
	Categories                map[string]bool     `json:"categories"`
	CategoryScores            map[string]float64  `json:"category_scores"`
	CategoryAppliedInputTypes map[string][]string `json:"category_applied_input_types,omitempty"`
}

// DecodeModeration parses a raw moderation body, keeping the raw bytes.
func DecodeModeration(raw []byte) (*ModerationResponse, error) {
	var resp ModerationResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	resp.Raw = append(json.RawMessage(nil), raw...)
	return &resp, nil
}
