// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import "encoding/json"

// Response is the typed outcome of a successful dispatch.
// Responses carry no generated IDs or timestamps.
type Response interface {
	Kind() Kind
}

// TextResult is generated text from chat, vision or reasoning
type TextResult struct {
	Feature Kind   `json:"kind"`
	Model   string `json:"model"`
	Text    string `json:"text"`
}

func (r *TextResult) Kind() Kind { return r.Feature }

// ImageResult points at a generated image hosted by the provider
type ImageResult struct {
	URL           string `json:"url"`
	RevisedPrompt string `json:"revised_prompt,omitempty"`
	Size          string `json:"size"`
}

func (*ImageResult) Kind() Kind { return KindImage }

// AudioResult holds decoded speech audio.
// Location is where the audio sink stored the bytes.
type AudioResult struct {
	Voice      string `json:"voice"`
	Format     string `json:"format"`
	Audio      []byte `json:"audio"` // base64 in JSON
	Transcript string `json:"transcript,omitempty"`
	Location   string `json:"location"`
}

func (*AudioResult) Kind() Kind { return KindSpeech }

// TranscriptResult is the text recognized in uploaded audio
type TranscriptResult struct {
	Filename string `json:"filename"`
	Text     string `json:"text"`
}

func (*TranscriptResult) Kind() Kind { return KindTranscription }

// ModerationResult is the provider classification, surfaced verbatim.
// Raw holds the provider body byte for byte.
type ModerationResult struct {
	ID      string              `json:"id"`
	Model   string              `json:"model"`
	Results []ModerationVerdict `json:"results"`
	Raw     json.RawMessage     `json:"raw"`
}

func (*ModerationResult) Kind() Kind { return KindModeration }

// Flagged reports whether any input was flagged by the provider.
func (r *ModerationResult) Flagged() bool {
	for _, v := range r.Results {
		if v.Flagged {
			return true
		}
	}
	return false
}

// ModerationVerdict is the classification of one input
type ModerationVerdict struct {
	Flagged        bool               `json:"flagged"`
	Categories     map[string]bool    `json:"categories"`
	CategoryScores map[string]float64 `json:"category_scores"`
}

// WeatherResult is the outcome of a temperature tool call.
// ToolCalled is false when the model answered without requesting the tool.
type WeatherResult struct {
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	TemperatureC float64 `json:"temperature_c"`
	TemperatureF float64 `json:"temperature_f"`
	WeatherCode  int     `json:"weather_code"`
	Description  string  `json:"description"`
	Answer       string  `json:"answer,omitempty"`
	Model        string  `json:"model"`
	ToolCalled   bool    `json:"tool_called"`
}

func (*WeatherResult) Kind() Kind { return KindToolCall }

// FeatureInfo describes one feature and the values it accepts
type FeatureInfo struct {
	Kind    Kind                `json:"kind"`
	Model   string              `json:"model"`
	Options map[string][]string `json:"options,omitempty"`
}

// ListFeaturesResponse lists available features
type ListFeaturesResponse struct {
	Object string        `json:"object"` // Always "list"
	Data   []FeatureInfo `json:"data"`
}
