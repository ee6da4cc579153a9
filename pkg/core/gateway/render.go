// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"errors"
	"fmt"

	"github.com/leseb/featuregw/pkg/core/schema"
)

// Level is the banner style a form renderer uses for an Instruction
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Instruction tells a form renderer what to display for one dispatch
type Instruction struct {
	Kind    schema.Kind     `json:"kind"`
	Level   Level           `json:"level"`
	Message string          `json:"message"`
	Error   ErrorKind       `json:"error,omitempty"`
	Payload schema.Response `json:"payload,omitempty"`
}

const invalidCredentialMessage = "⚠ Please enter a valid OpenAI API key!"

var malformedMessages = map[schema.Kind]string{
	schema.KindChat:          "Failed to generate response. Please try again.",
	schema.KindVision:        "Failed to generate response. Please check your API key or image URL.",
	schema.KindImage:         "⚠ Failed to generate image. Please try again.",
	schema.KindSpeech:        "⚠ Failed to generate audio. Please try again.",
	schema.KindTranscription: "Failed to transcribe audio. Please try again.",
	schema.KindModeration:    "Failed to moderate content. Please try again.",
	schema.KindReasoning:     "Failed to generate response. Please try again.",
	schema.KindToolCall:      "Failed to get the current temperature. Please try again.",
}

// Render maps a dispatch outcome to a display instruction.
func Render(kind schema.Kind, resp schema.Response, err error) Instruction {
	if err != nil {
		return renderError(kind, err)
	}
	in := Instruction{Kind: kind, Level: LevelSuccess, Payload: resp}

	switch r := resp.(type) {
	case *schema.TextResult:
		in.Message = r.Text
		if kind == schema.KindChat || kind == schema.KindReasoning {
			in.Level = LevelInfo
		}
	case *schema.ImageResult:
		in.Message = "✅ Image generated successfully!"
	case *schema.AudioResult:
		in.Message = "✅ Audio generated successfully!"
	case *schema.TranscriptResult:
		in.Message = r.Text
	case *schema.ModerationResult:
		in.Message = "Content not flagged"
		if r.Flagged() {
			in.Level = LevelWarning
			in.Message = "Content flagged"
		}
	case *schema.WeatherResult:
		in.Message = WeatherSummary(r)
	default:
		return renderError(kind, malformed(kind, "no response"))
	}
	return in
}

// WeatherSummary formats a weather result, e.g. "🌡️ 10.0°C (50.0°F), Overcast ☁️".
// A result without a tool call falls back to the model's answer.
func WeatherSummary(r *schema.WeatherResult) string {
	if !r.ToolCalled && r.Description == "" {
		return r.Answer
	}
	return fmt.Sprintf("🌡️ %.1f°C (%.1f°F), %s", r.TemperatureC, r.TemperatureF, r.Description)
}

func renderError(kind schema.Kind, err error) Instruction {
	var gwErr *Error
	if !errors.As(err, &gwErr) {
		gwErr = &Error{Kind: KindTransport, Feature: kind, Err: err}
	}
	in := Instruction{Kind: kind, Error: gwErr.Kind}

	switch gwErr.Kind {
	case KindInvalidCredential:
		in.Level = LevelWarning
		in.Message = invalidCredentialMessage
	case KindInvalidRequest:
		in.Level = LevelWarning
		in.Message = gwErr.Error()
	case KindMalformedResponse:
		in.Level = LevelError
		in.Message = malformedMessages[kind]
		if in.Message == "" {
			in.Message = gwErr.Error()
		}
	default:
		in.Level = LevelError
		in.Message = "Error: " + gwErr.Error()
	}
	return in
}
