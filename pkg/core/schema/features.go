// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"path"
	"strings"
)

// Kind identifies one of the gateway features
type Kind string

const (
	KindChat          Kind = "chat"
	KindVision        Kind = "vision"
	KindImage         Kind = "image"
	KindSpeech        Kind = "speech"
	KindTranscription Kind = "transcription"
	KindModeration    Kind = "moderation"
	KindReasoning     Kind = "reasoning"
	KindToolCall      Kind = "tool_call"
)

// Kinds returns every feature kind in display order.
func Kinds() []Kind {
	return []Kind{
		KindChat, KindVision, KindImage, KindSpeech,
		KindTranscription, KindModeration, KindReasoning, KindToolCall,
	}
}

// ParseKind converts a path segment or flag value into a Kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown feature kind: %q", s)
}

// Enumerations accepted at the boundary
var (
	ImageSizes      = []string{"1024x1024", "512x512", "256x256"}
	Voices          = []string{"alloy", "echo", "fable", "onyx", "nova", "shimmer"}
	AudioExtensions = []string{"mp3", "mp4", "mpeg", "mpga", "m4a", "wav", "webm"}
)

const (
	DefaultImageSize      = "1024x1024"
	DefaultVoice          = "alloy"
	DefaultVisionQuestion = "What's in this image?"
)

// Request is a single user action addressed to one feature
type Request interface {
	Kind() Kind
	Validate() error
}

// ValidationError reports a request field rejected before dispatch
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

func invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func requireText(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return invalid(field, "is required")
	}
	return nil
}

func oneOf(field, value string, allowed []string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return invalid(field, "must be one of %s, got %q", strings.Join(allowed, ", "), value)
}

// ChatPrompt asks for a single-turn text completion
type ChatPrompt struct {
	Text string `json:"text"`
}

func (ChatPrompt) Kind() Kind { return KindChat }

func (r ChatPrompt) Validate() error { return requireText("text", r.Text) }

// VisionQuery asks a question about an image reachable by URL
type VisionQuery struct {
	ImageURL string `json:"image_url"`
	Question string `json:"question,omitempty"` // Defaults to DefaultVisionQuestion
}

func (VisionQuery) Kind() Kind { return KindVision }

func (r VisionQuery) Validate() error {
	if err := requireText("image_url", r.ImageURL); err != nil {
		return err
	}
	u, err := url.Parse(r.ImageURL)
	if err != nil {
		return invalid("image_url", "is not a valid URL")
	}
	switch u.Scheme {
	case "http", "https":
		if u.Host == "" {
			return invalid("image_url", "has no host")
		}
	case "data":
	default:
		return invalid("image_url", "must be an http, https or data URL")
	}
	return nil
}

// ImagePrompt asks for one generated image
type ImagePrompt struct {
	Prompt string `json:"prompt"`
	Size   string `json:"size,omitempty"` // Defaults to DefaultImageSize
}

func (ImagePrompt) Kind() Kind { return KindImage }

func (r ImagePrompt) Validate() error {
	if err := requireText("prompt", r.Prompt); err != nil {
		return err
	}
	return oneOf("size", r.Size, ImageSizes)
}

// AudioSynthesis asks for spoken audio of a text in one voice
type AudioSynthesis struct {
	Text  string `json:"text"`
	Voice string `json:"voice,omitempty"` // Defaults to DefaultVoice
}

func (AudioSynthesis) Kind() Kind { return KindSpeech }

func (r AudioSynthesis) Validate() error {
	if err := requireText("text", r.Text); err != nil {
		return err
	}
	return oneOf("voice", r.Voice, Voices)
}

// Transcription uploads recorded audio for speech-to-text
type Transcription struct {
	Filename string `json:"filename"`
	Audio    []byte `json:"-"`
}

func (Transcription) Kind() Kind { return KindTranscription }

func (r Transcription) Validate() error {
	if err := requireText("filename", r.Filename); err != nil {
		return err
	}
	if err := oneOf("file extension", AudioExtension(r.Filename), AudioExtensions); err != nil {
		return err
	}
	if len(r.Audio) == 0 {
		return invalid("file", "is empty")
	}
	return nil
}

// AudioExtension returns the lower-cased extension of filename without the dot.
func AudioExtension(filename string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
}

// ModerationQuery asks for a content classification
type ModerationQuery struct {
	Text string `json:"text"`
}

func (ModerationQuery) Kind() Kind { return KindModeration }

func (r ModerationQuery) Validate() error { return requireText("text", r.Text) }

// ReasoningPrompt asks a reasoning model for a final answer
type ReasoningPrompt struct {
	Text string `json:"text"`
}

func (ReasoningPrompt) Kind() Kind { return KindReasoning }

func (r ReasoningPrompt) Validate() error { return requireText("text", r.Text) }

// ToolCallQuery asks for the current temperature at a coordinate
type ToolCallQuery struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Prompt    string  `json:"prompt,omitempty"`
}

func (ToolCallQuery) Kind() Kind { return KindToolCall }

func (r ToolCallQuery) Validate() error {
	if math.IsNaN(r.Latitude) || r.Latitude < -90 || r.Latitude > 90 {
		return invalid("latitude", "must be between -90 and 90")
	}
	if math.IsNaN(r.Longitude) || r.Longitude < -180 || r.Longitude > 180 {
		return invalid("longitude", "must be between -180 and 180")
	}
	return nil
}

// WithDefaults returns req with unset optional fields filled in.
func WithDefaults(req Request) Request {
	switch r := req.(type) {
	case ImagePrompt:
		if r.Size == "" {
			r.Size = DefaultImageSize
		}
		return r
	case AudioSynthesis:
		if r.Voice == "" {
			r.Voice = DefaultVoice
		}
		return r
	case VisionQuery:
		if r.Question == "" {
			r.Question = DefaultVisionQuestion
		}
		return r
	}
	return req
}

// DecodeRequest unmarshals a JSON body into the request type for kind.
// Transcription carries binary audio and cannot be decoded from JSON.
func DecodeRequest(kind Kind, data []byte) (Request, error) {
	switch kind {
	case KindChat:
		return decode[ChatPrompt](data)
	case KindVision:
		return decode[VisionQuery](data)
	case KindImage:
		return decode[ImagePrompt](data)
	case KindSpeech:
		return decode[AudioSynthesis](data)
	case KindModeration:
		return decode[ModerationQuery](data)
	case KindReasoning:
		return decode[ReasoningPrompt](data)
	case KindToolCall:
		return decodeToolCall(data)
	case KindTranscription:
		return nil, fmt.Errorf("transcription requests must be uploaded as multipart form data")
	}
	return nil, fmt.Errorf("unknown feature kind: %q", kind)
}

func decode[T Request](data []byte) (Request, error) {
	var r T
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("invalid request body: %w", err)
	}
	return r, nil
}

// decodeToolCall requires both coordinates; a zero value is a real place.
func decodeToolCall(data []byte) (Request, error) {
	var body struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
		Prompt    string   `json:"prompt"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("invalid request body: %w", err)
	}
	if body.Latitude == nil {
		return nil, invalid("latitude", "is required")
	}
	if body.Longitude == nil {
		return nil, invalid("longitude", "is required")
	}
	return ToolCallQuery{Latitude: *body.Latitude, Longitude: *body.Longitude, Prompt: body.Prompt}, nil
}
