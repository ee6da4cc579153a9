// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package api

import "context"

// Client is the provider surface the gateway needs, one method per
// upstream endpoint.
type Client interface {
	// Complete calls the legacy single-turn text completion endpoint
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// CreateChatCompletion calls the chat completion endpoint (vision,
	// reasoning, audio output and tool calling all go through it)
	CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error)

	// GenerateImage calls the image generation endpoint
	GenerateImage(ctx context.Context, req *ImageRequest) (*ImageResponse, error)

	// Transcribe uploads audio to the transcription endpoint
	Transcribe(ctx context.Context, req *TranscriptionRequest) (*TranscriptionResponse, error)

	// Moderate calls the moderation endpoint
	Moderate(ctx context.Context, req *ModerationRequest) (*ModerationResponse, error)
}

// ClientFactory builds a Client bound to one credential. The gateway calls
// it once per dispatch so no credential outlives its request.
type ClientFactory func(credential string) Client

// ChatCompletionRequest represents a chat completion request
type ChatCompletionRequest struct {
	Model       string       `json:"model"`
	Messages    []Message    `json:"messages"`
	Temperature *float64     `json:"temperature,omitempty"`
	MaxTokens   *int         `json:"max_tokens,omitempty"`
	Modalities  []string     `json:"modalities,omitempty"` // e.g. ["text", "audio"]
	Audio       *AudioOutput `json:"audio,omitempty"`
	Tools       []Tool       `json:"tools,omitempty"`
	ToolChoice  string       `json:"tool_choice,omitempty"` // "none", "auto", "required"
}

// AudioOutput requests spoken output from an audio-capable model
type AudioOutput struct {
	Voice  string `json:"voice"`
	Format string `json:"format"` // "wav", "mp3", "flac", "opus", "pcm16"
}

// Tool represents a tool available to the model
type Tool struct {
	Type     string       `json:"type"` // "function"
	Function ToolFunction `json:"function"`
}

// ToolFunction describes a function tool
type ToolFunction struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	Parameters  map[string]interface{} `json:"parameters,omitempty"`
}

// Message represents a chat message
type Message struct {
	Role         string               `json:"role"`                    // "system", "user", "assistant", "tool"
	Content      string               `json:"content"`                 // Message text content
	ContentParts []MessageContentPart `json:"content_parts,omitempty"` // Multimodal content parts (takes precedence over Content when non-empty)
	ToolCalls    []ToolCall           `json:"tool_calls,omitempty"`    // Tool calls (assistant messages)
	ToolCallID   string               `json:"tool_call_id,omitempty"`  // Tool call ID (tool messages)
	Audio        *MessageAudio        `json:"audio,omitempty"`         // Spoken output (assistant messages)
}

// MessageContentPart represents a content part in a multimodal message
type MessageContentPart struct {
	Type     string           `json:"type"`                // "text", "image_url"
	Text     string           `json:"text,omitempty"`      // Text content (when Type="text")
	ImageURL *MessageImageURL `json:"image_url,omitempty"` // Image URL (when Type="image_url")
}

// MessageImageURL represents an image URL in a content part
type MessageImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"` // "auto", "low", "high"
}

// MessageAudio carries audio generated by the model
type MessageAudio struct {
	ID         string `json:"id"`
	Data       string `json:"data"` // base64 encoded
	Transcript string `json:"transcript,omitempty"`
}

// ToolCall represents a tool call made by the assistant
type ToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"` // "function"
	Function ToolCallFunction `json:"function"`
}

// ToolCallFunction contains the function name and arguments for a tool call
type ToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ChatCompletionResponse represents a chat completion response
type ChatCompletionResponse struct {
	ID      string   `json:"id"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

// Choice represents a completion choice
type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"` // "stop", "length", "tool_calls", "content_filter"
}

// Usage represents token usage statistics
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
