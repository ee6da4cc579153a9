// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
)

// MockClient is an offline Client for tests and demos.
// Every response is derived from the request alone, so repeated calls
// return identical values.
type MockClient struct{}

// NewMockClient creates a new mock client
func NewMockClient() *MockClient {
	return &MockClient{}
}

// NewMockFactory returns a ClientFactory that ignores the credential.
func NewMockFactory() ClientFactory {
	return func(string) Client { return NewMockClient() }
}

var coordinatePattern = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// Complete implements Client.Complete
func (m *MockClient) Complete(_ context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	return &CompletionResponse{
		ID:    "cmpl-mock",
		Model: req.Model,
		Choices: []CompletionChoice{
			{Index: 0, Text: fmt.Sprintf("Mock response to: %s", req.Prompt), FinishReason: "stop"},
		},
	}, nil
}

// CreateChatCompletion implements Client.CreateChatCompletion.
// With tools offered and no tool result yet, it calls the first tool using
// the first two numbers found in the user message.
func (m *MockClient) CreateChatCompletion(_ context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error) {
	userText, toolResult := "", ""
	for _, msg := range req.Messages {
		switch msg.Role {
		case "user":
			userText = msg.Content
			for _, cp := range msg.ContentParts {
				if cp.Type == "image_url" && cp.ImageURL != nil {
					userText = "image at " + cp.ImageURL.URL
				}
			}
		case "tool":
			toolResult = msg.Content
		}
	}

	msg := Message{Role: "assistant"}
	finish := "stop"

	switch {
	case req.Audio != nil:
		transcript := fmt.Sprintf("Mock speech (%s): %s", req.Audio.Voice, userText)
		msg.Audio = &MessageAudio{
			ID:         "audio-mock",
			Data:       base64.StdEncoding.EncodeToString([]byte(transcript)),
			Transcript: transcript,
		}
	case len(req.Tools) > 0 && toolResult == "":
		nums := coordinatePattern.FindAllString(userText, 2)
		if len(nums) < 2 {
			msg.Content = "Mock response: no coordinates given"
			break
		}
		lat, _ := strconv.ParseFloat(nums[0], 64)
		lon, _ := strconv.ParseFloat(nums[1], 64)
		args, _ := json.Marshal(map[string]float64{"latitude": lat, "longitude": lon})
		msg.ToolCalls = []ToolCall{{
			ID:       "call_mock",
			Type:     "function",
			Function: ToolCallFunction{Name: req.Tools[0].Function.Name, Arguments: string(args)},
		}}
		finish = "tool_calls"
	case toolResult != "":
		msg.Content = fmt.Sprintf("Mock answer using tool result: %s", toolResult)
	default:
		msg.Content = fmt.Sprintf("Mock response to: %s", userText)
	}

	return &ChatCompletionResponse{
		ID:      "chatcmpl-mock",
		Model:   req.Model,
		Choices: []Choice{{Index: 0, Message: msg, FinishReason: finish}},
		Usage: Usage{
			PromptTokens:     estimateTokens(userText),
			CompletionTokens: estimateTokens(msg.Content),
			TotalTokens:      estimateTokens(userText) + estimateTokens(msg.Content),
		},
	}, nil
}

// GenerateImage implements Client.GenerateImage
func (m *MockClient) GenerateImage(_ context.Context, req *ImageRequest) (*ImageResponse, error) {
	n := req.N
	if n < 1 {
		n = 1
	}
	data := make([]ImageData, 0, n)
	for i := 0; i < n; i++ {
		data = append(data, ImageData{
			URL:           fmt.Sprintf("https://images.mock.invalid/%s/%d.png", req.Size, i),
			RevisedPrompt: req.Prompt,
		})
	}
	return &ImageResponse{Data: data}, nil
}

// Transcribe implements Client.Transcribe
func (m *MockClient) Transcribe(_ context.Context, req *TranscriptionRequest) (*TranscriptionResponse, error) {
	return &TranscriptionResponse{
		Text: fmt.Sprintf("Mock transcript of %s (%d bytes)", req.Filename, len(req.Audio)),
	}, nil
}

// Moderate implements Client.Moderate
func (m *MockClient) Moderate(_ context.Context, req *ModerationRequest) (*ModerationResponse, error) {
	raw, err := json.Marshal(map[string]interface{}{
		"id":    "modr-mock",
		"model": req.Model,
		"results": []map[string]interface{}{{
			"flagged":         false,
			"categories":      map[string]bool{"harassment": false, "violence": false},
			"category_scores": map[string]float64{"harassment": 0.0001, "violence": 0.0002},
		}},
	})
	if err != nil {
		return nil, err
	}
	return DecodeModeration(raw)
}

// estimateTokens provides a rough token count estimate
// Using ~4 characters per token as a simple heuristic
func estimateTokens(text string) int {
	return len(text) / 4
}
