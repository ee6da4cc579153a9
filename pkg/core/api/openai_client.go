// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"bytes"
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// OpenAIClient implements Client using the official OpenAI Go SDK.
// Any OpenAI-compatible backend works when baseURL points at it.
type OpenAIClient struct {
	client openai.Client
}

// NewOpenAIClient creates a client bound to one API key. SDK retries are
// turned off: every user action maps to exactly one upstream attempt.
func NewOpenAIClient(baseURL, apiKey string, extra ...option.RequestOption) *OpenAIClient {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	opts = append(opts, extra...)

	return &OpenAIClient{
		client: openai.NewClient(opts...),
	}
}

// NewOpenAIFactory returns a ClientFactory producing OpenAIClients for baseURL.
func NewOpenAIFactory(baseURL string, extra ...option.RequestOption) ClientFactory {
	return func(credential string) Client {
		return NewOpenAIClient(baseURL, credential, extra...)
	}
}

// Complete implements Client.Complete
func (c *OpenAIClient) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	params := openai.CompletionNewParams{
		Model: openai.CompletionNewParamsModel(req.Model),
		Prompt: openai.CompletionNewParamsPromptUnion{
			OfString: openai.String(req.Prompt),
		},
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}

	completion, err := c.client.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("text completion failed: %w", err)
	}

	choices := make([]CompletionChoice, 0, len(completion.Choices))
	for _, choice := range completion.Choices {
		choices = append(choices, CompletionChoice{
			Index:        int(choice.Index),
			Text:         choice.Text,
			FinishReason: string(choice.FinishReason),
		})
	}

	return &CompletionResponse{
		ID:      completion.ID,
		Model:   completion.Model,
		Choices: choices,
	}, nil
}

// convertMessages converts our Message types to OpenAI SDK message params
func convertMessages(messages []Message) ([]openai.ChatCompletionMessageParamUnion, error) {
	result := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case "system":
			result = append(result, openai.SystemMessage(msg.Content))
		case "user":
			if len(msg.ContentParts) == 0 {
				result = append(result, openai.UserMessage(msg.Content))
				continue
			}
			parts := make([]openai.ChatCompletionContentPartUnionParam, 0, len(msg.ContentParts))
			for _, cp := range msg.ContentParts {
				switch cp.Type {
				case "text":
					parts = append(parts, openai.TextContentPart(cp.Text))
				case "image_url":
					if cp.ImageURL == nil {
						return nil, fmt.Errorf("image_url content part without url")
					}
					imgParam := openai.ChatCompletionContentPartImageImageURLParam{
						URL: cp.ImageURL.URL,
					}
					if cp.ImageURL.Detail != "" {
						imgParam.Detail = cp.ImageURL.Detail
					}
					parts = append(parts, openai.ImageContentPart(imgParam))
				default:
					return nil, fmt.Errorf("unsupported content part type: %s", cp.Type)
				}
			}
			result = append(result, openai.UserMessage(parts))
		case "assistant":
			if len(msg.ToolCalls) == 0 {
				result = append(result, openai.AssistantMessage(msg.Content))
				continue
			}
			toolCalls := make([]openai.ChatCompletionMessageToolCallParam, 0, len(msg.ToolCalls))
			for _, tc := range msg.ToolCalls {
				toolCalls = append(toolCalls, openai.ChatCompletionMessageToolCallParam{
					ID: tc.ID,
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      tc.Function.Name,
						Arguments: tc.Function.Arguments,
					},
				})
			}
			assistantMsg := &openai.ChatCompletionAssistantMessageParam{
				ToolCalls: toolCalls,
			}
			if msg.Content != "" {
				assistantMsg.Content.OfString = openai.String(msg.Content)
			}
			result = append(result, openai.ChatCompletionMessageParamUnion{
				OfAssistant: assistantMsg,
			})
		case "tool":
			result = append(result, openai.ToolMessage(msg.Content, msg.ToolCallID))
		default:
			return nil, fmt.Errorf("unsupported message role: %s", msg.Role)
		}
	}
	return result, nil
}

// buildParams constructs OpenAI SDK ChatCompletionNewParams from our ChatCompletionRequest
func buildParams(req *ChatCompletionRequest, messages []openai.ChatCompletionMessageParamUnion) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(req.Model),
		Messages: messages,
	}

	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}
	if req.MaxTokens != nil {
		params.MaxTokens = openai.Int(int64(*req.MaxTokens))
	}

	if len(req.Modalities) > 0 {
		params.Modalities = req.Modalities
	}
	if req.Audio != nil {
		params.Audio = openai.ChatCompletionAudioParam{
			Format: openai.ChatCompletionAudioParamFormat(req.Audio.Format),
			Voice:  openai.ChatCompletionAudioParamVoice(req.Audio.Voice),
		}
	}

	if len(req.Tools) > 0 {
		tools := make([]openai.ChatCompletionToolParam, 0, len(req.Tools))
		for _, t := range req.Tools {
			funcDef := shared.FunctionDefinitionParam{
				Name: t.Function.Name,
			}
			if t.Function.Description != "" {
				funcDef.Description = openai.String(t.Function.Description)
			}
			if t.Function.Parameters != nil {
				funcDef.Parameters = shared.FunctionParameters(t.Function.Parameters)
			}
			tools = append(tools, openai.ChatCompletionToolParam{
				Function: funcDef,
			})
		}
		params.Tools = tools
	}
	if req.ToolChoice != "" {
		params.ToolChoice = openai.ChatCompletionToolChoiceOptionUnionParam{
			OfAuto: openai.String(req.ToolChoice),
		}
	}

	return params
}

// extractToolCalls converts SDK tool calls to our ToolCall types
func extractToolCalls(sdkToolCalls []openai.ChatCompletionMessageToolCall) []ToolCall {
	if len(sdkToolCalls) == 0 {
		return nil
	}
	result := make([]ToolCall, 0, len(sdkToolCalls))
	for _, tc := range sdkToolCalls {
		result = append(result, ToolCall{
			ID:   tc.ID,
			Type: string(tc.Type),
			Function: ToolCallFunction{
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			},
		})
	}
	return result
}

// CreateChatCompletion implements Client.CreateChatCompletion
func (c *OpenAIClient) CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error) {
	messages, err := convertMessages(req.Messages)
	if err != nil {
		return nil, fmt.Errorf("failed to convert messages: %w", err)
	}

	completion, err := c.client.Chat.Completions.New(ctx, buildParams(req, messages))
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}

	choices := make([]Choice, 0, len(completion.Choices))
	for _, choice := range completion.Choices {
		msg := Message{
			Role:      string(choice.Message.Role),
			Content:   choice.Message.Content,
			ToolCalls: extractToolCalls(choice.Message.ToolCalls),
		}
		if a := choice.Message.Audio; a.Data != "" || a.ID != "" {
			msg.Audio = &MessageAudio{
				ID:         a.ID,
				Data:       a.Data,
				Transcript: a.Transcript,
			}
		}
		choices = append(choices, Choice{
			Index:        int(choice.Index),
			Message:      msg,
			FinishReason: string(choice.FinishReason),
		})
	}

	return &ChatCompletionResponse{
		ID:      completion.ID,
		Model:   completion.Model,
		Choices: choices,
		Usage: Usage{
			PromptTokens:     int(completion.Usage.PromptTokens),
			CompletionTokens: int(completion.Usage.CompletionTokens),
			TotalTokens:      int(completion.Usage.TotalTokens),
		},
	}, nil
}

// GenerateImage implements Client.GenerateImage
func (c *OpenAIClient) GenerateImage(ctx context.Context, req *ImageRequest) (*ImageResponse, error) {
	params := openai.ImageGenerateParams{
		Prompt:  req.Prompt,
		Model:   openai.ImageModel(req.Model),
		Size:    openai.ImageGenerateParamsSize(req.Size),
		Quality: openai.ImageGenerateParamsQuality(req.Quality),
	}
	if req.N > 0 {
		params.N = openai.Int(int64(req.N))
	}

	images, err := c.client.Images.Generate(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("image generation failed: %w", err)
	}

	data := make([]ImageData, 0, len(images.Data))
	for _, img := range images.Data {
		data = append(data, ImageData{
			URL:           img.URL,
			RevisedPrompt: img.RevisedPrompt,
		})
	}
	return &ImageResponse{
		Created: images.Created,
		Data:    data,
	}, nil
}

// Transcribe implements Client.Transcribe
func (c *OpenAIClient) Transcribe(ctx context.Context, req *TranscriptionRequest) (*TranscriptionResponse, error) {
	contentType := req.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	params := openai.AudioTranscriptionNewParams{
		File:  openai.File(bytes.NewReader(req.Audio), req.Filename, contentType),
		Model: openai.AudioModel(req.Model),
	}

	transcript, err := c.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("transcription failed: %w", err)
	}
	return &TranscriptionResponse{Text: transcript.Text}, nil
}

// Moderate implements Client.Moderate
func (c *OpenAIClient) Moderate(ctx context.Context, req *ModerationRequest) (*ModerationResponse, error) {
	params := openai.ModerationNewParams{
		Input: openai.ModerationNewParamsInputUnion{
			OfString: openai.String(req.Input),
		},
	}
	if req.Model != "" {
		params.Model = openai.ModerationModel(req.Model)
	}

	moderation, err := c.client.Moderations.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("moderation failed: %w", err)
	}

	resp, err := DecodeModeration([]byte(moderation.RawJSON()))
	if err != nil {
		return nil, fmt.Errorf("failed to decode moderation: %w", err)
	}
	return resp, nil
}
