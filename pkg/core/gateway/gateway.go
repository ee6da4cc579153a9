// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package gateway turns a credential and a feature request into exactly one
// provider round trip (tool calls aside) and a typed result or classified
// error.
package gateway

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/leseb/featuregw/pkg/audiostore"
	"github.com/leseb/featuregw/pkg/core/api"
	"github.com/leseb/featuregw/pkg/core/config"
	"github.com/leseb/featuregw/pkg/core/journal"
	"github.com/leseb/featuregw/pkg/core/schema"
	"github.com/leseb/featuregw/pkg/observability/logging"
	"github.com/leseb/featuregw/pkg/weather"
)

// Gateway dispatches feature requests to the provider. It holds no
// per-request state and is safe for concurrent use.
type Gateway struct {
	config    *config.GatewayConfig
	newClient api.ClientFactory
	weather   weather.Provider
	audio     audiostore.Store
	journal   journal.Journal // nil-safe: nil disables the journal
	logger    *logging.Logger
}

// New creates a Gateway. The journal and logger are optional.
func New(cfg *config.GatewayConfig, clients api.ClientFactory, wx weather.Provider, audio audiostore.Store, j journal.Journal, logger *logging.Logger) (*Gateway, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if clients == nil {
		return nil, fmt.Errorf("client factory is required")
	}
	if wx == nil {
		return nil, fmt.Errorf("weather provider is required")
	}
	if audio == nil {
		return nil, fmt.Errorf("audio store is required")
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Gateway{
		config:    cfg,
		newClient: clients,
		weather:   wx,
		audio:     audio,
		journal:   j,
		logger:    logger,
	}, nil
}

// ValidCredential applies the syntactic prefix check. It is not
// authentication: a revoked key passes and is rejected by the provider.
func (g *Gateway) ValidCredential(credential string) bool {
	return credential != "" && strings.HasPrefix(credential, g.config.CredentialPrefix)
}

// Dispatch validates the credential and request, performs the provider
// call(s) and returns a typed response or a *Error.
func (g *Gateway) Dispatch(ctx context.Context, credential string, req schema.Request) (schema.Response, error) {
	if req == nil {
		return nil, invalidRequest("", fmt.Errorf("request is required"))
	}
	kind := req.Kind()
	start := time.Now()

	resp, model, err := g.dispatch(ctx, credential, req)

	elapsed := time.Since(start)
	outcome := journal.OutcomeSuccess
	if err != nil {
		outcome = string(KindOf(err))
	}
	g.logger.Info("Dispatch completed",
		"kind", kind, "outcome", outcome, "model", model, "duration_ms", elapsed.Milliseconds())
	if err != nil && KindOf(err) != KindInvalidCredential {
		g.logger.Debug("Dispatch error", "kind", kind, "error", err)
	}
	g.record(ctx, kind, outcome, model, elapsed)

	return resp, err
}

func (g *Gateway) dispatch(ctx context.Context, credential string, req schema.Request) (schema.Response, string, error) {
	kind := req.Kind()
	if !g.ValidCredential(credential) {
		return nil, "", invalidCredential(kind)
	}

	if vq, ok := req.(schema.VisionQuery); ok && vq.Question == "" {
		vq.Question = g.config.VisionQuestion
		req = vq
	}
	req = schema.WithDefaults(req)
	if err := req.Validate(); err != nil {
		return nil, "", invalidRequest(kind, err)
	}

	client := g.newClient(credential)
	switch r := req.(type) {
	case schema.ChatPrompt:
		return g.chat(ctx, client, r)
	case schema.VisionQuery:
		return g.vision(ctx, client, r)
	case schema.ImagePrompt:
		return g.image(ctx, client, r)
	case schema.AudioSynthesis:
		return g.speech(ctx, client, r)
	case schema.Transcription:
		return g.transcribe(ctx, client, r)
	case schema.ModerationQuery:
		return g.moderate(ctx, client, r)
	case schema.ReasoningPrompt:
		return g.reason(ctx, client, r)
	case schema.ToolCallQuery:
		return g.toolCall(ctx, client, r)
	}
	return nil, "", invalidRequest(kind, fmt.Errorf("unsupported request type %T", req))
}

// callContext bounds one external call by the configured timeout.
func (g *Gateway) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, g.config.Timeout)
}

func (g *Gateway) record(ctx context.Context, kind schema.Kind, outcome, model string, elapsed time.Duration) {
	if g.journal == nil {
		return
	}
	entry := journal.NewEntry(kind, outcome, model, elapsed)
	if err := g.journal.Record(context.WithoutCancel(ctx), entry); err != nil {
		g.logger.Warn("Failed to record dispatch", "error", err, "kind", kind)
	}
}

func (g *Gateway) chat(ctx context.Context, client api.Client, r schema.ChatPrompt) (schema.Response, string, error) {
	model := g.config.ChatModel
	temperature := g.config.ChatTemperature

	ctx, cancel := g.callContext(ctx)
	defer cancel()
	resp, err := client.Complete(ctx, &api.CompletionRequest{
		Model:       model,
		Prompt:      r.Text,
		Temperature: &temperature,
	})
	if err != nil {
		return nil, model, transport(schema.KindChat, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return nil, model, malformed(schema.KindChat, "completion returned no choices")
	}
	return &schema.TextResult{
		Feature: schema.KindChat,
		Model:   model,
		Text:    strings.TrimSpace(resp.Choices[0].Text),
	}, model, nil
}

func (g *Gateway) vision(ctx context.Context, client api.Client, r schema.VisionQuery) (schema.Response, string, error) {
	model := g.config.VisionModel
	maxTokens := g.config.VisionMaxTokens

	ctx, cancel := g.callContext(ctx)
	defer cancel()
	resp, err := client.CreateChatCompletion(ctx, &api.ChatCompletionRequest{
		Model: model,
		Messages: []api.Message{{
			Role: "user",
			ContentParts: []api.MessageContentPart{
				{Type: "text", Text: r.Question},
				{Type: "image_url", ImageURL: &api.MessageImageURL{URL: r.ImageURL}},
			},
		}},
		MaxTokens: &maxTokens,
	})
	if err != nil {
		return nil, model, transport(schema.KindVision, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return nil, model, malformed(schema.KindVision, "chat completion returned no choices")
	}
	return &schema.TextResult{
		Feature: schema.KindVision,
		Model:   model,
		Text:    resp.Choices[0].Message.Content,
	}, model, nil
}

func (g *Gateway) image(ctx context.Context, client api.Client, r schema.ImagePrompt) (schema.Response, string, error) {
	model := g.config.ImageModel

	ctx, cancel := g.callContext(ctx)
	defer cancel()
	resp, err := client.GenerateImage(ctx, &api.ImageRequest{
		Model:   model,
		Prompt:  r.Prompt,
		Size:    r.Size,
		Quality: g.config.ImageQuality,
		N:       1,
	})
	if err != nil {
		return nil, model, transport(schema.KindImage, err)
	}
	if resp == nil || len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return nil, model, malformed(schema.KindImage, "image generation returned no image URL")
	}
	return &schema.ImageResult{
		URL:           resp.Data[0].URL,
		RevisedPrompt: resp.Data[0].RevisedPrompt,
		Size:          r.Size,
	}, model, nil
}

func (g *Gateway) speech(ctx context.Context, client api.Client, r schema.AudioSynthesis) (schema.Response, string, error) {
	model := g.config.SpeechModel
	format := g.config.SpeechFormat

	callCtx, cancel := g.callContext(ctx)
	defer cancel()
	resp, err := client.CreateChatCompletion(callCtx, &api.ChatCompletionRequest{
		Model:      model,
		Messages:   []api.Message{{Role: "user", Content: r.Text}},
		Modalities: []string{"text", "audio"},
		Audio:      &api.AudioOutput{Voice: r.Voice, Format: format},
	})
	if err != nil {
		return nil, model, transport(schema.KindSpeech, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return nil, model, malformed(schema.KindSpeech, "chat completion returned no choices")
	}
	audio := resp.Choices[0].Message.Audio
	if audio == nil || audio.Data == "" {
		return nil, model, malformed(schema.KindSpeech, "chat completion returned no audio")
	}
	data, err := base64.StdEncoding.DecodeString(audio.Data)
	if err != nil {
		return nil, model, malformed(schema.KindSpeech, "audio payload is not valid base64: %v", err)
	}

	// Single fixed name: each synthesis overwrites the previous file
	location, err := g.audio.Put(ctx, g.config.SpeechFile, AudioContentType(format), data)
	if err != nil {
		return nil, model, transport(schema.KindSpeech, fmt.Errorf("store audio: %w", err))
	}

	return &schema.AudioResult{
		Voice:      r.Voice,
		Format:     format,
		Audio:      data,
		Transcript: audio.Transcript,
		Location:   location,
	}, model, nil
}

func (g *Gateway) transcribe(ctx context.Context, client api.Client, r schema.Transcription) (schema.Response, string, error) {
	model := g.config.TranscriptionModel

	ctx, cancel := g.callContext(ctx)
	defer cancel()
	resp, err := client.Transcribe(ctx, &api.TranscriptionRequest{
		Model:       model,
		Filename:    r.Filename,
		ContentType: AudioContentType(schema.AudioExtension(r.Filename)),
		Audio:       r.Audio,
	})
	if err != nil {
		return nil, model, transport(schema.KindTranscription, err)
	}
	if resp == nil {
		return nil, model, malformed(schema.KindTranscription, "transcription returned no body")
	}
	return &schema.TranscriptResult{Filename: r.Filename, Text: resp.Text}, model, nil
}

func (g *Gateway) moderate(ctx context.Context, client api.Client, r schema.ModerationQuery) (schema.Response, string, error) {
	model := g.config.ModerationModel

	ctx, cancel := g.callContext(ctx)
	defer cancel()
	resp, err := client.Moderate(ctx, &api.ModerationRequest{Model: model, Input: r.Text})
	if errors.Is(err, api.ErrMalformedResponse) {
		return nil, model, malformed(schema.KindModeration, "moderation response could not be decoded: %v", err)
	}
	if err != nil {
		return nil, model, transport(schema.KindModeration, err)
	}
	if resp == nil || len(resp.Results) == 0 {
		return nil, model, malformed(schema.KindModeration, "moderation returned no results")
	}

	verdicts := make([]schema.ModerationVerdict, 0, len(resp.Results))
	for _, res := range resp.Results {
		verdicts = append(verdicts, schema.ModerationVerdict{
			Flagged:        res.Flagged,
			Categories:     res.Categories,
			CategoryScores: res.CategoryScores,
		})
	}
	return &schema.ModerationResult{
		ID:      resp.ID,
		Model:   resp.Model,
		Results: verdicts,
		Raw:     resp.Raw,
	}, model, nil
}

func (g *Gateway) reason(ctx context.Context, client api.Client, r schema.ReasoningPrompt) (schema.Response, string, error) {
	model := g.config.ReasoningModel

	ctx, cancel := g.callContext(ctx)
	defer cancel()
	resp, err := client.CreateChatCompletion(ctx, &api.ChatCompletionRequest{
		Model:    model,
		Messages: []api.Message{{Role: "user", Content: r.Text}},
	})
	if err != nil {
		return nil, model, transport(schema.KindReasoning, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return nil, model, malformed(schema.KindReasoning, "chat completion returned no choices")
	}
	return &schema.TextResult{
		Feature: schema.KindReasoning,
		Model:   model,
		Text:    resp.Choices[0].Message.Content,
	}, model, nil
}

// AudioContentType returns the MIME type for an audio format or extension.
func AudioContentType(format string) string {
	switch strings.ToLower(format) {
	case "wav":
		return "audio/wav"
	case "mp3", "mpeg", "mpga":
		return "audio/mpeg"
	case "mp4", "m4a":
		return "audio/mp4"
	case "webm":
		return "audio/webm"
	case "flac":
		return "audio/flac"
	case "opus":
		return "audio/ogg"
	case "pcm16":
		return "audio/pcm"
	}
	return "application/octet-stream"
}
