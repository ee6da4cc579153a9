// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"context"
	"fmt"

	"github.com/leseb/featuregw/pkg/core/journal"
	"github.com/leseb/featuregw/pkg/core/schema"
)

// Chat runs a single-turn text completion.
func (g *Gateway) Chat(ctx context.Context, credential string, req schema.ChatPrompt) (*schema.TextResult, error) {
	return dispatchAs[*schema.TextResult](ctx, g, credential, req)
}

// Vision describes an image.
func (g *Gateway) Vision(ctx context.Context, credential string, req schema.VisionQuery) (*schema.TextResult, error) {
	return dispatchAs[*schema.TextResult](ctx, g, credential, req)
}

// Image generates one image.
func (g *Gateway) Image(ctx context.Context, credential string, req schema.ImagePrompt) (*schema.ImageResult, error) {
	return dispatchAs[*schema.ImageResult](ctx, g, credential, req)
}

// Speech synthesizes audio and writes it to the audio store.
func (g *Gateway) Speech(ctx context.Context, credential string, req schema.AudioSynthesis) (*schema.AudioResult, error) {
	return dispatchAs[*schema.AudioResult](ctx, g, credential, req)
}

// Transcribe converts uploaded audio to text.
func (g *Gateway) Transcribe(ctx context.Context, credential string, req schema.Transcription) (*schema.TranscriptResult, error) {
	return dispatchAs[*schema.TranscriptResult](ctx, g, credential, req)
}

// Moderate classifies text.
func (g *Gateway) Moderate(ctx context.Context, credential string, req schema.ModerationQuery) (*schema.ModerationResult, error) {
	return dispatchAs[*schema.ModerationResult](ctx, g, credential, req)
}

// Reason asks the reasoning model for a final answer.
func (g *Gateway) Reason(ctx context.Context, credential string, req schema.ReasoningPrompt) (*schema.TextResult, error) {
	return dispatchAs[*schema.TextResult](ctx, g, credential, req)
}

// ToolCall reports the current temperature at a coordinate.
func (g *Gateway) ToolCall(ctx context.Context, credential string, req schema.ToolCallQuery) (*schema.WeatherResult, error) {
	return dispatchAs[*schema.WeatherResult](ctx, g, credential, req)
}

func dispatchAs[T schema.Response](ctx context.Context, g *Gateway, credential string, req schema.Request) (T, error) {
	var zero T
	resp, err := g.Dispatch(ctx, credential, req)
	if err != nil {
		return zero, err
	}
	typed, ok := resp.(T)
	if !ok {
		return zero, malformed(req.Kind(), "unexpected response type %T", resp)
	}
	return typed, nil
}

// SpeechFile returns the name synthesized audio is written under.
func (g *Gateway) SpeechFile() string {
	return g.config.SpeechFile
}

// Audio reads stored speech. An empty name means the speech file.
func (g *Gateway) Audio(ctx context.Context, name string) ([]byte, error) {
	if name == "" {
		name = g.config.SpeechFile
	}
	return g.audio.Get(ctx, name)
}

// DiscardAudio removes stored speech. An empty name means the speech file.
func (g *Gateway) DiscardAudio(ctx context.Context, name string) error {
	if name == "" {
		name = g.config.SpeechFile
	}
	if err := g.audio.Remove(ctx, name); err != nil {
		return fmt.Errorf("discard audio: %w", err)
	}
	return nil
}

// Dispatches lists recent journal entries, newest first.
func (g *Gateway) Dispatches(ctx context.Context, limit int) ([]*journal.Entry, error) {
	if g.journal == nil {
		return nil, ErrJournalDisabled
	}
	return g.journal.List(ctx, journal.ClampLimit(limit))
}

// Features describes every feature with its model and accepted values.
func (g *Gateway) Features() []schema.FeatureInfo {
	return []schema.FeatureInfo{
		{Kind: schema.KindChat, Model: g.config.ChatModel},
		{Kind: schema.KindVision, Model: g.config.VisionModel},
		{Kind: schema.KindImage, Model: g.config.ImageModel, Options: map[string][]string{"size": schema.ImageSizes}},
		{Kind: schema.KindSpeech, Model: g.config.SpeechModel, Options: map[string][]string{"voice": schema.Voices}},
		{Kind: schema.KindTranscription, Model: g.config.TranscriptionModel, Options: map[string][]string{"extension": schema.AudioExtensions}},
		{Kind: schema.KindModeration, Model: g.config.ModerationModel},
		{Kind: schema.KindReasoning, Model: g.config.ReasoningModel},
		{Kind: schema.KindToolCall, Model: g.config.ToolModel, Options: map[string][]string{"tool_mode": {g.config.ToolMode}}},
	}
}
