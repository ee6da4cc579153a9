// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/leseb/featuregw/pkg/audiostore"
	audiomemory "github.com/leseb/featuregw/pkg/audiostore/memory"
	"github.com/leseb/featuregw/pkg/core/api"
	"github.com/leseb/featuregw/pkg/core/config"
	"github.com/leseb/featuregw/pkg/core/journal"
	"github.com/leseb/featuregw/pkg/core/schema"
	journalmemory "github.com/leseb/featuregw/pkg/storage/memory"
	"github.com/leseb/featuregw/pkg/weather"
)

// --- Test helpers ---

// stubClient delegates to api.MockClient unless an override is set, and
// counts every provider call.
type stubClient struct {
	mock  *api.MockClient
	calls atomic.Int32
	err   error

	complete func(ctx context.Context, req *api.CompletionRequest) (*api.CompletionResponse, error)
	chat     func(ctx context.Context, req *api.ChatCompletionRequest) (*api.ChatCompletionResponse, error)
	image    func(ctx context.Context, req *api.ImageRequest) (*api.ImageResponse, error)
	moderate func(ctx context.Context, req *api.ModerationRequest) (*api.ModerationResponse, error)
}

func newStubClient() *stubClient { return &stubClient{mock: api.NewMockClient()} }

func (s *stubClient) Complete(ctx context.Context, req *api.CompletionRequest) (*api.CompletionResponse, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	if s.complete != nil {
		return s.complete(ctx, req)
	}
	return s.mock.Complete(ctx, req)
}

func (s *stubClient) CreateChatCompletion(ctx context.Context, req *api.ChatCompletionRequest) (*api.ChatCompletionResponse, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	if s.chat != nil {
		return s.chat(ctx, req)
	}
	return s.mock.CreateChatCompletion(ctx, req)
}

func (s *stubClient) GenerateImage(ctx context.Context, req *api.ImageRequest) (*api.ImageResponse, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	if s.image != nil {
		return s.image(ctx, req)
	}
	return s.mock.GenerateImage(ctx, req)
}

func (s *stubClient) Transcribe(ctx context.Context, req *api.TranscriptionRequest) (*api.TranscriptionResponse, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return s.mock.Transcribe(ctx, req)
}

func (s *stubClient) Moderate(ctx context.Context, req *api.ModerationRequest) (*api.ModerationResponse, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	if s.moderate != nil {
		return s.moderate(ctx, req)
	}
	return s.mock.Moderate(ctx, req)
}

// stubWeather returns fixed conditions for any coordinate.
type stubWeather struct {
	temperature float64
	code        int
	err         error
	calls       atomic.Int32
}

func (w *stubWeather) Current(_ context.Context, lat, lon float64) (*weather.Conditions, error) {
	w.calls.Add(1)
	if w.err != nil {
		return nil, w.err
	}
	return &weather.Conditions{Latitude: lat, Longitude: lon, TemperatureC: w.temperature, WeatherCode: w.code}, nil
}

type harness struct {
	gw           *Gateway
	cfg          *config.GatewayConfig
	client       *stubClient
	weather      *stubWeather
	audio        *audiomemory.Store
	journal      *journalmemory.Store
	factoryCalls atomic.Int32
	credentials  []string
}

func newHarness(t *testing.T, mutate ...func(*config.GatewayConfig)) *harness {
	t.Helper()
	cfg := config.Default().Gateway
	for _, m := range mutate {
		m(&cfg)
	}
	h := &harness{
		cfg:     &cfg,
		client:  newStubClient(),
		weather: &stubWeather{temperature: 10, code: 3},
		audio:   audiomemory.New(),
		journal: journalmemory.New(),
	}
	factory := func(credential string) api.Client {
		h.factoryCalls.Add(1)
		h.credentials = append(h.credentials, credential)
		return h.client
	}
	gw, err := New(h.cfg, factory, h.weather, h.audio, h.journal, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	h.gw = gw
	return h
}

const testKey = "sk-test-1234"

var parisQuery = schema.ToolCallQuery{Latitude: 48.8566, Longitude: 2.3522}

func validRequests() []schema.Request {
	return []schema.Request{
		schema.ChatPrompt{Text: "What are the three key pieces of advice for learning how to code?"},
		schema.VisionQuery{ImageURL: "https://upload.wikimedia.org/boardwalk.jpg"},
		schema.ImagePrompt{Prompt: "a white siamese cat", Size: "512x512"},
		schema.AudioSynthesis{Text: "Hello there", Voice: "fable"},
		schema.Transcription{Filename: "memo.mp3", Audio: []byte("ID3\x03audio")},
		schema.ModerationQuery{Text: "I want to hug everyone"},
		schema.ReasoningPrompt{Text: "How many r's are in strawberry?"},
		parisQuery,
	}
}

// --- New ---

func TestNew_RequiredDependencies(t *testing.T) {
	cfg := config.Default().Gateway
	factory := api.NewMockFactory()
	wx := &stubWeather{}
	audio := audiomemory.New()

	tests := []struct {
		name string
		fn   func() (*Gateway, error)
	}{
		{"nil config", func() (*Gateway, error) { return New(nil, factory, wx, audio, nil, nil) }},
		{"nil factory", func() (*Gateway, error) { return New(&cfg, nil, wx, audio, nil, nil) }},
		{"nil weather", func() (*Gateway, error) { return New(&cfg, factory, nil, audio, nil, nil) }},
		{"nil audio", func() (*Gateway, error) { return New(&cfg, factory, wx, nil, nil, nil) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.fn(); err == nil {
				t.Error("expected error")
			}
		})
	}

	if _, err := New(&cfg, factory, wx, audio, nil, nil); err != nil {
		t.Errorf("optional journal and logger should be accepted: %v", err)
	}
}

// --- Credential precondition ---

func TestDispatch_InvalidCredential_NoProviderCall(t *testing.T) {
	h := newHarness(t)
	credentials := []string{"", "abc", "SK-uppercase", "pk-live-123", " sk-leading-space"}

	for _, req := range validRequests() {
		for _, cred := range credentials {
			t.Run(fmt.Sprintf("%s/%q", req.Kind(), cred), func(t *testing.T) {
				_, err := h.gw.Dispatch(context.Background(), cred, req)
				if !errors.Is(err, ErrInvalidCredential) {
					t.Fatalf("expected ErrInvalidCredential, got %v", err)
				}
				in := Render(req.Kind(), nil, err)
				if in.Level != LevelWarning || in.Message != "⚠ Please enter a valid OpenAI API key!" {
					t.Errorf("instruction = %+v", in)
				}
			})
		}
	}

	if n := h.factoryCalls.Load(); n != 0 {
		t.Errorf("client factory called %d times", n)
	}
	if n := h.client.calls.Load(); n != 0 {
		t.Errorf("provider called %d times", n)
	}
	if n := h.weather.calls.Load(); n != 0 {
		t.Errorf("weather provider called %d times", n)
	}
}

func TestDispatch_CredentialCheckedBeforeRequest(t *testing.T) {
	h := newHarness(t)
	_, err := h.gw.Dispatch(context.Background(), "nope", schema.ImagePrompt{Prompt: "cat", Size: "2x2"})
	if !errors.Is(err, ErrInvalidCredential) {
		t.Errorf("expected ErrInvalidCredential to win over request validation, got %v", err)
	}
}

func TestDispatch_CredentialPassedToFactory(t *testing.T) {
	h := newHarness(t)
	for _, key := range []string{"sk-first", "sk-second"} {
		if _, err := h.gw.Chat(context.Background(), key, schema.ChatPrompt{Text: "hi"}); err != nil {
			t.Fatalf("Chat: %v", err)
		}
	}
	if !reflect.DeepEqual(h.credentials, []string{"sk-first", "sk-second"}) {
		t.Errorf("credentials = %v", h.credentials)
	}
}

func TestDispatch_CustomCredentialPrefix(t *testing.T) {
	h := newHarness(t, func(c *config.GatewayConfig) { c.CredentialPrefix = "gw_" })
	if _, err := h.gw.Chat(context.Background(), "gw_abc", schema.ChatPrompt{Text: "hi"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if _, err := h.gw.Chat(context.Background(), testKey, schema.ChatPrompt{Text: "hi"}); !errors.Is(err, ErrInvalidCredential) {
		t.Errorf("expected ErrInvalidCredential, got %v", err)
	}
}

// --- Boundary validation ---

func TestDispatch_InvalidRequest_NoProviderCall(t *testing.T) {
	h := newHarness(t)
	requests := []schema.Request{
		schema.ImagePrompt{Prompt: "cat", Size: "2048x2048"},
		schema.ImagePrompt{Prompt: "cat", Size: "1024x768"},
		schema.AudioSynthesis{Text: "hi", Voice: "robot"},
		schema.Transcription{Filename: "memo.flac", Audio: []byte("x")},
		schema.ToolCallQuery{Latitude: 123, Longitude: 0},
		schema.ChatPrompt{},
		nil,
	}
	for _, req := range requests {
		_, err := h.gw.Dispatch(context.Background(), testKey, req)
		if !errors.Is(err, ErrInvalidRequest) {
			t.Errorf("%#v: expected ErrInvalidRequest, got %v", req, err)
		}
	}
	if n := h.client.calls.Load(); n != 0 {
		t.Errorf("provider called %d times for invalid requests", n)
	}
}

func TestDispatch_InvalidRequestRendersValidationMessage(t *testing.T) {
	h := newHarness(t)
	_, err := h.gw.Image(context.Background(), testKey, schema.ImagePrompt{Prompt: "cat", Size: "2048x2048"})
	in := Render(schema.KindImage, nil, err)
	want := `size must be one of 1024x1024, 512x512, 256x256, got "2048x2048"`
	if in.Level != LevelWarning || in.Message != want {
		t.Errorf("instruction = %+v, want warning %q", in, want)
	}
}

// --- One dispatch, one call ---

func TestDispatch_SingleProviderCallPerKind(t *testing.T) {
	for _, req := range validRequests() {
		if req.Kind() == schema.KindToolCall {
			continue
		}
		t.Run(string(req.Kind()), func(t *testing.T) {
			h := newHarness(t)
			if _, err := h.gw.Dispatch(context.Background(), testKey, req); err != nil {
				t.Fatalf("Dispatch: %v", err)
			}
			if n := h.client.calls.Load(); n != 1 {
				t.Errorf("expected exactly 1 provider call, got %d", n)
			}
			if n := h.weather.calls.Load(); n != 0 {
				t.Errorf("weather provider called %d times", n)
			}
		})
	}
}

// --- Per-kind behavior ---

func TestChat_UsesCompletionDefaults(t *testing.T) {
	h := newHarness(t)
	var got *api.CompletionRequest
	h.client.complete = func(_ context.Context, req *api.CompletionRequest) (*api.CompletionResponse, error) {
		got = req
		return &api.CompletionResponse{Choices: []api.CompletionChoice{{Text: "\n\n1. Practice daily."}}}, nil
	}

	res, err := h.gw.Chat(context.Background(), testKey, schema.ChatPrompt{Text: "advice?"})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if got.Model != "gpt-3.5-turbo-instruct" || got.Temperature == nil || *got.Temperature != 0.7 {
		t.Errorf("request = %+v", got)
	}
	if res.Text != "1. Practice daily." {
		t.Errorf("text = %q", res.Text)
	}
	in := Render(schema.KindChat, res, nil)
	if in.Level != LevelInfo || in.Message != res.Text {
		t.Errorf("instruction = %+v", in)
	}
}

func TestVision_RequestShape(t *testing.T) {
	h := newHarness(t)
	var got *api.ChatCompletionRequest
	h.client.chat = func(_ context.Context, req *api.ChatCompletionRequest) (*api.ChatCompletionResponse, error) {
		got = req
		return &api.ChatCompletionResponse{Choices: []api.Choice{{Message: api.Message{Role: "assistant", Content: "A boardwalk."}}}}, nil
	}

	res, err := h.gw.Vision(context.Background(), testKey, schema.VisionQuery{ImageURL: "https://example.com/a.jpg"})
	if err != nil {
		t.Fatalf("Vision: %v", err)
	}
	if res.Text != "A boardwalk." {
		t.Errorf("text = %q", res.Text)
	}
	if got.Model != "gpt-4o-mini" || got.MaxTokens == nil || *got.MaxTokens != 300 {
		t.Errorf("request = %+v", got)
	}
	parts := got.Messages[0].ContentParts
	if len(parts) != 2 || parts[0].Text != "What's in this image?" || parts[1].ImageURL.URL != "https://example.com/a.jpg" {
		t.Errorf("content parts = %+v", parts)
	}
}

func TestVision_MissingChoicesIsMalformed(t *testing.T) {
	h := newHarness(t)
	h.client.chat = func(context.Context, *api.ChatCompletionRequest) (*api.ChatCompletionResponse, error) {
		return &api.ChatCompletionResponse{ID: "chatcmpl-empty"}, nil
	}

	_, err := h.gw.Vision(context.Background(), testKey, schema.VisionQuery{ImageURL: "https://example.com/a.jpg"})
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
	if errors.Is(err, ErrTransport) {
		t.Error("malformed response must not match ErrTransport")
	}
	in := Render(schema.KindVision, nil, err)
	if in.Level != LevelError || in.Message != "Failed to generate response. Please check your API key or image URL." {
		t.Errorf("instruction = %+v", in)
	}
}

func TestImage_Success(t *testing.T) {
	h := newHarness(t)
	var got *api.ImageRequest
	h.client.image = func(_ context.Context, req *api.ImageRequest) (*api.ImageResponse, error) {
		got = req
		return &api.ImageResponse{Data: []api.ImageData{{URL: "https://img.example/cat.png", RevisedPrompt: "a fluffy white siamese cat"}}}, nil
	}

	res, err := h.gw.Image(context.Background(), testKey, schema.ImagePrompt{Prompt: "a white siamese cat", Size: "256x256"})
	if err != nil {
		t.Fatalf("Image: %v", err)
	}
	if got.Model != "dall-e-3" || got.Quality != "standard" || got.N != 1 || got.Size != "256x256" {
		t.Errorf("request = %+v", got)
	}
	if res.URL != "https://img.example/cat.png" || res.RevisedPrompt != "a fluffy white siamese cat" {
		t.Errorf("result = %+v", res)
	}
	if in := Render(schema.KindImage, res, nil); in.Message != "✅ Image generated successfully!" || in.Level != LevelSuccess {
		t.Errorf("instruction = %+v", in)
	}
}

func TestImage_DefaultSize(t *testing.T) {
	h := newHarness(t)
	res, err := h.gw.Image(context.Background(), testKey, schema.ImagePrompt{Prompt: "cat"})
	if err != nil {
		t.Fatalf("Image: %v", err)
	}
	if res.Size != "1024x1024" {
		t.Errorf("size = %q, want 1024x1024", res.Size)
	}
}

func TestImage_NoDataIsMalformed(t *testing.T) {
	h := newHarness(t)
	h.client.image = func(context.Context, *api.ImageRequest) (*api.ImageResponse, error) {
		return &api.ImageResponse{Data: []api.ImageData{{URL: ""}}}, nil
	}
	_, err := h.gw.Image(context.Background(), testKey, schema.ImagePrompt{Prompt: "cat", Size: "512x512"})
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
	if in := Render(schema.KindImage, nil, err); in.Message != "⚠ Failed to generate image. Please try again." {
		t.Errorf("message = %q", in.Message)
	}
}

func TestSpeech_Base64RoundTrip(t *testing.T) {
	h := newHarness(t)
	source := []byte("RIFF\x00\x01\xfe\xffWAVEfmt \x10\x00\x00\x00")
	encoded := base64.StdEncoding.EncodeToString(source)

	var got *api.ChatCompletionRequest
	h.client.chat = func(_ context.Context, req *api.ChatCompletionRequest) (*api.ChatCompletionResponse, error) {
		got = req
		return &api.ChatCompletionResponse{Choices: []api.Choice{{Message: api.Message{
			Role:  "assistant",
			Audio: &api.MessageAudio{ID: "audio_1", Data: encoded, Transcript: "Hello there"},
		}}}}, nil
	}

	res, err := h.gw.Speech(context.Background(), testKey, schema.AudioSynthesis{Text: "Hello there", Voice: "onyx"})
	if err != nil {
		t.Fatalf("Speech: %v", err)
	}
	if len(res.Audio) != len(source) || !bytes.Equal(res.Audio, source) {
		t.Errorf("decoded audio does not round-trip: got %d bytes, want %d", len(res.Audio), len(source))
	}
	if base64.StdEncoding.EncodeToString(res.Audio) != encoded {
		t.Error("re-encoding decoded audio does not match the source encoding")
	}
	if got.Audio == nil || got.Audio.Voice != "onyx" || got.Audio.Format != "wav" {
		t.Errorf("audio params = %+v", got.Audio)
	}
	if !reflect.DeepEqual(got.Modalities, []string{"text", "audio"}) {
		t.Errorf("modalities = %v", got.Modalities)
	}

	stored, err := h.audio.Get(context.Background(), "speech.wav")
	if err != nil {
		t.Fatalf("audio store Get: %v", err)
	}
	if !bytes.Equal(stored, source) {
		t.Error("stored audio differs from decoded payload")
	}
	if res.Location != "memory://speech.wav" {
		t.Errorf("location = %q", res.Location)
	}
	if in := Render(schema.KindSpeech, res, nil); in.Message != "✅ Audio generated successfully!" {
		t.Errorf("message = %q", in.Message)
	}
}

func TestSpeech_OverwritesAndDiscard(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first, err := h.gw.Speech(ctx, testKey, schema.AudioSynthesis{Text: "one", Voice: "alloy"})
	if err != nil {
		t.Fatalf("first Speech: %v", err)
	}
	second, err := h.gw.Speech(ctx, testKey, schema.AudioSynthesis{Text: "two", Voice: "alloy"})
	if err != nil {
		t.Fatalf("second Speech: %v", err)
	}
	if first.Location != second.Location {
		t.Errorf("locations differ: %q vs %q", first.Location, second.Location)
	}
	stored, _ := h.gw.Audio(ctx, "")
	if !bytes.Equal(stored, second.Audio) {
		t.Error("audio store does not hold the latest synthesis")
	}

	if err := h.gw.DiscardAudio(ctx, ""); err != nil {
		t.Fatalf("DiscardAudio: %v", err)
	}
	if _, err := h.gw.Audio(ctx, ""); !errors.Is(err, audiostore.ErrNotFound) {
		t.Errorf("expected ErrNotFound after discard, got %v", err)
	}
	if err := h.gw.DiscardAudio(ctx, ""); !errors.Is(err, audiostore.ErrNotFound) {
		t.Errorf("second discard: expected ErrNotFound, got %v", err)
	}
}

func TestSpeech_Malformed(t *testing.T) {
	tests := []struct {
		name string
		resp *api.ChatCompletionResponse
	}{
		{"no choices", &api.ChatCompletionResponse{}},
		{"no audio", &api.ChatCompletionResponse{Choices: []api.Choice{{Message: api.Message{Content: "text only"}}}}},
		{"bad base64", &api.ChatCompletionResponse{Choices: []api.Choice{{Message: api.Message{Audio: &api.MessageAudio{Data: "%%%not-base64"}}}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.client.chat = func(context.Context, *api.ChatCompletionRequest) (*api.ChatCompletionResponse, error) {
				return tt.resp, nil
			}
			_, err := h.gw.Speech(context.Background(), testKey, schema.AudioSynthesis{Text: "hi", Voice: "nova"})
			if !errors.Is(err, ErrMalformedResponse) {
				t.Fatalf("expected ErrMalformedResponse, got %v", err)
			}
			if _, err := h.audio.Get(context.Background(), "speech.wav"); !errors.Is(err, audiostore.ErrNotFound) {
				t.Error("nothing should be written on a malformed response")
			}
		})
	}
}

func TestTranscribe(t *testing.T) {
	h := newHarness(t)
	res, err := h.gw.Transcribe(context.Background(), testKey, schema.Transcription{Filename: "Memo.WAV", Audio: []byte("RIFFdata")})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if res.Text != "Mock transcript of Memo.WAV (8 bytes)" {
		t.Errorf("text = %q", res.Text)
	}
	if in := Render(schema.KindTranscription, res, nil); in.Message != res.Text || in.Level != LevelSuccess {
		t.Errorf("instruction = %+v", in)
	}
}

func TestModeration_RawSurfacedUnmodified(t *testing.T) {
	raw := []byte(`{"id":"modr-42","model":"omni-moderation-latest","results":[{"flagged":true,"categories":{"violence":true,"self-harm":false},"category_scores":{"violence":0.4,"self-harm":0.00001},"category_applied_input_types":{"violence":["text"]}}]}`)
	h := newHarness(t)
	h.client.moderate = func(context.Context, *api.ModerationRequest) (*api.ModerationResponse, error) {
		return api.DecodeModeration(raw)
	}

	res, err := h.gw.Moderate(context.Background(), testKey, schema.ModerationQuery{Text: "fixed input"})
	if err != nil {
		t.Fatalf("Moderate: %v", err)
	}
	if !bytes.Equal(res.Raw, raw) {
		t.Errorf("raw classification modified:\n got %s\nwant %s", res.Raw, raw)
	}
	if res.ID != "modr-42" || len(res.Results) != 1 {
		t.Fatalf("result = %+v", res)
	}
	v := res.Results[0]
	// A score of 0.4 is not thresholded locally: the provider verdict stands
	if !v.Flagged || !v.Categories["violence"] || v.CategoryScores["violence"] != 0.4 || v.CategoryScores["self-harm"] != 0.00001 {
		t.Errorf("verdict = %+v", v)
	}
	if in := Render(schema.KindModeration, res, nil); in.Level != LevelWarning || in.Message != "Content flagged" {
		t.Errorf("instruction = %+v", in)
	}
}

func TestModeration_NoResultsIsMalformed(t *testing.T) {
	h := newHarness(t)
	h.client.moderate = func(context.Context, *api.ModerationRequest) (*api.ModerationResponse, error) {
		return api.DecodeModeration([]byte(`{"id":"modr-1","model":"m","results":[]}`))
	}
	if _, err := h.gw.Moderate(context.Background(), testKey, schema.ModerationQuery{Text: "x"}); !errors.Is(err, ErrMalformedResponse) {
		t.Errorf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestModeration_UndecodableBodyIsMalformed(t *testing.T) {
	h := newHarness(t)
	h.client.moderate = func(context.Context, *api.ModerationRequest) (*api.ModerationResponse, error) {
		resp, err := api.DecodeModeration([]byte(`{"id":"modr-1","results":"oops"}`))
		if err != nil {
			return nil, fmt.Errorf("failed to decode moderation: %w", err)
		}
		return resp, nil
	}
	_, err := h.gw.Moderate(context.Background(), testKey, schema.ModerationQuery{Text: "x"})
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
	if errors.Is(err, ErrTransport) {
		t.Error("undecodable body classified as transport")
	}
}

func TestModeration_ProviderErrorIsTransport(t *testing.T) {
	h := newHarness(t)
	h.client.moderate = func(context.Context, *api.ModerationRequest) (*api.ModerationResponse, error) {
		return nil, errors.New("connection reset")
	}
	_, err := h.gw.Moderate(context.Background(), testKey, schema.ModerationQuery{Text: "x"})
	if !errors.Is(err, ErrTransport) {
		t.Errorf("expected ErrTransport, got %v", err)
	}
}

func TestReason_UsesReasoningModel(t *testing.T) {
	h := newHarness(t)
	var got *api.ChatCompletionRequest
	h.client.chat = func(_ context.Context, req *api.ChatCompletionRequest) (*api.ChatCompletionResponse, error) {
		got = req
		return &api.ChatCompletionResponse{Choices: []api.Choice{{Message: api.Message{Content: "3"}}}}, nil
	}
	res, err := h.gw.Reason(context.Background(), testKey, schema.ReasoningPrompt{Text: "count"})
	if err != nil {
		t.Fatalf("Reason: %v", err)
	}
	if got.Model != "o1-mini" || got.Temperature != nil {
		t.Errorf("request = %+v", got)
	}
	if res.Text != "3" || res.Kind() != schema.KindReasoning {
		t.Errorf("result = %+v", res)
	}
}

// --- Tool calling ---

func TestToolCall_Paris(t *testing.T) {
	for _, mode := range []string{config.ToolModeConditional, config.ToolModeEager} {
		t.Run(mode, func(t *testing.T) {
			h := newHarness(t, func(c *config.GatewayConfig) { c.ToolMode = mode })

			res, err := h.gw.ToolCall(context.Background(), testKey, parisQuery)
			if err != nil {
				t.Fatalf("ToolCall: %v", err)
			}
			if res.TemperatureC != 10 || res.TemperatureF != 50.0 || res.WeatherCode != 3 {
				t.Errorf("result = %+v", res)
			}
			if res.Description != "Overcast ☁️" {
				t.Errorf("description = %q", res.Description)
			}
			if res.Latitude != 48.8566 || res.Longitude != 2.3522 {
				t.Errorf("coordinates = %v, %v", res.Latitude, res.Longitude)
			}
			if !res.ToolCalled {
				t.Error("expected the mock model to request the tool")
			}
			in := Render(schema.KindToolCall, res, nil)
			if in.Message != "🌡️ 10.0°C (50.0°F), Overcast ☁️" {
				t.Errorf("message = %q", in.Message)
			}
			if n := h.weather.calls.Load(); n != 1 {
				t.Errorf("expected 1 weather lookup, got %d", n)
			}
		})
	}
}

func TestToolCall_ConditionalFeedsToolResultBack(t *testing.T) {
	h := newHarness(t)
	res, err := h.gw.ToolCall(context.Background(), testKey, parisQuery)
	if err != nil {
		t.Fatalf("ToolCall: %v", err)
	}
	// Two model calls: tool request, then the answer using the tool output
	if n := h.client.calls.Load(); n != 2 {
		t.Errorf("expected 2 model calls, got %d", n)
	}
	if res.Answer == "" || !bytes.Contains([]byte(res.Answer), []byte("Overcast")) {
		t.Errorf("answer does not use the tool output: %q", res.Answer)
	}
}

func TestToolCall_ConditionalSkipsLookupWhenNotRequested(t *testing.T) {
	h := newHarness(t)
	h.client.chat = func(context.Context, *api.ChatCompletionRequest) (*api.ChatCompletionResponse, error) {
		return &api.ChatCompletionResponse{Choices: []api.Choice{{Message: api.Message{Content: "I cannot check the weather."}, FinishReason: "stop"}}}, nil
	}

	res, err := h.gw.ToolCall(context.Background(), testKey, parisQuery)
	if err != nil {
		t.Fatalf("ToolCall: %v", err)
	}
	if res.ToolCalled || res.Answer != "I cannot check the weather." {
		t.Errorf("result = %+v", res)
	}
	if n := h.weather.calls.Load(); n != 0 {
		t.Errorf("weather looked up %d times without a tool request", n)
	}
	if in := Render(schema.KindToolCall, res, nil); in.Message != "I cannot check the weather." {
		t.Errorf("message = %q", in.Message)
	}
}

func TestToolCall_EagerLooksUpRegardless(t *testing.T) {
	h := newHarness(t, func(c *config.GatewayConfig) { c.ToolMode = config.ToolModeEager })
	h.client.chat = func(_ context.Context, req *api.ChatCompletionRequest) (*api.ChatCompletionResponse, error) {
		if len(req.Tools) != 1 || req.Tools[0].Function.Name != TemperatureToolName {
			t.Errorf("tools = %+v", req.Tools)
		}
		return &api.ChatCompletionResponse{Choices: []api.Choice{{Message: api.Message{Content: "No tool needed."}}}}, nil
	}

	res, err := h.gw.ToolCall(context.Background(), testKey, parisQuery)
	if err != nil {
		t.Fatalf("ToolCall: %v", err)
	}
	if n := h.weather.calls.Load(); n != 1 {
		t.Errorf("expected 1 weather lookup, got %d", n)
	}
	if n := h.client.calls.Load(); n != 1 {
		t.Errorf("expected 1 model call, got %d", n)
	}
	if res.ToolCalled {
		t.Error("ToolCalled should reflect the model's decision")
	}
	if res.TemperatureC != 10 || res.Answer != "No tool needed." {
		t.Errorf("result = %+v", res)
	}
}

func TestToolCall_StringArgumentsAndBadArguments(t *testing.T) {
	h := newHarness(t)
	round := 0
	var toolOutputs []string
	h.client.chat = func(_ context.Context, req *api.ChatCompletionRequest) (*api.ChatCompletionResponse, error) {
		round++
		for _, m := range req.Messages {
			if m.Role == "tool" {
				toolOutputs = append(toolOutputs, m.Content)
			}
		}
		switch round {
		case 1:
			return toolCallResponse(`{"latitude":"north","longitude":2}`), nil
		case 2:
			return toolCallResponse(`{"latitude":"48.8566","longitude":"2.3522"}`), nil
		}
		return &api.ChatCompletionResponse{Choices: []api.Choice{{Message: api.Message{Content: "It is 10°C."}}}}, nil
	}

	res, err := h.gw.ToolCall(context.Background(), testKey, parisQuery)
	if err != nil {
		t.Fatalf("ToolCall: %v", err)
	}
	if res.Answer != "It is 10°C." || res.TemperatureC != 10 || !res.ToolCalled {
		t.Errorf("result = %+v", res)
	}
	if n := h.weather.calls.Load(); n != 1 {
		t.Errorf("expected 1 lookup (bad arguments skip it), got %d", n)
	}
	if len(toolOutputs) == 0 || !bytes.HasPrefix([]byte(toolOutputs[0]), []byte("Error: invalid latitude")) {
		t.Errorf("first tool output should report the bad argument, got %v", toolOutputs)
	}
}

func TestToolCall_RoundLimit(t *testing.T) {
	h := newHarness(t, func(c *config.GatewayConfig) { c.MaxToolRounds = 3 })
	h.client.chat = func(context.Context, *api.ChatCompletionRequest) (*api.ChatCompletionResponse, error) {
		return toolCallResponse(`{"latitude":1,"longitude":2}`), nil
	}

	_, err := h.gw.ToolCall(context.Background(), testKey, parisQuery)
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
	if n := h.client.calls.Load(); n != 3 {
		t.Errorf("expected 3 model calls, got %d", n)
	}
	if n := h.weather.calls.Load(); n != 3 {
		t.Errorf("expected 3 lookups, got %d", n)
	}
}

func TestToolCall_WeatherFailureIsTransport(t *testing.T) {
	for _, mode := range []string{config.ToolModeConditional, config.ToolModeEager} {
		t.Run(mode, func(t *testing.T) {
			h := newHarness(t, func(c *config.GatewayConfig) { c.ToolMode = mode })
			h.weather.err = errors.New("open-meteo returned status 503")

			_, err := h.gw.ToolCall(context.Background(), testKey, parisQuery)
			if !errors.Is(err, ErrTransport) {
				t.Fatalf("expected ErrTransport, got %v", err)
			}
			in := Render(schema.KindToolCall, nil, err)
			if in.Message != "Error: weather lookup: open-meteo returned status 503" {
				t.Errorf("message = %q", in.Message)
			}
		})
	}
}

func toolCallResponse(arguments string) *api.ChatCompletionResponse {
	return &api.ChatCompletionResponse{Choices: []api.Choice{{
		FinishReason: "tool_calls",
		Message: api.Message{
			Role: "assistant",
			ToolCalls: []api.ToolCall{{
				ID:       "call_1",
				Type:     "function",
				Function: api.ToolCallFunction{Name: TemperatureToolName, Arguments: arguments},
			}},
		},
	}}}
}

func TestParseCoordinates(t *testing.T) {
	tests := []struct {
		name     string
		args     string
		lat, lon float64
		wantErr  bool
	}{
		{"numbers", `{"latitude":48.8566,"longitude":2.3522}`, 48.8566, 2.3522, false},
		{"strings", `{"latitude":"-33.86","longitude":"151.21"}`, -33.86, 151.21, false},
		{"integers", `{"latitude":0,"longitude":0}`, 0, 0, false},
		{"missing longitude", `{"latitude":1}`, 0, 0, true},
		{"null latitude", `{"latitude":null,"longitude":1}`, 0, 0, true},
		{"not a number", `{"latitude":"north","longitude":1}`, 0, 0, true},
		{"out of range", `{"latitude":95,"longitude":1}`, 0, 0, true},
		{"not json", `latitude=1`, 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lat, lon, err := parseCoordinates(tt.args)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %v, %v", lat, lon)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if lat != tt.lat || lon != tt.lon {
				t.Errorf("got %v, %v; want %v, %v", lat, lon, tt.lat, tt.lon)
			}
		})
	}
}

// --- Failures ---

func TestDispatch_TransportError(t *testing.T) {
	for _, req := range validRequests() {
		t.Run(string(req.Kind()), func(t *testing.T) {
			h := newHarness(t)
			h.client.err = errors.New("401 Unauthorized: Incorrect API key provided")

			_, err := h.gw.Dispatch(context.Background(), testKey, req)
			if !errors.Is(err, ErrTransport) {
				t.Fatalf("expected ErrTransport, got %v", err)
			}
			in := Render(req.Kind(), nil, err)
			if in.Level != LevelError || in.Message != "Error: 401 Unauthorized: Incorrect API key provided" {
				t.Errorf("instruction = %+v", in)
			}
			if in.Error != KindTransport {
				t.Errorf("instruction error kind = %q", in.Error)
			}
		})
	}
}

func TestDispatch_PerCallTimeout(t *testing.T) {
	h := newHarness(t, func(c *config.GatewayConfig) { c.Timeout = 20 * time.Millisecond })
	h.client.complete = func(ctx context.Context, _ *api.CompletionRequest) (*api.CompletionResponse, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	start := time.Now()
	_, err := h.gw.Chat(context.Background(), testKey, schema.ChatPrompt{Text: "hang"})
	if !errors.Is(err, ErrTransport) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected transport deadline error, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("call was not bounded by the timeout: %v", elapsed)
	}
}

// --- Idempotence ---

func TestDispatch_Idempotent(t *testing.T) {
	for _, mode := range []string{config.ToolModeConditional, config.ToolModeEager} {
		h := newHarness(t, func(c *config.GatewayConfig) { c.ToolMode = mode })
		for _, req := range validRequests() {
			t.Run(mode+"/"+string(req.Kind()), func(t *testing.T) {
				first, err := h.gw.Dispatch(context.Background(), testKey, req)
				if err != nil {
					t.Fatalf("first Dispatch: %v", err)
				}
				second, err := h.gw.Dispatch(context.Background(), testKey, req)
				if err != nil {
					t.Fatalf("second Dispatch: %v", err)
				}
				if !reflect.DeepEqual(first, second) {
					t.Errorf("responses differ:\n first %+v\nsecond %+v", first, second)
				}
			})
		}
	}
}

// --- Journal ---

func TestDispatch_RecordsJournal(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if _, err := h.gw.Image(ctx, testKey, schema.ImagePrompt{Prompt: "cat", Size: "512x512"}); err != nil {
		t.Fatalf("Image: %v", err)
	}
	_, _ = h.gw.Chat(ctx, "bad-key", schema.ChatPrompt{Text: "hi"})

	entries, err := h.gw.Dispatches(ctx, 10)
	if err != nil {
		t.Fatalf("Dispatches: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	byKind := map[schema.Kind]*journal.Entry{}
	for _, e := range entries {
		byKind[e.Kind] = e
	}
	if e := byKind[schema.KindImage]; e == nil || e.Outcome != journal.OutcomeSuccess || e.Model != "dall-e-3" {
		t.Errorf("image entry = %+v", e)
	}
	if e := byKind[schema.KindChat]; e == nil || e.Outcome != string(KindInvalidCredential) {
		t.Errorf("chat entry = %+v", e)
	}
}

func TestDispatches_JournalDisabled(t *testing.T) {
	cfg := config.Default().Gateway
	gw, err := New(&cfg, api.NewMockFactory(), &stubWeather{}, audiomemory.New(), nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := gw.Chat(context.Background(), testKey, schema.ChatPrompt{Text: "hi"}); err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if _, err := gw.Dispatches(context.Background(), 5); !errors.Is(err, ErrJournalDisabled) {
		t.Errorf("expected ErrJournalDisabled, got %v", err)
	}
}

func TestFeatures(t *testing.T) {
	h := newHarness(t)
	features := h.gw.Features()
	if len(features) != len(schema.Kinds()) {
		t.Fatalf("expected %d features, got %d", len(schema.Kinds()), len(features))
	}
	for i, k := range schema.Kinds() {
		if features[i].Kind != k || features[i].Model == "" {
			t.Errorf("feature %d = %+v", i, features[i])
		}
	}
}
