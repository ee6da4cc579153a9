// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cast"
	"golang.org/x/sync/errgroup"

	"github.com/leseb/featuregw/pkg/core/api"
	"github.com/leseb/featuregw/pkg/core/config"
	"github.com/leseb/featuregw/pkg/core/schema"
	"github.com/leseb/featuregw/pkg/weather"
)

// TemperatureToolName is the only function offered to the model.
const TemperatureToolName = "get_current_temperature"

var temperatureTool = api.Tool{
	Type: "function",
	Function: api.ToolFunction{
		Name:        TemperatureToolName,
		Description: "Get the current temperature in degrees Celsius for a geographic coordinate.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"latitude": map[string]interface{}{
					"type":        "number",
					"description": "Latitude in decimal degrees, between -90 and 90",
				},
				"longitude": map[string]interface{}{
					"type":        "number",
					"description": "Longitude in decimal degrees, between -180 and 180",
				},
			},
			"required": []string{"latitude", "longitude"},
		},
	},
}

func (g *Gateway) toolCall(ctx context.Context, client api.Client, r schema.ToolCallQuery) (schema.Response, string, error) {
	if g.config.ToolMode == config.ToolModeEager {
		return g.toolCallEager(ctx, client, r)
	}
	return g.toolCallLoop(ctx, client, r)
}

// toolCallLoop offers the tool to the model and runs the weather lookup only
// when the model asks for it, feeding the result back until it answers.
func (g *Gateway) toolCallLoop(ctx context.Context, client api.Client, r schema.ToolCallQuery) (schema.Response, string, error) {
	model := g.config.ToolModel
	result := &schema.WeatherResult{Latitude: r.Latitude, Longitude: r.Longitude, Model: model}
	messages := []api.Message{{Role: "user", Content: toolPrompt(r)}}

	for round := 0; round < g.config.MaxToolRounds; round++ {
		resp, err := g.completeWithTools(ctx, client, messages)
		if err != nil {
			return nil, model, transport(schema.KindToolCall, err)
		}
		if resp == nil || len(resp.Choices) == 0 {
			return nil, model, malformed(schema.KindToolCall, "chat completion returned no choices")
		}

		msg := resp.Choices[0].Message
		if len(msg.ToolCalls) == 0 {
			result.Answer = msg.Content
			return result, model, nil
		}

		messages = append(messages, api.Message{
			Role:      "assistant",
			Content:   msg.Content,
			ToolCalls: msg.ToolCalls,
		})
		for _, tc := range msg.ToolCalls {
			output, cond, err := g.executeTool(ctx, tc)
			if err != nil {
				return nil, model, transport(schema.KindToolCall, err)
			}
			if cond != nil {
				fillConditions(result, cond)
				result.ToolCalled = true
			}
			messages = append(messages, api.Message{
				Role:       "tool",
				Content:    output,
				ToolCallID: tc.ID,
			})
		}
	}

	return nil, model, malformed(schema.KindToolCall, "model still requested tools after %d rounds", g.config.MaxToolRounds)
}

// toolCallEager advertises the tool and, in parallel, looks up the weather
// for the requested coordinate regardless of what the model decides.
func (g *Gateway) toolCallEager(ctx context.Context, client api.Client, r schema.ToolCallQuery) (schema.Response, string, error) {
	model := g.config.ToolModel
	messages := []api.Message{{Role: "user", Content: toolPrompt(r)}}

	var (
		completion *api.ChatCompletionResponse
		cond       *weather.Conditions
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		resp, err := g.completeWithTools(egCtx, client, messages)
		if err != nil {
			return transport(schema.KindToolCall, err)
		}
		completion = resp
		return nil
	})
	eg.Go(func() error {
		c, err := g.lookup(egCtx, r.Latitude, r.Longitude)
		if err != nil {
			return transport(schema.KindToolCall, err)
		}
		cond = c
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, model, err
	}

	result := &schema.WeatherResult{Model: model}
	fillConditions(result, cond)
	if completion != nil && len(completion.Choices) > 0 {
		msg := completion.Choices[0].Message
		result.Answer = msg.Content
		result.ToolCalled = len(msg.ToolCalls) > 0
	}
	return result, model, nil
}

func (g *Gateway) completeWithTools(ctx context.Context, client api.Client, messages []api.Message) (*api.ChatCompletionResponse, error) {
	ctx, cancel := g.callContext(ctx)
	defer cancel()
	return client.CreateChatCompletion(ctx, &api.ChatCompletionRequest{
		Model:      g.config.ToolModel,
		Messages:   messages,
		Tools:      []api.Tool{temperatureTool},
		ToolChoice: "auto",
	})
}

func (g *Gateway) lookup(ctx context.Context, latitude, longitude float64) (*weather.Conditions, error) {
	ctx, cancel := g.callContext(ctx)
	defer cancel()
	cond, err := g.weather.Current(ctx, latitude, longitude)
	if err != nil {
		return nil, fmt.Errorf("weather lookup: %w", err)
	}
	return cond, nil
}

// executeTool runs one requested tool call. Problems the model can correct
// (unknown tool, bad arguments) become the tool output; a failed weather
// lookup is returned as an error.
func (g *Gateway) executeTool(ctx context.Context, tc api.ToolCall) (string, *weather.Conditions, error) {
	if tc.Function.Name != TemperatureToolName {
		return fmt.Sprintf("Error: unknown tool %q", tc.Function.Name), nil, nil
	}
	lat, lon, err := parseCoordinates(tc.Function.Arguments)
	if err != nil {
		return fmt.Sprintf("Error: %v", err), nil, nil
	}

	cond, err := g.lookup(ctx, lat, lon)
	if err != nil {
		return "", nil, err
	}

	out, err := json.Marshal(map[string]interface{}{
		"latitude":      cond.Latitude,
		"longitude":     cond.Longitude,
		"temperature_c": cond.TemperatureC,
		"temperature_f": cond.TemperatureF(),
		"weather_code":  cond.WeatherCode,
		"description":   cond.Description(),
	})
	if err != nil {
		return "", nil, fmt.Errorf("encode tool output: %w", err)
	}
	return string(out), cond, nil
}

// parseCoordinates reads latitude and longitude from tool arguments. Models
// sometimes send numbers as strings, so both forms are accepted.
func parseCoordinates(arguments string) (float64, float64, error) {
	var args map[string]interface{}
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return 0, 0, fmt.Errorf("invalid tool arguments: %w", err)
	}

	coord := func(name string) (float64, error) {
		v, ok := args[name]
		if !ok || v == nil {
			return 0, fmt.Errorf("missing %s argument", name)
		}
		f, err := cast.ToFloat64E(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s argument: %w", name, err)
		}
		return f, nil
	}

	lat, err := coord("latitude")
	if err != nil {
		return 0, 0, err
	}
	lon, err := coord("longitude")
	if err != nil {
		return 0, 0, err
	}
	if err := (schema.ToolCallQuery{Latitude: lat, Longitude: lon}).Validate(); err != nil {
		return 0, 0, err
	}
	return lat, lon, nil
}

func toolPrompt(r schema.ToolCallQuery) string {
	lat := strconv.FormatFloat(r.Latitude, 'f', -1, 64)
	lon := strconv.FormatFloat(r.Longitude, 'f', -1, 64)
	if r.Prompt == "" {
		return fmt.Sprintf("What is the current temperature at latitude %s, longitude %s?", lat, lon)
	}
	return fmt.Sprintf("Latitude %s, longitude %s. %s", lat, lon, r.Prompt)
}

func fillConditions(result *schema.WeatherResult, cond *weather.Conditions) {
	result.Latitude = cond.Latitude
	result.Longitude = cond.Longitude
	result.TemperatureC = cond.TemperatureC
	result.TemperatureF = cond.TemperatureF()
	result.WeatherCode = cond.WeatherCode
	result.Description = cond.Description()
}
