// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/leseb/featuregw/pkg/core/schema"
)

func (a *app) chatCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "chat TEXT...",
		Short: "Complete a prompt with the text completion model",
		Example: heredoc.Doc(`
			featurectl chat "What are the three key pieces of advice for learning how to code?"
		`),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.dispatch(cmd, schema.ChatPrompt{Text: strings.Join(args, " ")})
		},
	}
}

func (a *app) visionCommand() *cobra.Command {
	var question string
	cmd := &cobra.Command{
		Use:   "vision IMAGE_URL",
		Short: "Describe an image reachable by URL",
		Example: heredoc.Doc(`
			featurectl vision https://upload.wikimedia.org/wikipedia/commons/boardwalk.jpg
			featurectl vision --question "How many people are there?" https://example.com/crowd.png
		`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.dispatch(cmd, schema.VisionQuery{ImageURL: args[0], Question: question})
		},
	}
	cmd.Flags().StringVarP(&question, "question", "q", "", "Question to ask about the image")
	return cmd
}

func (a *app) imageCommand() *cobra.Command {
	var size string
	cmd := &cobra.Command{
		Use:   "image PROMPT...",
		Short: "Generate one image",
		Long: heredoc.Docf(`
			Generate one image from a prompt and print its URL.

			Sizes: %s
		`, strings.Join(schema.ImageSizes, ", ")),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.dispatch(cmd, schema.ImagePrompt{Prompt: strings.Join(args, " "), Size: size})
		},
	}
	cmd.Flags().StringVarP(&size, "size", "s", schema.DefaultImageSize, "Image size")
	return cmd
}

func (a *app) speakCommand() *cobra.Command {
	var voice, out string
	cmd := &cobra.Command{
		Use:   "speak TEXT...",
		Short: "Synthesize speech",
		Long: heredoc.Docf(`
			Synthesize speech with an audio-capable chat model. The audio is
			written to the configured audio store and, with --out, copied to
			a local file.

			Voices: %s
		`, strings.Join(schema.Voices, ", ")),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := schema.AudioSynthesis{Text: strings.Join(args, " "), Voice: voice}
			resp, err := a.runtime.Gateway.Dispatch(cmd.Context(), a.apiKey, req)
			if err == nil && out != "" {
				audio := resp.(*schema.AudioResult).Audio
				if werr := os.WriteFile(out, audio, 0o644); werr != nil {
					return fmt.Errorf("failed to write %s: %w", out, werr)
				}
			}
			return a.render(cmd, req.Kind(), resp, err)
		},
	}
	cmd.Flags().StringVar(&voice, "voice", schema.DefaultVoice, "Voice")
	cmd.Flags().StringVar(&out, "out", "", "Also write the audio to this file")
	return cmd
}

func (a *app) transcribeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "transcribe FILE",
		Short: "Transcribe an audio file",
		Long: heredoc.Docf(`
			Upload an audio file for speech-to-text.

			Extensions: %s
		`, strings.Join(schema.AudioExtensions, ", ")),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			audio, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read audio file: %w", err)
			}
			return a.dispatch(cmd, schema.Transcription{Filename: filepath.Base(args[0]), Audio: audio})
		},
	}
}

func (a *app) moderateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "moderate TEXT...",
		Short: "Classify text with the moderation model",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.dispatch(cmd, schema.ModerationQuery{Text: strings.Join(args, " ")})
		},
	}
}

func (a *app) reasonCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reason TEXT...",
		Short: "Ask the reasoning model",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.dispatch(cmd, schema.ReasoningPrompt{Text: strings.Join(args, " ")})
		},
	}
}

func (a *app) weatherCommand() *cobra.Command {
	var q schema.ToolCallQuery
	cmd := &cobra.Command{
		Use:   "weather --latitude LAT --longitude LON",
		Short: "Ask for the current temperature through a tool call",
		Long: heredoc.Doc(`
			Offer the get_current_temperature tool to the model and report the
			temperature at a coordinate. Flags are used for coordinates so
			negative values are not mistaken for options.
		`),
		Example: heredoc.Doc(`
			featurectl weather --latitude 48.8566 --longitude 2.3522
			featurectl weather --latitude -33.87 --longitude 151.21 --prompt "Do I need a jacket?"
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.dispatch(cmd, q)
		},
	}
	cmd.Flags().Float64Var(&q.Latitude, "latitude", 0, "Latitude in decimal degrees")
	cmd.Flags().Float64Var(&q.Longitude, "longitude", 0, "Longitude in decimal degrees")
	cmd.Flags().StringVar(&q.Prompt, "prompt", "", "Extra instructions for the model")
	cmd.MarkFlagRequired("latitude")
	cmd.MarkFlagRequired("longitude")
	return cmd
}

func (a *app) dispatch(cmd *cobra.Command, req schema.Request) error {
	resp, err := a.runtime.Gateway.Dispatch(cmd.Context(), a.apiKey, req)
	return a.render(cmd, req.Kind(), resp, err)
}
