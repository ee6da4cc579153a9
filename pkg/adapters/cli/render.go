// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leseb/featuregw/pkg/core/gateway"
	"github.com/leseb/featuregw/pkg/core/schema"
)

// render prints the instruction for one dispatch. Failures go to stderr in
// text mode and yield ErrReported.
func (a *app) render(cmd *cobra.Command, kind schema.Kind, resp schema.Response, err error) error {
	in := gateway.Render(kind, resp, err)

	if a.output == OutputJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(in); encErr != nil {
			return encErr
		}
	} else if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), in.Message)
	} else {
		writeText(cmd.OutOrStdout(), in)
	}

	if err != nil {
		return ErrReported
	}
	return nil
}

func writeText(w io.Writer, in gateway.Instruction) {
	fmt.Fprintln(w, in.Message)

	switch r := in.Payload.(type) {
	case *schema.ImageResult:
		fmt.Fprintln(w, r.URL)
		if r.RevisedPrompt != "" {
			fmt.Fprintf(w, "Revised prompt: %s\n", r.RevisedPrompt)
		}
	case *schema.AudioResult:
		fmt.Fprintf(w, "Saved %d bytes to %s\n", len(r.Audio), r.Location)
		if r.Transcript != "" {
			fmt.Fprintf(w, "Transcript: %s\n", r.Transcript)
		}
	case *schema.ModerationResult:
		for _, v := range r.Results {
			fmt.Fprint(w, moderationTable(v))
		}
	case *schema.WeatherResult:
		if r.Description != "" {
			fmt.Fprint(w, weatherTable(r))
		}
		if r.Answer != "" && r.Answer != in.Message {
			fmt.Fprintln(w, r.Answer)
		}
	}
}

// moderationTable lists each category with its verdict and score, highest
// score first.
func moderationTable(v schema.ModerationVerdict) string {
	names := make([]string, 0, len(v.CategoryScores))
	for name := range v.CategoryScores {
		names = append(names, name)
	}
	for name := range v.Categories {
		if _, ok := v.CategoryScores[name]; !ok {
			names = append(names, name)
		}
	}
	sort.Slice(names, func(i, j int) bool {
		si, sj := v.CategoryScores[names[i]], v.CategoryScores[names[j]]
		if si != sj {
			return si > sj
		}
		return names[i] < names[j]
	})

	t := table.NewWriter()
	t.AppendHeader(table.Row{"Category", "Flagged", "Score"})
	for _, name := range names {
		t.AppendRow(table.Row{name, v.Categories[name], fmt.Sprintf("%.6f", v.CategoryScores[name])})
	}
	return t.Render() + "\n"
}

func weatherTable(r *schema.WeatherResult) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Latitude", "Longitude", "°C", "°F", "Conditions"})
	t.AppendRow(table.Row{
		fmt.Sprintf("%.4f", r.Latitude),
		fmt.Sprintf("%.4f", r.Longitude),
		fmt.Sprintf("%.1f", r.TemperatureC),
		fmt.Sprintf("%.1f", r.TemperatureF),
		r.Description,
	})
	return t.Render() + "\n"
}
