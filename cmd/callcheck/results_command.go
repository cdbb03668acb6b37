package main

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"
)

type resultsView struct {
	RequestID     string  `json:"request_id"`
	AudioURL      string  `json:"audio_url"`
	Status        string  `json:"status"`
	TranscriptURL *string `json:"transcript_url"`
	Sentences     []struct {
		PlainText      string `json:"plain_text"`
		WasPresent     bool   `json:"was_present"`
		StartWordIndex *int   `json:"start_word_index"`
		EndWordIndex   *int   `json:"end_word_index"`
	} `json:"sentences"`
}

func newResultsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "results <request-id>",
		Short: "Show the analysis outcome for a request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var view resultsView
			status, err := ctx.getJSON("/get_results?request_id="+url.QueryEscape(args[0]), &view)
			if err != nil {
				return err
			}
			if status == http.StatusNotFound {
				return fmt.Errorf("unknown request id %s", args[0])
			}
			if status != http.StatusOK {
				return fmt.Errorf("daemon returned status %d", status)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Request:  %s\n", view.RequestID)
			fmt.Fprintf(out, "Audio:    %s\n", view.AudioURL)
			fmt.Fprintf(out, "Status:   %s\n", view.Status)
			if view.TranscriptURL != nil {
				fmt.Fprintf(out, "Transcript: %s\n", *view.TranscriptURL)
			}

			if len(view.Sentences) == 0 {
				return nil
			}
			rows := make([][]string, 0, len(view.Sentences))
			for _, sentence := range view.Sentences {
				rows = append(rows, []string{
					sentence.PlainText,
					presenceLabel(sentence.WasPresent),
					spanLabel(sentence.StartWordIndex, sentence.EndWordIndex),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Sentence", "Present", "Word Span"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight},
			))
			return nil
		},
	}
}

func presenceLabel(present bool) string {
	if present {
		return "yes"
	}
	return "no"
}

func spanLabel(start, end *int) string {
	if start == nil || end == nil {
		return "-"
	}
	return strconv.Itoa(*start) + ".." + strconv.Itoa(*end)
}
