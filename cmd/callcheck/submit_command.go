package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "submit <audio-url> <sentence>...",
		Short: "Submit an audio URL and target sentences for analysis",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := ctx.apiBase()
			if err != nil {
				return err
			}

			payload, err := json.Marshal(map[string]any{
				"audio_url": args[0],
				"sentences": args[1:],
			})
			if err != nil {
				return err
			}

			resp, err := ctx.httpClient().Post(base+"/submit_request", "application/json", bytes.NewReader(payload))
			if err != nil {
				return fmt.Errorf("connect to daemon at %s: %w (is callcheckd running?)", base, err)
			}
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return err
			}

			if resp.StatusCode != http.StatusCreated {
				var failure struct {
					Error string `json:"error"`
				}
				if json.Unmarshal(body, &failure) == nil && failure.Error != "" {
					return fmt.Errorf("submission rejected: %s", failure.Error)
				}
				return fmt.Errorf("submission failed with status %d", resp.StatusCode)
			}

			var accepted struct {
				RequestID string `json:"request_id"`
			}
			if err := json.Unmarshal(body, &accepted); err != nil {
				return err
			}
			if accepted.RequestID == "" {
				return errors.New("daemon returned no request id")
			}

			fmt.Fprintln(cmd.OutOrStdout(), accepted.RequestID)
			return nil
		},
	}
}
