package main

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"

	api "github.com/fyrsmithlabs/sdrclassifier/internal/http"
	"github.com/fyrsmithlabs/sdrclassifier/internal/report"
	"github.com/fyrsmithlabs/sdrclassifier/internal/sdr"
)

func newHealthCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check sdrd server health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var resp api.HealthResponse
			if err := opts.client().do(cmd.Context(), http.MethodGet, "/health", nil, &resp); err != nil {
				return err
			}
			if opts.jsonOut {
				return printJSON(cmd, resp)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Server Status: %s\n", resp.Status)
			fmt.Fprintf(cmd.OutOrStdout(), "Server URL: %s\n", opts.serverURL)
			return nil
		},
	}
}

func newStatusCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show labels, pool sizes and classifier settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var resp api.StatusResponse
			if err := opts.client().do(cmd.Context(), http.MethodGet, "/api/v1/status", nil, &resp); err != nil {
				return err
			}
			if opts.jsonOut {
				return printJSON(cmd, resp)
			}
			fmt.Fprintln(cmd.OutOrStdout(), report.Status(resp.Classifier, resp.Version))
			return nil
		},
	}
}

func newLearnCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "learn <label> <sdr>",
		Short: "Record an SDR under a label",
		Example: `  sdrctl learn digit-one "1,5,9,12"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := parseSDR(args[1])
			if err != nil {
				return err
			}
			var resp api.LearnResponse
			req := api.LearnRequest{Label: args[0], SDR: v}
			if err := opts.client().do(cmd.Context(), http.MethodPost, "/api/v1/learn", req, &resp); err != nil {
				return err
			}
			if opts.jsonOut {
				return printJSON(cmd, resp)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Learned %s (%d stored)\n", resp.Label, resp.Stored)
			return nil
		},
	}
}

func newPredictCmd(opts *options) *cobra.Command {
	var howMany int
	cmd := &cobra.Command{
		Use:   "predict <sdr>",
		Short: "Rank the labels that best match an SDR",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := parseSDR(args[0])
			if err != nil {
				return err
			}
			var resp api.PredictResponse
			req := api.PredictRequest{SDR: v, HowMany: &howMany}
			if err := opts.client().do(cmd.Context(), http.MethodPost, "/api/v1/predict", req, &resp); err != nil {
				return err
			}
			if opts.jsonOut {
				return printJSON(cmd, resp)
			}
			fmt.Fprintln(cmd.OutOrStdout(), report.Predictions(resp.Results))
			return nil
		},
	}
	cmd.Flags().IntVarP(&howMany, "how-many", "n", 3, "maximum number of results")
	return cmd
}

func newHistoryCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "history <label>",
		Short: "Show the SDRs recorded under a label, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp api.HistoryResponse
			path := "/api/v1/labels/" + url.PathEscape(args[0]) + "/history"
			if err := opts.client().do(cmd.Context(), http.MethodGet, path, nil, &resp); err != nil {
				return err
			}
			if opts.jsonOut {
				return printJSON(cmd, resp)
			}
			for _, v := range resp.History {
				fmt.Fprintln(cmd.OutOrStdout(), sdr.String(v))
			}
			return nil
		},
	}
}

func newTraceCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "trace",
		Short: "Dump the classifier's recorded state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var out string
			if err := opts.client().do(cmd.Context(), http.MethodGet, "/api/v1/trace", nil, &out); err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
}

func newResetCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Clear all history, pools and winners",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var resp api.ResetResponse
			if err := opts.client().do(cmd.Context(), http.MethodPost, "/api/v1/reset", nil, &resp); err != nil {
				return err
			}
			if opts.jsonOut {
				return printJSON(cmd, resp)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Classifier state cleared")
			return nil
		},
	}
}
