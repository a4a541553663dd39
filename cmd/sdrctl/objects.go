package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/sdrclassifier/internal/dataset"
	api "github.com/fyrsmithlabs/sdrclassifier/internal/http"
	"github.com/fyrsmithlabs/sdrclassifier/internal/report"
)

func newObjectsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "objects",
		Short: "Spatial voting over positioned samples",
	}
	cmd.AddCommand(
		newObjectsLearnCmd(opts),
		newObjectsPredictCmd(opts),
		newObjectsValidateCmd(opts),
	)
	return cmd
}

func newObjectsLearnCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "learn <dataset>",
		Short: "Send a dataset's training and whole-object samples",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := dataset.Load(args[0])
			if err != nil {
				return err
			}
			if len(ds.Objects.Training) == 0 && len(ds.Objects.Whole) == 0 {
				return fmt.Errorf("dataset %s has no object samples", ds.Name)
			}

			c := opts.client()
			var resp api.ObjectsLearnResponse
			for _, req := range []api.ObjectsLearnRequest{
				{Samples: ds.Objects.Training},
				{Samples: ds.Objects.Whole, Whole: true},
			} {
				if len(req.Samples) == 0 {
					continue
				}
				if err := c.do(cmd.Context(), http.MethodPost, "/api/v1/objects/learn", req, &resp); err != nil {
					return err
				}
			}
			if opts.jsonOut {
				return printJSON(cmd, resp)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Training pool: %d, whole pool: %d\n", resp.TrainingPool, resp.WholePool)
			return nil
		},
	}
}

func newObjectsPredictCmd(opts *options) *cobra.Command {
	var unknown string
	cmd := &cobra.Command{
		Use:   "predict <dataset>",
		Short: "Run every voting round in a dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := dataset.Load(args[0])
			if err != nil {
				return err
			}
			if len(ds.Objects.Rounds) == 0 {
				return fmt.Errorf("dataset %s has no rounds", ds.Name)
			}

			c := opts.client()
			var resp api.ObjectsPredictResponse
			for _, r := range ds.Objects.Rounds {
				req := api.ObjectsPredictRequest{Samples: r.Samples, HowManyFeatures: r.HowManyFeatures}
				if err := c.do(cmd.Context(), http.MethodPost, "/api/v1/objects/predict", req, &resp); err != nil {
					return err
				}
			}
			if opts.jsonOut {
				return printJSON(cmd, resp)
			}
			fmt.Fprintln(cmd.OutOrStdout(), report.Winners(resp.Winners, unknown))
			return nil
		},
	}
	cmd.Flags().StringVar(&unknown, "unknown", "unknown", "label the server reports without consensus")
	return cmd
}

func newObjectsValidateCmd(opts *options) *cobra.Command {
	var howMany int
	cmd := &cobra.Command{
		Use:   "validate <sdr>",
		Short: "List the whole-object labels that best overlap an SDR",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := parseSDR(args[0])
			if err != nil {
				return err
			}
			var resp api.ValidateResponse
			req := api.ValidateRequest{SDR: v, HowMany: &howMany}
			if err := opts.client().do(cmd.Context(), http.MethodPost, "/api/v1/objects/validate", req, &resp); err != nil {
				return err
			}
			if opts.jsonOut {
				return printJSON(cmd, resp)
			}
			fmt.Fprintln(cmd.OutOrStdout(), report.FormatLabels(resp.Labels))
			return nil
		},
	}
	cmd.Flags().IntVarP(&howMany, "how-many", "n", 3, "maximum number of labels")
	return cmd
}
