package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/sdrclassifier/internal/config"
	"github.com/fyrsmithlabs/sdrclassifier/internal/dataset"
	"github.com/fyrsmithlabs/sdrclassifier/internal/report"
)

func newEvalCmd(opts *options) *cobra.Command {
	var (
		configPath  string
		concurrency int
		showTrace   bool
	)

	cmd := &cobra.Command{
		Use:   "eval <dataset>...",
		Short: "Replay datasets through local classifiers and score them",
		Long: `Replay each dataset through its own in-process classifier and report how
many expectations were met. Datasets are evaluated concurrently. Classifier
settings come from the sdrd configuration (defaults, --config file and
SDRD_ environment variables), overridden per dataset by its classifier
section.`,
		Example: `  sdrctl eval testdata/digits.yaml testdata/shapes.toml`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			datasets := make([]*dataset.Dataset, 0, len(args))
			for _, path := range args {
				ds, err := dataset.Load(path)
				if err != nil {
					return err
				}
				datasets = append(datasets, ds)
			}

			results, err := dataset.EvaluateAll(cmd.Context(), datasets, cfg.Classifier, concurrency)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.jsonOut {
				return printJSON(cmd, results)
			}
			if showTrace {
				for _, r := range results {
					fmt.Fprintf(out, "== %s ==\n%s\n", r.Name, r.Trace)
				}
			}
			fmt.Fprintln(out, report.Evaluation(results))
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "sdrd config file for base classifier settings")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "j", runtime.NumCPU(), "datasets evaluated at once")
	cmd.Flags().BoolVar(&showTrace, "trace", false, "print each classifier's state after learning")
	return cmd
}
