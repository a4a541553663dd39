// Package main implements sdrctl, a CLI for the sdrd HTTP API and for
// offline dataset evaluation.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// version information
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// options are the persistent flags shared by every command.
type options struct {
	serverURL string
	timeout   time.Duration
	jsonOut   bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "sdrctl",
		Short: "CLI for the sdrd classifier daemon",
		Long: `sdrctl talks to a running sdrd over HTTP and evaluates datasets locally.

SDRs are given as comma- or space-separated indices, e.g. "1,5,9".`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.PersistentFlags().StringVar(&opts.serverURL, "server", "http://127.0.0.1:8095", "sdrd server URL")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "request timeout")
	root.PersistentFlags().BoolVar(&opts.jsonOut, "json", false, "print raw JSON responses")

	root.AddCommand(
		newHealthCmd(opts),
		newStatusCmd(opts),
		newLearnCmd(opts),
		newPredictCmd(opts),
		newHistoryCmd(opts),
		newTraceCmd(opts),
		newResetCmd(opts),
		newObjectsCmd(opts),
		newEvalCmd(opts),
	)
	return root
}

func (o *options) client() *client {
	return newClient(o.serverURL, o.timeout)
}

func printJSON(cmd *cobra.Command, v any) error {
	raw, err := marshalIndent(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(raw))
	return err
}
