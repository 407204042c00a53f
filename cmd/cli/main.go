package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
)

const defaultBaseURL = "http://localhost:8080"

type globalOpts struct {
	baseURL    string
	tokenPath  string
	configPath string
	timeout    time.Duration
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOpts{}

	root := &cobra.Command{
		Use:           "storeadmin",
		Short:         "Store admin client and maintenance tool",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&opts.baseURL, "api", defaultBaseURL, "API base URL")
	root.PersistentFlags().StringVar(&opts.tokenPath, "token-file", defaultTokenPath(), "token file path")
	root.PersistentFlags().StringVar(&opts.configPath, "config", os.Getenv("STOREADMIN_CONFIG"), "YAML config file for local commands")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 15*time.Second, "HTTP timeout")

	root.AddCommand(
		newLoginCmd(opts),
		newLogoutCmd(opts),
		newProductsCmd(opts),
		newCommentsCmd(opts),
		newNoticesCmd(opts),
		newSyncCmd(opts),
		newExportCmd(opts),
		newImportCmd(opts),
		newModeratorCmd(opts),
		newTokenCmd(opts),
		newResolveCmd(opts),
	)
	return root
}
