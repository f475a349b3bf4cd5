// Package main is the entry point for the readmit CLI.
//
// Usage:
//
//	readmit                       # interactive dashboard
//	readmit --region CA           # dashboard scoped to California
//	readmit export --region TX    # write every panel to the export dir
//	readmit version               # print version info
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vanderheijden86/readmit/pkg/config"
	"github.com/vanderheijden86/readmit/pkg/model"
	"github.com/vanderheijden86/readmit/pkg/version"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	apiURL     string
	region     string
}

// load reads the config file named by --config (or the XDG default) and
// applies the --api-url override.
func (f *globalFlags) load() (config.Config, string, error) {
	path := f.configPath
	if path == "" {
		path = config.ConfigPath()
	}
	var (
		cfg config.Config
		err error
	)
	if path == "" {
		cfg, err = config.Load()
	} else {
		cfg, err = config.LoadFrom(path)
	}
	if err != nil {
		return cfg, path, err
	}
	if f.apiURL != "" {
		cfg.API.BaseURL = strings.TrimSpace(f.apiURL)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, path, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, path, nil
}

func (f *globalFlags) parseRegion() (model.Region, error) {
	return model.ParseRegion(f.region)
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	var metricsAddr string

	root := &cobra.Command{
		Use:   "readmit",
		Short: "Terminal dashboard for hospital readmission statistics",
		Long: `readmit shows hospital readmission statistics from the readmission API:
national KPIs, a state choropleth, performance and volume charts, and
ranked hospital and measure tables. Select a state on the map (or press /)
to scope every panel to it; press r to return to national data.

Configuration is read from ~/.config/readmit/config.yaml. The API address
can be overridden with --api-url or READMIT_API_URL.`,
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDashboard(cmd, flags, metricsAddr)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "path to config file")
	pf.StringVar(&flags.apiURL, "api-url", "", "base URL of the readmission API")
	pf.StringVarP(&flags.region, "region", "r", "", "two-letter state code to start filtered on")
	root.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")

	root.AddCommand(newExportCmd(flags), newVersionCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
