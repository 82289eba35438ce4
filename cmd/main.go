package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/okian/resumatch/internal/config"
)

const app = "resumatch"

// Actual version can be specified in build command.
var version = "dev"

var cfgFile string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           app,
		Short:         "ResuMatch scores resumes against job roles and suggests improvements",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file (overrides "+config.ConfigFileEnv+")")

	root.AddCommand(newServeCmd(), newWorkerCmd(), newLoadTestCmd(), newVersionCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Stderr.WriteString(app + ": " + err.Error() + "\n")
		os.Exit(1)
	}
}
