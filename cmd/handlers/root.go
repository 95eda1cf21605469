/*
Copyright © 2025 Your Name

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package handlers

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"postmill/internal/config"
	"postmill/internal/logger"
)

var cfgFile string

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "postmill",
		Short: "Postmill writes, classifies and interlinks Spanish lesson posts.",
		Long: `Postmill generates lesson posts for a Spanish-learning blog from a
topic catalog, rejects near-duplicates, classifies each post into the
category and tag taxonomy, and keeps related-post lists and in-body links
up to date across the whole corpus.

Run 'postmill serve' for the scheduler and control API, or
'postmill generate' for a one-off run.`,
		SilenceUsage: true,
	}

	// Initialize configuration
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./.postmill.yaml or $HOME/.postmill.yaml)")

	rootCmd.AddCommand(NewServeCmd())
	rootCmd.AddCommand(NewGenerateCmd())
	rootCmd.AddCommand(NewPostsCmd())
	rootCmd.AddCommand(NewTopicsCmd())
	rootCmd.AddCommand(NewReconcileCmd())
	rootCmd.AddCommand(NewClustersCmd())
	rootCmd.AddCommand(NewCheckCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Configure(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)

	if cfg.App.ConfigFile != "" {
		logger.Debug("using config file", "path", cfg.App.ConfigFile)
	}
}
