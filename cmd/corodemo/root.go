package main

import (
	"fmt"

	"github.com/PlumpMath/coroo"
	"github.com/spf13/cobra"
)

var configPath string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "corodemo",
		Short:         "Run coroo fiber-runtime demo scenarios",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to an optional TOML config file")

	root.AddCommand(
		newStartThreadCmd(),
		newBasicPollCmd(),
		newBasicPollTimeoutCmd(),
		newFastYieldCmd(),
		newChainStartCmd(),
		newBufioTunnelCmd(),
	)
	return root
}

func loadDemoConfig() coroo.Config {
	if configPath == "" {
		return coroo.DefaultConfig()
	}
	cfg, err := coroo.LoadConfig(configPath)
	if err != nil {
		fmt.Printf("warning: could not load config %s: %v\n", configPath, err)
	}
	return cfg
}
