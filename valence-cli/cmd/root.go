package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func RootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use: "valence",
	}

	rootCmd.PersistentFlags().String("node", "https://rpc-kralum.neutron-1.neutron.org", "Node uri, endpoint to the node, e.g. https://rpc-kralum.neutron-1.neutron.org")
	rootCmd.PersistentFlags().String("chain-id", "neutron-1", "Chain id of the node, e.g. neutron-1")
	rootCmd.PersistentFlags().String("keyring-backend", "os", "Backend of the keyring to use, options: os, test, file")
	rootCmd.PersistentFlags().String("from", "", "From key to use for signing transactions, e.g. key-name")
	rootCmd.PersistentFlags().String("config", "", "Path to the config file, e.g. /path/to/config.yaml")

	_ = viper.BindPFlag("node", rootCmd.PersistentFlags().Lookup("node"))
	_ = viper.BindPFlag("chain-id", rootCmd.PersistentFlags().Lookup("chain-id"))
	_ = viper.BindPFlag("keyring-backend", rootCmd.PersistentFlags().Lookup("keyring-backend"))
	_ = viper.BindPFlag("from", rootCmd.PersistentFlags().Lookup("from"))
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))

	rootCmd.AddCommand(AuthorizationCommand())
	rootCmd.AddCommand(ProcessorCommand())
	return rootCmd
}
