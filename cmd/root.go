/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"cluster-provisioner/cmd/cluster"
	"cluster-provisioner/cmd/configprint"
	"cluster-provisioner/cmd/version"
)

var cfgFile string

const (
	CFG_FLAG_NAME = "config"
)

var RootCmd = &cobra.Command{
	Use:   "cluster-provisioner",
	Short: "Provision managed database clusters for organizations",
	Long: `Cluster Provisioner automates the full lifecycle of a managed database cluster:
it creates the control plane project and cluster, scopes a database credential,
opens network access, stores the connection secret in Vault and seeds the
baseline collections. One command per lifecycle operation.`,
	// Runtime failures should exit non-zero without dumping usage help.
	SilenceUsage: true,
}

func Execute() {
	err := RootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func SetVersionInfo(v, c, d, b string) {
	version.SetVersionInfo(v, c, d, b)
}

func init() {

	RootCmd.PersistentFlags().StringVarP(&cfgFile, CFG_FLAG_NAME, "c", "", "path to config file")

	viper.BindPFlag(CFG_FLAG_NAME, RootCmd.PersistentFlags().Lookup(CFG_FLAG_NAME))
	viper.SetConfigName(cfgFile)
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("cluster_provisioner")
	viper.AddConfigPath(".")                          // For running from project root
	viper.AddConfigPath("/etc/cluster-provisioner/")  // For production
	viper.AddConfigPath("$HOME/.cluster-provisioner") // For user-specific config

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	RootCmd.AddCommand(cluster.ClusterCmd)
	RootCmd.AddCommand(version.VersionCmd)
	RootCmd.AddCommand(configprint.ConfigPrintCmd)
}
