package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "triagent",
	Short: "Support ticket triage toolkit",
	Long:  `Command line tools for the triagent ticket triage service`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AutomaticEnv()
		_ = viper.ReadInConfig()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
