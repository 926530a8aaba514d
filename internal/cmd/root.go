package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/atikulmunna/esoloom/internal/config"
)

var cfgFile string

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "esoloom",
	Short: "Live encounter log reports",
	Long: `esoloom follows an Elder Scrolls Online encounter log as the game writes it
and prints a report for every finished fight: damage and DPS per player,
top abilities, gear, and group buff uptime. A live dashboard and Prometheus
metrics are available with --dashboard.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "config file (default: $HOME/.esoloom.yaml)")
	flags.StringP("output", "o", config.DefaultOutput, "output format: text, json")
	flags.String("catalog", "", "YAML file of ability, item and set names")
	flags.Int("group-min", config.DefaultGroupBuffMinPlayers, "players needed before group buff uptime is shown")
	flags.BoolP("verbose", "v", false, "log encounter boundaries and anomalies to stderr")

	cobra.CheckErr(viper.BindPFlag("output", flags.Lookup("output")))
	cobra.CheckErr(viper.BindPFlag("catalog", flags.Lookup("catalog")))
	cobra.CheckErr(viper.BindPFlag("group_buff_min_players", flags.Lookup("group-min")))
	cobra.CheckErr(viper.BindPFlag("verbose", flags.Lookup("verbose")))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigName(".esoloom")
		viper.SetConfigType("yaml")
	}

	config.SetDefaults(viper.GetViper())
	viper.SetEnvPrefix(config.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	_ = viper.ReadInConfig()
}

// loadConfig decodes the merged configuration; positional paths replace the
// configured ones.
func loadConfig(paths []string) (*config.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}
	if len(paths) > 0 {
		cfg.Paths = paths
	}
	return cfg, nil
}
