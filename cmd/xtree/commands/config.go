package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/multierr"

	"github.com/benz9527/xtree/lib/infra"
	"github.com/benz9527/xtree/xlog"
)

const (
	envPrefix = "XTREE"

	OrderPre   = "pre"
	OrderLevel = "level"

	OutputTable = "table"
	OutputJSON  = "json"
	OutputYAML  = "yaml"
)

// flag name => config key
var configFlags = map[string]string{
	"log-level":  "log_level",
	"log-format": "log_format",
	"log-file":   "log_file",
	"order":      "order",
	"output":     "output",
	"desc":       "desc",
	"metrics":    "metrics",
}

type Config struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
	LogFile   string `mapstructure:"log_file"`
	Order     string `mapstructure:"order"`
	Output    string `mapstructure:"output"`
	Desc      bool   `mapstructure:"desc"`
	Metrics   bool   `mapstructure:"metrics"`

	// filled by Validate
	logOpts []xlog.XLoggerOption
}

func (cfg *Config) Validate() error {
	lvl, err := xlog.ParseLogLevel(cfg.LogLevel)
	enc, encErr := xlog.ParseLogEncoder(cfg.LogFormat)
	err = multierr.Append(err, encErr)
	if err == nil {
		cfg.logOpts = []xlog.XLoggerOption{
			xlog.WithXLoggerLevel(lvl),
			xlog.WithXLoggerEncoder(enc),
		}
	}
	switch cfg.Order {
	case OrderPre, OrderLevel:
	default:
		err = multierr.Append(err, fmt.Errorf("unknown order %q, expected pre or level", cfg.Order))
	}
	switch cfg.Output {
	case OutputTable, OutputJSON, OutputYAML:
	default:
		err = multierr.Append(err, fmt.Errorf("unknown output %q, expected table, json or yaml", cfg.Output))
	}
	return infra.WrapErrorStackWithMessage(err, "invalid config")
}

func registerConfigFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.String("config", "", "config file (yaml, toml or json)")
	flags.String("log-level", "WARN", "log level: DEBUG, INFO, WARN or ERROR")
	flags.String("log-format", "text", "log format: json or text")
	flags.String("log-file", "", "append the logs to this file instead of stderr")
	flags.String("order", OrderLevel, "traversal order of the dump: pre or level")
	flags.String("output", OutputTable, "dump format: table, json or yaml")
	flags.Bool("desc", false, "order the keys descending")
	flags.Bool("metrics", false, "report the tree metrics to stderr on exit")
}

// loadConfig merges flags, XTREE_ env vars, the config file and the flag
// defaults, in this priority.
func loadConfig(cmd *cobra.Command) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	for flag, key := range configFlags {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Order = strings.ToLower(strings.TrimSpace(cfg.Order))
	cfg.Output = strings.ToLower(strings.TrimSpace(cfg.Output))
	cfg.LogFile = strings.TrimSpace(cfg.LogFile)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
