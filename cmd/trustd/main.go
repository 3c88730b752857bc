package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	weave "github.com/iov-one/trustd"
	"github.com/iov-one/trustd/app"
	"github.com/iov-one/trustd/cmd/trustd/api"
	trustd "github.com/iov-one/trustd/cmd/trustd/app"
	"github.com/iov-one/trustd/commands"
	"github.com/iov-one/trustd/commands/server"
	"github.com/iov-one/trustd/errors"
	"github.com/iov-one/trustd/notify"
	"github.com/iov-one/trustd/x/trust"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tendermint/tendermint/libs/log"
)

const (
	flagArbitrator   = "arbitrator"
	flagFeeCollector = "fee_collector"
	flagFeePercent   = "fee_percent"
	flagPayoutLimit  = "payout_limit"
	flagKafkaBrokers = "kafka.brokers"
	flagKafkaTopic   = "kafka.topic"
	flagLogLevel     = "log_level"
)

func main() {
	logger := log.NewTMLogger(log.NewSyncWriter(os.Stdout)).
		With("module", "trustd")

	if err := rootCmd(logger).Execute(); err != nil {
		fmt.Printf("Error: %+v\n", err)
		os.Exit(1)
	}
}

func rootCmd(logger log.Logger) *cobra.Command {
	defaultHome := filepath.Join(os.ExpandEnv("$HOME"), ".trustd")

	root := &cobra.Command{
		Use:           "trustd",
		Short:         "Trust registry and balance ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig()
		},
	}
	root.PersistentFlags().String(server.FlagHome, defaultHome, "directory to store files under")
	root.PersistentFlags().String(flagLogLevel, "info", "log level: debug, info or error")
	_ = viper.BindPFlag(server.FlagHome, root.PersistentFlags().Lookup(server.FlagHome))
	_ = viper.BindPFlag(flagLogLevel, root.PersistentFlags().Lookup(flagLogLevel))

	initCmd := server.InitCmd(genInitOptions, logger)
	initCmd.Flags().String(flagArbitrator, "", "address of the dispute arbitrator")
	initCmd.Flags().String(flagFeeCollector, "", "address credited with fees")
	initCmd.Flags().Int32(flagFeePercent, trustd.DefaultFeePercent, "fee percent taken on every payment")
	for _, name := range []string{flagArbitrator, flagFeeCollector, flagFeePercent} {
		_ = viper.BindPFlag(name, initCmd.Flags().Lookup(name))
	}

	startCmd := server.StartCmd(func(home string, l log.Logger) (http.Handler, func(), error) {
		return generateApp(home, filterLevel(l))
	}, logger)
	startCmd.Flags().Int64(flagPayoutLimit, 0, "largest single withdrawal, 0 for no limit")
	startCmd.Flags().StringSlice(flagKafkaBrokers, nil, "kafka seed brokers, notifications are only logged when empty")
	startCmd.Flags().String(flagKafkaTopic, "trust-events", "kafka topic of the notifications")
	for _, name := range []string{flagPayoutLimit, flagKafkaBrokers, flagKafkaTopic} {
		_ = viper.BindPFlag(name, startCmd.Flags().Lookup(name))
	}

	root.AddCommand(
		initCmd,
		startCmd,
		server.ValidateCmd(trustd.Initializers()),
		commands.TestGenCmd(trustd.Examples()),
		exportCmd(),
		addrCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print the app version",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Println(weave.Version())
			},
		},
	)
	return root
}

// loadConfig reads the optional trustd.yaml from the home directory. Every
// setting can be overridden by a TRUSTD_ prefixed environment variable.
func loadConfig() error {
	viper.SetEnvPrefix("trustd")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetConfigName("trustd")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(filepath.Join(viper.GetString(server.FlagHome), "config"))
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return errors.Wrapf(errors.ErrInvalidInput, "read config: %s", err)
		}
	}
	return nil
}

func filterLevel(logger log.Logger) log.Logger {
	opt, err := log.AllowLevel(viper.GetString(flagLogLevel))
	if err != nil {
		return logger
	}
	return log.NewFilter(logger, opt)
}

// genInitOptions builds the registry configuration from flags.
func genInitOptions(args []string) (weave.Options, error) {
	arbitrator, err := weave.ParseAddress(viper.GetString(flagArbitrator))
	if err != nil {
		return nil, errors.Wrap(err, flagArbitrator)
	}
	collector, err := weave.ParseAddress(viper.GetString(flagFeeCollector))
	if err != nil {
		return nil, errors.Wrap(err, flagFeeCollector)
	}
	return trustd.GenesisOptions(trust.Configuration{
		Arbitrator:   arbitrator,
		FeeCollector: collector,
		FeePercent:   viper.GetInt32(flagFeePercent),
	})
}

// dialSink connects the notification bus.
var dialSink = func(brokers []string, topic, chainID string, logger log.Logger) (app.EventSink, func(), error) {
	sink, closeSink, err := notify.Dial(brokers, topic, chainID, logger)
	if err != nil {
		return nil, nil, err
	}
	return sink, closeSink, nil
}

// generateApp opens the node stored under home, loads the genesis on first
// start, and returns the HTTP API serving it.
func generateApp(home string, logger log.Logger) (http.Handler, func(), error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	gen, err := app.LoadGenesis(server.GenesisFile(home))
	if err != nil {
		return nil, nil, err
	}

	sinks := app.MultiSink{app.NewLogSink(logger)}
	closers := []func(){}
	if brokers := viper.GetStringSlice(flagKafkaBrokers); len(brokers) > 0 {
		sink, closeSink, err := dialSink(brokers, viper.GetString(flagKafkaTopic), gen.ChainID, logger)
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, sink)
		closers = append(closers, closeSink)
	}

	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	node, err := trustd.NewNode(trustd.Config{
		DBPath:      filepath.Join(home, "trust.db"),
		PayoutLimit: viper.GetInt64(flagPayoutLimit),
		Sink:        sinks,
		Registerer:  reg,
		Logger:      logger,
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	closers = append(closers, node.Close)

	switch chainID := node.Engine().ChainID(); chainID {
	case "":
		if err := node.Engine().InitChain(gen); err != nil {
			cleanup()
			return nil, nil, err
		}
	case gen.ChainID:
	default:
		cleanup()
		return nil, nil, errors.Wrapf(errors.ErrInvalidState, "state belongs to chain %s, genesis to %s", chainID, gen.ChainID)
	}

	return api.NewHandler(node, logger, reg), cleanup, nil
}
