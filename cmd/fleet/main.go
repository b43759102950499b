package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/CZERTAINLY/fleet/internal/log"
	"github.com/CZERTAINLY/fleet/internal/model"
	"gopkg.in/yaml.v3"

	"github.com/spf13/cobra"
)

var (
	userConfigPath string // /default/config/path/fleet on given OS
	configPath     string // actual config file used (if loaded)
	config         model.Config
	closeLog       = func() error { return nil }

	flagConfigFilePath string // value of --config flag
	flagVerbose        bool   // value of --verbose flag
)

func init() {
	d, err := os.UserConfigDir()
	if err != nil {
		panic(err)
	}
	userConfigPath = filepath.Join(d, "fleet")
}

func main() {
	rootCmd.PersistentFlags().StringVar(&flagConfigFilePath, "config", "", "Config file to load - default is fleet.yaml in "+userConfigPath+" or in current directory")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "verbose logging")

	// never print messages
	rootCmd.SilenceErrors = true

	// parse or create a config, setup logging
	rootCmd.PersistentPreRunE = initFleet

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(toolsCmd)
	rootCmd.AddCommand(execCmd)
	rootCmd.AddCommand(sshCmd)
	rootCmd.AddCommand(watchCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	_ = closeLog()

	var exit exitCodeError
	switch {
	case err == nil:
	case errors.As(err, &exit):
		os.Exit(int(exit))
	default:
		slog.Error("fleet failed", "error", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "fleet",
	Short:        "Cluster manager driving docker, docker-compose and docker-machine",
	SilenceUsage: true,
}

// exitCodeError propagates a tool exit code to the fleet exit code.
type exitCodeError int

func (e exitCodeError) Error() string {
	return fmt.Sprintf("exit code %d", int(e))
}

func initFleet(cmd *cobra.Command, _ []string) error {
	switch {
	case flagConfigFilePath != "":
		configPath = flagConfigFilePath
	default:
		if envConfig, ok := os.LookupEnv("FLEETCONFIG"); ok {
			configPath = envConfig
			break
		}
		for _, d := range []string{userConfigPath, "."} {
			path := filepath.Join(d, "fleet.yaml")
			if exists(path) {
				configPath = path
				break
			}
		}
	}

	if configPath == "" {
		var err error
		config = model.DefaultConfig()
		configPath, err = storeDefault(filepath.Join(userConfigPath, "fleet.yaml"), config)
		if err != nil {
			// read only home is not fatal, fleet works with defaults
			slog.Warn("default configuration not stored", "error", err)
		}
	} else {
		f, err := os.Open(configPath)
		if err != nil {
			return fmt.Errorf("opening config file: %w", err)
		}
		defer func() {
			_ = f.Close()
		}()
		config, err = model.LoadConfig(f)
		if err != nil {
			for _, d := range model.ConfigErrors(err) {
				slog.Error("invalid configuration", d.Attr("config"))
			}
			return fmt.Errorf("parsing config %s: %w", configPath, err)
		}
	}

	if err := config.ApplyEnv(); err != nil {
		return err
	}

	// --verbose has a precedence over config file
	if flagVerbose {
		config.Verbose = &flagVerbose
	}

	dest := ""
	if config.Log != nil {
		dest = *config.Log
	}
	w, closeFunc, err := log.Output(dest)
	if err != nil {
		return err
	}
	closeLog = closeFunc
	slog.SetDefault(log.New(w, config.IsVerbose()))

	slog.DebugContext(cmd.Context(), "fleet run", "configPath", configPath)
	slog.DebugContext(cmd.Context(), "fleet run", "config", config)
	return nil
}

func storeDefault(path string, cfg model.Config) (string, error) {
	err := os.MkdirAll(filepath.Dir(path), 0o755)
	if err != nil {
		return "", fmt.Errorf("creating directory %s: %w", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating file %s: %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()
	enc := yaml.NewEncoder(f)
	if err := enc.Encode(cfg); err != nil {
		return "", fmt.Errorf("storing configuration: %w", err)
	}
	return path, enc.Close()
}

func exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
