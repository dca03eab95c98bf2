package root

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/talgya/desk-pet/internal/client"
	"github.com/talgya/desk-pet/internal/config"
	"github.com/talgya/desk-pet/internal/ui"
)

const Version = "0.1.0"

var (
	configPath string
	addr       string
)

var rootCmd = &cobra.Command{
	Use:           "petd",
	Short:         "Desktop pet simulation daemon",
	Long:          "petd runs a desktop companion's behavior, needs and item simulation and serves it to a front-end over HTTP and websocket.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the command tree.
func Execute() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "petd.json", "config file (JSON, milliseconds)")
	rootCmd.PersistentFlags().StringVar(&addr, "addr", "", "daemon base URL (default from config port)")

	rootCmd.AddCommand(
		newServeCmd(),
		newStatusCmd(),
		newItemsCmd(),
		newResetCmd(),
		newWatchCmd(),
		newConfigCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.Bad.Render(ui.IconError+" "+err.Error()))
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	})))
	return cfg, nil
}

// newClient targets --addr or the configured local port.
func newClient() (*client.Client, error) {
	if addr != "" {
		return client.New(addr), nil
	}
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return client.New(fmt.Sprintf("http://127.0.0.1:%d", cfg.APIPort)), nil
}
