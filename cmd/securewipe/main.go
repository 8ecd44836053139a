package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Desire162007/Secure-Wipe/internal/app"
	"github.com/Desire162007/Secure-Wipe/internal/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "securewipe",
	Short: "Identify external storage devices and simulate sanitization",
	Long: "SecureWipe catalogues removable storage attached to this host, runs wipe\n" +
		"simulations against it and issues verifiable completion certificates.",
	SilenceUsage: true,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		fmt.Sprintf("config file (default: $%s or the standard locations)", config.EnvConfigPath))
	rootCmd.AddCommand(
		app.NewDevicesCommand(&configPath),
		app.NewWipeCommand(&configPath),
		app.NewCertificateCommand(&configPath),
		app.NewServeCommand(&configPath),
		app.NewStatusCommand(&configPath),
		app.NewServiceCommand(&configPath),
		app.NewConfigCommand(&configPath),
	)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
