package app

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Desire162007/Secure-Wipe/internal/config"
	"github.com/Desire162007/Secure-Wipe/internal/logging"
	"github.com/Desire162007/Secure-Wipe/internal/service"
)

func NewStatusCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:                   "status",
		Short:                 "Show host, capability and service status",
		DisableFlagsInUseLine: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(configPath, func(env *Env) error {
				out := cmd.OutOrStdout()
				caps := env.Scanner.Capabilities()

				fmt.Fprintln(out, "SecureWipe Status")
				fmt.Fprintln(out, "=================")

				fmt.Fprintln(out, "\nDevice Identification:")
				fmt.Fprintf(out, "  OS: %s\n", caps.OS)
				fmt.Fprintf(out, "  Native Provider: %t\n", caps.NativeProvider)
				fmt.Fprintf(out, "  Method: %s\n", caps.NativeMethod())
				if devices, err := env.Scanner.ListExternalDevices(cmd.Context()); err == nil {
					fmt.Fprintf(out, "  External Devices: %d\n", len(devices))
				}

				fmt.Fprintln(out, "\nService Status:")
				if sm, err := service.NewServiceManager(env.Config.Service, *configPath, env.Serve, env.Logger); err == nil {
					if status, err := sm.Status(); err == nil {
						fmt.Fprintf(out, "  Status: %s\n", status)
					} else {
						fmt.Fprintln(out, "  Status: Not Installed")
					}
					fmt.Fprintf(out, "  Config: %s\n", sm.ConfigPath())
				} else {
					fmt.Fprintln(out, "  Status: Not Available")
				}
				fmt.Fprintf(out, "  API: http://%s\n", env.Config.Addr())

				fmt.Fprintln(out, "\nSystem Information:")
				st := env.Monitor.Status(cmd.Context())
				fmt.Fprintf(out, "  Hostname: %s\n", st.Hostname)
				fmt.Fprintf(out, "  OS: %s %s (%s)\n", st.Platform, st.PlatformVersion, st.KernelVersion)
				if st.BootTime > 0 {
					fmt.Fprintf(out, "  Booted: %s\n", humanize.Time(time.Unix(int64(st.BootTime), 0)))
				}
				fmt.Fprintf(out, "  CPU Usage: %.2f%%\n", st.CPUPercent)
				fmt.Fprintf(out, "  Memory Usage: %.2f%% of %s\n", st.MemoryPercent, humanize.Bytes(st.MemoryTotal))
				fmt.Fprintf(out, "  Disk Usage: %.2f%% of %s\n", st.DiskPercent, humanize.Bytes(st.DiskTotal))
				for _, e := range st.Errors {
					fmt.Fprintf(out, "  Warning: %s\n", e)
				}

				if certs, err := env.Issuer.List(cmd.Context()); err == nil {
					fmt.Fprintln(out, "\nCertificates:")
					fmt.Fprintf(out, "  Issued: %d\n", len(certs))
				}
				return nil
			})
		},
	}
}

func NewServiceCommand(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Manage the SecureWipe API service",
	}

	// manager loads only the config; the full environment is opened when the service runs.
	manager := func() (*service.ServiceManager, error) {
		cfg, err := config.Load(*configPath)
		if err != nil {
			return nil, err
		}
		logger := logging.NewWriter(cmd.ErrOrStderr(), logging.ParseLevel(cfg.Logging.Level))
		run := func(ctx context.Context) error {
			return withEnv(configPath, func(env *Env) error {
				return env.Serve(ctx)
			})
		}
		return service.NewServiceManager(cfg.Service, *configPath, run, logger)
	}

	action := func(use, short string, fn func(sm *service.ServiceManager) error) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			RunE: func(cmd *cobra.Command, args []string) error {
				sm, err := manager()
				if err != nil {
					return err
				}
				return fn(sm)
			},
		}
	}

	cmd.AddCommand(
		action("install", "Install the service", func(sm *service.ServiceManager) error {
			if err := sm.Install(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Service installed: %s\n", sm.ConfigPath())
			return nil
		}),
		action("uninstall", "Remove the service", func(sm *service.ServiceManager) error {
			return sm.Uninstall()
		}),
		action("start", "Start the installed service", func(sm *service.ServiceManager) error {
			return sm.Start()
		}),
		action("stop", "Stop the installed service", func(sm *service.ServiceManager) error {
			return sm.Stop()
		}),
		action("restart", "Restart the installed service", func(sm *service.ServiceManager) error {
			return sm.Restart()
		}),
		action("status", "Show service status", func(sm *service.ServiceManager) error {
			status, err := sm.Status()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Service status: %s\n", status)
			return nil
		}),
		action("run", "Run under the service manager", func(sm *service.ServiceManager) error {
			return sm.Run()
		}),
	)
	return cmd
}
