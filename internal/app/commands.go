package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Desire162007/Secure-Wipe/internal/config"
	"github.com/Desire162007/Secure-Wipe/internal/platform"
	"github.com/Desire162007/Secure-Wipe/internal/wipe"
)

// withEnv opens the environment for the duration of fn.
func withEnv(configPath *string, fn func(env *Env) error) error {
	env, err := Open(*configPath)
	if err != nil {
		return err
	}
	defer env.Close()
	return fn(env)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func NewDevicesCommand(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "devices",
		Short: "Inspect storage devices",
	}

	var all, asJSON bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List external storage devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(configPath, func(env *Env) error {
				var (
					devices []platform.DeviceRecord
					err     error
				)
				if all {
					devices, err = env.Scanner.ListAllDevices(cmd.Context())
				} else {
					devices, err = env.Scanner.ListExternalDevices(cmd.Context())
				}
				if err != nil {
					return err
				}
				if asJSON {
					if devices == nil {
						devices = []platform.DeviceRecord{}
					}
					return printJSON(cmd.OutOrStdout(), map[string]any{"devices": devices})
				}
				return printDeviceTable(cmd.OutOrStdout(), devices)
			})
		},
	}
	list.Flags().BoolVar(&all, "all", false, "include internal and system partitions")
	list.Flags().BoolVar(&asJSON, "json", false, "print JSON")

	var showJSON bool
	show := &cobra.Command{
		Use:   "show [device-id]",
		Short: "Show details for one external device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(configPath, func(env *Env) error {
				details, err := env.Scanner.GetDeviceDetails(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if showJSON {
					return printJSON(cmd.OutOrStdout(), details)
				}
				return printDeviceDetails(cmd.OutOrStdout(), details)
			})
		},
	}
	show.Flags().BoolVar(&showJSON, "json", false, "print JSON")

	cmd.AddCommand(list, show)
	return cmd
}

func printDeviceTable(w io.Writer, devices []platform.DeviceRecord) error {
	if len(devices) == 0 {
		fmt.Fprintln(w, "No devices found")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPATH\tMOUNT\tTYPE\tSIZE\tFREE\tMODEL\tMETHOD")
	for _, d := range devices {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			d.ID, d.DevicePath, d.MountPoint, d.Type,
			humanize.Bytes(d.TotalSize), humanize.Bytes(d.FreeSize),
			orDash(d.Model), d.IdentificationMethod)
	}
	return tw.Flush()
}

func printDeviceDetails(w io.Writer, d *platform.DeviceDetails) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%s\n", d.ID)
	fmt.Fprintf(tw, "Name:\t%s\n", d.Name)
	fmt.Fprintf(tw, "Device:\t%s\n", d.DevicePath)
	fmt.Fprintf(tw, "Mountpoint:\t%s\n", d.MountPoint)
	fmt.Fprintf(tw, "Filesystem:\t%s\n", d.FSType)
	fmt.Fprintf(tw, "Type:\t%s\n", d.Type)
	fmt.Fprintf(tw, "Size:\t%s (%s used, %s free)\n",
		humanize.Bytes(d.TotalSize), humanize.Bytes(d.UsedSize), humanize.Bytes(d.FreeSize))
	fmt.Fprintf(tw, "Vendor:\t%s\n", orDash(d.Vendor))
	fmt.Fprintf(tw, "Model:\t%s\n", orDash(d.Model))
	fmt.Fprintf(tw, "Serial:\t%s\n", orDash(d.Serial))
	fmt.Fprintf(tw, "Interface:\t%s\n", orDash(d.InterfaceType))
	fmt.Fprintf(tw, "Removable:\t%t\n", d.Removable)
	fmt.Fprintf(tw, "Identified by:\t%s (%s)\n", d.IdentificationMethod, d.OSType)
	if d.SmartData != nil && !d.SmartData.Available {
		fmt.Fprintf(tw, "SMART:\tunavailable, %s\n", d.SmartData.Reason)
	}
	if d.BootTime > 0 {
		fmt.Fprintf(tw, "Host booted:\t%s\n", humanize.Time(time.Unix(int64(d.BootTime), 0)))
	}
	return tw.Flush()
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func NewWipeCommand(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wipe",
		Short: "Run sanitization simulations",
	}

	var req wipe.Request
	var mode, standard string
	start := &cobra.Command{
		Use:   "start [device-id]",
		Short: "Simulate a wipe in the foreground and issue a certificate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.DeviceID = args[0]
			req.Mode = wipe.Mode(mode)
			req.Standard = wipe.Standard(standard)
			return withEnv(configPath, func(env *Env) error {
				return runForegroundWipe(cmd.Context(), cmd.OutOrStdout(), env, req)
			})
		},
	}
	start.Flags().StringVar(&standard, "standard", "", "nist, dod or gutmann (default from config)")
	start.Flags().IntVar(&req.Passes, "passes", 0, "number of passes (default from config)")
	start.Flags().StringVar(&mode, "mode", string(wipe.ModeSimulation), "simulation, dry-run or real")

	var planStandard string
	var planPasses int
	plan := &cobra.Command{
		Use:   "plan",
		Short: "Show the overwrite patterns a standard would use",
		RunE: func(cmd *cobra.Command, args []string) error {
			std, err := wipe.ParseStandard(planStandard)
			if err != nil {
				return err
			}
			if limit := wipe.DefaultLimits().MaxPasses; planPasses < 1 || planPasses > limit {
				return fmt.Errorf("%w: passes must be between 1 and %d", wipe.ErrInvalidRequest, limit)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "PASS\tPATTERN\tSOURCE")
			for _, p := range wipe.OverwritePlan(std, planPasses) {
				fmt.Fprintf(tw, "%d\t%s\t%s\n", p.Pass, p.Pattern, p.Source)
			}
			fmt.Fprintf(tw, "\nEstimated simulation time:\t%ds\n", wipe.EstimateDuration(std))
			return tw.Flush()
		},
	}
	plan.Flags().StringVar(&planStandard, "standard", string(wipe.StandardDoD), "nist, dod or gutmann")
	plan.Flags().IntVar(&planPasses, "passes", 3, "number of passes")

	cmd.AddCommand(start, plan)
	return cmd
}

// runForegroundWipe starts a session and prints progress until it ends.
// Interrupting cancels the session.
func runForegroundWipe(ctx context.Context, out io.Writer, env *Env, req wipe.Request) error {
	res, err := env.Wipes.Start(req)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Started wipe %s (%s, ~%ds)\n", res.WipeID, res.Mode, res.EstimatedDuration)

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	var last wipe.Progress
poll:
	for {
		p, err := env.Wipes.Progress(res.WipeID)
		if err != nil {
			return err
		}
		if p.Status != last.Status || p.Progress != last.Progress {
			fmt.Fprintf(out, "[%5.1f%%] %-22s %s\n", p.Progress, p.Status, p.Phase)
			last = p
		}
		if p.Done() {
			break
		}
		select {
		case <-ctx.Done():
			env.Wipes.Cancel(res.WipeID)
			break poll
		case <-ticker.C:
		}
	}

	waitCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	final, err := env.Wipes.Wait(waitCtx, res.WipeID)
	if err != nil {
		return err
	}
	switch {
	case final.Status == wipe.StatusCancelled:
		return errors.New("wipe cancelled")
	case final.Error != "":
		return fmt.Errorf("wipe completed but certificate failed: %s", final.Error)
	}
	fmt.Fprintf(out, "Completed in %.1fs. Certificate: %s\n", final.ElapsedTime, final.CertificateID)
	return nil
}

func NewCertificateCommand(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "certificate",
		Short: "Show and verify completion certificates",
	}

	var asJSON bool
	show := &cobra.Command{
		Use:   "show [certificate-id]",
		Short: "Print a certificate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(configPath, func(env *Env) error {
				c, err := env.Issuer.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if asJSON {
					return printJSON(cmd.OutOrStdout(), c)
				}
				return c.Render(cmd.OutOrStdout(), env.Issuer.Verify(c))
			})
		},
	}
	show.Flags().BoolVar(&asJSON, "json", false, "print JSON")

	verify := &cobra.Command{
		Use:   "verify [certificate-id]",
		Short: "Check a certificate's verification code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(configPath, func(env *Env) error {
				c, err := env.Issuer.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !env.Issuer.Verify(c) {
					return fmt.Errorf("certificate %s failed verification", c.ID)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Certificate %s is valid\n", c.ID)
				return nil
			})
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List issued certificates",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(configPath, func(env *Env) error {
				certs, err := env.Issuer.List(cmd.Context())
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tDEVICE\tSTANDARD\tPASSES\tISSUED")
				for _, c := range certs {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", c.ID, c.DeviceID, c.Standard, c.Passes, humanize.Time(c.GeneratedAt))
				}
				return tw.Flush()
			})
		},
	}

	cmd.AddCommand(show, verify, list)
	return cmd
}

func NewServeCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the local HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(configPath, func(env *Env) error {
				return env.Serve(cmd.Context())
			})
		},
	}
}

func NewConfigCommand(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "init [path]",
			Short: "Write a config file with the default settings",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				path := "config.yaml"
				if len(args) == 1 {
					path = args[0]
				} else if *configPath != "" {
					path = *configPath
				}
				cfg := config.Default()
				if err := config.Save(path, &cfg); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
				return nil
			},
		},
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := config.Load(*configPath)
				if err != nil {
					return err
				}
				cfg.Certificates.Secret = "[REDACTED]"
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				if err := enc.Encode(cfg); err != nil {
					return err
				}
				return enc.Close()
			},
		},
	)
	return cmd
}
