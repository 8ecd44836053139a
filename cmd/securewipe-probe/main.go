// Command securewipe-probe prints what the device engine sees on this host,
// without the external-device filter.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/Desire162007/Secure-Wipe/internal/logging"
	"github.com/Desire162007/Secure-Wipe/internal/platform"
)

func main() {
	timeout := flag.Duration("timeout", 30*time.Second, "scan timeout")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := logging.LevelInfo
	if *verbose {
		level = logging.LevelDebug
	}
	logger := logging.NewWriter(os.Stderr, level)

	caps := platform.DetectCapabilities()
	fmt.Printf("Probing SecureWipe device support on %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Printf("  OS family:       %s\n", caps.OS)
	fmt.Printf("  Native provider: %t\n", caps.NativeProvider)
	fmt.Printf("  Native method:   %s\n", caps.NativeMethod())

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	manager := platform.NewDeviceManager(platform.WithLogger(logger))
	devices, err := manager.ListAllDevices(ctx)
	if err != nil {
		log.Fatalf("scan failed: %v", err)
	}

	fmt.Printf("\n=== %d partitions ===\n", len(devices))
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPATH\tMOUNT\tFS\tTYPE\tSIZE\tREMOVABLE\tEXTERNAL\tMETHOD")
	external := 0
	for _, d := range devices {
		ext := platform.IsExternal(d)
		if ext {
			external++
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%t\t%t\t%s\n",
			d.ID, d.DevicePath, d.MountPoint, d.FSType, d.Type,
			humanize.Bytes(d.TotalSize), d.Removable, ext, d.IdentificationMethod)
	}
	tw.Flush()
	fmt.Printf("\n%d of %d would be offered for wiping\n", external, len(devices))
}
