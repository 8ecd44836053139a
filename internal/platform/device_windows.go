//go:build windows
// +build windows

package platform

import (
	"context"

	"github.com/yusufpapurcu/wmi"

	"github.com/Desire162007/Secure-Wipe/internal/logging"
)

const diskDriveQuery = "SELECT DeviceID, Model, Manufacturer, SerialNumber, MediaType, InterfaceType FROM Win32_DiskDrive"

type win32DiskDrive struct {
	DeviceID      string
	Model         string
	Manufacturer  string
	SerialNumber  string
	MediaType     string
	InterfaceType string
}

type win32DiskDriveID struct {
	DeviceID string
}

func detectNativeProvider() bool {
	var dst []win32DiskDriveID
	return wmi.Query("SELECT DeviceID FROM Win32_DiskDrive", &dst) == nil
}

func nativeEnricher(logger *logging.Logger) Enricher {
	return NewWMIEnricher(wmiCatalog{}, logger)
}

type wmiCatalog struct{}

// DiskDrives runs the WMI query in a goroutine so a stuck provider does not outlive ctx.
func (wmiCatalog) DiskDrives(ctx context.Context) ([]DiskDrive, error) {
	type result struct {
		drives []DiskDrive
		err    error
	}
	ch := make(chan result, 1)
	go func() {
		var dst []win32DiskDrive
		if err := wmi.Query(diskDriveQuery, &dst); err != nil {
			ch <- result{err: err}
			return
		}
		drives := make([]DiskDrive, 0, len(dst))
		for _, d := range dst {
			drives = append(drives, DiskDrive(d))
		}
		ch <- result{drives: drives}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		return r.drives, r.err
	}
}
