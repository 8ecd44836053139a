package platform

import (
	"context"
	"strings"

	"github.com/Desire162007/Secure-Wipe/internal/logging"
)

// DiskDrive is the subset of Win32_DiskDrive used for enrichment.
type DiskDrive struct {
	DeviceID      string
	Model         string
	Manufacturer  string
	SerialNumber  string
	MediaType     string
	InterfaceType string
}

func (d DiskDrive) metadata() Metadata {
	return Metadata{
		Serial:        d.SerialNumber,
		Model:         d.Model,
		Vendor:        d.Manufacturer,
		InterfaceType: d.InterfaceType,
		Removable:     d.MediaType == "Removable Media",
	}
}

// DiskCatalog lists the physical drives known to the host.
type DiskCatalog interface {
	DiskDrives(ctx context.Context) ([]DiskDrive, error)
}

// WMIEnricher matches records against the Windows disk drive catalog.
type WMIEnricher struct {
	catalog DiskCatalog
	logger  *logging.Logger
}

func NewWMIEnricher(catalog DiskCatalog, logger *logging.Logger) *WMIEnricher {
	return &WMIEnricher{catalog: catalog, logger: logger}
}

func (e *WMIEnricher) Method() IdentificationMethod { return MethodNativeWindows }

func (e *WMIEnricher) Enrich(ctx context.Context, records []DeviceRecord) []DeviceRecord {
	drives, err := e.catalog.DiskDrives(ctx)
	if err != nil {
		e.logger.Warnf("WMI enrichment failed: %v", err)
		return records
	}

	lookup := func(_ context.Context, devicePath string) (Metadata, bool, error) {
		for _, d := range drives {
			if matchesDeviceID(devicePath, d.DeviceID) {
				return d.metadata(), true, nil
			}
		}
		return Metadata{}, false, nil
	}
	return NewLookupEnricher(MethodNativeWindows, nil, lookup, e.logger).Enrich(ctx, records)
}

// matchesDeviceID compares a mount-table path with a catalog DeviceID.
// The catalog uses a different naming scheme, so both sides drop separators
// and the path (minus drive punctuation) must appear inside the id.
func matchesDeviceID(devicePath, deviceID string) bool {
	norm := strings.NewReplacer(`\`, "", ":", "").Replace(devicePath)
	if norm == "" {
		return false
	}
	return strings.Contains(strings.ReplaceAll(deviceID, `\`, ""), norm)
}
