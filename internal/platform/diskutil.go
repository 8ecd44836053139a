package platform

import (
	"context"
	"strings"

	"howett.net/plist"

	"github.com/Desire162007/Secure-Wipe/internal/logging"
)

// diskutilInfo is the part of `diskutil info -plist` we care about.
type diskutilInfo struct {
	DeviceNode          string `plist:"DeviceNode"`
	MediaName           string `plist:"MediaName"`
	IORegistryEntryName string `plist:"IORegistryEntryName"`
	BusProtocol         string `plist:"BusProtocol"`
	Removable           bool   `plist:"Removable"`
	RemovableMedia      bool   `plist:"RemovableMedia"`
	Ejectable           bool   `plist:"Ejectable"`
	Internal            *bool  `plist:"Internal"`
}

func parseDiskutilInfo(data []byte) (diskutilInfo, error) {
	var info diskutilInfo
	if _, err := plist.Unmarshal(data, &info); err != nil {
		return diskutilInfo{}, err
	}
	return info, nil
}

func (i diskutilInfo) metadata() Metadata {
	model := i.MediaName
	if model == "" {
		model = i.IORegistryEntryName
	}
	external := i.Internal != nil && !*i.Internal
	return Metadata{
		Model:         model,
		InterfaceType: i.BusProtocol,
		Removable:     i.Removable || i.RemovableMedia || i.Ejectable || external,
	}
}

// diskutilRunner returns the plist output of diskutil info for a device.
type diskutilRunner func(ctx context.Context, devicePath string) ([]byte, error)

func newDiskutilEnricher(run diskutilRunner, check func(context.Context) error, logger *logging.Logger) *LookupEnricher {
	lookup := func(ctx context.Context, devicePath string) (Metadata, bool, error) {
		if !strings.HasPrefix(devicePath, "/dev/disk") {
			return Metadata{}, false, nil
		}
		out, err := run(ctx, devicePath)
		if err != nil {
			return Metadata{}, false, err
		}
		info, err := parseDiskutilInfo(out)
		if err != nil {
			return Metadata{}, false, err
		}
		if info.DeviceNode != devicePath {
			return Metadata{}, false, nil
		}
		return info.metadata(), true, nil
	}
	return NewLookupEnricher(MethodNativeDarwin, check, lookup, logger)
}
