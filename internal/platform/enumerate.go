package platform

import (
	"context"
	"errors"
	"strings"

	"github.com/shirou/gopsutil/v3/disk"
)

var errNoMountpoint = errors.New("no mountpoint")

// Descriptor is a raw volume entry from the mount table.
type Descriptor struct {
	DevicePath string
	MountPoint string
	FSType     string
	Opts       string
}

// Usage holds capacity counters in bytes.
type Usage struct {
	Total uint64
	Used  uint64
	Free  uint64
}

// PartitionSource is the mount-table and capacity query service.
type PartitionSource interface {
	Partitions(ctx context.Context) ([]Descriptor, error)
	Usage(ctx context.Context, mountpoint string) (Usage, error)
}

// HostPartitions reads partitions through gopsutil.
type HostPartitions struct {
	// All includes pseudo filesystems and entries without a backing device.
	All bool
}

// NewHostPartitions returns the default partition source.
func NewHostPartitions(all bool) *HostPartitions {
	return &HostPartitions{All: all}
}

func (h *HostPartitions) Partitions(ctx context.Context) ([]Descriptor, error) {
	parts, err := disk.PartitionsWithContext(ctx, h.All)
	// gopsutil can return a partial table alongside an error
	descs := make([]Descriptor, 0, len(parts))
	for _, p := range parts {
		descs = append(descs, Descriptor{
			DevicePath: p.Device,
			MountPoint: p.Mountpoint,
			FSType:     p.Fstype,
			Opts:       strings.Join(p.Opts, ","),
		})
	}
	return descs, err
}

func (h *HostPartitions) Usage(ctx context.Context, mountpoint string) (Usage, error) {
	if mountpoint == "" {
		return Usage{}, errNoMountpoint
	}
	u, err := disk.UsageWithContext(ctx, mountpoint)
	if err != nil {
		return Usage{}, err
	}
	return Usage{Total: u.Total, Used: u.Used, Free: u.Free}, nil
}
