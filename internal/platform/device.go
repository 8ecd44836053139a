package platform

import (
	"context"
	"errors"
	"runtime"
)

// ErrNotFound is returned when a device id is not part of the current external set.
var ErrNotFound = errors.New("device not found")

// DeviceType is the coarse classification derived from path and mount option heuristics.
type DeviceType string

const (
	TypeUSB     DeviceType = "USB"
	TypeSDCard  DeviceType = "SD_CARD"
	TypeNVMe    DeviceType = "NVME_SSD"
	TypeSSD     DeviceType = "SSD"
	TypeHDD     DeviceType = "HDD"
	TypeUnknown DeviceType = "UNKNOWN"
)

// IdentificationMethod records where the richest data for a device came from.
type IdentificationMethod string

const (
	MethodBasic         IdentificationMethod = "BASIC"
	MethodNativeLinux   IdentificationMethod = "NATIVE_LINUX"
	MethodNativeWindows IdentificationMethod = "NATIVE_WINDOWS"
	MethodNativeDarwin  IdentificationMethod = "NATIVE_DARWIN"
)

// IsNative reports whether the method is one of the native providers.
func (m IdentificationMethod) IsNative() bool {
	return m != "" && m != MethodBasic
}

// OSFamily is the host operating system family.
type OSFamily string

const (
	OSLinux   OSFamily = "Linux"
	OSWindows OSFamily = "Windows"
	OSDarwin  OSFamily = "Darwin"
	OSUnknown OSFamily = "Unknown"
)

// CurrentOS returns the family of the running host.
func CurrentOS() OSFamily {
	return osFamily(runtime.GOOS)
}

func osFamily(goos string) OSFamily {
	switch goos {
	case "linux":
		return OSLinux
	case "windows":
		return OSWindows
	case "darwin":
		return OSDarwin
	default:
		return OSUnknown
	}
}

// DeviceRecord is one storage volume as seen by a single scan.
// Capacity fields are zero when usage could not be read, which does not mean the device is empty.
type DeviceRecord struct {
	ID                   string               `json:"id"`
	Name                 string               `json:"name"`
	DevicePath           string               `json:"device_path"`
	MountPoint           string               `json:"mountpoint"`
	FSType               string               `json:"fstype"`
	Type                 DeviceType           `json:"type"`
	TotalSize            uint64               `json:"total_size"`
	UsedSize             uint64               `json:"used_size"`
	FreeSize             uint64               `json:"free_size"`
	Opts                 string               `json:"opts"`
	Serial               *string              `json:"serial"`
	Model                *string              `json:"model"`
	Vendor               *string              `json:"vendor"`
	InterfaceType        *string              `json:"interface_type,omitempty"`
	Removable            bool                 `json:"removable"`
	IdentificationMethod IdentificationMethod `json:"identification_method"`
	OSType               OSFamily             `json:"os_type"`
}

// Metadata is what a native provider knows about one device.
type Metadata struct {
	Serial        string
	Model         string
	Vendor        string
	InterfaceType string
	Removable     bool
}

// applyNative merges provider metadata into the record. Fields only ever gain
// information: empty values are ignored, removable is never cleared and the
// identification method only moves away from BASIC.
func (r *DeviceRecord) applyNative(meta Metadata, method IdentificationMethod) {
	if v := trimmed(meta.Serial); v != nil {
		r.Serial = v
	}
	if v := trimmed(meta.Model); v != nil {
		r.Model = v
	}
	if v := trimmed(meta.Vendor); v != nil {
		r.Vendor = v
	}
	if v := trimmed(meta.InterfaceType); v != nil {
		r.InterfaceType = v
	}
	r.Removable = r.Removable || meta.Removable
	if !r.IdentificationMethod.IsNative() {
		r.IdentificationMethod = method
	}
}

// DeviceManager provides cross-platform storage device discovery
type DeviceManager interface {
	// ListExternalDevices runs a full scan and returns only external devices.
	ListExternalDevices(ctx context.Context) ([]DeviceRecord, error)
	// GetDeviceInfo re-scans and returns the external device with the given id.
	GetDeviceInfo(ctx context.Context, id string) (*DeviceRecord, error)
	// ListAllDevices returns every enriched record without filtering.
	ListAllDevices(ctx context.Context) ([]DeviceRecord, error)
}

// NewDeviceManager creates a scanner for the host using detected capabilities
func NewDeviceManager(opts ...Option) DeviceManager {
	return NewScanner(DetectCapabilities(), opts...)
}
