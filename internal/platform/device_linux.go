//go:build linux
// +build linux

package platform

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/Desire162007/Secure-Wipe/internal/logging"
)

const (
	udevDataDir = "/run/udev/data"
	sysRoot     = "/sys"
)

func detectNativeProvider() bool {
	info, err := os.Stat(udevDataDir)
	return err == nil && info.IsDir()
}

func nativeEnricher(logger *logging.Logger) Enricher {
	db := udevDB{dataDir: udevDataDir, sysDir: sysRoot, devNumber: blockDevNumber, resolve: filepath.EvalSymlinks}
	return db.enricher(logger)
}

// udevDB reads the udev database directly instead of spawning udevadm.
// Entries live at <dataDir>/b<major>:<minor>.
type udevDB struct {
	dataDir   string
	sysDir    string
	devNumber func(path string) (major, minor uint32, err error)
	// resolve follows /dev/mapper and /dev/disk/by-* links to the kernel node.
	resolve func(path string) (string, error)
}

func (db udevDB) enricher(logger *logging.Logger) *LookupEnricher {
	return NewLookupEnricher(MethodNativeLinux, db.check, db.lookup, logger)
}

func (db udevDB) check(context.Context) error {
	info, err := os.Stat(db.dataDir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", db.dataDir)
	}
	return nil
}

func (db udevDB) lookup(_ context.Context, devicePath string) (Metadata, bool, error) {
	if !strings.HasPrefix(devicePath, "/dev/") {
		return Metadata{}, false, nil
	}
	major, minor, err := db.devNumber(devicePath)
	if err != nil {
		return Metadata{}, false, err
	}

	props, err := readUdevProperties(filepath.Join(db.dataDir, fmt.Sprintf("b%d:%d", major, minor)))
	if err != nil {
		if os.IsNotExist(err) {
			return Metadata{}, false, nil
		}
		return Metadata{}, false, err
	}
	if name, ok := props["DEVNAME"]; ok && !db.sameNode(name, devicePath) {
		return Metadata{}, false, nil
	}

	return Metadata{
		Serial:        props["ID_SERIAL_SHORT"],
		Model:         props["ID_MODEL"],
		Vendor:        props["ID_VENDOR"],
		InterfaceType: props["ID_BUS"],
		Removable:     props["REMOVABLE"] == "1" || db.sysfsRemovable(major, minor),
	}, true, nil
}

func (db udevDB) sameNode(devname, devicePath string) bool {
	if devname == devicePath {
		return true
	}
	if db.resolve == nil {
		return false
	}
	target, err := db.resolve(devicePath)
	return err == nil && target == devname
}

// sysfsRemovable checks the removable attribute, using the parent disk for partitions.
func (db udevDB) sysfsRemovable(major, minor uint32) bool {
	dir, err := filepath.EvalSymlinks(filepath.Join(db.sysDir, "dev", "block", fmt.Sprintf("%d:%d", major, minor)))
	if err != nil {
		return false
	}
	if _, err := os.Stat(filepath.Join(dir, "partition")); err == nil {
		dir = filepath.Dir(dir)
	}
	data, err := os.ReadFile(filepath.Join(dir, "removable"))
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(data)) == "1"
}

// readUdevProperties collects the E: (environment) lines of a udev db entry.
func readUdevProperties(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	props := make(map[string]string)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "E:") {
			continue
		}
		key, value, ok := strings.Cut(strings.TrimPrefix(line, "E:"), "=")
		if !ok {
			continue
		}
		props[key] = value
	}
	return props, scanner.Err()
}

func blockDevNumber(path string) (uint32, uint32, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return 0, 0, err
	}
	if st.Mode&unix.S_IFMT != unix.S_IFBLK {
		return 0, 0, fmt.Errorf("%s is not a block device", path)
	}
	dev := uint64(st.Rdev)
	return unix.Major(dev), unix.Minor(dev), nil
}
