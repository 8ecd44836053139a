package platform

import "strings"

var (
	externalOptKeywords = []string{"removable", "usb", "external"}
	linuxExternalPaths  = []string{"/dev/sd", "/dev/usb", "/media", "/mnt"}
)

// IsExternal decides whether a fully enriched record looks user-attached.
// It has no state; the host family is taken from the record itself.
//
// On Windows any volume lettered D: through K: counts as external. This is
// a known approximation that also catches secondary fixed disks.
func IsExternal(rec DeviceRecord) bool {
	if rec.Removable {
		return true
	}
	if rec.Type == TypeUSB || rec.Type == TypeSDCard {
		return true
	}
	if containsAny(strings.ToLower(rec.Opts), externalOptKeywords...) {
		return true
	}

	switch rec.OSType {
	case OSLinux:
		return containsAny(strings.ToLower(rec.DevicePath), linuxExternalPaths...)
	case OSWindows:
		letter, ok := driveLetter(rec.MountPoint)
		if !ok {
			letter, ok = driveLetter(rec.DevicePath)
		}
		return ok && letter >= 'd' && letter <= 'k'
	}
	return false
}

// driveLetter returns the lower-cased letter of a "X:" style path.
func driveLetter(p string) (byte, bool) {
	if len(p) < 2 || p[1] != ':' {
		return 0, false
	}
	c := p[0] | 0x20
	if c < 'a' || c > 'z' {
		return 0, false
	}
	return c, true
}
