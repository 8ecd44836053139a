package platform

import "github.com/google/uuid"

// DeviceID derives the per-scan identifier from a device path.
// The same path always yields the same id; ids are not stable if paths change.
func DeviceID(devicePath string) string {
	u := uuid.NewSHA1(uuid.NameSpaceURL, []byte("securewipe:device:"+devicePath))
	return "dev_" + u.String()[:8]
}
