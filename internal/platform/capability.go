package platform

import "sync"

// Capabilities is resolved once per process and handed to the engine.
type Capabilities struct {
	OS OSFamily `json:"os"`
	// NativeProvider is true when a device metadata catalog is usable on this host.
	NativeProvider bool `json:"native_provider"`
}

var (
	capsOnce sync.Once
	caps     Capabilities
)

// DetectCapabilities probes the host the first time it is called and
// returns the cached result afterwards.
func DetectCapabilities() Capabilities {
	capsOnce.Do(func() {
		caps = Capabilities{
			OS:             CurrentOS(),
			NativeProvider: detectNativeProvider(),
		}
	})
	return caps
}

// NativeMethod is the identification method a native provider would produce on this OS.
func (c Capabilities) NativeMethod() IdentificationMethod {
	if !c.NativeProvider {
		return MethodBasic
	}
	switch c.OS {
	case OSLinux:
		return MethodNativeLinux
	case OSWindows:
		return MethodNativeWindows
	case OSDarwin:
		return MethodNativeDarwin
	default:
		return MethodBasic
	}
}
