package platform

import "strings"

// ClassificationRule tags a descriptor when Match returns true.
// Match receives the lower-cased device path and mount options.
type ClassificationRule struct {
	Type  DeviceType
	Match func(path, opts string) bool
}

// DefaultRules is evaluated in order and the first match wins. USB has to come
// before everything else so a USB-attached disk never shows up as HDD, and
// SD/MMC is checked before the generic disk patterns.
var DefaultRules = []ClassificationRule{
	{Type: TypeUSB, Match: func(path, opts string) bool {
		return strings.Contains(opts, "removable") || strings.Contains(path, "usb")
	}},
	{Type: TypeSDCard, Match: pathContainsAny("sd", "mmc")},
	{Type: TypeNVMe, Match: pathContainsAny("nvme")},
	{Type: TypeSSD, Match: pathContainsAny("ssd")},
	{Type: TypeHDD, Match: pathContainsAny("hd", "disk", "drive")},
}

// Classify derives the device type using DefaultRules.
func Classify(path, opts string) DeviceType {
	return ClassifyWith(DefaultRules, path, opts)
}

// ClassifyWith evaluates rules in order against the path and options.
func ClassifyWith(rules []ClassificationRule, path, opts string) DeviceType {
	path = strings.ToLower(path)
	opts = strings.ToLower(opts)
	for _, rule := range rules {
		if rule.Match(path, opts) {
			return rule.Type
		}
	}
	return TypeUnknown
}

func pathContainsAny(subs ...string) func(path, opts string) bool {
	return func(path, _ string) bool {
		return containsAny(path, subs...)
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
