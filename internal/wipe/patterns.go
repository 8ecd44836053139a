package wipe

import "fmt"

var dodPatterns = []string{"0x00", "0xFF", "Random"}

var gutmannPatterns = []string{
	"Random", "0x55", "0xAA", "0x92", "0x49", "0x24", "0x00", "0x11",
	"0x22", "0x33", "0x44", "0x55", "0x66", "0x77", "0x88", "0x99",
	"0xAA", "0xBB", "0xCC", "0xDD", "0xEE", "0xFF", "Random", "Random",
	"Random", "Random", "0x6D", "0xB6", "0xDB", "Random", "Random",
	"Random", "Random", "Random", "Random",
}

// minutesPerGB is the nominal throughput used for duration estimates.
var minutesPerGB = map[Standard]int{
	StandardNIST:    2,
	StandardDoD:     6,
	StandardGutmann: 70,
}

const (
	simulatedSizeGB    = 16
	maxEstimateSeconds = 120
)

// EstimateDuration returns the simulated run length in seconds.
func EstimateDuration(s Standard) int {
	perGB, ok := minutesPerGB[s]
	if !ok {
		perGB = 6
	}
	total := simulatedSizeGB * perGB * 2
	if total > maxEstimateSeconds {
		return maxEstimateSeconds
	}
	return total
}

// Pattern names the overwrite pattern for a 1-based pass number.
func Pattern(s Standard, pass int) string {
	switch s {
	case StandardDoD:
		return clampedPattern(dodPatterns, pass)
	case StandardGutmann:
		return clampedPattern(gutmannPatterns, pass)
	default:
		return "Cryptographic Random"
	}
}

func clampedPattern(patterns []string, pass int) string {
	i := pass - 1
	if i < 0 {
		i = 0
	}
	if i >= len(patterns) {
		i = len(patterns) - 1
	}
	return patterns[i]
}

// PassDetails describes what a pass does.
func PassDetails(s Standard, pass, total int) string {
	switch s {
	case StandardNIST:
		return "Cryptographic erase using secure random patterns"
	case StandardDoD:
		switch pass {
		case 1:
			return fmt.Sprintf("Pass %d/%d: Writing 0x00 (zeros) to all sectors", pass, total)
		case 2:
			return fmt.Sprintf("Pass %d/%d: Writing 0xFF (ones) to all sectors", pass, total)
		default:
			return fmt.Sprintf("Pass %d/%d: Writing cryptographic random data", pass, total)
		}
	case StandardGutmann:
		return fmt.Sprintf("Gutmann pass %d/%d: Specialized overwrite pattern", pass, total)
	default:
		return fmt.Sprintf("Secure overwrite pass %d/%d", pass, total)
	}
}
