// Package usage derives per-antenna transfer statistics from timestamped
// route samples. All functions are pure and deterministic.
package usage

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/user/fleet-dashboard-api/internal/models"
)

// DefaultWindowSeconds - assumed observation window when no range is given (24h)
const DefaultWindowSeconds = 86400

// UnknownAntenna - group name for usage entries without an antenna name
const UnknownAntenna = "Unknown"

var sizeUnits = []string{"Bytes", "KB", "MB", "GB", "TB", "PB"}

// Window - an explicit [StartAt, EndAt] observation range
type Window struct {
	StartAt time.Time
	EndAt   time.Time
}

// AntennaUsage - aggregate for one antenna across all samples
type AntennaUsage struct {
	Name        string   `json:"name"`
	TotalBytes  int64    `json:"totalBytes"`
	Interfaces  []string `json:"interfaces"`
	DisplaySize string   `json:"displaySize"`
	DisplayUnit string   `json:"displayUnit"`
	SpeedText   string   `json:"speedText"`
}

// WindowSeconds returns the duration the aggregation averages over. Without
// a window the default 24h applies; a zero-length window becomes 1 second so
// the average never divides by zero.
func WindowSeconds(w *Window) float64 {
	if w == nil {
		return DefaultWindowSeconds
	}
	secs := math.Abs(w.EndAt.Sub(w.StartAt).Seconds())
	if secs == 0 {
		return 1
	}
	return secs
}

// Aggregate groups every DataUsage entry across every coordinate by antenna
// name and computes totals and display strings. Results are sorted by
// antenna name; an empty sample list yields an empty result.
func Aggregate(coords []models.RouteCoordinate, w *Window) []AntennaUsage {
	totalSeconds := WindowSeconds(w)

	type group struct {
		bytes      int64
		interfaces map[string]struct{}
	}
	groups := make(map[string]*group)

	for _, coord := range coords {
		for _, du := range coord.DataUsage {
			name := du.AntennaName
			if name == "" {
				name = UnknownAntenna
			}
			g, ok := groups[name]
			if !ok {
				g = &group{interfaces: make(map[string]struct{})}
				groups[name] = g
			}
			g.bytes += du.Bytes
			if du.InterfaceName != "" {
				g.interfaces[du.InterfaceName] = struct{}{}
			}
		}
	}

	result := make([]AntennaUsage, 0, len(groups))
	for name, g := range groups {
		interfaces := make([]string, 0, len(g.interfaces))
		for ifname := range g.interfaces {
			interfaces = append(interfaces, ifname)
		}
		sort.Strings(interfaces)

		size, unit := FormatSize(g.bytes)
		result = append(result, AntennaUsage{
			Name:        name,
			TotalBytes:  g.bytes,
			Interfaces:  interfaces,
			DisplaySize: size,
			DisplayUnit: unit,
			SpeedText:   FormatSpeed(g.bytes, totalSeconds),
		})
	}

	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// FormatSize renders a byte count as a human-readable value and unit.
// The value is divided by 1024 until it drops below 1024 or the unit list
// runs out; GB and larger keep 2 decimals, smaller units keep 1 with a
// trailing ".0" stripped. Zero is the special case "0 KB".
func FormatSize(bytes int64) (string, string) {
	if bytes == 0 {
		return "0", "KB"
	}

	value := float64(bytes)
	unit := 0
	for value >= 1024 && unit < len(sizeUnits)-1 {
		value /= 1024
		unit++
	}

	if unit >= 3 {
		return fmt.Sprintf("%.2f", value), sizeUnits[unit]
	}
	s := fmt.Sprintf("%.1f", value)
	return strings.TrimSuffix(s, ".0"), sizeUnits[unit]
}

// FormatSpeed renders the average throughput over the window. At or above
// 1,000,000 bits/s the Mbps form is used, below it kbps.
func FormatSpeed(totalBytes int64, totalSeconds float64) string {
	if totalSeconds <= 0 {
		totalSeconds = 1
	}
	bitsPerSecond := float64(totalBytes) * 8 / totalSeconds
	if bitsPerSecond >= 1_000_000 {
		return fmt.Sprintf("%.2f Mbps", bitsPerSecond/1_000_000)
	}
	return fmt.Sprintf("%.2f kbps", bitsPerSecond/1_000)
}
