package usage

import (
	"testing"
	"time"

	"github.com/user/fleet-dashboard-api/internal/models"
)

func TestWindowSeconds(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		window *Window
		want   float64
	}{
		{"nil window uses 24h default", nil, 86400},
		{"one hour", &Window{StartAt: base, EndAt: base.Add(time.Hour)}, 3600},
		{"reversed bounds", &Window{StartAt: base.Add(time.Hour), EndAt: base}, 3600},
		{"zero-length becomes one second", &Window{StartAt: base, EndAt: base}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WindowSeconds(tt.window); got != tt.want {
				t.Errorf("WindowSeconds() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		bytes    int64
		wantVal  string
		wantUnit string
	}{
		{0, "0", "KB"},
		{512, "512", "Bytes"},
		{1023, "1023", "Bytes"},
		{1024, "1", "KB"},
		{1536, "1.5", "KB"},
		{1024 * 1024, "1", "MB"},
		{1024 * 1024 * 1024, "1.00", "GB"},
		{1024*1024*1024 + 512*1024*1024, "1.50", "GB"},
		{1024 * 1024 * 1024 * 1024, "1.00", "TB"},
	}

	for _, tt := range tests {
		val, unit := FormatSize(tt.bytes)
		if val != tt.wantVal || unit != tt.wantUnit {
			t.Errorf("FormatSize(%d) = %q %q, want %q %q",
				tt.bytes, val, unit, tt.wantVal, tt.wantUnit)
		}
	}
}

func TestFormatSpeed(t *testing.T) {
	tests := []struct {
		name    string
		bytes   int64
		seconds float64
		want    string
	}{
		{"exactly one megabit per second", 125000, 1, "1.00 Mbps"},
		{"just below the Mbps threshold", 124999, 1, "999.99 kbps"},
		{"slow link", 1000, 1, "8.00 kbps"},
		{"fast link over an hour", 450_000_000, 3600, "1.00 Mbps"},
		{"zero bytes", 0, 3600, "0.00 kbps"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatSpeed(tt.bytes, tt.seconds); got != tt.want {
				t.Errorf("FormatSpeed(%d, %v) = %q, want %q",
					tt.bytes, tt.seconds, got, tt.want)
			}
		})
	}
}

func sample(antenna, iface string, bytes int64) models.DataUsage {
	return models.DataUsage{AntennaName: antenna, InterfaceName: iface, Bytes: bytes}
}

func TestAggregateEmpty(t *testing.T) {
	if got := Aggregate(nil, nil); len(got) != 0 {
		t.Errorf("Aggregate(nil) returned %d rows, want 0", len(got))
	}

	coords := []models.RouteCoordinate{{TimeStamp: "2026-03-01T00:00:00Z"}}
	if got := Aggregate(coords, nil); len(got) != 0 {
		t.Errorf("Aggregate with no usage entries returned %d rows, want 0", len(got))
	}
}

func TestAggregateGrouping(t *testing.T) {
	coords := []models.RouteCoordinate{
		{DataUsage: []models.DataUsage{
			sample("VSAT", "wan1", 1000),
			sample("Starlink", "wan2", 500),
		}},
		{DataUsage: []models.DataUsage{
			sample("VSAT", "wan1", 2000),
			sample("VSAT", "wan3", 100),
			sample("", "wan9", 42),
		}},
	}

	rows := Aggregate(coords, nil)
	if len(rows) != 3 {
		t.Fatalf("got %d antenna groups, want 3", len(rows))
	}

	// Sorted by name: Starlink, Unknown, VSAT.
	if rows[0].Name != "Starlink" || rows[1].Name != UnknownAntenna || rows[2].Name != "VSAT" {
		t.Fatalf("unexpected group order: %s, %s, %s", rows[0].Name, rows[1].Name, rows[2].Name)
	}

	vsat := rows[2]
	if vsat.TotalBytes != 3100 {
		t.Errorf("VSAT total = %d, want 3100", vsat.TotalBytes)
	}
	if len(vsat.Interfaces) != 2 || vsat.Interfaces[0] != "wan1" || vsat.Interfaces[1] != "wan3" {
		t.Errorf("VSAT interfaces = %v, want [wan1 wan3]", vsat.Interfaces)
	}

	if rows[1].TotalBytes != 42 {
		t.Errorf("Unknown total = %d, want 42", rows[1].TotalBytes)
	}

	// Conservation: the groups account for every input byte.
	var sum int64
	for _, r := range rows {
		sum += r.TotalBytes
	}
	if sum != 3642 {
		t.Errorf("total across groups = %d, want 3642", sum)
	}
}

func TestAggregateDisplayFields(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	window := &Window{StartAt: base, EndAt: base.Add(time.Second)}

	coords := []models.RouteCoordinate{
		{DataUsage: []models.DataUsage{sample("VSAT", "wan1", 125000)}},
	}

	rows := Aggregate(coords, window)
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if rows[0].DisplaySize != "122.1" || rows[0].DisplayUnit != "KB" {
		t.Errorf("display = %q %q, want %q %q",
			rows[0].DisplaySize, rows[0].DisplayUnit, "122.1", "KB")
	}
	if rows[0].SpeedText != "1.00 Mbps" {
		t.Errorf("speed = %q, want %q", rows[0].SpeedText, "1.00 Mbps")
	}
}
