package export

import (
	"strconv"
	"strings"

	"github.com/user/fleet-dashboard-api/internal/models"
)

// crewCSVHeader - fixed column set of the crew-account export
var crewCSVHeader = []string{"ID", "Description", "Type", "Update", "Quota(MB)"}

// CrewUsersCSV builds the crew-account export: UTF-8 with BOM, comma
// separated, every field double-quoted with internal quotes doubled.
// Built synchronously from in-memory data, no server round-trip.
func CrewUsersCSV(users []models.CrewUser) []byte {
	var b strings.Builder
	b.WriteString("\uFEFF")

	writeRow(&b, crewCSVHeader)
	for _, u := range users {
		writeRow(&b, []string{
			u.Username,
			u.Description,
			u.TerminalType,
			u.OctetTimeRange,
			quotaMB(u.MaxTotalOctets),
		})
	}
	return []byte(b.String())
}

func writeRow(b *strings.Builder, fields []string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(f, `"`, `""`))
		b.WriteByte('"')
	}
	b.WriteString("\r\n")
}

// quotaMB converts a byte-count string to whole megabytes. Non-numeric
// values pass through unchanged so a broken gateway row stays visible.
func quotaMB(octets string) string {
	n, err := strconv.ParseInt(strings.TrimSpace(octets), 10, 64)
	if err != nil {
		return octets
	}
	return strconv.FormatInt(n/(1024*1024), 10)
}
