package prompt

import (
	"fmt"
	"slices"
	"strings"
)

// ContextEntry is one earlier decision folded into a prompt.
type ContextEntry struct {
	// Station is the 1-based position of the entry's story in play order.
	Station int
	Chosen  string
	Options []string
}

var stationNames = []string{"First", "Second", "Third", "Fourth", "Fifth"}

// StationLabel names a station for prompts.
func StationLabel(n int) string {
	if n >= 1 && n <= len(stationNames) {
		return stationNames[n-1] + " station"
	}
	return fmt.Sprintf("Station %d", n)
}

// FormatContext groups entries by station, lowest first, and renders each
// group as a numbered list. Entries keep their relative order within a group.
func FormatContext(entries []ContextEntry) string {
	if len(entries) == 0 {
		return ""
	}

	groups := map[int][]ContextEntry{}
	var stations []int
	for _, e := range entries {
		if _, ok := groups[e.Station]; !ok {
			stations = append(stations, e.Station)
		}
		groups[e.Station] = append(groups[e.Station], e)
	}
	slices.Sort(stations)

	sections := make([]string, 0, len(stations))
	for _, st := range stations {
		var sb strings.Builder
		sb.WriteString(StationLabel(st) + ":")
		for i, e := range groups[st] {
			fmt.Fprintf(&sb, "\n%d. %s", i+1, formatEntry(e))
		}
		sections = append(sections, sb.String())
	}
	return strings.Join(sections, "\n\n")
}

func formatEntry(e ContextEntry) string {
	chosen := e.Chosen
	if chosen == "" {
		chosen = "(no choice made)"
	}
	if len(e.Options) == 0 {
		return chosen
	}
	return fmt.Sprintf("%s (options: %s)", chosen, strings.Join(e.Options, ", "))
}
