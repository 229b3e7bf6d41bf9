// Package export renders a confirmed schedule into the CSV dialects and the
// printable PDF consumed by downstream tooling. All encoders are pure and
// deterministic: rows are sorted before rendering, so identical input always
// produces byte-identical output.
package export

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/fieldtime/scheduler-api/internal/timeutil"
)

// ScheduleRow is one confirmed game, denormalized with the display names the
// external dialects need. Name fields may be empty; encoders fall back to ids.
type ScheduleRow struct {
	SlotID       string
	GameDate     string // YYYY-MM-DD
	StartMin     int
	EndMin       int
	FieldKey     string
	Division     string
	GameType     string
	HomeTeamID   string
	AwayTeamID   string
	HomeTeamName string
	AwayTeamName string
	FieldName    string
}

// SortRows orders rows by (gameDate, startMin, fieldKey), the canonical
// export order shared by every dialect.
func SortRows(rows []ScheduleRow) {
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.GameDate != b.GameDate {
			return a.GameDate < b.GameDate
		}
		if a.StartMin != b.StartMin {
			return a.StartMin < b.StartMin
		}
		return a.FieldKey < b.FieldKey
	})
}

// InternalCSV renders the native dialect: columns mirror the row record and
// the header row is always quoted, which downstream importers use to detect
// the format version.
func InternalCSV(rows []ScheduleRow) ([]byte, error) {
	SortRows(rows)
	var b strings.Builder
	writeRecord(&b, true,
		"slotId", "gameDate", "startMin", "endMin", "fieldKey", "division", "gameType", "homeTeamId", "awayTeamId")
	for _, row := range rows {
		writeRecord(&b, false,
			row.SlotID, row.GameDate,
			strconv.Itoa(row.StartMin), strconv.Itoa(row.EndMin),
			row.FieldKey, row.Division, row.GameType,
			row.HomeTeamID, row.AwayTeamID)
	}
	return []byte(b.String()), nil
}

// SportsEngineCSV renders the SportsEngine import layout with friendly field
// and team names, falling back to raw keys when no display name is known.
func SportsEngineCSV(rows []ScheduleRow) ([]byte, error) {
	SortRows(rows)
	var b strings.Builder
	writeRecord(&b, false,
		"Start_Date", "Start_Time", "End_Date", "End_Time", "Location", "Home_Team", "Away_Team", "Event_Type")
	for _, row := range rows {
		writeRecord(&b, false,
			row.GameDate, timeutil.FormatClock(row.StartMin),
			row.GameDate, timeutil.FormatClock(row.EndMin),
			fallback(row.FieldName, row.FieldKey),
			fallback(row.HomeTeamName, row.HomeTeamID),
			fallback(row.AwayTeamName, row.AwayTeamID),
			fallback(row.GameType, "Game"))
	}
	return []byte(b.String()), nil
}

// GameChangerCSV renders the GameChanger layout: US dates, 12-hour clock
// times, the field key split into location and field on its first slash, and
// a sequential game number per output row.
func GameChangerCSV(rows []ScheduleRow) ([]byte, error) {
	SortRows(rows)
	var b strings.Builder
	writeRecord(&b, false,
		"Game #", "Date", "Start Time", "End Time", "Location", "Field", "Home", "Away")
	for i, row := range rows {
		date, err := timeutil.FormatDateUS(row.GameDate)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		location, field := SplitFieldKey(row.FieldKey)
		if row.FieldName != "" {
			field = row.FieldName
		}
		writeRecord(&b, false,
			strconv.Itoa(i+1), date,
			timeutil.FormatClock12(row.StartMin), timeutil.FormatClock12(row.EndMin),
			location, field,
			fallback(row.HomeTeamName, row.HomeTeamID),
			fallback(row.AwayTeamName, row.AwayTeamID))
	}
	return []byte(b.String()), nil
}

// SplitFieldKey separates a "park/field" key on its first slash. A key with
// no slash is all location.
func SplitFieldKey(fieldKey string) (location, field string) {
	if i := strings.Index(fieldKey, "/"); i >= 0 {
		return fieldKey[:i], fieldKey[i+1:]
	}
	return fieldKey, ""
}

// writeRecord appends one CSV record. With forceQuote every value is quoted
// regardless of content; otherwise quoting follows RFC 4180.
func writeRecord(b *strings.Builder, forceQuote bool, values ...string) {
	for i, v := range values {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(escape(v, forceQuote))
	}
	b.WriteByte('\n')
}

// escape wraps a value in quotes when required (or forced) and doubles any
// inner quotes.
func escape(v string, force bool) string {
	if !force && !strings.ContainsAny(v, "\",\n\r") {
		return v
	}
	return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
}

func fallback(value, alt string) string {
	if value != "" {
		return value
	}
	return alt
}
