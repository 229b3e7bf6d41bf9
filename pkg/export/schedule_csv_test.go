package export

import (
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRows() []ScheduleRow {
	return []ScheduleRow{
		{
			SlotID:   "s2",
			GameDate: "2026-04-05",
			StartMin: 13 * 60, // 13:00
			EndMin:   14 * 60,
			FieldKey: "riverside/2", Division: "U10", GameType: "Game",
			HomeTeamID: "t-c", AwayTeamID: "t-d",
			HomeTeamName: "Comets", AwayTeamName: "Dragons",
			FieldName: "Riverside 2",
		},
		{
			SlotID:   "s1",
			GameDate: "2026-04-04",
			StartMin: 13*60 + 30, // 13:30
			EndMin:   15 * 60,
			FieldKey: "park/field,1", Division: "U10", GameType: "Game",
			HomeTeamID: "t-a", AwayTeamID: "t-b",
			HomeTeamName: `Main "Field" Hawks`, AwayTeamName: "Bears",
		},
	}
}

func TestInternalCSVQuotesHeaderRow(t *testing.T) {
	out, err := InternalCSV(sampleRows())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(out), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, `"slotId","gameDate","startMin","endMin","fieldKey","division","gameType","homeTeamId","awayTeamId"`, lines[0])
	// Earlier date sorts first even though it was second in the input.
	assert.True(t, strings.HasPrefix(lines[1], "s1,2026-04-04,810,900,"), lines[1])
}

func TestInternalCSVEscapesCommaInFieldKey(t *testing.T) {
	out, err := InternalCSV(sampleRows())
	require.NoError(t, err)
	assert.Contains(t, string(out), `"park/field,1"`)

	records, err := csv.NewReader(strings.NewReader(string(out))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "park/field,1", records[1][4])
}

func TestSportsEngineCSVDoublesInnerQuotes(t *testing.T) {
	out, err := SportsEngineCSV(sampleRows())
	require.NoError(t, err)
	assert.Contains(t, string(out), `"Main ""Field"" Hawks"`)

	records, err := csv.NewReader(strings.NewReader(string(out))).ReadAll()
	require.NoError(t, err)
	require.Equal(t, []string{"Start_Date", "Start_Time", "End_Date", "End_Time", "Location", "Home_Team", "Away_Team", "Event_Type"}, records[0])
	assert.Equal(t, `Main "Field" Hawks`, records[1][5])
	assert.Equal(t, "13:30", records[1][1])
	// Falls back to the raw field key when no display name exists.
	assert.Equal(t, "park/field,1", records[1][4])
}

func TestGameChangerCSVFormats(t *testing.T) {
	out, err := GameChangerCSV(sampleRows())
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(string(out))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	first := records[1]
	assert.Equal(t, "1", first[0])
	assert.Equal(t, "04/04/2026", first[1])
	assert.Equal(t, "1:30 PM", first[2])
	assert.Equal(t, "3:00 PM", first[3])
	assert.Equal(t, "park", first[4])
	assert.Equal(t, "field,1", first[5])

	second := records[2]
	assert.Equal(t, "2", second[0])
	assert.Equal(t, "1:00 PM", second[2])
	// Display name wins over the split field segment.
	assert.Equal(t, "Riverside 2", second[5])
}

func TestEncodersAreDeterministic(t *testing.T) {
	a, err := GameChangerCSV(sampleRows())
	require.NoError(t, err)
	b, err := GameChangerCSV(sampleRows())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSplitFieldKey(t *testing.T) {
	loc, field := SplitFieldKey("park/north/1")
	assert.Equal(t, "park", loc)
	assert.Equal(t, "north/1", field)

	loc, field = SplitFieldKey("gym")
	assert.Equal(t, "gym", loc)
	assert.Equal(t, "", field)
}

func TestSchedulePDFRenders(t *testing.T) {
	out, err := SchedulePDF(sampleRows(), "U10 Spring Schedule")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "%PDF"))
}
