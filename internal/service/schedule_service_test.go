package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fieldtime/scheduler-api/internal/dto"
	"github.com/fieldtime/scheduler-api/internal/models"
	"github.com/fieldtime/scheduler-api/internal/repository"
	appErrors "github.com/fieldtime/scheduler-api/pkg/errors"
	"github.com/fieldtime/scheduler-api/pkg/tablestore"
)

type scheduleFixture struct {
	slots *repository.SlotRepository
	teams *repository.TeamRepository
	svc   *ScheduleService
}

func newScheduleFixture(t *testing.T) *scheduleFixture {
	t.Helper()
	store := tablestore.NewMemoryStore()
	slots := repository.NewSlotRepository(store, 5)
	teams := repository.NewTeamRepository(store)
	return &scheduleFixture{
		slots: slots,
		teams: teams,
		svc:   NewScheduleService(slots, teams, nil, zap.NewNop()),
	}
}

func (f *scheduleFixture) seedTeams(t *testing.T, ids ...string) {
	t.Helper()
	for _, id := range ids {
		_, err := f.teams.Put(context.Background(), &models.Team{
			TeamID: id, LeagueID: testLeague, Division: "U10", Name: "Team " + id,
		})
		require.NoError(t, err)
	}
}

// seedSlots creates count open one-hour slots spread over consecutive
// Saturdays, two per date on separate fields.
func (f *scheduleFixture) seedSlots(t *testing.T, count int) {
	t.Helper()
	for i := 0; i < count; i++ {
		date := fmt.Sprintf("2026-04-%02d", 4+(i/2)*7)
		_, err := f.slots.Create(context.Background(), &models.Slot{
			SlotID:   fmt.Sprintf("slot-%02d", i),
			LeagueID: testLeague,
			Division: "U10",
			FieldKey: fmt.Sprintf("park/%d", i%2+1),
			GameDate: date,
			StartMin: 9 * 60,
			EndMin:   10 * 60,
			Status:   models.SlotOpen,
			GameType: models.GameTypeGame,
		})
		require.NoError(t, err)
	}
}

func generateRequest() dto.GenerateScheduleRequest {
	return dto.GenerateScheduleRequest{
		Division:        "U10",
		From:            "2026-04-01",
		To:              "2026-05-31",
		MaxGamesPerWeek: 2,
		BalanceHomeAway: true,
	}
}

func TestPreviewRequiresAdmin(t *testing.T) {
	f := newScheduleFixture(t)

	_, err := f.svc.Preview(context.Background(), coach("team-a"), generateRequest())
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))
}

func TestPreviewNeedsTwoTeams(t *testing.T) {
	f := newScheduleFixture(t)
	f.seedTeams(t, "a")

	_, err := f.svc.Preview(context.Background(), admin(), generateRequest())
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrBadRequest))
}

func TestPreviewAssignsFullRoundRobinWithoutWrites(t *testing.T) {
	f := newScheduleFixture(t)
	f.seedTeams(t, "a", "b", "c", "d")
	f.seedSlots(t, 8)
	ctx := context.Background()

	report, err := f.svc.Preview(ctx, admin(), generateRequest())
	require.NoError(t, err)
	assert.False(t, report.Applied)
	// C(4,2) = 6 matchups, all placeable in 8 slots.
	assert.Equal(t, 6, report.Result.Summary.Assigned)
	assert.Empty(t, report.Result.UnassignedMatchups)

	for _, issue := range report.Issues {
		assert.NotEqual(t, "double-header", issue.RuleID)
	}

	slots, err := f.slots.List(ctx, testLeague, models.SlotFilter{Status: models.SlotConfirmed})
	require.NoError(t, err)
	assert.Empty(t, slots, "preview must not persist")
}

func TestPreviewIsDeterministic(t *testing.T) {
	f := newScheduleFixture(t)
	f.seedTeams(t, "a", "b", "c", "d")
	f.seedSlots(t, 8)
	ctx := context.Background()

	first, err := f.svc.Preview(ctx, admin(), generateRequest())
	require.NoError(t, err)
	second, err := f.svc.Preview(ctx, admin(), generateRequest())
	require.NoError(t, err)
	assert.Equal(t, first.Result.Assignments, second.Result.Assignments)
}

func TestApplyConfirmsAssignedSlots(t *testing.T) {
	f := newScheduleFixture(t)
	f.seedTeams(t, "a", "b", "c", "d")
	f.seedSlots(t, 8)
	ctx := context.Background()

	report, err := f.svc.Apply(ctx, admin(), generateRequest())
	require.NoError(t, err)
	assert.True(t, report.Applied)

	confirmed, err := f.slots.List(ctx, testLeague, models.SlotFilter{Status: models.SlotConfirmed})
	require.NoError(t, err)
	assert.Len(t, confirmed, report.Result.Summary.Assigned)
	for _, slot := range confirmed {
		assert.NotEmpty(t, slot.HomeTeamID)
		assert.NotEmpty(t, slot.AwayTeamID)
		assert.NotEqual(t, slot.HomeTeamID, slot.AwayTeamID)
	}
}

func TestApplyMarksExternalOffers(t *testing.T) {
	f := newScheduleFixture(t)
	f.seedTeams(t, "a", "b")
	f.seedSlots(t, 6)
	ctx := context.Background()

	req := generateRequest()
	req.ExternalOfferPerWeek = 1

	report, err := f.svc.Apply(ctx, admin(), req)
	require.NoError(t, err)
	// One matchup between two teams; leftovers become weekly external offers.
	assert.Equal(t, 1, report.Result.Summary.Assigned)
	assert.GreaterOrEqual(t, report.Result.Summary.ExternalOffers, 1)

	slots, err := f.slots.List(ctx, testLeague, models.SlotFilter{Status: models.SlotOpen})
	require.NoError(t, err)
	external := 0
	for _, slot := range slots {
		if slot.GameType == models.GameTypeExternal {
			external++
			assert.NotEmpty(t, slot.ExternalLabel)
		}
	}
	assert.Equal(t, report.Result.Summary.ExternalOffers, external)
}

func TestApplySkipsSlotsTakenSinceGeneration(t *testing.T) {
	f := newScheduleFixture(t)
	f.seedTeams(t, "a", "b")
	f.seedSlots(t, 2)
	ctx := context.Background()

	// Apply twice: the second run regenerates over the remaining open slot
	// but the matchup is placed fresh each run, so the second apply confirms
	// the leftover slot with the same pairing.
	first, err := f.svc.Apply(ctx, admin(), generateRequest())
	require.NoError(t, err)
	require.Equal(t, 1, first.Result.Summary.Assigned)

	second, err := f.svc.Apply(ctx, admin(), generateRequest())
	require.NoError(t, err)
	assert.Equal(t, 1, second.Result.Summary.Assigned)

	confirmed, err := f.slots.List(ctx, testLeague, models.SlotFilter{Status: models.SlotConfirmed})
	require.NoError(t, err)
	assert.Len(t, confirmed, 2)
}
