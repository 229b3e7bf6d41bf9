package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldtime/scheduler-api/internal/middleware"
	"github.com/fieldtime/scheduler-api/internal/models"
	"github.com/fieldtime/scheduler-api/internal/repository"
	"github.com/fieldtime/scheduler-api/internal/service"
	"github.com/fieldtime/scheduler-api/pkg/storage"
	"github.com/fieldtime/scheduler-api/pkg/tablestore"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testLeague = "lg-1"

type apiFixture struct {
	router  *gin.Engine
	exports *service.ExportJobService
}

// newAPIFixture wires the full stack over an in-memory store: one league,
// two U10 teams, their coaches, one admin and two fields.
func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	ctx := context.Background()
	store := tablestore.NewMemoryStore()

	users := repository.NewUserRepository(store)
	memberships := repository.NewMembershipRepository(store)
	leagues := repository.NewLeagueRepository(store)
	teams := repository.NewTeamRepository(store)
	fields := repository.NewFieldRepository(store)
	availabilities := repository.NewAvailabilityRepository(store)
	slots := repository.NewSlotRepository(store, 5)
	requests := repository.NewRequestRepository(store, 5)
	exportJobs := repository.NewExportJobRepository(store, 5)

	_, err := leagues.Put(ctx, &models.League{
		LeagueID: testLeague,
		Name:     "Test League",
		Season: models.SeasonConfig{
			SeasonStart:       "2026-04-01",
			SeasonEnd:         "2026-05-31",
			GameLengthMinutes: 60,
			Divisions:         []string{"U10"},
		},
	})
	require.NoError(t, err)

	seed := []struct {
		userID string
		role   models.Role
		teamID string
	}{
		{"u-admin", models.RoleLeagueAdmin, ""},
		{"u-coach-a", models.RoleCoach, "team-a"},
		{"u-coach-b", models.RoleCoach, "team-b"},
	}
	for _, s := range seed {
		_, err = users.Put(ctx, &models.User{UserID: s.userID, Email: s.userID + "@example.com"})
		require.NoError(t, err)
		_, err = memberships.Put(ctx, &models.Membership{
			UserID: s.userID, LeagueID: testLeague, Role: s.role, Division: "U10", TeamID: s.teamID,
		})
		require.NoError(t, err)
	}
	for _, teamID := range []string{"team-a", "team-b"} {
		_, err = teams.Put(ctx, &models.Team{
			TeamID: teamID, LeagueID: testLeague, Division: "U10", Name: strings.ToUpper(teamID),
		})
		require.NoError(t, err)
	}
	for _, fieldKey := range []string{"riverside/1", "riverside/2"} {
		_, err = fields.Put(ctx, &models.Field{
			LeagueID: testLeague, FieldKey: fieldKey, DisplayName: "Riverside " + fieldKey[len(fieldKey)-1:],
		})
		require.NoError(t, err)
	}

	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	exportSvc := service.NewExportJobService(exportJobs, slots, teams, fields, files, signer,
		service.ExportJobConfig{Workers: 1}, nil)

	router := gin.New()
	Register(router, Deps{
		Identity:     service.NewIdentityService(users, memberships, nil, 30*time.Second, nil),
		Slots:        service.NewSlotService(slots, nil),
		Requests:     service.NewRequestService(requests, slots, nil),
		Availability: service.NewAvailabilityService(leagues, availabilities, slots, nil),
		Schedule:     service.NewScheduleService(slots, teams, nil, nil),
		Exports:      exportSvc,
		Lookup:       service.NewLookupService(teams, fields, nil),
	})
	return &apiFixture{router: router, exports: exportSvc}
}

func (f *apiFixture) do(t *testing.T, method, path, userID string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set(middleware.HeaderUserID, userID)
		req.Header.Set(middleware.HeaderUserMail, userID+"@example.com")
		req.Header.Set(middleware.HeaderLeagueID, testLeague)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, dest))
}

func createSlot(t *testing.T, f *apiFixture, body map[string]interface{}) models.Slot {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/api/v1/slots", "u-admin", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var slot models.Slot
	decodeData(t, rec, &slot)
	return slot
}

func TestProbesAndMetrics(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSlotLifecycleOverHTTP(t *testing.T) {
	f := newAPIFixture(t)

	slot := createSlot(t, f, map[string]interface{}{
		"division": "U10", "fieldKey": "riverside/1", "gameDate": "2026-04-04",
		"startMin": 540, "endMin": 600,
	})
	assert.Equal(t, models.SlotOpen, slot.Status)

	// An overlapping create on the same field and date conflicts.
	rec := f.do(t, http.MethodPost, "/api/v1/slots", "u-admin", map[string]interface{}{
		"division": "U10", "fieldKey": "riverside/1", "gameDate": "2026-04-04",
		"startMin": 570, "endMin": 630,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "SLOT_CONFLICT")

	rec = f.do(t, http.MethodPatch, "/api/v1/slots/"+slot.SlotID, "u-admin", map[string]interface{}{
		"fieldKey": "riverside/2", "gameDate": "2026-04-04",
		"startMin": 540, "endMin": 600, "expectedVersion": slot.Version,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var moved models.Slot
	decodeData(t, rec, &moved)
	assert.Equal(t, "riverside/2", moved.FieldKey)

	// A stale version is rejected.
	rec = f.do(t, http.MethodPatch, "/api/v1/slots/"+slot.SlotID, "u-admin", map[string]interface{}{
		"fieldKey": "riverside/2", "gameDate": "2026-04-04",
		"startMin": 540, "endMin": 600, "expectedVersion": slot.Version,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/slots?fieldKey=riverside/2", "u-coach-a", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []models.Slot
	decodeData(t, rec, &listed)
	require.Len(t, listed, 1)
	assert.Equal(t, slot.SlotID, listed[0].SlotID)

	rec = f.do(t, http.MethodDelete, "/api/v1/slots/"+slot.SlotID, "u-admin", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var cancelled models.Slot
	decodeData(t, rec, &cancelled)
	assert.Equal(t, models.SlotCancelled, cancelled.Status)
}

func TestRequestFlowOverHTTP(t *testing.T) {
	f := newAPIFixture(t)

	slot := createSlot(t, f, map[string]interface{}{
		"division": "U10", "fieldKey": "riverside/1", "gameDate": "2026-04-04",
		"startMin": 540, "endMin": 600, "offeringTeamId": "team-a",
	})

	// A viewer cannot file a request.
	rec := f.do(t, http.MethodPost, "/api/v1/requests", "u-admin", map[string]interface{}{
		"slotId": slot.SlotID, "teamId": "team-b",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/requests", "u-coach-b", map[string]interface{}{
		"slotId": slot.SlotID, "teamId": "team-b",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var request models.Request
	decodeData(t, rec, &request)
	assert.Equal(t, models.RequestPending, request.Status)

	// Approving a game request through the practice route misses.
	rec = f.do(t, http.MethodPatch, "/api/v1/practice-requests/"+request.RequestID+"/approve", "u-admin", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Coaches cannot approve.
	rec = f.do(t, http.MethodPatch, "/api/v1/requests/"+request.RequestID+"/approve", "u-coach-b", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodPatch, "/api/v1/requests/"+request.RequestID+"/approve", "u-admin", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var approved models.Request
	decodeData(t, rec, &approved)
	assert.Equal(t, models.RequestApproved, approved.Status)

	rec = f.do(t, http.MethodGet, "/api/v1/slots/"+slot.SlotID, "u-coach-b", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var confirmed models.Slot
	decodeData(t, rec, &confirmed)
	assert.Equal(t, models.SlotConfirmed, confirmed.Status)
	assert.Equal(t, "team-a", confirmed.HomeTeamID)
	assert.Equal(t, "team-b", confirmed.AwayTeamID)
}

func TestWithdrawOverHTTP(t *testing.T) {
	f := newAPIFixture(t)

	slot := createSlot(t, f, map[string]interface{}{
		"division": "U10", "fieldKey": "riverside/1", "gameDate": "2026-04-04",
		"startMin": 540, "endMin": 600, "offeringTeamId": "team-a",
	})
	rec := f.do(t, http.MethodPost, "/api/v1/requests", "u-coach-b", map[string]interface{}{
		"slotId": slot.SlotID, "teamId": "team-b",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var request models.Request
	decodeData(t, rec, &request)

	rec = f.do(t, http.MethodPost, "/api/v1/requests/"+request.RequestID+"/withdraw", "u-coach-a", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/requests/"+request.RequestID+"/withdraw", "u-coach-b", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/api/v1/slots/"+slot.SlotID, "u-coach-b", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var reopened models.Slot
	decodeData(t, rec, &reopened)
	assert.Equal(t, models.SlotOpen, reopened.Status)
}

func TestAvailabilityRulesOverHTTP(t *testing.T) {
	f := newAPIFixture(t)

	// The whole availability surface is admin-only.
	rec := f.do(t, http.MethodGet, "/api/v1/availability/rules", "u-coach-a", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/availability/rules", "u-admin", map[string]interface{}{
		"division": "U10", "fieldKey": "riverside/1",
		"startsOn": "2026-04-01", "endsOn": "2026-04-30",
		"daysOfWeek": []int{2}, "startMin": 1080, "endMin": 1200,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var rule models.AvailabilityRule
	decodeData(t, rec, &rule)

	rec = f.do(t, http.MethodPost, "/api/v1/availability/expand", "u-admin", map[string]interface{}{
		"from": "2026-04-01", "to": "2026-04-30", "dryRun": true,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var expansion struct {
		Total  int  `json:"total"`
		DryRun bool `json:"dryRun"`
	}
	decodeData(t, rec, &expansion)
	// Four April Tuesdays, two game-length slots each.
	assert.Equal(t, 8, expansion.Total)
	assert.True(t, expansion.DryRun)

	rec = f.do(t, http.MethodDelete, "/api/v1/availability/rules/"+rule.RuleID, "u-admin", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestSchedulePreviewRBACOverHTTP(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/schedule/preview", "u-coach-a", map[string]interface{}{
		"division": "U10", "from": "2026-04-01", "to": "2026-05-31",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestScheduleExportCSVOverHTTP(t *testing.T) {
	f := newAPIFixture(t)

	slot := createSlot(t, f, map[string]interface{}{
		"division": "U10", "fieldKey": "riverside/1", "gameDate": "2026-04-04",
		"startMin": 540, "endMin": 600, "offeringTeamId": "team-a",
	})
	rec := f.do(t, http.MethodPost, "/api/v1/requests", "u-coach-b", map[string]interface{}{
		"slotId": slot.SlotID, "teamId": "team-b",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var request models.Request
	decodeData(t, rec, &request)
	rec = f.do(t, http.MethodPatch, "/api/v1/requests/"+request.RequestID+"/approve", "u-admin", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/schedule/export?dialect=internal", "u-admin", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	assert.True(t, strings.HasPrefix(rec.Body.String(), `"slotId","gameDate"`), rec.Body.String())
	assert.Contains(t, rec.Body.String(), slot.SlotID)

	rec = f.do(t, http.MethodGet, "/api/v1/schedule/export?dialect=bogus", "u-admin", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportJobFlowOverHTTP(t *testing.T) {
	f := newAPIFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.exports.Start(ctx)
	defer f.exports.Stop()

	slot := createSlot(t, f, map[string]interface{}{
		"division": "U10", "fieldKey": "riverside/1", "gameDate": "2026-04-04",
		"startMin": 540, "endMin": 600, "offeringTeamId": "team-a",
	})
	rec := f.do(t, http.MethodPost, "/api/v1/requests", "u-coach-b", map[string]interface{}{
		"slotId": slot.SlotID, "teamId": "team-b",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var request models.Request
	decodeData(t, rec, &request)
	rec = f.do(t, http.MethodPatch, "/api/v1/requests/"+request.RequestID+"/approve", "u-admin", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/exports", "u-admin", map[string]interface{}{
		"format": "csv", "dialect": "sportsengine",
	})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	var job struct {
		JobID string `json:"jobId"`
	}
	decodeData(t, rec, &job)
	require.NotEmpty(t, job.JobID)

	var status struct {
		Status    models.ExportStatus `json:"status"`
		ResultURL string              `json:"resultUrl"`
	}
	deadline := time.Now().Add(5 * time.Second)
	for {
		rec = f.do(t, http.MethodGet, "/api/v1/exports/"+job.JobID, "u-admin", nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		decodeData(t, rec, &status)
		if status.Status == models.ExportStatusFinished || status.Status == models.ExportStatusFailed {
			break
		}
		require.True(t, time.Now().Before(deadline), "export job did not finish: %s", rec.Body.String())
		time.Sleep(20 * time.Millisecond)
	}
	require.Equal(t, models.ExportStatusFinished, status.Status)
	require.NotEmpty(t, status.ResultURL)

	resultURL, err := url.Parse(status.ResultURL)
	require.NoError(t, err)
	token := resultURL.Query().Get("token")
	require.NotEmpty(t, token)

	rec = f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/exports/%s/download?token=%s", job.JobID, url.QueryEscape(token)), "u-coach-a", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Start_Date")

	rec = f.do(t, http.MethodGet, "/api/v1/exports/"+job.JobID+"/download?token=tampered", "u-coach-a", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestLookupsOverHTTP(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/teams?division=U10", "u-coach-a", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var teams []models.Team
	decodeData(t, rec, &teams)
	assert.Len(t, teams, 2)

	rec = f.do(t, http.MethodGet, "/api/v1/fields", "u-coach-a", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var fields []models.Field
	decodeData(t, rec, &fields)
	assert.Len(t, fields, 2)
}
