package service

import (
	"context"
	"errors"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldtime/scheduler-api/internal/dto"
	"github.com/fieldtime/scheduler-api/internal/models"
	"github.com/fieldtime/scheduler-api/internal/repository"
	appErrors "github.com/fieldtime/scheduler-api/pkg/errors"
	"github.com/fieldtime/scheduler-api/pkg/storage"
	"github.com/fieldtime/scheduler-api/pkg/tablestore"
)

type exportFixture struct {
	svc    *ExportJobService
	slots  *repository.SlotRepository
	signer *storage.SignedURLSigner
}

func newExportFixture(t *testing.T) *exportFixture {
	t.Helper()
	store := tablestore.NewMemoryStore()
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	slots := repository.NewSlotRepository(store, 5)
	svc := NewExportJobService(
		repository.NewExportJobRepository(store, 5),
		slots,
		repository.NewTeamRepository(store),
		repository.NewFieldRepository(store),
		files, signer,
		ExportJobConfig{Workers: 1},
		nil,
	)
	return &exportFixture{svc: svc, slots: slots, signer: signer}
}

func (f *exportFixture) waitFinished(t *testing.T, jobID string) *dto.ExportJobStatusResponse {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		status, err := f.svc.GetStatus(context.Background(), admin(), jobID)
		require.NoError(t, err)
		if status.Status == models.ExportStatusFinished || status.Status == models.ExportStatusFailed {
			return status
		}
		require.True(t, time.Now().Before(deadline), "job did not finish")
		time.Sleep(10 * time.Millisecond)
	}
}

func TestCreateJobValidatesFormatAndDialect(t *testing.T) {
	f := newExportFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateJob(ctx, coach("team-a"), dto.CreateExportJobRequest{Format: models.ExportFormatCSV})
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	_, err = f.svc.CreateJob(ctx, admin(), dto.CreateExportJobRequest{Format: "xlsx"})
	assert.True(t, errors.Is(err, appErrors.ErrBadRequest))

	_, err = f.svc.CreateJob(ctx, admin(), dto.CreateExportJobRequest{
		Format: models.ExportFormatCSV, Dialect: "bogus",
	})
	assert.True(t, errors.Is(err, appErrors.ErrBadRequest))
}

func TestQueuedJobsRecoverOnStart(t *testing.T) {
	f := newExportFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The queue is not running yet, so the job stays QUEUED.
	created, err := f.svc.CreateJob(ctx, admin(), dto.CreateExportJobRequest{Format: models.ExportFormatCSV})
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusQueued, created.Status)

	f.svc.Start(ctx)
	defer f.svc.Stop()

	status := f.waitFinished(t, created.JobID)
	require.Equal(t, models.ExportStatusFinished, status.Status)
	assert.Equal(t, 100, status.Progress)
	assert.Contains(t, status.ResultURL, "/api/v1/exports/"+created.JobID+"/download?token=")
}

func TestResolveDownloadChecksTokenAndState(t *testing.T) {
	f := newExportFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.svc.Start(ctx)
	defer f.svc.Stop()

	created, err := f.svc.CreateJob(ctx, admin(), dto.CreateExportJobRequest{Format: models.ExportFormatCSV})
	require.NoError(t, err)
	status := f.waitFinished(t, created.JobID)
	require.Equal(t, models.ExportStatusFinished, status.Status)

	resultURL, err := url.Parse(status.ResultURL)
	require.NoError(t, err)
	token := resultURL.Query().Get("token")
	require.NotEmpty(t, token)

	path, job, err := f.svc.ResolveDownload(ctx, testLeague, created.JobID, token)
	require.NoError(t, err)
	assert.Equal(t, created.JobID, job.JobID)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), `"slotId"`))

	_, _, err = f.svc.ResolveDownload(ctx, testLeague, "other-job", token)
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	_, _, err = f.svc.ResolveDownload(ctx, testLeague, created.JobID, "garbage")
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))
}

func TestRenderScheduleCSVValidatesDialect(t *testing.T) {
	f := newExportFixture(t)
	ctx := context.Background()

	_, err := f.svc.RenderScheduleCSV(ctx, coach("team-a"), models.DialectInternal, "")
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	_, err = f.svc.RenderScheduleCSV(ctx, admin(), "bogus", "")
	assert.True(t, errors.Is(err, appErrors.ErrBadRequest))

	data, err := f.svc.RenderScheduleCSV(ctx, admin(), "", "")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), `"slotId"`))
}
