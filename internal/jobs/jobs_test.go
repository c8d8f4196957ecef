package jobs_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"quicktable/config"
	nMocks "quicktable/internal/domains/notification/mocks"
	tMocks "quicktable/internal/domains/table/mocks"
	"quicktable/internal/jobs"
)

func newRunner(t *testing.T) (*jobs.Runner, *tMocks.MockTableService, *nMocks.MockNotificationService) {
	t.Helper()

	ctrl := gomock.NewController(t)

	mockTables := tMocks.NewMockTableService(ctrl)
	mockNotifications := nMocks.NewMockNotificationService(ctrl)

	cfg := &config.Config{}
	cfg.Jobs.ReconcileIntervalMin = 10
	cfg.Jobs.ReminderIntervalMin = 15
	cfg.Jobs.SweepTimeoutSec = 60

	return jobs.New(mockTables, mockNotifications, cfg), mockTables, mockNotifications
}

func TestRunner_RunReconcileOnce(t *testing.T) {
	runner, mockTables, _ := newRunner(t)

	mockTables.EXPECT().ReconcileStatuses(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ time.Time) (int, error) {
			deadline, ok := ctx.Deadline()
			assert.True(t, ok)
			assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)

			return 2, nil
		})

	reset, err := runner.RunReconcileOnce(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 2, reset)
}

// Repeated runs hand the same idempotent sweep to the service; a second
// invocation after a clean pass simply reports zero work.
func TestRunner_RunReminderOnce_Idempotent(t *testing.T) {
	runner, _, mockNotifications := newRunner(t)

	gomock.InOrder(
		mockNotifications.EXPECT().ProcessDue(gomock.Any(), gomock.Any()).Return(3, nil),
		mockNotifications.EXPECT().ProcessDue(gomock.Any(), gomock.Any()).Return(0, nil),
	)

	sent, err := runner.RunReminderOnce(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 3, sent)

	sent, err = runner.RunReminderOnce(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 0, sent)
}
