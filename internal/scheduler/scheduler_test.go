package scheduler

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"metaconscious/internal/config"
	"metaconscious/internal/llm"
	"metaconscious/internal/planner"
	"metaconscious/internal/store"
)

type stubClient struct{}

func (stubClient) Complete(context.Context, string, string, llm.Options) (string, error) {
	return "", context.Canceled
}

func newTestScheduler(t *testing.T) (*Scheduler, *store.Store) {
	return newTestSchedulerWithClient(t, stubClient{})
}

func newTestSchedulerWithClient(t *testing.T, client llm.Client) (*Scheduler, *store.Store) {
	t.Helper()
	st, err := store.Open(config.DatabaseConfig{
		Path:            filepath.Join(t.TempDir(), "test.db"),
		MaxConnections:  5,
		BusyTimeout:     config.Duration(time.Second),
		ConnMaxIdleTime: config.Duration(time.Minute),
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	engine := planner.NewEngine(st, client, config.PlanningConfig{
		MaxWeeklyOverrides: 5, PlanningHour: 2,
	}, zap.NewNop())
	return New(engine, st, 2, zap.NewNop()), st
}

func TestStartStopNoLeaks(t *testing.T) {
	s, _ := newTestScheduler(t)
	// Snapshot after store setup so only cron goroutines are checked.
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	require.NoError(t, s.Start())
	s.Stop()
}

func TestStartIsIdempotent(t *testing.T) {
	s, _ := newTestScheduler(t)
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	require.NoError(t, s.Start())
	require.NoError(t, s.Start())
	s.Stop()
	s.Stop() // safe on a stopped scheduler
}

func TestRunNightlySkipsWithoutUser(t *testing.T) {
	s, _ := newTestScheduler(t)
	// No user provisioned: the job returns without planning or panicking.
	s.runNightly()
}

func TestRunNightlySwallowsFailures(t *testing.T) {
	s, st := newTestScheduler(t)
	_, err := st.CreateUser(context.Background(), "user", "hash")
	require.NoError(t, err)

	// The stub client always fails; the job must not propagate the error.
	s.runNightly()

	user, err := st.GetUser(context.Background())
	require.NoError(t, err)
	tomorrow := time.Now().AddDate(0, 0, 1).Format("2006-01-02")
	_, err = st.GetPlanByDate(context.Background(), user.ID, tomorrow)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestRunNightlySkipsWithoutClient(t *testing.T) {
	// serve runs with a nil client when no credential is configured; the
	// nightly tick must refuse cleanly, not crash the process.
	s, st := newTestSchedulerWithClient(t, nil)
	_, err := st.CreateUser(context.Background(), "user", "hash")
	require.NoError(t, err)

	s.runNightly()

	user, err := st.GetUser(context.Background())
	require.NoError(t, err)
	tomorrow := time.Now().AddDate(0, 0, 1).Format("2006-01-02")
	_, err = st.GetPlanByDate(context.Background(), user.ID, tomorrow)
	require.ErrorIs(t, err, store.ErrNotFound)
}
