package executor

import (
	"bytes"
	"context"
	goerrors "errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/go-sif/sindex"
	"github.com/go-sif/sindex/errors"
	"github.com/go-sif/sindex/internal/stats"
	"github.com/go-sif/sindex/logging"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestRunTasksRetries(t *testing.T) {
	st := stats.New()
	var lock sync.Mutex
	attempts := make(map[int][]string)
	err := RunTasks(context.Background(), Options{
		TaskType:    sindex.MapTaskType,
		NumTasks:    5,
		Concurrency: 2,
		Logger:      logging.Discard(),
		Stats:       st,
	}, func(ctx context.Context, task int, attempt string) error {
		lock.Lock()
		defer lock.Unlock()
		attempts[task] = append(attempts[task], attempt)
		if task == 3 && len(attempts[task]) < 3 {
			return fmt.Errorf("flaky")
		}
		return nil
	})
	require.Nil(t, err)
	require.Len(t, attempts, 5)
	require.Len(t, attempts[3], 3)
	require.NotEqual(t, attempts[3][0], attempts[3][1])
	require.EqualValues(t, 7, st.GetNumTaskAttempts(sindex.MapTaskType))
	require.EqualValues(t, 2, st.GetNumTaskFailures(sindex.MapTaskType))
}

func TestRunTasksExhaustsAttempts(t *testing.T) {
	var calls int32
	var logs bytes.Buffer
	logger, err := logging.New(&logs, logging.InfoLevel, "text")
	require.Nil(t, err)
	err = RunTasks(context.Background(), Options{
		TaskType:    sindex.ReduceTaskType,
		NumTasks:    1,
		MaxAttempts: 3,
		Logger:      logger,
	}, func(ctx context.Context, task int, attempt string) error {
		atomic.AddInt32(&calls, 1)
		return fmt.Errorf("always broken")
	})
	require.NotNil(t, err)
	require.EqualValues(t, 3, calls)
	var failed errors.TaskFailedError
	require.True(t, goerrors.As(err, &failed))
	require.Equal(t, "reduce", failed.TaskType)
	require.Equal(t, 3, failed.Attempts)
	require.Contains(t, err.Error(), "always broken")
	require.Contains(t, logs.String(), "reduce task 0 exhausted 3 attempts")
	require.Contains(t, logs.String(), "3. attempt ")
}

func TestRunTasksRecoversPanics(t *testing.T) {
	var calls int32
	err := RunTasks(context.Background(), Options{
		TaskType: sindex.MapTaskType,
		NumTasks: 1,
		Logger:   logging.Discard(),
	}, func(ctx context.Context, task int, attempt string) error {
		if atomic.AddInt32(&calls, 1) == 1 {
			panic("boom")
		}
		return nil
	})
	require.Nil(t, err)
	require.EqualValues(t, 2, calls)
}

func TestRunTasksCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	done := make(chan error)
	go func() {
		done <- RunTasks(ctx, Options{
			TaskType:    sindex.MapTaskType,
			NumTasks:    10,
			Concurrency: 1,
			Logger:      logging.Discard(),
		}, func(ctx context.Context, task int, attempt string) error {
			if task == 0 {
				close(started)
			}
			<-ctx.Done()
			return ctx.Err()
		})
	}()
	<-started
	cancel()
	require.Equal(t, context.Canceled, <-done)
}
