package optimizer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vellari/cleanops-api/internal/dto"
	"github.com/vellari/cleanops-api/internal/models"
	appErrors "github.com/vellari/cleanops-api/pkg/errors"
)

func shBridge(t *testing.T, script string, timeout time.Duration) *Bridge {
	t.Helper()
	return New("sh", []string{"-c", script}, timeout, nil)
}

func samplePayload() dto.OptimizerRequest {
	return dto.OptimizerRequest{
		DayStart: "07:00",
		AssignedByCleaner: map[string][]models.Task{
			"1": {{TaskID: 11, Sequence: 1}},
		},
		LeftoversByCleaner: map[string][]models.Task{
			dto.LeftoverPoolKey: {{TaskID: 99, Priority: models.PriorityEarlyOut}},
		},
	}
}

func TestInvokeParsesWorkerOutput(t *testing.T) {
	script := `cat > /dev/null; printf '{"timeline_by_cleaner":{"1":[{"task_id":11,"sequence":1},{"task_id":99,"sequence":2}]}}'`
	bridge := shBridge(t, script, time.Minute)

	result, err := bridge.Invoke(context.Background(), samplePayload())
	require.NoError(t, err)
	require.Contains(t, result.TimelineByCleaner, "1")
	assert.Len(t, result.TimelineByCleaner["1"], 2)
	assert.EqualValues(t, 99, result.TimelineByCleaner["1"][1].TaskID)
}

func TestInvokeNonZeroExitCarriesStderr(t *testing.T) {
	bridge := shBridge(t, `cat > /dev/null; echo "boom" >&2; exit 1`, time.Minute)

	_, err := bridge.Invoke(context.Background(), samplePayload())
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrOptimizerExit.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "boom")
}

func TestInvokeUnparseableOutputCarriesRawText(t *testing.T) {
	bridge := shBridge(t, `cat > /dev/null; echo "not json"`, time.Minute)

	_, err := bridge.Invoke(context.Background(), samplePayload())
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrOptimizerOutput.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "not json")
}

func TestInvokeMissingBinaryIsSpawnError(t *testing.T) {
	bridge := New("/nonexistent/optimizer-worker", nil, time.Minute, nil)

	_, err := bridge.Invoke(context.Background(), samplePayload())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrOptimizerSpawn.Code, appErrors.FromError(err).Code)
}

func TestInvokeDeadlineKillsWorker(t *testing.T) {
	bridge := shBridge(t, `sleep 10`, 100*time.Millisecond)

	start := time.Now()
	_, err := bridge.Invoke(context.Background(), samplePayload())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrOptimizerTimeout.Code, appErrors.FromError(err).Code)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestWaitFailureDistinguishesExitFromIOFailure(t *testing.T) {
	err := waitFailure(errors.New("read |0: file already closed"), "")
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrOptimizerSpawn.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "optimizer worker failed")
	assert.NotContains(t, appErr.Message, "could not be started")
}

func TestInvokeExitWithoutStderrReportsExitCode(t *testing.T) {
	bridge := shBridge(t, `cat > /dev/null; exit 3`, time.Minute)

	_, err := bridge.Invoke(context.Background(), samplePayload())
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrOptimizerExit.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "exit code 3")
}
