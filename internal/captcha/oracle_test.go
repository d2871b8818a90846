package captcha

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testOracle(t *testing.T, handler http.HandlerFunc) *Oracle {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	o := NewOracle("test-key", 10*time.Millisecond, 500*time.Millisecond, zap.NewNop())
	o.baseURL = srv.URL
	return o
}

func TestSubmitReturnsTaskID(t *testing.T) {
	o := testOracle(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/createTask", r.URL.Path)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-key", req["clientKey"])

		task := req["task"].(map[string]any)
		assert.Equal(t, "CoordinatesTask", task["type"])
		assert.Equal(t, "fake-image", task["body"])

		json.NewEncoder(w).Encode(map[string]any{"errorId": 0, "taskId": 12345})
	})

	taskID, err := o.Submit(context.Background(), "fake-image")
	require.NoError(t, err)
	assert.Equal(t, int64(12345), taskID)
}

func TestSubmitRejection(t *testing.T) {
	o := testOracle(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"errorId":          1,
			"errorDescription": "ERROR_KEY_DOES_NOT_EXIST",
		})
	})

	_, err := o.Submit(context.Background(), "fake-image")
	assert.ErrorIs(t, err, ErrSubmitFailed)
	assert.Contains(t, err.Error(), "ERROR_KEY_DOES_NOT_EXIST")
}

func TestPollReturnsCoordinatesWhenReady(t *testing.T) {
	polls := 0
	o := testOracle(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/getTaskResult", r.URL.Path)
		polls++
		if polls < 3 {
			json.NewEncoder(w).Encode(map[string]any{"errorId": 0, "status": "processing"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"errorId": 0,
			"status":  "ready",
			"solution": map[string]any{
				"coordinates": []map[string]float64{{"x": 142, "y": 68}},
			},
		})
	})

	coords, err := o.Poll(context.Background(), 12345, nil)
	require.NoError(t, err)
	require.Len(t, coords, 1)
	assert.Equal(t, 142.0, coords[0].X)
	assert.Equal(t, 68.0, coords[0].Y)
	assert.Equal(t, 3, polls)
}

func TestPollSurfacesServiceError(t *testing.T) {
	o := testOracle(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"errorId":          12,
			"errorDescription": "ERROR_TASK_NOT_FOUND",
		})
	})

	_, err := o.Poll(context.Background(), 12345, nil)
	assert.ErrorIs(t, err, ErrSolverError)
}

func TestPollTimesOut(t *testing.T) {
	o := testOracle(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"errorId": 0, "status": "processing"})
	})
	o.pollTimeout = 50 * time.Millisecond

	_, err := o.Poll(context.Background(), 12345, nil)
	assert.ErrorIs(t, err, ErrSolverTimeout)
}

func TestPollStopsWhenKeepaliveReportsWidgetGone(t *testing.T) {
	polls := 0
	o := testOracle(t, func(w http.ResponseWriter, r *http.Request) {
		polls++
		json.NewEncoder(w).Encode(map[string]any{"errorId": 0, "status": "processing"})
	})
	o.pollTimeout = 10 * time.Second

	start := time.Now()
	_, err := o.Poll(context.Background(), 12345, func(context.Context) bool { return false })
	assert.ErrorIs(t, err, ErrWidgetExpired)
	assert.Less(t, time.Since(start), time.Second, "should bail out well before the timeout")
	assert.Zero(t, polls, "no poll should happen once the widget is gone")
}

func TestPollHonorsContextCancellation(t *testing.T) {
	o := testOracle(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"errorId": 0, "status": "processing"})
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := o.Poll(ctx, 12345, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReportPicksEndpointAndSwallowsFailure(t *testing.T) {
	var path string
	o := testOracle(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.WriteHeader(http.StatusInternalServerError)
	})

	// must not panic or surface anything
	o.Report(context.Background(), 12345, true)
	assert.Equal(t, "/reportCorrect", path)

	o.Report(context.Background(), 12345, false)
	assert.Equal(t, "/reportIncorrect", path)
}
