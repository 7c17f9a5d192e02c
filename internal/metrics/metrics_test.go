package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"fibra-quiz-service/internal/app"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorderCounts(t *testing.T) {
	r := NewRecorder()
	r.AttemptStarted(app.ModeExam)
	r.AttemptStarted(app.ModeExam)
	r.AttemptFinished(app.ModePractice)
	r.ResultSaved("failed")
	r.DataAnomaly()

	if got := testutil.ToFloat64(r.attemptsStarted.WithLabelValues("exam")); got != 2 {
		t.Fatalf("expected 2 exam starts, got %v", got)
	}
	if got := testutil.ToFloat64(r.anomalies); got != 1 {
		t.Fatalf("expected 1 anomaly, got %v", got)
	}

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `quiz_result_saves_total{outcome="failed"} 1`) {
		t.Fatalf("metrics output missing save counter:\n%s", body)
	}
}
