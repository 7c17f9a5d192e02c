package metrics

import (
	"net/http"

	"fibra-quiz-service/internal/app"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder implements app.Metrics on top of Prometheus collectors.
type Recorder struct {
	registry         *prometheus.Registry
	attemptsStarted  *prometheus.CounterVec
	attemptsFinished *prometheus.CounterVec
	resultSaves      *prometheus.CounterVec
	anomalies        prometheus.Counter
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		attemptsStarted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quiz_attempts_started_total",
				Help: "Attempts opened, by feedback mode",
			},
			[]string{"mode"},
		),
		attemptsFinished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quiz_attempts_finished_total",
				Help: "Attempts that reached the last question, by feedback mode",
			},
			[]string{"mode"},
		),
		resultSaves: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quiz_result_saves_total",
				Help: "Result persistence attempts, by outcome",
			},
			[]string{"outcome"},
		),
		anomalies: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quiz_question_anomalies_total",
			Help: "Confirms ignored because a question had no single correct option",
		}),
	}
	r.registry.MustRegister(r.attemptsStarted, r.attemptsFinished, r.resultSaves, r.anomalies)
	return r
}

func (r *Recorder) AttemptStarted(mode app.FeedbackMode) {
	r.attemptsStarted.WithLabelValues(string(mode)).Inc()
}

func (r *Recorder) AttemptFinished(mode app.FeedbackMode) {
	r.attemptsFinished.WithLabelValues(string(mode)).Inc()
}

func (r *Recorder) ResultSaved(outcome string) {
	r.resultSaves.WithLabelValues(outcome).Inc()
}

func (r *Recorder) DataAnomaly() {
	r.anomalies.Inc()
}

// Handler exposes the recorder's registry.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
