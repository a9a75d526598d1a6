package metrics

import "github.com/prometheus/client_golang/prometheus"

// PipelineMetrics exposes counters/histograms for the contract analysis pipeline.
type PipelineMetrics struct {
	analysesTotal   *prometheus.CounterVec
	clausesScored   *prometheus.CounterVec
	llmCallsTotal   *prometheus.CounterVec
	analysisLatency *prometheus.HistogramVec
	responsesTotal  *prometheus.CounterVec
}

func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	m := &PipelineMetrics{
		analysesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "contractguard",
			Subsystem: "pipeline",
			Name:      "analyses_total",
			Help:      "Total contract analyses by outcome",
		}, []string{"status", "risk_level"}),
		clausesScored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "contractguard",
			Subsystem: "pipeline",
			Name:      "clauses_scored_total",
			Help:      "Total clauses scored by type",
		}, []string{"clause_type", "risk_band"}),
		llmCallsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "contractguard",
			Subsystem: "llm",
			Name:      "calls_total",
			Help:      "Total model invocations by provider and outcome",
		}, []string{"provider", "status"}),
		analysisLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "contractguard",
			Subsystem: "pipeline",
			Name:      "analysis_latency_seconds",
			Help:      "Latency of full contract analysis",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300},
		}, []string{"status"}),
		responsesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "contractguard",
			Subsystem: "negotiation",
			Name:      "responses_processed_total",
			Help:      "Total counterparty responses processed by next action",
		}, []string{"next_action"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.analysesTotal, m.clausesScored, m.llmCallsTotal, m.analysisLatency, m.responsesTotal)
	return m
}

func (m *PipelineMetrics) ObserveAnalysis(status, riskLevel string, seconds float64) {
	if m == nil {
		return
	}
	m.analysesTotal.WithLabelValues(status, riskLevel).Inc()
	m.analysisLatency.WithLabelValues(status).Observe(seconds)
}

func (m *PipelineMetrics) ObserveClauseScored(clauseType, riskBand string) {
	if m == nil {
		return
	}
	m.clausesScored.WithLabelValues(clauseType, riskBand).Inc()
}

func (m *PipelineMetrics) ObserveLLMCall(provider, status string) {
	if m == nil {
		return
	}
	m.llmCallsTotal.WithLabelValues(provider, status).Inc()
}

func (m *PipelineMetrics) ObserveResponseProcessed(nextAction string) {
	if m == nil {
		return
	}
	m.responsesTotal.WithLabelValues(nextAction).Inc()
}
