package reminder

import "github.com/prometheus/client_golang/prometheus"

// Metrics is safe to use through a nil pointer; every method is a no-op then.
type Metrics struct {
	scans           *prometheus.CounterVec
	scanFailures    *prometheus.CounterVec
	reminders       prometheus.Counter
	alarms          prometheus.Counter
	audioFailures   prometheus.Counter
	escalationFails prometheus.Counter
	dismissals      prometheus.Counter
	activeAlarms    prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		scans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "remindd",
			Name:      "scans_total",
			Help:      "Scan passes executed, by pass.",
		}, []string{"pass"}),
		scanFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "remindd",
			Name:      "scan_failures_total",
			Help:      "Scan passes aborted because the task store failed, by pass.",
		}, []string{"pass"}),
		reminders: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "remindd",
			Name:      "reminders_posted_total",
			Help:      "Upcoming-task reminder notifications posted.",
		}),
		alarms: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "remindd",
			Name:      "alarms_started_total",
			Help:      "Audible alarm sessions started.",
		}),
		audioFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "remindd",
			Name:      "alarm_audio_failures_total",
			Help:      "Alarms delivered without sound because audio could not start.",
		}),
		escalationFails: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "remindd",
			Name:      "fullscreen_failures_total",
			Help:      "Full-screen escalations that could not be launched.",
		}),
		dismissals: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "remindd",
			Name:      "alarms_dismissed_total",
			Help:      "Active alarms stopped by a dismissal.",
		}),
		activeAlarms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "remindd",
			Name:      "active_alarms",
			Help:      "Alarms currently sounding.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.scans, m.scanFailures, m.reminders, m.alarms, m.audioFailures,
			m.escalationFails, m.dismissals, m.activeAlarms)
	}
	return m
}

func (m *Metrics) scanRan(pass string) {
	if m != nil {
		m.scans.WithLabelValues(pass).Inc()
	}
}

func (m *Metrics) scanFailed(pass string) {
	if m != nil {
		m.scanFailures.WithLabelValues(pass).Inc()
	}
}

func (m *Metrics) reminderPosted() {
	if m != nil {
		m.reminders.Inc()
	}
}

func (m *Metrics) alarmStarted() {
	if m != nil {
		m.alarms.Inc()
	}
}

func (m *Metrics) audioFailed() {
	if m != nil {
		m.audioFailures.Inc()
	}
}

func (m *Metrics) escalationFailed() {
	if m != nil {
		m.escalationFails.Inc()
	}
}

func (m *Metrics) alarmDismissed() {
	if m != nil {
		m.dismissals.Inc()
	}
}

func (m *Metrics) setActive(n int) {
	if m != nil {
		m.activeAlarms.Set(float64(n))
	}
}
