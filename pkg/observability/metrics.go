package observability

import (
	"context"
	"strconv"

	"github.com/aretw0/grasp/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the node's Prometheus collectors.
type Metrics struct {
	commands      *prometheus.CounterVec
	notifications *prometheus.CounterVec
	publishErrors *prometheus.CounterVec
	holding       prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "grasp_commands_total",
				Help: "Total number of commands applied, by kind and outcome",
			},
			[]string{"command", "outcome"},
		),
		notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "grasp_notifications_total",
				Help: "Total number of notifications published",
			},
			[]string{"channel", "success"},
		),
		publishErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "grasp_publish_errors_total",
				Help: "Total number of notifications the transport failed to publish",
			},
			[]string{"channel"},
		),
		holding: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "grasp_holding",
				Help: "1 while the gripper holds an object",
			},
		),
	}

	for _, c := range []prometheus.Collector{m.commands, m.notifications, m.publishErrors, m.holding} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnCommand: func(_ context.Context, e *domain.CommandEvent) {
			outcome := "ok"
			if e.Err != nil {
				outcome = "rejected"
			}
			m.commands.WithLabelValues(string(e.Kind), outcome).Inc()
		},
		OnTransition: func(_ context.Context, e *domain.TransitionEvent) {
			if e.To.Holding {
				m.holding.Set(1)
			} else {
				m.holding.Set(0)
			}
		},
		OnNotification: func(_ context.Context, e *domain.NotificationEvent) {
			ch := string(e.Notification.Channel)
			if e.Err != nil {
				m.publishErrors.WithLabelValues(ch).Inc()
				return
			}
			m.notifications.WithLabelValues(ch, strconv.FormatBool(e.Notification.Success)).Inc()
		},
	}
}

// HoldingGauge exposes the hold gauge, mainly for tests.
func (m *Metrics) HoldingGauge() prometheus.Gauge {
	return m.holding
}
