package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the auth module.
type Metrics struct {
	UsersCreated  prometheus.Counter
	LoginFailures prometheus.Counter
}

// New creates a new Metrics instance with all auth module metrics registered.
func New() *Metrics {
	return &Metrics{
		UsersCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "heirloom_users_created_total",
			Help: "Total number of users created",
		}),
		LoginFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "heirloom_login_failures_total",
			Help: "Total number of failed login attempts",
		}),
	}
}

// IncrementUsersCreated records a successful signup.
func (m *Metrics) IncrementUsersCreated() {
	if m != nil {
		m.UsersCreated.Inc()
	}
}

// IncrementLoginFailures records a rejected login.
func (m *Metrics) IncrementLoginFailures() {
	if m != nil {
		m.LoginFailures.Inc()
	}
}
