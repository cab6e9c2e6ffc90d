package metrics

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	t.Parallel()

	m := New(prometheus.NewRegistry())

	m.Login("ok")
	m.Login("ok")
	m.Login("invalid_credentials")
	m.Refresh("forbidden")
	m.Revocation()
	m.WebSession("password")
	m.HTTPRequest(http.MethodPost, "/auth/access-token", http.StatusOK, 10*time.Millisecond)

	require.Equal(t, 2.0, testutil.ToFloat64(m.logins.WithLabelValues("ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.logins.WithLabelValues("invalid_credentials")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.refreshes.WithLabelValues("forbidden")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.revocations))
	require.Equal(t, 1.0, testutil.ToFloat64(m.webSessions.WithLabelValues("password")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("POST", "/auth/access-token", "200")))
}

func TestMetrics_NilSafe(t *testing.T) {
	t.Parallel()

	var m *Metrics
	require.NotPanics(t, func() {
		m.Login("ok")
		m.Refresh("ok")
		m.Revocation()
		m.WebSession("google")
		m.HTTPRequest("GET", "/", 200, time.Second)
	})
}

func TestNew_DuplicateRegistrationPanics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	_ = New(reg)
	require.Panics(t, func() { _ = New(reg) })
}
