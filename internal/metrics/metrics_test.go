package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObservers(t *testing.T) {
	m := New()
	m.ObserveValidation("register", 5*time.Millisecond, false)
	m.ObserveValidation("register", time.Millisecond, true)
	m.ObserveFieldFailure("register", "Username", "remote")
	m.ObserveRemoteCheck("/validate/username", false, nil)
	m.ObserveRemoteCheck("/validate/username", true, errors.New("boom"))

	if got := testutil.ToFloat64(m.Validations.WithLabelValues("register", "invalid")); got != 1 {
		t.Fatalf("expected 1 invalid validation, got %v", got)
	}
	if got := testutil.ToFloat64(m.FieldFailures.WithLabelValues("register", "Username", "remote")); got != 1 {
		t.Fatalf("expected 1 field failure, got %v", got)
	}
	if got := testutil.ToFloat64(m.RemoteChecks.WithLabelValues("/validate/username", "error")); got != 1 {
		t.Fatalf("expected 1 errored remote check, got %v", got)
	}

	var nilMetrics *Metrics
	nilMetrics.ObserveHTTP("/", "GET", 200, time.Millisecond)
}
