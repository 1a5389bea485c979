package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveStoreSkipsExpectedErrors(t *testing.T) {
	errMissing := errors.New("missing")
	observe := ObserveStore(errMissing)

	before := testutil.ToFloat64(StoreErrors.WithLabelValues("labs", "find_one"))
	observe("labs", "find_one", time.Millisecond, nil)
	observe("labs", "find_one", time.Millisecond, errMissing)
	observe("labs", "find_one", time.Millisecond, errors.New("socket closed"))

	after := testutil.ToFloat64(StoreErrors.WithLabelValues("labs", "find_one"))
	if after-before != 1 {
		t.Fatalf("store errors grew by %v; want 1", after-before)
	}
}
