package telemetry

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestTradesMatchedIncrements(t *testing.T) {
	TradesMatched.Reset()
	TradesMatched.WithLabelValues("1", "0").Add(3)
	if got := testutil.ToFloat64(TradesMatched.WithLabelValues("1", "0")); got != 3 {
		t.Errorf("trades matched = %v, want 3", got)
	}
}

func TestFeesCollectedSeparatesLegs(t *testing.T) {
	FeesCollected.Reset()
	FeesCollected.WithLabelValues("1", "0", "quote").Add(5)
	FeesCollected.WithLabelValues("1", "0", "base").Add(2)
	if got := testutil.ToFloat64(FeesCollected.WithLabelValues("1", "0", "quote")); got != 5 {
		t.Errorf("quote fees = %v, want 5", got)
	}
	if got := testutil.ToFloat64(FeesCollected.WithLabelValues("1", "0", "base")); got != 2 {
		t.Errorf("base fees = %v, want 2", got)
	}
}

func TestMatchingLoopAbortsCollectable(t *testing.T) {
	MatchingLoopAborts.Reset()
	MatchingLoopAborts.WithLabelValues("1", "0").Inc()
	if count := testutil.CollectAndCount(MatchingLoopAborts); count != 1 {
		t.Errorf("collected series count = %d, want 1", count)
	}
}
