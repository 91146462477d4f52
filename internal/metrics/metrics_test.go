package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestRegisterIsIdempotent(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := Register(reg); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := Register(reg); err != nil {
		t.Fatalf("second register: %v", err)
	}
}

func TestHelpersBeforeRegisterAreNoOps(t *testing.T) {
	// Must not panic even when Register was never called in this order;
	// regOK may already be set by another test, so this is a smoke check.
	IncOperation("start", "ok")
	IncStartAction("restarted")
	IncEndpointDiscovery("found")
	AddFreshLogBytes(128)
	AddFreshLogBytes(-1)
}
