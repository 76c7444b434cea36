// internal/tracing/tracing_test.go

package tracing

import (
	"context"
	"strings"
	"testing"

	"github.com/yanizio/jobboard/internal/config"
)

func TestDisabledIsNoop(t *testing.T) {
	shutdown, err := Init(context.Background(), config.Tracing{Enabled: false})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestSamplerChoice(t *testing.T) {
	cases := map[float64]string{1: "AlwaysOnSampler", 0: "AlwaysOffSampler", 0.25: "ParentBased"}
	for rate, want := range cases {
		if got := sampler(rate).Description(); !strings.HasPrefix(got, want) {
			t.Errorf("rate %v: %q", rate, got)
		}
	}
}
