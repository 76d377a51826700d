package monitor

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestNewMetrics(t *testing.T) {
	m := NewMetrics()
	if m == nil {
		t.Fatal("NewMetrics() returned nil")
	}
	if got := len(m.Collectors()); got != 7 {
		t.Errorf("expected 7 collectors, got %d", got)
	}
}

func TestMetrics_Register(t *testing.T) {
	t.Run("successful registration", func(t *testing.T) {
		m := NewMetrics()
		reg := prometheus.NewRegistry()

		if err := m.Register(reg); err != nil {
			t.Errorf("Register() returned error: %v", err)
		}

		families, err := reg.Gather()
		if err != nil {
			t.Errorf("Gather() returned error: %v", err)
		}

		expectedNames := map[string]bool{
			MetricChatMessages:   false,
			MetricMarkedMessages: false,
			MetricRevenueEvents:  false,
			MetricAudienceTicks:  false,
			MetricAppendErrors:   false,
			MetricSessionsOpened: false,
			MetricSessionsEnded:  false,
		}
		for _, family := range families {
			if _, ok := expectedNames[family.GetName()]; ok {
				expectedNames[family.GetName()] = true
			}
		}
		for name, found := range expectedNames {
			if !found {
				t.Errorf("metric %s not found in gathered metrics", name)
			}
		}
	})

	t.Run("duplicate registration fails", func(t *testing.T) {
		m1 := NewMetrics()
		m2 := NewMetrics()
		reg := prometheus.NewRegistry()

		if err := m1.Register(reg); err != nil {
			t.Fatalf("first Register() returned error: %v", err)
		}
		if err := m2.Register(reg); err == nil {
			t.Error("second Register() should have returned an error")
		}
	})
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() returned error: %v", err)
	}
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		metrics := family.GetMetric()
		if len(metrics) != 1 {
			t.Fatalf("metric %s has %d series, want 1", name, len(metrics))
		}
		var m *dto.Metric = metrics[0]
		return m.GetCounter().GetValue()
	}
	t.Fatalf("metric %s not found", name)
	return 0
}

func TestMetrics_CountersIncrement(t *testing.T) {
	m := NewMetrics()
	reg := prometheus.NewRegistry()
	if err := m.Register(reg); err != nil {
		t.Fatal(err)
	}

	m.IncChatMessages()
	m.IncChatMessages()
	m.IncMarkedMessages()
	m.IncAppendErrors()

	if got := counterValue(t, reg, MetricChatMessages); got != 2 {
		t.Errorf("%s = %v, want 2", MetricChatMessages, got)
	}
	if got := counterValue(t, reg, MetricMarkedMessages); got != 1 {
		t.Errorf("%s = %v, want 1", MetricMarkedMessages, got)
	}
	if got := counterValue(t, reg, MetricRevenueEvents); got != 0 {
		t.Errorf("%s = %v, want 0", MetricRevenueEvents, got)
	}
}
