package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTemp(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "router.conf")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

const validConfig = `# router one
router-id 1
input-ports 5001
outputs 6002-3-2
timeout-default 5
timeout-delta 2
route-timeout 15
garbage-timeout 30
trigger-timeout 1,5
`

func TestLoadValid(t *testing.T) {
	cfg, err := Load(writeTemp(t, validConfig))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.RouterID != 1 {
		t.Errorf("RouterID = %d, want 1", cfg.RouterID)
	}
	if len(cfg.InputPorts) != 1 || cfg.InputPorts[0] != 5001 {
		t.Errorf("InputPorts = %v, want [5001]", cfg.InputPorts)
	}
	want := Neighbor{ID: 2, DestPort: 6002, Cost: 3}
	if len(cfg.Neighbors) != 1 || cfg.Neighbors[0] != want {
		t.Errorf("Neighbors = %v, want [%v]", cfg.Neighbors, want)
	}
	if cfg.Timers.PeriodicBase != 5*time.Second {
		t.Errorf("PeriodicBase = %v, want 5s", cfg.Timers.PeriodicBase)
	}
	if cfg.Timers.TriggerMin != time.Second || cfg.Timers.TriggerMax != 5*time.Second {
		t.Errorf("trigger timers = [%v,%v], want [1s,5s]", cfg.Timers.TriggerMin, cfg.Timers.TriggerMax)
	}
	if cfg.MetricsPort != nil {
		t.Errorf("MetricsPort = %v, want nil", cfg.MetricsPort)
	}
}

func TestLoadMultiplePortsAndNeighbors(t *testing.T) {
	body := `router-id 1
input-ports 5001,5002
outputs 6002-3-2,6003-1-3
timeout-default 5
timeout-delta 0
route-timeout 15
garbage-timeout 30
trigger-timeout 1,5
metrics-port 9001
`
	cfg, err := Load(writeTemp(t, body))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.InputPorts) != 2 || len(cfg.Neighbors) != 2 {
		t.Fatalf("InputPorts/Neighbors = %v/%v, want 2/2", cfg.InputPorts, cfg.Neighbors)
	}
	if cfg.MetricsPort == nil || *cfg.MetricsPort != 9001 {
		t.Errorf("MetricsPort = %v, want 9001", cfg.MetricsPort)
	}
}

func TestLoadRejectsMissingParam(t *testing.T) {
	body := `router-id 1
input-ports 5001
outputs 6002-3-2
timeout-default 5
timeout-delta 2
route-timeout 15
garbage-timeout 30
`
	if _, err := Load(writeTemp(t, body)); err == nil {
		t.Fatal("Load(): want error for missing trigger-timeout, got nil")
	}
}

func TestLoadRejectsDuplicateParam(t *testing.T) {
	body := validConfig + "router-id 2\n"
	if _, err := Load(writeTemp(t, body)); err == nil {
		t.Fatal("Load(): want error for duplicate router-id, got nil")
	}
}

func TestLoadRejectsMalformedLine(t *testing.T) {
	body := "router-id  1\ninput-ports 5001\n"
	if _, err := Load(writeTemp(t, body)); err == nil {
		t.Fatal("Load(): want error for double space, got nil")
	}
}

func TestLoadRejectsPortCollision(t *testing.T) {
	body := `router-id 1
input-ports 5001
outputs 5001-3-2
timeout-default 5
timeout-delta 2
route-timeout 15
garbage-timeout 30
trigger-timeout 1,5
`
	if _, err := Load(writeTemp(t, body)); err == nil {
		t.Fatal("Load(): want error for input/output port collision, got nil")
	}
}

func TestLoadRejectsOutOfRangeNumerics(t *testing.T) {
	cases := []string{
		"router-id 70000\ninput-ports 5001\noutputs 6002-3-2\ntimeout-default 5\ntimeout-delta 2\nroute-timeout 15\ngarbage-timeout 30\ntrigger-timeout 1,5\n",
		"router-id 1\ninput-ports 500\noutputs 6002-3-2\ntimeout-default 5\ntimeout-delta 2\nroute-timeout 15\ngarbage-timeout 30\ntrigger-timeout 1,5\n",
		"router-id 1\ninput-ports 5001\noutputs 6002-17-2\ntimeout-default 5\ntimeout-delta 2\nroute-timeout 15\ngarbage-timeout 30\ntrigger-timeout 1,5\n",
		"router-id 1\ninput-ports 5001\noutputs 6002-3-2\ntimeout-default 5\ntimeout-delta 6\nroute-timeout 15\ngarbage-timeout 30\ntrigger-timeout 1,5\n",
		"router-id 1\ninput-ports 5001\noutputs 6002-3-2\ntimeout-default 5\ntimeout-delta 2\nroute-timeout 30\ngarbage-timeout 15\ntrigger-timeout 1,5\n",
		"router-id 1\ninput-ports 5001\noutputs 6002-3-2\ntimeout-default 5\ntimeout-delta 2\nroute-timeout 15\ngarbage-timeout 30\ntrigger-timeout 5,1\n",
	}
	for i, body := range cases {
		if _, err := Load(writeTemp(t, body)); err == nil {
			t.Errorf("case %d: Load(): want error, got nil", i)
		}
	}
}

func TestLoadRejectsMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.conf")); err == nil {
		t.Fatal("Load(): want error for missing file, got nil")
	}
}
