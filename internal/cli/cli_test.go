package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ppiankov/rootcheck/internal/model"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".rootcheck", "config.yaml")

	if err := writeDefaultConfig(path); err != nil {
		t.Fatalf("writeDefaultConfig: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	var cfg model.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("written config is not valid YAML: %v", err)
	}
	if cfg.Policy.MediumConfidenceCount != 2 || cfg.Probe.Root != "/" {
		t.Errorf("unexpected written config %+v", cfg)
	}

	if err := writeDefaultConfig(path); err == nil {
		t.Error("expected refusal to overwrite an existing config")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	viper.Reset()
	defer viper.Reset()
	setDefaults(model.DefaultConfig())

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Execution.PerCheckTimeoutMS != 50 || cfg.Boundary.MaxRunsPerMinute != 60 {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	viper.Reset()
	defer viper.Reset()
	setDefaults(model.DefaultConfig())
	viper.Set("policy.high_confidence_threshold", 0)

	if _, err := loadConfig(); err == nil || !strings.Contains(err.Error(), "invalid configuration") {
		t.Errorf("expected invalid configuration error, got %v", err)
	}
}

func TestListCommand(t *testing.T) {
	var out bytes.Buffer
	listCmd.SetOut(&out)
	defer listCmd.SetOut(nil)

	listCategory = "debug-flags"
	defer func() { listCategory = "" }()

	if err := runList(listCmd, nil); err != nil {
		t.Fatalf("runList: %v", err)
	}

	got := out.String()
	for _, id := range []string{"debuggable", "tracer-attached", "selinux-permissive"} {
		if !strings.Contains(got, id) {
			t.Errorf("expected %s in output:\n%s", id, got)
		}
	}
	if strings.Contains(got, "su-binary") {
		t.Errorf("category filter not applied:\n%s", got)
	}
	if !strings.Contains(got, "3 heuristic(s)") {
		t.Errorf("expected count line:\n%s", got)
	}
}

func TestSetupLogging_VerboseFromEnv(t *testing.T) {
	viper.Reset()
	defer viper.Reset()
	defer log.SetLevel(log.InfoLevel)

	t.Setenv("ROOTCHECK_OUTPUT_VERBOSE", "true")
	initConfig()

	if err := setupLogging(); err != nil {
		t.Fatalf("setupLogging: %v", err)
	}
	if log.GetLevel() != log.DebugLevel {
		t.Errorf("expected debug level from ROOTCHECK_OUTPUT_VERBOSE, got %s", log.GetLevel())
	}
}

func TestSetupLogging_DefaultInfo(t *testing.T) {
	viper.Reset()
	defer viper.Reset()
	setDefaults(model.DefaultConfig())

	if err := setupLogging(); err != nil {
		t.Fatalf("setupLogging: %v", err)
	}
	if log.GetLevel() != log.InfoLevel {
		t.Errorf("expected info level, got %s", log.GetLevel())
	}
}
