package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"github.com/nerrad567/iris/internal/rtu"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestParseFlags(t *testing.T) {
	t.Setenv("IRIS_CONFIG", "")

	tests := []struct {
		name    string
		args    []string
		want    options
		wantErr bool
	}{
		{
			name: "defaults",
			args: nil,
			want: options{envFile: defaultEnvFile},
		},
		{
			name: "short config flag",
			args: []string{"-c", "/etc/iris/config.yaml"},
			want: options{configPath: "/etc/iris/config.yaml", envFile: defaultEnvFile},
		},
		{
			name: "all flags",
			args: []string{"--config=hub.yaml", "--rtu-config", "rtu.yaml", "--env-file", "prod.env", "--version"},
			want: options{configPath: "hub.yaml", rtuConfig: "rtu.yaml", envFile: "prod.env", showVersion: true},
		},
		{name: "unknown flag", args: []string{"--verbose"}, wantErr: true},
		{name: "stray argument", args: []string{"serve"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFlags(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseFlags() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("parseFlags() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseFlags_Help(t *testing.T) {
	if _, err := parseFlags([]string{"--help"}); !errors.Is(err, pflag.ErrHelp) {
		t.Errorf("parseFlags(--help) error = %v, want pflag.ErrHelp", err)
	}
}

func TestParseFlags_ConfigFromEnv(t *testing.T) {
	t.Setenv("IRIS_CONFIG", "/srv/iris.yaml")

	got, err := parseFlags(nil)
	if err != nil {
		t.Fatalf("parseFlags() error = %v", err)
	}
	if got.configPath != "/srv/iris.yaml" {
		t.Errorf("configPath = %q, want /srv/iris.yaml", got.configPath)
	}
}

func TestLoadEnvFile(t *testing.T) {
	const key = "IRIS_TEST_ENV_FILE_VALUE"
	t.Cleanup(func() { os.Unsetenv(key) }) //nolint:errcheck // Test cleanup

	path := writeFile(t, ".env", key+"=from-dotenv\n")
	if err := loadEnvFile(path); err != nil {
		t.Fatalf("loadEnvFile() error = %v", err)
	}
	if got := os.Getenv(key); got != "from-dotenv" {
		t.Errorf("%s = %q, want from-dotenv", key, got)
	}
}

func TestLoadEnvFile_Missing(t *testing.T) {
	if err := loadEnvFile(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Errorf("loadEnvFile() missing file error = %v, want nil", err)
	}
	if err := loadEnvFile(""); err != nil {
		t.Errorf("loadEnvFile(\"\") error = %v, want nil", err)
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx, options{configPath: "/nonexistent/path/config.yaml"})
	if err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

func TestRun_MissingRTUConfig(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx, options{rtuConfig: filepath.Join(t.TempDir(), "rtu_conf.yaml")})
	if !errors.Is(err, rtu.ErrConfigNotFound) {
		t.Errorf("run() error = %v, want ErrConfigNotFound", err)
	}
}

func TestRun_InvalidTopology(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rtuPath := writeFile(t, "rtu_conf.yaml", `
name: Broken RTU
id: broken rtu
ip_addr: not-an-ip
devices: []
`)
	err := run(ctx, options{rtuConfig: rtuPath})
	if !errors.Is(err, rtu.ErrInvalidTopology) {
		t.Errorf("run() error = %v, want ErrInvalidTopology", err)
	}
}

func TestRun_StartsAndStops(t *testing.T) {
	const port = 19312

	rtuPath := writeFile(t, "rtu_conf.yaml", `
name: Test RTU
id: test-rtu
ip_addr: 127.0.0.1
devices:
  - id: pump
    name: Pump
    port: /dev/iris-test-port
    addr: 0
    controller: STR1
    controller_addr: 254
    state: Off
`)
	configPath := writeFile(t, "config.yaml", fmt.Sprintf(`
rtu:
  config_file: %q
api:
  host: "127.0.0.1"
  port: %d
poller:
  interval: 3600
logging:
  level: error
  format: text
`, rtuPath, port))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- run(ctx, options{configPath: configPath}) }()

	url := fmt.Sprintf("http://127.0.0.1:%d/running", port)
	var (
		resp *http.Response
		err  error
	)
	for i := 0; i < 50; i++ {
		resp, err = http.Get(url)
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		cancel()
		t.Fatalf("server never came up: %v", err)
	}
	resp.Body.Close() //nolint:errcheck // Test cleanup
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("run() error = %v, want nil on shutdown", err)
		}
	case <-time.After(15 * time.Second):
		t.Fatal("run() did not return after cancel")
	}
}
