// If you are AI: This file contains black-box end-to-end tests: real binaries, real (refused) network dials, asserting on process exit behavior.

package itest

import (
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"
)

// freeAddr reserves and immediately releases a TCP port, returning an
// address nothing is listening on so a dial against it fails fast with
// connection-refused rather than hanging.
func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("reserve port: %v", err)
	}
	addr := l.Addr().String()
	l.Close()
	return addr
}

// runWithTimeout starts cmd and waits up to timeout for it to exit,
// returning the exit code or failing the test on timeout.
func runWithTimeout(t *testing.T, cmd *exec.Cmd, timeout time.Duration) int {
	t.Helper()
	if err := cmd.Start(); err != nil {
		t.Fatalf("start process: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		if err == nil {
			return 0
		}
		if exitErr, ok := err.(*exec.ExitError); ok {
			return exitErr.ExitCode()
		}
		t.Fatalf("process wait error: %v", err)
	case <-time.After(timeout):
		cmd.Process.Kill()
		t.Fatalf("process did not exit within %v", timeout)
	}
	return -1
}

// TestVideobotFailsFastWhenBusUnreachable verifies that videobot, given
// a bus-mode source config whose NATS URL has nothing listening on it,
// exits promptly with a non-zero code instead of hanging or serving a
// health endpoint over a pipeline that never started.
func TestVideobotFailsFastWhenBusUnreachable(t *testing.T) {
	dir := t.TempDir()
	binPath := filepath.Join(dir, "videobot")
	if err := BuildBinary("videobot", binPath); err != nil {
		t.Fatalf("build videobot: %v", err)
	}

	unreachable := freeAddr(t)
	configPath := filepath.Join(dir, "config.yaml")
	config := fmt.Sprintf(`server:
  health_port: 0
  http_port: 0
bus:
  url: "nats://%s"
source:
  mode: bus
  metadata_channel: "camera.test.metadata"
  frames_channel: "camera.test.frames"
decoder:
  pixel_format: RGB0
sink:
  mode: bus
  analysis_channel: "camera.test.analysis"
  debug_channel: "camera.test.debug"
  control_channel: "camera.test.control"
bot:
  enabled: false
`, unreachable)
	if err := os.WriteFile(configPath, []byte(config), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cmd := exec.Command(binPath, "--config", configPath)
	code := runWithTimeout(t, cmd, 5*time.Second)
	if code == 0 {
		t.Errorf("expected non-zero exit when the bus is unreachable, got 0")
	}
}

// TestVideobotRecorderFailsFastWhenSourceUnreachable verifies the
// recorder binary exits promptly with a non-zero code when its
// url-mode source cannot be dialed, rather than hanging waiting on a
// connection that will never succeed.
func TestVideobotRecorderFailsFastWhenSourceUnreachable(t *testing.T) {
	dir := t.TempDir()
	binPath := filepath.Join(dir, "videobot-recorder")
	if err := BuildBinary("videobot-recorder", binPath); err != nil {
		t.Fatalf("build videobot-recorder: %v", err)
	}

	unreachable := freeAddr(t)
	outPath := filepath.Join(dir, "out.flv")
	configPath := filepath.Join(dir, "config.yaml")
	config := fmt.Sprintf(`server:
  health_port: 0
  http_port: 0
bus:
  url: "nats://127.0.0.1:0"
source:
  mode: url
  url: "rtmp://%s/live/test"
decoder:
  pixel_format: RGB0
sink:
  mode: container
  container_path: %q
bot:
  enabled: false
`, unreachable, outPath)
	if err := os.WriteFile(configPath, []byte(config), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cmd := exec.Command(binPath, "--config", configPath)
	code := runWithTimeout(t, cmd, 15*time.Second)
	if code == 0 {
		t.Errorf("expected non-zero exit when the source url is unreachable, got 0")
	}
}
