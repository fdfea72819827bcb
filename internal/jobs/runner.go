package jobs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"ipsync/internal/config"
)

// Runner executes one speed-test run over the given addresses. Runners are
// not safe for concurrent use against the same artifacts; the Orchestrator
// guarantees a single run at a time.
type Runner interface {
	Run(ctx context.Context, addresses []string) error
}

// SpeedTest runs a CloudflareSpeedTest-compatible binary. The tool is
// started without arguments in WorkDir; it reads InputFile and writes the
// result artifact itself.
type SpeedTest struct {
	Binary    string
	WorkDir   string
	InputFile string
	logger    *slog.Logger
}

// NewSpeedTest constructs a SpeedTest from configuration. A nil logger
// discards debug output of the tool.
func NewSpeedTest(cfg config.SpeedTestConfig, logger *slog.Logger) *SpeedTest {
	return &SpeedTest{
		Binary:    cfg.Binary,
		WorkDir:   cfg.WorkDir,
		InputFile: cfg.InputFile,
		logger:    logger,
	}
}

// InputPath is the absolute or WorkDir-relative path of the input artifact.
func (s *SpeedTest) InputPath() string {
	return filepath.Join(s.WorkDir, s.InputFile)
}

// LookPath resolves the configured binary the same way Run would: a
// relative path with a separator is taken relative to WorkDir, a bare name
// is searched in PATH.
func (s *SpeedTest) LookPath() (string, error) {
	bin := s.Binary
	if !filepath.IsAbs(bin) && strings.ContainsRune(bin, filepath.Separator) {
		bin = filepath.Join(s.WorkDir, bin)
	}
	return exec.LookPath(bin)
}

func (s *SpeedTest) Run(ctx context.Context, addresses []string) error {
	input := s.InputPath()
	if err := os.WriteFile(input, []byte(strings.Join(addresses, "\n")), 0o644); err != nil {
		return &ArtifactError{Op: "write", Path: input, Err: err}
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, s.Binary)
	cmd.Dir = s.WorkDir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return &SpawnError{Binary: s.Binary, Err: err}
	}

	err := cmd.Wait()
	if s.logger != nil && stdout.Len() > 0 {
		s.logger.DebugContext(ctx, "speedtest_stdout", "output", stdout.String())
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ToolError{ExitCode: exitErr.ExitCode(), Stderr: stderr.String()}
		}
		return fmt.Errorf("wait for %s: %w", s.Binary, err)
	}

	return nil
}
