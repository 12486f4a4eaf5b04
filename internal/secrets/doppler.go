package secrets

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// CommandRunner runs an external command and returns its stdout.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs commands with os/exec; stderr is folded into the error.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s", err, msg)
	}
	return stdout.Bytes(), nil
}

// Doppler fetches secrets with the Doppler CLI. A key may carry its own
// config as "config/NAME", e.g. "stg_homologacao/VITE_SUPABASE_SECRET";
// otherwise Config (or the CLI's configured default) applies.
type Doppler struct {
	Binary  string
	Project string
	Config  string
	Run     CommandRunner
}

func (d Doppler) Get(ctx context.Context, key string) (string, error) {
	config := d.Config
	if i := strings.LastIndexByte(key, '/'); i >= 0 {
		config, key = key[:i], key[i+1:]
	}
	if key == "" {
		return "", fmt.Errorf("empty doppler secret name")
	}

	args := []string{"secrets", "get", key, "--plain"}
	if d.Project != "" {
		args = append(args, "--project", d.Project)
	}
	if config != "" {
		args = append(args, "--config", config)
	}

	bin := d.Binary
	if bin == "" {
		bin = "doppler"
	}
	run := d.Run
	if run == nil {
		run = ExecRunner
	}

	out, err := run(ctx, bin, args...)
	if err != nil {
		return "", fmt.Errorf("doppler secrets get %s: %w", key, err)
	}
	return strings.TrimSpace(string(out)), nil
}
