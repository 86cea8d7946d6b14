package export

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// GitDestination keeps the latest document at a fixed path in a local clone
// and commits each change, so the repository history holds every backup.
// Commits are pushed when the clone has an origin remote.
type GitDestination struct {
	repo   string
	file   string // relative to repo
	branch string
}

// NewGitDestination returns a destination for an existing clone at repo.
func NewGitDestination(repo, file, branch string) *GitDestination {
	return &GitDestination{repo: repo, file: file, branch: branch}
}

func (d *GitDestination) Name() string { return "git" }

func (d *GitDestination) Write(ctx context.Context, name string, data []byte) error {
	if _, err := d.git(ctx, "checkout", d.branch); err != nil {
		return err
	}
	remote := d.hasOrigin(ctx)
	if remote {
		// Fails harmlessly when origin does not have the branch yet.
		_, _ = d.git(ctx, "pull", "--ff-only", "origin", d.branch)
	}

	path := filepath.Join(d.repo, d.file)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", d.file, err)
	}
	if _, err := d.git(ctx, "add", "--", d.file); err != nil {
		return err
	}
	if _, err := d.git(ctx, "diff", "--cached", "--quiet"); err == nil {
		return nil // unchanged
	}
	if _, err := d.git(ctx, "commit", "--quiet", "-m", "agritag: export "+name); err != nil {
		return err
	}
	if remote {
		if _, err := d.git(ctx, "push", "--quiet", "origin", d.branch); err != nil {
			return err
		}
	}
	return nil
}

func (d *GitDestination) hasOrigin(ctx context.Context) bool {
	_, err := d.git(ctx, "remote", "get-url", "origin")
	return err == nil
}

// git runs a git subcommand in the clone. Errors carry git's own output.
func (d *GitDestination) git(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = d.repo
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(out.String())
		if msg == "" {
			return "", fmt.Errorf("git %s: %w", args[0], err)
		}
		return "", fmt.Errorf("git %s: %w: %s", args[0], err, msg)
	}
	return out.String(), nil
}
