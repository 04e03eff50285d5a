package updater

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/creativeprojects/go-selfupdate"

	"github.com/guiyumin/voicetext/internal/core/version"
)

const (
	repoOwner = "guiyumin"
	repoName  = "voicetext"
)

// currentVersion strips the leading v so it compares as semver.
func currentVersion() string {
	return strings.TrimPrefix(version.Version, "v")
}

func newUpdater() (*selfupdate.Updater, error) {
	source, err := selfupdate.NewGitHubSource(selfupdate.GitHubConfig{})
	if err != nil {
		return nil, err
	}
	return selfupdate.NewUpdater(selfupdate.Config{Source: source})
}

// CheckUpdate reports the latest release and whether it is newer than the
// running binary.
func CheckUpdate(ctx context.Context) (*selfupdate.Release, bool, error) {
	updater, err := newUpdater()
	if err != nil {
		return nil, false, err
	}

	latest, found, err := updater.DetectLatest(ctx, selfupdate.NewRepositorySlug(repoOwner, repoName))
	if err != nil {
		return nil, false, fmt.Errorf("failed to check for updates: %w", err)
	}
	if !found {
		return nil, false, nil
	}
	return latest, !latest.LessOrEqual(currentVersion()), nil
}

// Update replaces the running executable with the latest release.
func Update(ctx context.Context, out io.Writer) error {
	latest, newer, err := CheckUpdate(ctx)
	if err != nil {
		return err
	}
	if latest == nil {
		return fmt.Errorf("no releases found for %s/%s", repoOwner, repoName)
	}
	if !newer {
		fmt.Fprintf(out, "Already up to date (v%s)\n", currentVersion())
		return nil
	}

	fmt.Fprintf(out, "Updating from v%s to %s...\n", currentVersion(), latest.Version())

	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}

	updater, err := newUpdater()
	if err != nil {
		return err
	}
	if err := updater.UpdateTo(ctx, latest, exe); err != nil {
		return fmt.Errorf("failed to update: %w", err)
	}

	fmt.Fprintf(out, "Successfully updated to %s\n", latest.Version())
	return nil
}
