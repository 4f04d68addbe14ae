package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"

	"orderdesk/automation/pkg/rules"
)

// GitConfig configures a GitSource.
type GitConfig struct {
	// URL is the repository to clone. Local paths are accepted.
	URL string

	// Branch to track (default: "main").
	Branch string

	// Path of the rule file or directory inside the repository.
	Path string

	// CheckoutDir is where the repository is cloned (default: a directory
	// under os.TempDir).
	CheckoutDir string

	// Token, when set, is sent as HTTP basic auth password.
	Token string

	// PollInterval is how often Watch fetches the remote (default: 1m).
	PollInterval time.Duration

	// Timeout bounds each clone or pull (default: 30s).
	Timeout time.Duration
}

// GitSource loads rule sets from a git repository.
type GitSource struct {
	config GitConfig
	logger *slog.Logger

	mu   sync.Mutex
	repo *gogit.Repository
}

// NewGitSource creates a git-backed source. Nothing is cloned until the
// first Load.
func NewGitSource(config GitConfig, logger *slog.Logger) (*GitSource, error) {
	if config.URL == "" {
		return nil, fmt.Errorf("repository URL cannot be empty")
	}
	if config.Branch == "" {
		config.Branch = "main"
	}
	if config.CheckoutDir == "" {
		config.CheckoutDir = filepath.Join(os.TempDir(), "orderdesk-rules")
	}
	if config.PollInterval <= 0 {
		config.PollInterval = time.Minute
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GitSource{config: config, logger: logger}, nil
}

func (s *GitSource) auth() transport.AuthMethod {
	if s.config.Token == "" {
		return nil
	}
	return &http.BasicAuth{Username: "orderdesk", Password: s.config.Token}
}

// ensureCloned opens an existing checkout or clones the repository.
// Callers hold s.mu.
func (s *GitSource) ensureCloned(ctx context.Context) error {
	if s.repo != nil {
		return nil
	}

	if _, err := os.Stat(filepath.Join(s.config.CheckoutDir, ".git")); err == nil {
		repo, err := gogit.PlainOpen(s.config.CheckoutDir)
		if err != nil {
			return fmt.Errorf("failed to open existing checkout: %w", err)
		}
		s.repo = repo
		return nil
	}

	if err := os.MkdirAll(s.config.CheckoutDir, 0o755); err != nil {
		return fmt.Errorf("failed to create checkout directory: %w", err)
	}

	cloneCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	repo, err := gogit.PlainCloneContext(cloneCtx, s.config.CheckoutDir, false, &gogit.CloneOptions{
		URL:           s.config.URL,
		ReferenceName: plumbing.NewBranchReferenceName(s.config.Branch),
		SingleBranch:  true,
		Auth:          s.auth(),
	})
	if err != nil {
		return fmt.Errorf("failed to clone %s: %w", s.config.URL, err)
	}
	s.repo = repo

	s.logger.Info("cloned rules repository",
		"url", s.config.URL,
		"branch", s.config.Branch,
		"dir", s.config.CheckoutDir,
	)
	return nil
}

// Revision returns the checked-out commit SHA.
func (s *GitSource) Revision() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision()
}

func (s *GitSource) revision() (string, error) {
	if s.repo == nil {
		return "", fmt.Errorf("repository not cloned")
	}
	ref, err := s.repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to get HEAD: %w", err)
	}
	return ref.Hash().String(), nil
}

// Pull fetches the tracked branch and reports whether HEAD moved.
func (s *GitSource) Pull(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureCloned(ctx); err != nil {
		return false, err
	}

	before, err := s.revision()
	if err != nil {
		return false, err
	}

	worktree, err := s.repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("failed to get worktree: %w", err)
	}

	pullCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	err = worktree.PullContext(pullCtx, &gogit.PullOptions{
		RemoteName:    "origin",
		ReferenceName: plumbing.NewBranchReferenceName(s.config.Branch),
		SingleBranch:  true,
		Auth:          s.auth(),
	})
	if err != nil && err != gogit.NoErrAlreadyUpToDate {
		return false, fmt.Errorf("failed to pull: %w", err)
	}

	after, err := s.revision()
	if err != nil {
		return false, err
	}
	return before != after, nil
}

// Load clones the repository if needed and loads the configured path. A
// rule set without a version is stamped with the short commit SHA.
func (s *GitSource) Load(ctx context.Context) (*rules.RuleSet, error) {
	s.mu.Lock()
	if err := s.ensureCloned(ctx); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	rev, err := s.revision()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	path := filepath.Join(s.config.CheckoutDir, s.config.Path)
	set, err := NewFileSource(path, s.logger).Load(ctx)
	if err != nil {
		return nil, err
	}
	if set.Version == "" && len(rev) >= 12 {
		set.Version = rev[:12]
	}
	return set, nil
}

// Watch polls the remote every PollInterval and emits an EventRevision when
// a pull moves HEAD.
func (s *GitSource) Watch(ctx context.Context) (<-chan Event, error) {
	ch := make(chan Event, 1)

	go func() {
		defer close(ch)
		ticker := time.NewTicker(s.config.PollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				changed, err := s.Pull(ctx)
				if err != nil {
					s.logger.Error("rules repository pull failed", "url", s.config.URL, "error", err)
					continue
				}
				if !changed {
					continue
				}
				rev, _ := s.Revision()
				s.logger.Info("rules repository updated", "revision", rev)
				select {
				case ch <- Event{Type: EventRevision, Path: s.config.Path, Revision: rev, Time: time.Now()}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return ch, nil
}
