package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"orderdesk/automation/pkg/rules"
	"orderdesk/automation/pkg/rules/parser"
)

// FileSource loads rule sets from YAML or JSON files on disk.
type FileSource struct {
	path     string
	debounce time.Duration
	logger   *slog.Logger
}

// NewFileSource creates a file-based source. The path can be a single file
// or a directory; for a directory every .yaml, .yml and .json file directly
// inside it is loaded and the results are merged in file-name order.
func NewFileSource(path string, logger *slog.Logger) *FileSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileSource{
		path:     path,
		debounce: DefaultWatcherConfig().DebounceInterval,
		logger:   logger,
	}
}

// SetDebounceInterval changes the quiet period used by Watch.
func (s *FileSource) SetDebounceInterval(d time.Duration) {
	if d > 0 {
		s.debounce = d
	}
}

// Path returns the configured path.
func (s *FileSource) Path() string {
	return s.path
}

// Load reads and merges the rule files. Any unreadable or malformed file
// fails the whole load.
func (s *FileSource) Load(ctx context.Context) (*rules.RuleSet, error) {
	isDir, err := isDirectory(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat path %q: %w", s.path, err)
	}

	files := []string{s.path}
	if isDir {
		files, err = parser.RuleFiles(s.path)
		if err != nil {
			return nil, err
		}
	}

	p := parser.NewParser()
	sets := make([]*rules.RuleSet, 0, len(files))
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		set, err := p.ParseFile(file)
		if err != nil {
			return nil, err
		}
		s.logger.Debug("loaded rule file",
			"path", file,
			"groups", len(set.Groups),
			"rules", len(set.Rules),
		)
		sets = append(sets, set)
	}

	merged := rules.Merge(sets...)
	s.logger.Info("loaded rule set from source",
		"path", s.path,
		"files", len(files),
		"groups", len(merged.Groups),
		"rules", merged.RuleCount(),
	)
	return merged, nil
}

// Watch reports debounced changes to the rule files until ctx is
// cancelled.
func (s *FileSource) Watch(ctx context.Context) (<-chan Event, error) {
	cfg := DefaultWatcherConfig()
	cfg.Path = s.path
	cfg.DebounceInterval = s.debounce

	fw, err := NewFileWatcher(cfg, s.logger)
	if err != nil {
		return nil, err
	}

	ch := make(chan Event, 1)
	var mu sync.Mutex
	closed := false

	go func() {
		defer func() {
			mu.Lock()
			closed = true
			close(ch)
			mu.Unlock()
		}()
		err := fw.Watch(ctx, func(ev Event) {
			mu.Lock()
			defer mu.Unlock()
			if closed {
				return
			}
			select {
			case ch <- ev:
			default:
				// A reload is already pending; it will pick this change up.
			}
		})
		if err != nil {
			s.logger.Error("rule file watcher failed", "path", s.path, "error", err)
		}
	}()
	return ch, nil
}

func isDirectory(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}
