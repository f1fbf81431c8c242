package rules

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// fileDocument is the layout of a rules file:
//
//	disabled:
//	  - yield
//	  - sprint_notes_available
type fileDocument struct {
	Disabled *[]string `yaml:"disabled"`
}

// defaultSettle is how long the file must stay quiet before a reload reads it.
const defaultSettle = 20 * time.Millisecond

// errIncompleteRules marks a rules file without a disabled key, such as one
// caught between truncate and write.
var errIncompleteRules = errors.New("rules file has no disabled key")

// LoadFile reads the disabled rule names from a YAML file.
// An empty file disables nothing.
func LoadFile(path string) (Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file %s: %w", path, err)
	}
	doc, err := parseDocument(path, data)
	if err != nil {
		return nil, err
	}
	if doc.Disabled == nil {
		return NewSet(), nil
	}
	return NewSet(*doc.Disabled...), nil
}

func parseDocument(path string, data []byte) (fileDocument, error) {
	var doc fileDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("failed to parse rules file %s: %w", path, err)
	}
	return doc, nil
}

// FileConfig is a RuleConfig loaded from a YAML file that can follow edits.
type FileConfig struct {
	*Holder
	path    string
	log     zerolog.Logger
	settle  time.Duration
	applied []byte // content behind the current set
}

// OpenFile loads path once. Call Watch to pick up later edits.
func OpenFile(path string, log zerolog.Logger) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file %s: %w", path, err)
	}
	set, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return &FileConfig{Holder: NewHolder(set), path: path, log: log, settle: defaultSettle, applied: data}, nil
}

// reload reads the file and returns the set to apply. changed is false when
// the content matches what is already applied. Empty files and documents
// without a disabled key are rejected so a half-written save keeps the rules.
func (f *FileConfig) reload() (set Set, changed bool, err error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read rules file %s: %w", f.path, err)
	}
	if bytes.Equal(data, f.applied) {
		return nil, false, nil
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, false, fmt.Errorf("%w: %s is empty", errIncompleteRules, f.path)
	}
	doc, err := parseDocument(f.path, data)
	if err != nil {
		return nil, false, err
	}
	if doc.Disabled == nil {
		return nil, false, fmt.Errorf("%w: %s", errIncompleteRules, f.path)
	}
	f.applied = data
	return NewSet(*doc.Disabled...), true, nil
}

// Path returns the watched file.
func (f *FileConfig) Path() string { return f.path }

// Watch reloads the file once writes to it have settled, until ctx is
// cancelled. A reload that fails keeps the previous rules. onChange, when set,
// sees every applied set.
func (f *FileConfig) Watch(ctx context.Context, onChange func(Set)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create rules watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(f.path); err != nil {
		return fmt.Errorf("failed to watch rules file %s: %w", f.path, err)
	}
	f.log.Debug().Str("path", f.path).Msg("watching rules file")

	timer := time.NewTimer(f.settle)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// Atomic saves show up as a create after a rename
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			timer.Reset(f.settle)

		case <-timer.C:
			// The inode may have changed on an atomic save
			_ = watcher.Add(f.path)

			set, changed, err := f.reload()
			if err != nil {
				f.log.Warn().Err(err).Str("path", f.path).Msg("rules reload failed, keeping previous rules")
				continue
			}
			if !changed {
				continue
			}
			f.Replace(set)
			f.log.Info().Str("path", f.path).Strs("disabled", set.Names()).Msg("rules reloaded")
			if onChange != nil {
				onChange(set)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			f.log.Warn().Err(err).Str("path", f.path).Msg("rules watcher error")
		}
	}
}
