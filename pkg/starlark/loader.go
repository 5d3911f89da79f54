// Package starlark loads custom check functions written in Starlark.
//
// Every exported function of a .star file becomes a check function named
// after it. Its parameters become the check's arguments: parameters named
// col_name or starting with col_name are column references, other types
// are taken from the default value, and parameters without a default are
// required. A parameter named now receives the evaluation clock and is
// not an argument.
//
// The function returns a dict:
//
//	{"condition": <SQL predicate, true when the row fails>,
//	 "message": <plain text>,           # or "message_sql": <SQL text expression>
//	 "name": <outcome name>}            # optional, defaults to <column>_<function>
//
// Example:
//
//	def is_positive(col_name):
//	    return {"condition": col(col_name) + " <= 0",
//	            "message_sql": concat(lit("not positive: "), text(col_name))}
package starlark

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.starlark.net/starlark"

	"github.com/leapstack-labs/leapdq/pkg/check"
)

// Loader scans a directory for .star files and loads their functions.
type Loader struct {
	dir    string
	pool   *ThreadPool
	logger *slog.Logger
}

// NewLoader creates a loader for dir.
func NewLoader(dir string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Loader{dir: dir, pool: NewThreadPool(0, logger), logger: logger}
}

// LoadedModule represents a parsed check function file.
type LoadedModule struct {
	// Path is the path to the .star file
	Path string

	// Exports contains all exported values (names not starting with _)
	Exports starlark.StringDict
}

// Load reads every .star file and returns a namespace holding their
// functions. A missing directory yields an empty namespace.
func (l *Loader) Load() (*check.Namespace, error) {
	modules, err := l.modules()
	if err != nil {
		return nil, err
	}

	ns := check.NewRegistry()
	origin := make(map[string]string)
	for _, m := range modules {
		names := make([]string, 0, len(m.Exports))
		for name := range m.Exports {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			fn, ok := m.Exports[name].(*starlark.Function)
			if !ok {
				continue
			}
			if prev, dup := origin[name]; dup {
				return nil, &LoadError{
					File:    m.Path,
					Message: fmt.Sprintf("function %s is already defined in %s", name, filepath.Base(prev)),
				}
			}
			def, err := l.definition(fn)
			if err != nil {
				return nil, &LoadError{File: m.Path, Message: err.Error()}
			}
			origin[name] = m.Path
			ns.Register(def)
			l.logger.Debug("loaded check function", "function", name, "file", m.Path, "params", len(def.Params))
		}
	}
	return ns, nil
}

func (l *Loader) modules() ([]*LoadedModule, error) {
	info, err := os.Stat(l.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to access functions directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("functions path is not a directory: %s", l.dir)
	}

	files, err := filepath.Glob(filepath.Join(l.dir, "*.star"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan functions directory: %w", err)
	}
	sort.Strings(files)

	modules := make([]*LoadedModule, 0, len(files))
	for _, file := range files {
		m, err := l.loadFile(file)
		if err != nil {
			return nil, err
		}
		modules = append(modules, m)
	}
	return modules, nil
}

func (l *Loader) loadFile(path string) (*LoadedModule, error) {
	content, err := os.ReadFile(path) //nolint:gosec // G304: path comes from a glob within the functions directory
	if err != nil {
		return nil, &LoadError{File: path, Message: fmt.Sprintf("failed to read file: %v", err)}
	}

	thread := l.pool.Get("load:" + filepath.Base(path))
	defer l.pool.Put(thread)

	globals, err := starlark.ExecFile(thread, path, content, Predeclared()) //nolint:staticcheck // SA1019: ExecFileOptions offers nothing needed here
	if err != nil {
		return nil, &LoadError{File: path, Message: fmt.Sprintf("Starlark execution error: %v", err)}
	}
	// Frozen values may be called from several goroutines.
	globals.Freeze()

	exports := make(starlark.StringDict)
	for name, value := range globals {
		if !strings.HasPrefix(name, "_") {
			exports[name] = value
		}
	}
	return &LoadedModule{Path: path, Exports: exports}, nil
}

// LoadError represents an error loading a check function file.
type LoadError struct {
	File    string
	Message string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("functions/%s: %s", filepath.Base(e.File), e.Message)
}
