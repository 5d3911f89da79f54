package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix prefixes environment variables read as configuration.
const EnvPrefix = "LEAPDQ_"

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

// flagKeys maps command-line flags whose names differ from their config keys.
var flagKeys = map[string]string{
	"checks":    "checks_file",
	"functions": "functions_dir",
	"database":  "target.database",
	"engine":    "target.type",
}

// findConfigFile finds the config file in the given directory.
// Returns empty string if not found.
func findConfigFile(dir string) string {
	for _, name := range []string{ConfigFileName, ConfigFileNameAlt} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// FindProjectRoot walks up from startDir to the first directory holding a
// config file. Returns empty string if none is found.
func FindProjectRoot(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if findConfigFile(dir) != "" {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// Load loads configuration from defaults, the config file, LEAPDQ_
// environment variables and flags, in increasing precedence. An empty
// cfgFile searches upward from the working directory. Flags may be nil.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve working directory: %w", err)
	}

	// 1. Defaults
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file; its directory anchors relative paths.
	projectRoot := cwd
	if cfgFile == "" {
		if root := FindProjectRoot(cwd); root != "" {
			projectRoot = root
			cfgFile = findConfigFile(root)
		}
	} else {
		if _, err := os.Stat(cfgFile); err != nil {
			return nil, fmt.Errorf("config file %s: %w", cfgFile, err)
		}
		if abs, err := filepath.Abs(cfgFile); err == nil {
			projectRoot = filepath.Dir(abs)
		}
	}
	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
	}

	// 3. Environment: LEAPDQ_CHECKS_FILE -> checks_file, LEAPDQ_TARGET__DATABASE -> target.database
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags. Paths given on the command line are relative to the working
	// directory, not the project root.
	flagPaths := make(map[string]string)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				key = strings.ReplaceAll(f.Name, "-", "_")
			}
			val := posflag.FlagVal(flags, f)
			if s, isStr := val.(string); isStr && isPathKey(key) && s != "" && s != ":memory:" {
				if abs, err := filepath.Abs(s); err == nil {
					flagPaths[key] = abs
				}
			}
			return key, val
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.ProjectRoot = projectRoot
	cfg.FileUsed = cfgFile

	expandTargetEnvVars(&cfg.Target)

	cfg.ChecksFile = pathFor(flagPaths, "checks_file", cfg.ChecksFile, projectRoot)
	cfg.FunctionsDir = pathFor(flagPaths, "functions_dir", cfg.FunctionsDir, projectRoot)
	if cfg.Target.Database != ":memory:" {
		cfg.Target.Database = pathFor(flagPaths, "target.database", cfg.Target.Database, projectRoot)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func isPathKey(key string) bool {
	switch key {
	case "checks_file", "functions_dir", "target.database":
		return true
	}
	return false
}

func pathFor(flagPaths map[string]string, key, value, baseDir string) string {
	if p, ok := flagPaths[key]; ok {
		return p
	}
	return resolvePathRelativeTo(value, baseDir)
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
// Returns the path unchanged if it's empty or already absolute.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR} with the variable's value.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(match[2 : len(match)-1])
	})
}

func expandTargetEnvVars(t *TargetConfig) {
	t.Database = expandEnvVars(t.Database)
	for k, v := range t.Params {
		if s, ok := v.(string); ok {
			t.Params[k] = expandEnvVars(s)
		}
	}
}
