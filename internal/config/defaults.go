package config

// Default configuration values.
const (
	DefaultTargetType = "duckdb"
	DefaultDatabase   = ":memory:"
	DefaultChecksFile = "checks.yml"
	DefaultOutput     = OutputAuto
	DefaultLogLevel   = "warn"
	DefaultLogFormat  = "text"
)

// Output modes.
const (
	OutputAuto = "auto"
	OutputText = "text"
	OutputJSON = "json"
)

// ConfigFileName is the name of the config file.
const ConfigFileName = "leapdq.yaml"

// ConfigFileNameAlt is the alternate name of the config file.
const ConfigFileNameAlt = "leapdq.yml"

func defaults() map[string]any {
	return map[string]any{
		"target.type":     DefaultTargetType,
		"target.database": DefaultDatabase,
		"checks_file":     DefaultChecksFile,
		"functions_dir":   "",
		"output":          DefaultOutput,
		"log_level":       DefaultLogLevel,
		"log_format":      DefaultLogFormat,
		"now":             "",
	}
}
