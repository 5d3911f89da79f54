package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/leapstack-labs/leapdq/internal/config"
	"github.com/leapstack-labs/leapdq/pkg/adapter"
	"github.com/leapstack-labs/leapdq/pkg/check"
	"github.com/leapstack-labs/leapdq/pkg/engine"
	"github.com/leapstack-labs/leapdq/pkg/starlark"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg    *config.Config
	Logger *slog.Logger
	Out    io.Writer
	// Mode is the resolved output mode: text or json.
	Mode string
}

// NewCommandContext reads the configuration and logger stored on the
// command's context by the root command.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, ok := config.FromContext(ctx)
	if !ok {
		var err error
		if cfg, err = config.Load("", nil); err != nil {
			return nil, err
		}
	}
	out := cmd.OutOrStdout()
	return &CommandContext{
		Cfg:    cfg,
		Logger: config.GetLogger(ctx),
		Out:    out,
		Mode:   resolveMode(cfg.Output, out),
	}, nil
}

// resolveMode maps auto to text on a terminal and json otherwise.
func resolveMode(mode string, w io.Writer) string {
	if mode != config.OutputAuto {
		return mode
	}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) { //nolint:gosec // G115: file descriptors fit in int
		return config.OutputText
	}
	return config.OutputJSON
}

// Functions loads the custom check functions from the configured
// directory. No directory yields an empty namespace.
func (c *CommandContext) Functions() (*check.Namespace, error) {
	if c.Cfg.FunctionsDir == "" {
		return check.NewRegistry(), nil
	}
	ns, err := starlark.NewLoader(c.Cfg.FunctionsDir, c.Logger).Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load check functions: %w", err)
	}
	return ns, nil
}

// Engine creates a rule engine using the configured clock.
func (c *CommandContext) Engine(metrics *engine.Metrics) (*engine.Engine, error) {
	clock, err := c.Cfg.Clock()
	if err != nil {
		return nil, err
	}
	return engine.New(engine.Config{Logger: c.Logger, Now: clock, Metrics: metrics}), nil
}

// Open connects the configured target. The caller closes the adapter.
func (c *CommandContext) Open(ctx context.Context) (adapter.Adapter, error) {
	return adapter.Open(ctx, c.Cfg.Target.AdapterConfig(), c.Logger)
}
