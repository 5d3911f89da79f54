package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapdq/internal/config"
	"github.com/leapstack-labs/leapdq/pkg/core"
	"github.com/leapstack-labs/leapdq/pkg/metadata"
)

// ErrInvalidChecks is returned once validation problems have been reported.
var ErrInvalidChecks = errors.New("checks are invalid")

type validateResult struct {
	File     string                 `json:"file"`
	Checks   int                    `json:"checks"`
	Valid    bool                   `json:"valid"`
	Problems []core.ValidationError `json:"problems"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [checks-file]",
		Short: "Validate a checks file without reading data",
		Long: `Validate every check of a checks file against the registered and custom
check functions. All problems are reported at once; no data is read.`,
		Example: `  # Validate the configured checks file
  leapdq validate

  # Validate a specific file as JSON
  leapdq validate dq/orders.yml -o json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			path := cmdCtx.Cfg.ChecksFile
			if len(args) == 1 {
				path = args[0]
			}
			return runValidate(cmdCtx, path)
		},
	}
}

func runValidate(c *CommandContext, path string) error {
	checks, err := metadata.LoadFile(path)
	if err != nil {
		return err
	}
	ns, err := c.Functions()
	if err != nil {
		return err
	}
	eng, err := c.Engine(nil)
	if err != nil {
		return err
	}

	problems := eng.Validate(checks, ns)
	res := validateResult{File: path, Checks: len(checks), Valid: len(problems) == 0, Problems: problems}
	if res.Problems == nil {
		res.Problems = []core.ValidationError{}
	}
	c.Logger.Info("validated checks", "file", path, "checks", len(checks), "problems", len(problems))

	if c.Mode == config.OutputJSON {
		if err := renderJSON(c.Out, res); err != nil {
			return err
		}
	} else {
		renderValidateText(c, res)
	}
	if !res.Valid {
		return ErrInvalidChecks
	}
	return nil
}

func renderValidateText(c *CommandContext, res validateResult) {
	if res.Valid {
		_, _ = fmt.Fprintf(c.Out, "%s: %d checks valid\n", res.File, res.Checks)
		return
	}
	t := newTable(c.Out, "Check", "Rule", "Field", "Problem")
	for _, p := range res.Problems {
		t.AppendRow([]any{p.Index, p.RuleID, p.Field, p.Message})
	}
	t.Render()
	_, _ = fmt.Fprintf(c.Out, "%s: %d problems in %d checks\n", res.File, len(res.Problems), res.Checks)
}
