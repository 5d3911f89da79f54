package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapdq/internal/config"
	"github.com/leapstack-labs/leapdq/pkg/check"
)

type paramInfo struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
	Default  any    `json:"default,omitempty"`
}

type functionInfo struct {
	Name        string      `json:"name"`
	Kind        string      `json:"kind"`
	Source      string      `json:"source"`
	Description string      `json:"description,omitempty"`
	Params      []paramInfo `json:"params"`
}

// NewFunctionsCommand creates the functions command.
func NewFunctionsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "functions",
		Short: "List available check functions",
		Long: `List the built-in check functions and the custom ones loaded from the
functions directory. Custom functions shadow built-ins of the same name.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			ns, err := cmdCtx.Functions()
			if err != nil {
				return err
			}
			infos := listFunctions(check.Default(), ns)
			if cmdCtx.Mode == config.OutputJSON {
				return renderJSON(cmdCtx.Out, infos)
			}
			t := newTable(cmdCtx.Out, "Function", "Kind", "Source", "Arguments")
			for _, f := range infos {
				t.AppendRow([]any{f.Name, f.Kind, f.Source, formatParams(f.Params)})
			}
			t.Render()
			_, _ = fmt.Fprintf(cmdCtx.Out, "(%d functions)\n", len(infos))
			return nil
		},
	}
}

// listFunctions merges built-ins and custom functions, sorted by name.
func listFunctions(builtins *check.Registry, custom *check.Namespace) []functionInfo {
	byName := make(map[string]functionInfo)
	var names []string
	add := func(def *check.Definition, source string) {
		if _, seen := byName[def.Name]; !seen {
			names = append(names, def.Name)
		}
		info := functionInfo{Name: def.Name, Kind: def.Kind.String(), Source: source, Description: def.Description, Params: []paramInfo{}}
		for _, p := range def.Params {
			info.Params = append(info.Params, paramInfo{Name: p.Name, Type: p.Type.String(), Required: p.Required, Default: p.Default})
		}
		byName[def.Name] = info
	}
	for _, def := range builtins.All() {
		add(def, "builtin")
	}
	for _, def := range custom.All() {
		add(def, "custom")
	}

	sort.Strings(names)
	out := make([]functionInfo, len(names))
	for i, n := range names {
		out[i] = byName[n]
	}
	return out
}

func formatParams(params []paramInfo) string {
	parts := make([]string, len(params))
	for i, p := range params {
		s := p.Name + ": " + p.Type
		if !p.Required {
			s += "?"
		}
		parts[i] = s
	}
	return strings.Join(parts, ", ")
}
