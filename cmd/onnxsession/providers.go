package main

import (
	"sort"
	"strconv"
	"strings"

	"github.com/example/go-onnx-session/internal/provider"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newProvidersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "providers [names...]",
		Short: "Show the resolved execution provider list",
		Long: "Resolves the given provider names (or the platform default " +
			"ordering when none are given) and prints the list the engine " +
			"would be offered, CPU fallback included.",
		RunE: func(cmd *cobra.Command, args []string) error {
			requested := args
			if len(requested) == 0 {
				requested = activeCfg.Inference.Providers
			}

			specs, err := provider.Resolve(requested)
			if err != nil {
				return err
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"#", "NAME", "ENGINE NAME", "OPTIONS"})
			for i, spec := range specs {
				table.Append([]string{
					strconv.Itoa(i + 1),
					spec.Kind.String(),
					spec.Kind.EngineName(),
					formatOptions(spec.Options),
				})
			}
			table.Render()

			return nil
		},
	}

	return cmd
}

func formatOptions(options map[string]string) string {
	if len(options) == 0 {
		return "-"
	}
	pairs := make([]string, 0, len(options))
	for k, v := range options {
		pairs = append(pairs, k+"="+v)
	}
	sort.Strings(pairs)
	return strings.Join(pairs, " ")
}
