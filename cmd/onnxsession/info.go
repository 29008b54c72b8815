package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/example/go-onnx-session/internal/session"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newInfoCmd() *cobra.Command {
	var providers []string

	cmd := &cobra.Command{
		Use:   "info [model]",
		Short: "Print a model's declared input and output tensors",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			modelPath := activeCfg.Paths.ModelPath
			if len(args) == 1 {
				modelPath = args[0]
			}

			sess, err := session.Load(modelPath, sessionConfig(activeCfg, providers))
			if err != nil {
				return err
			}
			defer sess.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "model: %s\n", sess.Path())
			fmt.Fprintf(cmd.OutOrStdout(), "providers: %s\n", providerList(sess))

			fmt.Fprintln(cmd.OutOrStdout(), "inputs:")
			renderTensorTable(cmd, sess.Inputs())
			fmt.Fprintln(cmd.OutOrStdout(), "outputs:")
			renderTensorTable(cmd, sess.Outputs())

			return nil
		},
	}

	cmd.Flags().StringSliceVar(&providers, "providers", nil, "Execution providers in preference order")

	return cmd
}

func renderTensorTable(cmd *cobra.Command, infos []session.TensorInfo) {
	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetHeader([]string{"NAME", "TYPE", "SHAPE"})
	for _, info := range infos {
		table.Append([]string{info.Name, info.DType, formatShape(info.Shape)})
	}
	table.Render()
}

func formatShape(shape []int64) string {
	dims := make([]string, len(shape))
	for i, dim := range shape {
		if dim < 0 {
			dims[i] = "?"
			continue
		}
		dims[i] = strconv.FormatInt(dim, 10)
	}
	return "[" + strings.Join(dims, ",") + "]"
}

func providerList(sess *session.Session) string {
	specs := sess.Providers()
	names := make([]string, len(specs))
	for i, spec := range specs {
		names[i] = spec.Kind.String()
	}
	return strings.Join(names, ",")
}
