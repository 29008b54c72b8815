package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/example/go-onnx-session/internal/session"
	"github.com/example/go-onnx-session/internal/tensor"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	var inputsFile string
	var outFile string
	var providers []string

	cmd := &cobra.Command{
		Use:   "run [model]",
		Short: "Run inference with a JSON input bag",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			modelPath := activeCfg.Paths.ModelPath
			if len(args) == 1 {
				modelPath = args[0]
			}

			if inputsFile == "" {
				return fmt.Errorf("--inputs is required")
			}

			inputs, err := readInputBag(inputsFile)
			if err != nil {
				return err
			}

			sess, err := session.Load(modelPath, sessionConfig(activeCfg, providers))
			if err != nil {
				return err
			}
			defer sess.Close()

			outputs, err := sess.Run(cmd.Context(), inputs)
			if err != nil {
				return err
			}

			rendered, err := renderOutputBag(outputs)
			if err != nil {
				return err
			}

			if outFile != "" {
				return os.WriteFile(outFile, rendered, 0o644)
			}

			_, err = cmd.OutOrStdout().Write(append(rendered, '\n'))
			return err
		},
	}

	cmd.Flags().StringVar(&inputsFile, "inputs", "", "JSON file mapping input names to numeric arrays or string arrays")
	cmd.Flags().StringVar(&outFile, "out", "", "Write outputs to this file instead of stdout")
	cmd.Flags().StringSliceVar(&providers, "providers", nil, "Execution providers in preference order")

	return cmd
}

// readInputBag parses a JSON object mapping each input name to either a
// (possibly nested) numeric array, a string array, or a scalar. A top-level
// JSON array is rejected: inputs must be named.
func readInputBag(path string) (map[string]*tensor.Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read inputs file: %w", err)
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode inputs file: %w", err)
	}

	bag, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("inputs must be a JSON object keyed by input name")
	}

	values := make(map[string]*tensor.Value, len(bag))
	for name, entry := range bag {
		value, err := valueFromJSON(entry)
		if err != nil {
			return nil, fmt.Errorf("input %q: %w", name, err)
		}
		values[name] = value
	}
	return values, nil
}

func valueFromJSON(raw any) (*tensor.Value, error) {
	switch v := raw.(type) {
	case float64:
		return tensor.NewNumeric([]float64{v}, nil)
	case string:
		return tensor.NewText([]string{v}), nil
	case []any:
		if len(v) == 0 {
			return nil, fmt.Errorf("empty array")
		}
		if _, ok := v[0].(string); ok {
			return textFromJSON(v)
		}
		shape, flat, err := flattenNumericJSON(v)
		if err != nil {
			return nil, err
		}
		return tensor.NewNumeric(flat, shape)
	default:
		return nil, fmt.Errorf("unsupported JSON value type %T", raw)
	}
}

func textFromJSON(arr []any) (*tensor.Value, error) {
	values := make([]string, len(arr))
	for i, entry := range arr {
		s, ok := entry.(string)
		if !ok {
			return nil, fmt.Errorf("mixed string and non-string elements")
		}
		values[i] = s
	}
	return tensor.NewText(values), nil
}

// flattenNumericJSON infers the row-major shape of a nested JSON array and
// flattens it. Ragged nesting is rejected.
func flattenNumericJSON(arr []any) ([]int64, []float64, error) {
	if len(arr) == 0 {
		return nil, nil, fmt.Errorf("empty array")
	}

	shape := []int64{int64(len(arr))}
	if nested, ok := arr[0].([]any); ok {
		innerShape, _, err := flattenNumericJSON(nested)
		if err != nil {
			return nil, nil, err
		}
		shape = append(shape, innerShape...)
	}

	var flat []float64
	var walk func(level int, entries []any) error
	walk = func(level int, entries []any) error {
		if int64(len(entries)) != shape[level] {
			return fmt.Errorf("ragged array: expected %d elements at depth %d, got %d", shape[level], level, len(entries))
		}
		for _, entry := range entries {
			switch e := entry.(type) {
			case float64:
				if level != len(shape)-1 {
					return fmt.Errorf("ragged array: number at depth %d of %d", level, len(shape)-1)
				}
				flat = append(flat, e)
			case []any:
				if level == len(shape)-1 {
					return fmt.Errorf("ragged array: nested array at leaf depth")
				}
				if err := walk(level+1, e); err != nil {
					return err
				}
			default:
				return fmt.Errorf("unsupported array element type %T", entry)
			}
		}
		return nil
	}
	if err := walk(0, arr); err != nil {
		return nil, nil, err
	}

	return shape, flat, nil
}

type outputEntry struct {
	Shape []int64   `json:"shape"`
	Data  []float64 `json:"data"`
}

func renderOutputBag(outputs map[string]*tensor.Value) ([]byte, error) {
	names := make([]string, 0, len(outputs))
	for name := range outputs {
		names = append(names, name)
	}
	sort.Strings(names)

	bag := make(map[string]outputEntry, len(outputs))
	for _, name := range names {
		value := outputs[name]
		data, err := value.Float64s()
		if err != nil {
			return nil, fmt.Errorf("output %q: %w", name, err)
		}
		bag[name] = outputEntry{Shape: value.Shape(), Data: data}
	}

	return json.MarshalIndent(bag, "", "  ")
}
