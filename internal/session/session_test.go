package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/example/go-onnx-session/internal/provider"
	"github.com/example/go-onnx-session/internal/tensor"
)

// fakeEngine lets tests drive the session pipeline without a native runtime.
type fakeEngine struct {
	inputs  []NodeInfo
	outputs []NodeInfo
	run     func(ctx context.Context, inputs map[string]*tensor.Value) (map[string]*tensor.Value, error)

	openErr    error
	openedOpts EngineOptions
	closed     bool
}

type fakeEngineSession struct {
	engine *fakeEngine
}

func (e *fakeEngine) Open(_ string, opts EngineOptions) (EngineSession, error) {
	if e.openErr != nil {
		return nil, e.openErr
	}
	e.openedOpts = opts
	return &fakeEngineSession{engine: e}, nil
}

func (s *fakeEngineSession) Inputs() ([]NodeInfo, error) {
	return append([]NodeInfo(nil), s.engine.inputs...), nil
}

func (s *fakeEngineSession) Outputs() ([]NodeInfo, error) {
	return append([]NodeInfo(nil), s.engine.outputs...), nil
}

func (s *fakeEngineSession) Run(ctx context.Context, inputs map[string]*tensor.Value) (map[string]*tensor.Value, error) {
	return s.engine.run(ctx, inputs)
}

func (s *fakeEngineSession) Close() {
	s.engine.closed = true
}

// writeFakeModel creates a placeholder model file so Load's existence check
// passes; the fake engine never reads it.
func writeFakeModel(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "model.onnx")
	if err := os.WriteFile(path, []byte("fake"), 0o644); err != nil {
		t.Fatalf("write fake model: %v", err)
	}
	return path
}

func twoInputEngine() *fakeEngine {
	return &fakeEngine{
		inputs: []NodeInfo{
			{Name: "x", DType: "float32", Shape: []int64{2, 3}},
			{Name: "y", DType: "string", Shape: []int64{3}},
		},
		outputs: []NodeInfo{
			{Name: "z", DType: "float32", Shape: []int64{2, 3}},
		},
		run: func(_ context.Context, inputs map[string]*tensor.Value) (map[string]*tensor.Value, error) {
			// Echo the numeric input back as the single output.
			x := inputs["x"]
			data, err := x.Float32s()
			if err != nil {
				return nil, err
			}
			out, err := tensor.NewNumeric(data, x.Shape())
			if err != nil {
				return nil, err
			}
			return map[string]*tensor.Value{"z": out}, nil
		},
	}
}

func TestLoadNonexistentPath(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.onnx"), Config{Engine: twoInputEngine()})
	if err == nil {
		t.Fatal("expected error for nonexistent model path")
	}

	var loadErr *ModelLoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected ModelLoadError, got %T: %v", err, err)
	}
}

func TestLoadBadProvider(t *testing.T) {
	_, err := Load(writeFakeModel(t), Config{
		Engine:    twoInputEngine(),
		Providers: []string{"bogus"},
	})

	var unknownErr *provider.UnknownProviderError
	if !errors.As(err, &unknownErr) {
		t.Fatalf("expected UnknownProviderError, got %T: %v", err, err)
	}
}

func TestLoadEngineFailure(t *testing.T) {
	engine := twoInputEngine()
	engine.openErr = errors.New("corrupt protobuf")

	_, err := Load(writeFakeModel(t), Config{Engine: engine})

	var loadErr *ModelLoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected ModelLoadError, got %T: %v", err, err)
	}
}

func TestLoadRecordsProviders(t *testing.T) {
	engine := twoInputEngine()
	sess, err := Load(writeFakeModel(t), Config{
		Engine:    engine,
		Providers: []string{"cuda"},
	})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	defer sess.Close()

	specs := sess.Providers()
	if len(specs) != 2 || specs[0].Kind != provider.CUDA || specs[1].Kind != provider.CPU {
		t.Fatalf("unexpected provider list: %v", specs)
	}

	// The session hands the same resolved list to the engine.
	if len(engine.openedOpts.Providers) != 2 {
		t.Fatalf("engine saw %d providers, want 2", len(engine.openedOpts.Providers))
	}
}

func TestSessionMetadata(t *testing.T) {
	sess, err := Load(writeFakeModel(t), Config{Engine: twoInputEngine()})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	defer sess.Close()

	inputs := sess.Inputs()
	if len(inputs) != 2 {
		t.Fatalf("expected 2 inputs, got %d", len(inputs))
	}

	if inputs[0].Name != "x" || inputs[1].Name != "y" {
		t.Fatalf("inputs out of declared order: %v", inputs)
	}

	if !reflect.DeepEqual(inputs[0].Shape, []int64{2, 3}) {
		t.Fatalf("unexpected input shape: %v", inputs[0].Shape)
	}

	// The cache returns consistent values on repeat queries.
	again := sess.Inputs()
	if !reflect.DeepEqual(inputs, again) {
		t.Fatal("repeated metadata query differs")
	}

	outputs := sess.Outputs()
	if len(outputs) != 1 || outputs[0].Name != "z" {
		t.Fatalf("unexpected outputs: %v", outputs)
	}
}

func TestSessionShapeFallback(t *testing.T) {
	engine := twoInputEngine()
	engine.inputs[0].Shape = nil

	sess, err := Load(writeFakeModel(t), Config{Engine: engine})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	defer sess.Close()

	if !reflect.DeepEqual(sess.Inputs()[0].Shape, []int64{-1}) {
		t.Fatalf("expected dynamic fallback shape [-1], got %v", sess.Inputs()[0].Shape)
	}
}

func TestRunEndToEnd(t *testing.T) {
	sess, err := Load(writeFakeModel(t), Config{Engine: twoInputEngine()})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	defer sess.Close()

	x, err := tensor.NewNumeric([]float64{1, 2, 3, 4, 5, 6}, []int64{2, 3})
	if err != nil {
		t.Fatalf("NewNumeric: %v", err)
	}

	outputs, err := sess.Run(context.Background(), map[string]*tensor.Value{
		"x": x,
		"y": tensor.NewText([]string{"a", "b", "c"}),
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(outputs) != 1 {
		t.Fatalf("expected exactly the declared output, got %d entries", len(outputs))
	}

	z, ok := outputs["z"]
	if !ok {
		t.Fatal("missing declared output z")
	}

	if z.DType() != tensor.DTypeFloat64 {
		t.Fatalf("expected float64 output, got %s", z.DType())
	}

	if !reflect.DeepEqual(z.Shape(), []int64{2, 3}) {
		t.Fatalf("unexpected output shape: %v", z.Shape())
	}

	data, err := z.Float64s()
	if err != nil {
		t.Fatalf("Float64s: %v", err)
	}

	if !reflect.DeepEqual(data, []float64{1, 2, 3, 4, 5, 6}) {
		t.Fatalf("unexpected output data: %v", data)
	}
}

func TestRunValidationFailures(t *testing.T) {
	sess, err := Load(writeFakeModel(t), Config{Engine: twoInputEngine()})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	defer sess.Close()

	x, err := tensor.NewNumeric([]float32{1, 2, 3, 4, 5, 6}, []int64{2, 3})
	if err != nil {
		t.Fatalf("NewNumeric: %v", err)
	}

	t.Run("missing required", func(t *testing.T) {
		_, err := sess.Run(context.Background(), map[string]*tensor.Value{"x": x})

		var validationErr *ValidationError
		if !errors.As(err, &validationErr) {
			t.Fatalf("expected ValidationError, got %T: %v", err, err)
		}

		if validationErr.Name != "y" {
			t.Fatalf("expected missing input %q, got %q", "y", validationErr.Name)
		}
	})

	t.Run("unexpected", func(t *testing.T) {
		_, err := sess.Run(context.Background(), map[string]*tensor.Value{
			"x": x,
			"y": tensor.NewText([]string{"a", "b", "c"}),
			"c": tensor.NewText([]string{"extra"}),
		})

		var validationErr *ValidationError
		if !errors.As(err, &validationErr) {
			t.Fatalf("expected ValidationError, got %T: %v", err, err)
		}

		if validationErr.Name != "c" {
			t.Fatalf("expected unexpected input %q, got %q", "c", validationErr.Name)
		}
	})
}

func TestRunEngineFailure(t *testing.T) {
	engine := twoInputEngine()
	engine.run = func(context.Context, map[string]*tensor.Value) (map[string]*tensor.Value, error) {
		return nil, errors.New("kernel launch failed")
	}

	sess, err := Load(writeFakeModel(t), Config{Engine: engine})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	defer sess.Close()

	x, err := tensor.NewNumeric([]float32{1, 2, 3, 4, 5, 6}, []int64{2, 3})
	if err != nil {
		t.Fatalf("NewNumeric: %v", err)
	}

	_, err = sess.Run(context.Background(), map[string]*tensor.Value{
		"x": x,
		"y": tensor.NewText([]string{"a", "b", "c"}),
	})

	var inferenceErr *InferenceError
	if !errors.As(err, &inferenceErr) {
		t.Fatalf("expected InferenceError, got %T: %v", err, err)
	}
}

func TestRunMissingOutput(t *testing.T) {
	engine := twoInputEngine()
	engine.run = func(context.Context, map[string]*tensor.Value) (map[string]*tensor.Value, error) {
		return map[string]*tensor.Value{}, nil
	}

	sess, err := Load(writeFakeModel(t), Config{Engine: engine})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	defer sess.Close()

	x, err := tensor.NewNumeric([]float32{1, 2, 3, 4, 5, 6}, []int64{2, 3})
	if err != nil {
		t.Fatalf("NewNumeric: %v", err)
	}

	_, err = sess.Run(context.Background(), map[string]*tensor.Value{
		"x": x,
		"y": tensor.NewText([]string{"a", "b", "c"}),
	})

	var inferenceErr *InferenceError
	if !errors.As(err, &inferenceErr) {
		t.Fatalf("expected InferenceError, got %T: %v", err, err)
	}

	if inferenceErr.Name != "z" {
		t.Fatalf("expected missing output %q, got %q", "z", inferenceErr.Name)
	}
}

func TestRunOnZeroSession(t *testing.T) {
	var sess Session

	_, err := sess.Run(context.Background(), map[string]*tensor.Value{})

	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %T: %v", err, err)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	engine := twoInputEngine()
	sess, err := Load(writeFakeModel(t), Config{Engine: engine})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	sess.Close()
	sess.Close()

	if !engine.closed {
		t.Fatal("engine session was not closed")
	}
}
