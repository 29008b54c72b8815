// Package tensor holds the generic value type exchanged with the inference
// engine: flat numeric buffers with a row-major shape, or ordered string
// sequences. The numeric/text split is decided once, at construction.
package tensor

import (
	"fmt"
	"math"
)

type DType string

const (
	DTypeFloat32 DType = "float32"
	DTypeFloat64 DType = "float64"
	DTypeInt32   DType = "int32"
	DTypeInt64   DType = "int64"
	DTypeString  DType = "string"
)

// DynamicDim marks a dimension whose size is only known at inference time.
const DynamicDim int64 = -1

// Value is a tagged union of a numeric array and a text array. A numeric
// Value always satisfies len(buffer) == product(shape).
type Value struct {
	dtype DType
	shape []int64
	data  any
}

func NewNumeric[T ~float32 | ~float64 | ~int32 | ~int64](data []T, shape []int64) (*Value, error) {
	dtype, err := dtypeFromSlice(data)
	if err != nil {
		return nil, err
	}
	if err := validateShapeAgainstData(shape, len(data)); err != nil {
		return nil, err
	}

	v := &Value{
		dtype: dtype,
		shape: append([]int64(nil), shape...),
	}
	switch dtype {
	case DTypeFloat32:
		v.data = convertSlice[T, float32](data)
	case DTypeFloat64:
		v.data = convertSlice[T, float64](data)
	case DTypeInt32:
		v.data = convertSlice[T, int32](data)
	case DTypeInt64:
		v.data = convertSlice[T, int64](data)
	default:
		return nil, fmt.Errorf("unsupported tensor dtype %q", dtype)
	}
	return v, nil
}

// NewText builds a text value of shape [len(values)].
func NewText(values []string) *Value {
	return &Value{
		dtype: DTypeString,
		shape: []int64{int64(len(values))},
		data:  append([]string(nil), values...),
	}
}

func (v *Value) DType() DType {
	return v.dtype
}

func (v *Value) IsText() bool {
	return v.dtype == DTypeString
}

func (v *Value) Shape() []int64 {
	return append([]int64(nil), v.shape...)
}

// Len returns the number of elements in the flat buffer.
func (v *Value) Len() int {
	switch data := v.data.(type) {
	case []float32:
		return len(data)
	case []float64:
		return len(data)
	case []int32:
		return len(data)
	case []int64:
		return len(data)
	case []string:
		return len(data)
	default:
		return 0
	}
}

// Strings returns the text payload, or nil for numeric values.
func (v *Value) Strings() []string {
	data, ok := v.data.([]string)
	if !ok {
		return nil
	}
	return append([]string(nil), data...)
}

// Float32s extracts the buffer without conversion; it fails unless the value
// is backed by float32 data.
func (v *Value) Float32s() ([]float32, error) {
	data, ok := v.data.([]float32)
	if !ok {
		return nil, fmt.Errorf("expected float32 tensor, got %s", v.dtype)
	}
	return append([]float32(nil), data...), nil
}

// Float64s extracts the buffer without conversion; it fails unless the value
// is backed by float64 data.
func (v *Value) Float64s() ([]float64, error) {
	data, ok := v.data.([]float64)
	if !ok {
		return nil, fmt.Errorf("expected float64 tensor, got %s", v.dtype)
	}
	return append([]float64(nil), data...), nil
}

// AsFloat32 converts any numeric payload to float32, the canonical wire type
// handed to the engine. Text values are rejected.
func (v *Value) AsFloat32() ([]float32, error) {
	switch data := v.data.(type) {
	case []float32:
		return append([]float32(nil), data...), nil
	case []float64:
		return convertSlice[float64, float32](data), nil
	case []int32:
		return convertSlice[int32, float32](data), nil
	case []int64:
		return convertSlice[int64, float32](data), nil
	default:
		return nil, fmt.Errorf("cannot convert %s tensor to float32", v.dtype)
	}
}

// AsFloat64 converts any numeric payload to float64, the canonical caller
// representation on the decode side. Text values are rejected.
func (v *Value) AsFloat64() ([]float64, error) {
	switch data := v.data.(type) {
	case []float32:
		return convertSlice[float32, float64](data), nil
	case []float64:
		return append([]float64(nil), data...), nil
	case []int32:
		return convertSlice[int32, float64](data), nil
	case []int64:
		return convertSlice[int64, float64](data), nil
	default:
		return nil, fmt.Errorf("cannot convert %s tensor to float64", v.dtype)
	}
}

func convertSlice[From ~float32 | ~float64 | ~int32 | ~int64, To float32 | float64 | int32 | int64](data []From) []To {
	out := make([]To, len(data))
	for i, x := range data {
		out[i] = To(x)
	}
	return out
}

func dtypeFromSlice[T ~float32 | ~float64 | ~int32 | ~int64](data []T) (DType, error) {
	var zero T
	switch any(zero).(type) {
	case float32:
		return DTypeFloat32, nil
	case float64:
		return DTypeFloat64, nil
	case int32:
		return DTypeInt32, nil
	case int64:
		return DTypeInt64, nil
	default:
		return "", fmt.Errorf("unsupported tensor data type %T", zero)
	}
}

// IsStatic reports whether every dimension of shape is a concrete positive
// size. A zero or DynamicDim dimension means the shape cannot be used to
// interpret a flat buffer on its own.
func IsStatic(shape []int64) bool {
	if len(shape) == 0 {
		return false
	}
	for _, dim := range shape {
		if dim < 1 {
			return false
		}
	}
	return true
}

// ElementCount returns the product of the shape's dimensions. The empty
// shape denotes a scalar and counts as one element.
func ElementCount(shape []int64) (int, error) {
	if len(shape) == 0 {
		return 1, nil
	}
	count := int64(1)
	for i, dim := range shape {
		if dim < 0 {
			return 0, fmt.Errorf("shape[%d]=%d is negative", i, dim)
		}
		if dim == 0 {
			return 0, nil
		}
		if count > math.MaxInt64/dim {
			return 0, fmt.Errorf("shape %v overflows element count", shape)
		}
		count *= dim
	}
	if count > int64(math.MaxInt) {
		return 0, fmt.Errorf("shape %v exceeds platform int capacity", shape)
	}
	return int(count), nil
}

func validateShapeAgainstData(shape []int64, dataLen int) error {
	count, err := ElementCount(shape)
	if err != nil {
		return err
	}
	if count != dataLen {
		return fmt.Errorf("shape %v expects %d elements, got %d", shape, count, dataLen)
	}
	return nil
}
