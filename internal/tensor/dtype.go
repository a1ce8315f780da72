// Package tensor provides the dense N-dimensional array types consumed by
// the sumex contraction engine.
package tensor

// DType is a constraint for supported tensor data types.
// It uses Go generics to ensure compile-time type safety.
//
// float16 has no native Go representation; Float16 tensors are built via
// Cast or NewRaw and accessed through the float accessors.
type DType interface {
	~float32 | ~float64 | ~int32 | ~int64 | ~uint8 | ~bool
}

// DataType represents runtime type information for tensors.
type DataType int

// Supported data types for tensors.
const (
	Float32 DataType = iota
	Float64
	Float16
	Int32
	Int64
	Uint8
	Bool
)

// Size returns the byte size of the data type.
func (dt DataType) Size() int {
	switch dt {
	case Float32, Int32:
		return 4
	case Float64, Int64:
		return 8
	case Float16:
		return 2
	case Uint8, Bool:
		return 1
	default:
		panic("unknown data type")
	}
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Float16:
		return "float16"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Uint8:
		return "uint8"
	case Bool:
		return "bool"
	default:
		return "unknown"
	}
}

// IsFloat reports whether the data type is a floating-point type.
func (dt DataType) IsFloat() bool {
	return dt == Float16 || dt == Float32 || dt == Float64
}

// promotionRank orders data types for widening promotion.
func (dt DataType) promotionRank() int {
	switch dt {
	case Bool:
		return 0
	case Uint8:
		return 1
	case Int32:
		return 2
	case Int64:
		return 3
	case Float16:
		return 4
	case Float32:
		return 5
	case Float64:
		return 6
	default:
		panic("unknown data type")
	}
}

// Promote returns the widening promotion of two data types.
// It is total and commutative: integer+float promotes to the float,
// narrower types promote to wider ones.
func Promote(a, b DataType) DataType {
	if a.promotionRank() >= b.promotionRank() {
		return a
	}
	return b
}

// PromoteAll folds Promote over a non-empty list of data types.
func PromoteAll(dtypes ...DataType) DataType {
	if len(dtypes) == 0 {
		panic("PromoteAll: no data types given")
	}
	dt := dtypes[0]
	for _, other := range dtypes[1:] {
		dt = Promote(dt, other)
	}
	return dt
}

// inferDataType infers DataType from a generic type T.
func inferDataType[T DType](dummy T) DataType {
	switch any(dummy).(type) {
	case float32:
		return Float32
	case float64:
		return Float64
	case int32:
		return Int32
	case int64:
		return Int64
	case uint8:
		return Uint8
	case bool:
		return Bool
	default:
		panic("unsupported type")
	}
}
