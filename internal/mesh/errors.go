package mesh

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is checks.
var (
	ErrAssetShape = errors.New("unsupported asset shape")
	ErrIndexRange = errors.New("index exceeds 16-bit range")
)

// ReadError wraps a failure to read the asset file. The underlying fs
// error is preserved, so errors.Is(err, fs.ErrNotExist) works.
type ReadError struct {
	Name string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("reading %s: %v", e.Name, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// ShapeError reports an asset that is not exactly one mesh with one
// primitive carrying indices, positions and normals.
type ShapeError struct {
	Name   string
	Reason string
	Err    error
}

func (e *ShapeError) Error() string {
	msg := fmt.Sprintf("%s: %v: %s", e.Name, ErrAssetShape, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ShapeError) Is(target error) bool {
	return target == ErrAssetShape
}

func (e *ShapeError) Unwrap() error {
	return e.Err
}

// IndexRangeError reports an index that does not fit in 16 bits.
type IndexRangeError struct {
	Name     string
	Position int
	Value    uint32
}

func (e *IndexRangeError) Error() string {
	return fmt.Sprintf("%s: index %d is %d: %v", e.Name, e.Position, e.Value, ErrIndexRange)
}

func (e *IndexRangeError) Is(target error) bool {
	return target == ErrIndexRange
}
