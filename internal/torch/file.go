package torch

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// File is the typed read interface over a serialized Torch file. Torch7
// wrote native-endian data; in practice every published model is
// little-endian, which is what BinaryFile assumes.
type File interface {
	ReadInt() (int32, error)
	ReadLong() (int64, error)
	ReadDouble() (float64, error)
	ReadString() (string, error)

	ReadByteArray(n int) ([]byte, error)
	ReadShortArray(n int) ([]int16, error)
	ReadIntArray(n int) ([]int32, error)
	ReadLongArray(n int) ([]int64, error)
	ReadFloatArray(n int) ([]float32, error)
	ReadDoubleArray(n int) ([]float64, error)

	Position() (int64, error)
	Seek(pos int64) error
}

// BinaryFile reads the binary Torch serialization from a seekable
// source: 4-byte ints, 8-byte longs and doubles, length-prefixed
// strings, all little-endian.
type BinaryFile struct {
	r io.ReadSeeker
	c io.Closer
}

// NewBinaryFile wraps an in-memory or already-open source.
func NewBinaryFile(r io.ReadSeeker) *BinaryFile {
	return &BinaryFile{r: r}
}

// OpenBinaryFile opens a model file from disk. Close releases it.
func OpenBinaryFile(path string) (*BinaryFile, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path is provided by the caller on purpose.
	if err != nil {
		return nil, err
	}
	return &BinaryFile{r: f, c: f}, nil
}

// Close releases the underlying file, if any.
func (f *BinaryFile) Close() error {
	if f.c != nil {
		return f.c.Close()
	}
	return nil
}

func (f *BinaryFile) read(v interface{}) error {
	if err := binary.Read(f.r, binary.LittleEndian, v); err != nil {
		return fmt.Errorf("torch file read: %w", err)
	}
	return nil
}

// ReadInt reads a 4-byte integer.
func (f *BinaryFile) ReadInt() (int32, error) {
	var v int32
	err := f.read(&v)
	return v, err
}

// ReadLong reads an 8-byte integer.
func (f *BinaryFile) ReadLong() (int64, error) {
	var v int64
	err := f.read(&v)
	return v, err
}

// ReadDouble reads an 8-byte float.
func (f *BinaryFile) ReadDouble() (float64, error) {
	var v float64
	err := f.read(&v)
	return v, err
}

// ReadString reads a 4-byte length followed by that many raw bytes.
func (f *BinaryFile) ReadString() (string, error) {
	n, err := f.ReadInt()
	if err != nil {
		return "", err
	}
	if n < 0 {
		return "", fmt.Errorf("torch file read: negative string length %d", n)
	}
	b, err := f.ReadByteArray(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ReadByteArray reads n raw bytes.
func (f *BinaryFile) ReadByteArray(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(f.r, b); err != nil {
		return nil, fmt.Errorf("torch file read: %w", err)
	}
	return b, nil
}

// ReadShortArray reads n 2-byte integers.
func (f *BinaryFile) ReadShortArray(n int) ([]int16, error) {
	v := make([]int16, n)
	err := f.read(v)
	return v, err
}

// ReadIntArray reads n 4-byte integers.
func (f *BinaryFile) ReadIntArray(n int) ([]int32, error) {
	v := make([]int32, n)
	err := f.read(v)
	return v, err
}

// ReadLongArray reads n 8-byte integers.
func (f *BinaryFile) ReadLongArray(n int) ([]int64, error) {
	v := make([]int64, n)
	err := f.read(v)
	return v, err
}

// ReadFloatArray reads n 4-byte floats.
func (f *BinaryFile) ReadFloatArray(n int) ([]float32, error) {
	v := make([]float32, n)
	err := f.read(v)
	return v, err
}

// ReadDoubleArray reads n 8-byte floats.
func (f *BinaryFile) ReadDoubleArray(n int) ([]float64, error) {
	v := make([]float64, n)
	err := f.read(v)
	return v, err
}

// Position returns the current byte offset.
func (f *BinaryFile) Position() (int64, error) {
	return f.r.Seek(0, io.SeekCurrent)
}

// Seek moves to an absolute byte offset.
func (f *BinaryFile) Seek(pos int64) error {
	_, err := f.r.Seek(pos, io.SeekStart)
	return err
}
