package record

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// CompressedExt marks record files stored zstd-compressed.
const CompressedExt = ".zst"

// WriteFile stores r as JSON at path, zstd-compressed when path ends in ".zst".
func WriteFile(path string, r Record) error {
	b, err := Encode(r)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if !strings.HasSuffix(path, CompressedExt) {
		return os.WriteFile(path, b, 0o644)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	if _, err := enc.Write(b); err != nil {
		_ = enc.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return f.Close()
}

// ReadFile loads and decodes a record written by WriteFile.
func ReadFile(path string) (Record, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Record{}, err
	}
	if strings.HasSuffix(path, CompressedExt) {
		dec, err := zstd.NewReader(bytes.NewReader(b))
		if err != nil {
			return Record{}, err
		}
		defer dec.Close()
		if b, err = io.ReadAll(dec); err != nil {
			return Record{}, err
		}
	}
	return Decode(b)
}
