// internal/snapshot/snapshot.go
package snapshot

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"patchwork/internal/errors"
	"patchwork/internal/repo"

	"github.com/klauspost/compress/zstd"
)

// CompressedExt marks snapshot files that are always zstd compressed.
const CompressedExt = ".zst"

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// Options configures snapshot writing
type Options struct {
	// Compress with zstd regardless of the file extension
	Compress bool
	// Compression level (1=fastest, 4=best)
	Level int
}

func DefaultOptions() Options {
	return Options{Level: 2}
}

// Encode writes state as JSON, zstd compressed when compress is set.
func Encode(w io.Writer, state repo.State, compress bool, level int) error {
	if !compress {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(state); err != nil {
			return fmt.Errorf("encoding state: %w", err)
		}
		return nil
	}

	if level <= 0 {
		level = DefaultOptions().Level
	}
	zw, err := zstd.NewWriter(w,
		zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		return fmt.Errorf("creating encoder: %w", err)
	}
	if err := json.NewEncoder(zw).Encode(state); err != nil {
		zw.Close()
		return fmt.Errorf("encoding state: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("flushing compressed state: %w", err)
	}
	return nil
}

// Decode reads a state written by Encode. Compression is detected from the
// zstd frame header.
func Decode(r io.Reader) (repo.State, error) {
	var state repo.State

	br := bufio.NewReader(r)
	head, err := br.Peek(len(zstdMagic))
	if err != nil && err != io.EOF {
		return state, fmt.Errorf("reading state: %w", err)
	}

	var src io.Reader = br
	if bytes.Equal(head, zstdMagic) {
		dec, err := zstd.NewReader(br, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return state, fmt.Errorf("creating decoder: %w", err)
		}
		defer dec.Close()
		src = dec
	}

	if err := json.NewDecoder(src).Decode(&state); err != nil {
		if errors.TypeOf(err) != "" {
			return state, fmt.Errorf("decoding state: %w", err)
		}
		return state, errors.InvalidInput("decoding state", err.Error())
	}
	return state, nil
}

// Write stores state at path. The file is replaced atomically.
func Write(path string, state repo.State, opts Options) error {
	compress := opts.Compress || strings.EqualFold(filepath.Ext(path), CompressedExt)

	var buf bytes.Buffer
	if err := Encode(&buf, state, compress, opts.Level); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("moving snapshot into place: %w", err)
	}
	return nil
}

// Read loads a state from path.
func Read(path string) (repo.State, error) {
	f, err := os.Open(path)
	if err != nil {
		return repo.State{}, fmt.Errorf("opening snapshot: %w", err)
	}
	defer f.Close()

	return Decode(f)
}
