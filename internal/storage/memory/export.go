// internal/storage/memory/export.go
package memory

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/rcforge/levelcore/pkg/core"
)

// Compression selects how exported manifest files are compressed
type Compression string

const (
	CompressionNone Compression = "none"
	CompressionGzip Compression = "gzip"
	CompressionZstd Compression = "zstd"
)

// ParseCompression accepts none, gzip and zstd. Empty means none.
func ParseCompression(s string) (Compression, error) {
	switch Compression(strings.ToLower(s)) {
	case "", CompressionNone:
		return CompressionNone, nil
	case CompressionGzip:
		return CompressionGzip, nil
	case CompressionZstd:
		return CompressionZstd, nil
	}
	return "", fmt.Errorf("unknown manifest compression: %q", s)
}

// Ext is the file extension of an exported manifest
func (c Compression) Ext() string {
	switch c {
	case CompressionGzip:
		return ".json.gz"
	case CompressionZstd:
		return ".json.zst"
	}
	return ".json"
}

// exportFileName names the file of one manifest after its level directory,
// decode time and digest.
func exportFileName(m *core.Manifest, c Compression) string {
	name := filepath.Base(m.Path)
	if name == "." || name == string(filepath.Separator) || name == "" {
		name = "level"
	}
	name = strings.NewReplacer(" ", "_", ":", "_").Replace(name)
	return fmt.Sprintf("%s_%s_%s%s", name, m.DecodedAt.Format("20060102_150405"), m.Digest()[:8], c.Ext())
}

// export writes m into the output directory and returns the file path
func (b *Backend) export(m *core.Manifest) (string, error) {
	outputPath := filepath.Join(b.cfg.OutputDir, exportFileName(m, b.compression))

	f, err := os.Create(outputPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	if err := WriteManifest(f, m, b.compression); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", outputPath, err)
	}
	return outputPath, nil
}

// WriteManifest encodes m as JSON with compression c
func WriteManifest(w io.Writer, m *core.Manifest, c Compression) error {
	switch c {
	case CompressionGzip:
		gzWriter := gzip.NewWriter(w)
		if err := json.NewEncoder(gzWriter).Encode(m); err != nil {
			gzWriter.Close()
			return err
		}
		return gzWriter.Close()
	case CompressionZstd:
		enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return err
		}
		if err := json.NewEncoder(enc).Encode(m); err != nil {
			enc.Close()
			return err
		}
		return enc.Close()
	default:
		return json.NewEncoder(w).Encode(m)
	}
}

// ReadManifest reads an exported manifest file, picking the decompressor
// from the file extension.
func ReadManifest(path string) (*core.Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	switch {
	case strings.HasSuffix(path, CompressionGzip.Ext()):
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	case strings.HasSuffix(path, CompressionZstd.Ext()):
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		defer dec.Close()
		r = dec
	}

	var m core.Manifest
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &m, nil
}
