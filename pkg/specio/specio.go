// Package specio loads and saves spectrum collections, dispatching on the
// file extension. MSP text files and SQLite spectral libraries are
// supported.
package specio

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spectralworks/specmatch/pkg/specio/msp"
	"github.com/spectralworks/specmatch/pkg/specio/speclib"
	"github.com/spectralworks/specmatch/pkg/spectrum"
)

// Supported reports whether the file extension maps to a known format.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".msp", ".db", ".sqlite":
		return true
	}
	return false
}

// Load reads every spectrum from one source file. The format follows the
// file extension: .msp for text records, .db or .sqlite for libraries.
func Load(path string, log *slog.Logger) ([]*spectrum.Spectrum, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".msp":
		return msp.ReadFile(path, log)
	case ".db", ".sqlite":
		return speclib.Load(path)
	}
	return nil, fmt.Errorf("loading %q: %w", path, ErrUnsupportedFormat)
}

// Save writes spectra to one target file, dispatching like Load.
func Save(path string, spectra []*spectrum.Spectrum) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".msp":
		return msp.WriteFile(path, spectra)
	case ".db", ".sqlite":
		return speclib.Save(path, spectra)
	}
	return fmt.Errorf("saving %q: %w", path, ErrUnsupportedFormat)
}
