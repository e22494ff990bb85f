package testutils

import (
	"path/filepath"

	"github.com/spectralworks/specmatch/pkg/specio"
	"github.com/spectralworks/specmatch/pkg/spectrum"
)

// NewTestSpectrum creates a simple named spectrum for testing
func NewTestSpectrum(name string, mzs, intensities []float64) (*spectrum.Spectrum, error) {
	peaks, err := spectrum.NewPeaks(mzs, intensities)
	if err != nil {
		return nil, err
	}
	return spectrum.New(peaks, spectrum.NewMetadata(map[string]any{"name": name})), nil
}

// WriteOverlapSpectra writes a two-spectrum MSP file into dir whose peak
// lists share every m/z, so any similarity measure scores every pair above
// zero. Returns the file path.
func WriteOverlapSpectra(dir string) (string, error) {
	one, err := NewTestSpectrum("One", []float64{100, 200}, []float64{1.0, 0.1})
	if err != nil {
		return "", err
	}
	two, err := NewTestSpectrum("Two", []float64{100, 200}, []float64{0.1, 1.0})
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, "spectra.msp")
	if err := specio.Save(path, []*spectrum.Spectrum{one, two}); err != nil {
		return "", err
	}
	return path, nil
}
