// Package spectrum defines the core mass spectrum value: an ordered peak
// list plus a harmonized metadata mapping. Filters and readers treat a
// Spectrum as an immutable value, deriving transformed clones instead of
// mutating inputs in place.
package spectrum

import (
	"reflect"
)

// Peak is a single fragment peak: its mass-to-charge ratio and intensity.
type Peak struct {
	Mz        float64
	Intensity float64
}

// Peaks is an ordered peak list. Mz values are strictly ascending with no
// duplicates.
type Peaks []Peak

// NewPeaks builds a peak list from parallel mz and intensity slices.
// The mz values must already be strictly ascending.
func NewPeaks(mzs, intensities []float64) (Peaks, error) {
	if len(mzs) != len(intensities) {
		return nil, ErrPeakLengthMismatch
	}

	peaks := make(Peaks, len(mzs))
	for i := range mzs {
		peaks[i] = Peak{Mz: mzs[i], Intensity: intensities[i]}
	}

	for i := 1; i < len(peaks); i++ {
		if peaks[i].Mz <= peaks[i-1].Mz {
			return nil, ErrPeaksNotSorted
		}
	}

	return peaks, nil
}

// Mzs returns the mz values as a new slice.
func (p Peaks) Mzs() []float64 {
	out := make([]float64, len(p))
	for i, peak := range p {
		out[i] = peak.Mz
	}
	return out
}

// Intensities returns the intensity values as a new slice.
func (p Peaks) Intensities() []float64 {
	out := make([]float64, len(p))
	for i, peak := range p {
		out[i] = peak.Intensity
	}
	return out
}

// MaxIntensity returns the largest intensity, or 0 for an empty list.
func (p Peaks) MaxIntensity() float64 {
	max := 0.0
	for i, peak := range p {
		if i == 0 || peak.Intensity > max {
			max = peak.Intensity
		}
	}
	return max
}

// Clone returns an independent copy of the peak list.
func (p Peaks) Clone() Peaks {
	if p == nil {
		return nil
	}
	out := make(Peaks, len(p))
	copy(out, p)
	return out
}

// Spectrum is one mass spectrum: peaks, metadata and optional per-peak
// comments keyed by mz. A filter that rejects a spectrum returns nil, which
// downstream stages treat as absorbing.
type Spectrum struct {
	peaks        Peaks
	metadata     Metadata
	peakComments map[float64]string
}

// New creates a spectrum from a peak list and metadata. A nil metadata map
// is replaced with an empty one.
func New(peaks Peaks, metadata Metadata) *Spectrum {
	if metadata == nil {
		metadata = Metadata{}
	}
	return &Spectrum{peaks: peaks, metadata: metadata}
}

// Peaks returns the spectrum's peak list. Callers must not mutate it;
// use SetPeaks on a clone instead.
func (s *Spectrum) Peaks() Peaks {
	return s.peaks
}

// SetPeaks replaces the peak list.
func (s *Spectrum) SetPeaks(peaks Peaks) {
	s.peaks = peaks
}

// NumPeaks returns the number of peaks.
func (s *Spectrum) NumPeaks() int {
	return len(s.peaks)
}

// Metadata returns the spectrum's metadata mapping.
func (s *Spectrum) Metadata() Metadata {
	return s.metadata
}

// Get returns the metadata value stored under the harmonized key, or nil.
func (s *Spectrum) Get(key string) any {
	return s.metadata.Get(key)
}

// Set stores a metadata value under the harmonized key. A nil value marks
// the field as explicitly absent.
func (s *Spectrum) Set(key string, value any) {
	s.metadata.Set(key, value)
}

// Has reports whether the harmonized key is present, even with a nil value.
func (s *Spectrum) Has(key string) bool {
	return s.metadata.Has(key)
}

// Float reads a metadata value as a number. See Metadata.Float.
func (s *Spectrum) Float(key string) (float64, bool) {
	return s.metadata.Float(key)
}

// PeakComment returns the comment attached to the peak at mz, if any.
func (s *Spectrum) PeakComment(mz float64) (string, bool) {
	comment, ok := s.peakComments[mz]
	return comment, ok
}

// SetPeakComment attaches a comment to the peak at mz.
func (s *Spectrum) SetPeakComment(mz float64, comment string) {
	if s.peakComments == nil {
		s.peakComments = make(map[float64]string)
	}
	s.peakComments[mz] = comment
}

// Clone returns a deep copy. Mutating the clone's peaks, metadata or peak
// comments never affects the original.
func (s *Spectrum) Clone() *Spectrum {
	if s == nil {
		return nil
	}

	clone := &Spectrum{
		peaks:    s.peaks.Clone(),
		metadata: s.metadata.Clone(),
	}
	if s.peakComments != nil {
		clone.peakComments = make(map[float64]string, len(s.peakComments))
		for mz, comment := range s.peakComments {
			clone.peakComments[mz] = comment
		}
	}
	return clone
}

// Equal reports whether two spectra carry the same peaks, metadata and peak
// comments. Used by processing reports to count changed spectra.
func (s *Spectrum) Equal(other *Spectrum) bool {
	if s == nil || other == nil {
		return s == other
	}
	if len(s.peaks) != len(other.peaks) {
		return false
	}
	for i := range s.peaks {
		if s.peaks[i] != other.peaks[i] {
			return false
		}
	}
	if !reflect.DeepEqual(s.metadata, other.metadata) {
		return false
	}
	return reflect.DeepEqual(s.peakComments, other.peakComments)
}
