package similarity

import (
	. "github.com/onsi/ginkgo/v2/dsl/core"
	. "github.com/onsi/gomega"

	"github.com/spectralworks/specmatch/pkg/spectrum"
)

var _ = Describe("NeutralLossesCosine", func() {
	newMeasure := func(opts Options) *NeutralLossesCosine {
		m, err := NewNeutralLossesCosine(opts)
		Expect(err).NotTo(HaveOccurred())
		return m
	}

	It("matches spectra with equal neutral losses at different mz", func() {
		m := newMeasure(nil)
		ref := newSpectrum(
			[]float64{100, 200, 300},
			[]float64{0.7, 0.2, 0.1},
			spectrum.Metadata{"precursor_mz": 400.0},
		)
		query := newSpectrum(
			[]float64{110, 210, 310},
			[]float64{0.7, 0.2, 0.1},
			spectrum.Metadata{"precursor_mz": 410.0},
		)

		score, err := m.Pair(ref, query)
		Expect(err).NotTo(HaveOccurred())
		Expect(score.Score).To(BeNumerically("~", 1.0, 1e-9))
		Expect(score.Matches).To(Equal(3))
	})

	It("discards peaks above the precursor", func() {
		m := newMeasure(nil)
		ref := newSpectrum(
			[]float64{50, 120},
			[]float64{0.5, 1.0},
			spectrum.Metadata{"precursor_mz": 100.0},
		)
		query := newSpectrum(
			[]float64{50},
			[]float64{1.0},
			spectrum.Metadata{"precursor_mz": 100.0},
		)

		score, err := m.Pair(ref, query)
		Expect(err).NotTo(HaveOccurred())

		// The 120 peak maps to a negative loss and drops out of the norm.
		Expect(score.Score).To(BeNumerically("~", 1.0, 1e-9))
		Expect(score.Matches).To(Equal(1))
	})

	It("scores zero when losses do not align", func() {
		m := newMeasure(nil)
		ref := newSpectrum(
			[]float64{100, 200},
			[]float64{1.0, 0.5},
			spectrum.Metadata{"precursor_mz": 400.0},
		)
		query := newSpectrum(
			[]float64{100, 200},
			[]float64{1.0, 0.5},
			spectrum.Metadata{"precursor_mz": 450.0},
		)

		score, err := m.Pair(ref, query)
		Expect(err).NotTo(HaveOccurred())
		Expect(score).To(Equal(Score{}))
	})

	It("rejects spectra without a precursor m/z", func() {
		m := newMeasure(nil)
		withPrecursor := newSpectrum(
			[]float64{100},
			[]float64{1.0},
			spectrum.Metadata{"precursor_mz": 400.0},
		)
		withoutPrecursor := newSpectrum([]float64{100}, []float64{1.0}, nil)

		_, err := m.Pair(withoutPrecursor, withPrecursor)
		Expect(err).To(MatchError(ErrMissingPrecursorMz))

		_, err = m.Pair(withPrecursor, withoutPrecursor)
		Expect(err).To(MatchError(ErrMissingPrecursorMz))
	})
})
