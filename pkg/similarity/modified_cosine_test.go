package similarity

import (
	"math"

	. "github.com/onsi/ginkgo/v2/dsl/core"
	. "github.com/onsi/gomega"

	"github.com/spectralworks/specmatch/pkg/spectrum"
)

var _ = Describe("ModifiedCosine", func() {
	newMeasure := func(opts Options) *ModifiedCosine {
		m, err := NewModifiedCosine(opts)
		Expect(err).NotTo(HaveOccurred())
		return m
	}

	It("matches peaks shifted by the precursor mass difference", func() {
		m := newMeasure(nil)
		ref := newSpectrum(
			[]float64{100, 150, 200},
			[]float64{0.7, 0.2, 0.1},
			spectrum.Metadata{"precursor_mz": 505.0},
		)
		query := newSpectrum(
			[]float64{105, 155, 205},
			[]float64{0.7, 0.2, 0.1},
			spectrum.Metadata{"precursor_mz": 510.0},
		)

		score, err := m.Pair(ref, query)
		Expect(err).NotTo(HaveOccurred())
		Expect(score.Score).To(BeNumerically("~", 1.0, 1e-9))
		Expect(score.Matches).To(Equal(3))
	})

	It("combines direct and shifted matches", func() {
		m := newMeasure(nil)
		ref := newSpectrum(
			[]float64{100, 110, 200},
			[]float64{1, 0.5, 0.2},
			spectrum.Metadata{"precursor_mz": 250.0},
		)
		query := newSpectrum(
			[]float64{100, 130, 220},
			[]float64{1, 0.5, 0.2},
			spectrum.Metadata{"precursor_mz": 270.0},
		)

		score, err := m.Pair(ref, query)
		Expect(err).NotTo(HaveOccurred())
		Expect(score.Score).To(BeNumerically("~", 1.0, 1e-9))
		Expect(score.Matches).To(Equal(3))
	})

	It("uses a reference peak for either a direct or a shifted match, not both", func() {
		m := newMeasure(nil)
		ref := newSpectrum(
			[]float64{100},
			[]float64{1.0},
			spectrum.Metadata{"precursor_mz": 495.0},
		)
		query := newSpectrum(
			[]float64{100, 105},
			[]float64{0.8, 0.9},
			spectrum.Metadata{"precursor_mz": 500.0},
		)

		score, err := m.Pair(ref, query)
		Expect(err).NotTo(HaveOccurred())

		expected := 0.9 / math.Sqrt(1.45)
		Expect(score.Score).To(BeNumerically("~", expected, 1e-9))
		Expect(score.Matches).To(Equal(1))
	})

	It("behaves like the plain cosine when precursors are equal", func() {
		modified := newMeasure(nil)
		plain, err := NewCosineGreedy(nil)
		Expect(err).NotTo(HaveOccurred())

		ref := newSpectrum(
			[]float64{100, 200, 300},
			[]float64{0.4, 1.0, 0.1},
			spectrum.Metadata{"precursor_mz": 350.0},
		)
		query := newSpectrum(
			[]float64{100, 210, 300},
			[]float64{0.9, 0.4, 0.5},
			spectrum.Metadata{"precursor_mz": 350.0},
		)

		modifiedScore, err := modified.Pair(ref, query)
		Expect(err).NotTo(HaveOccurred())
		plainScore, err := plain.Pair(ref, query)
		Expect(err).NotTo(HaveOccurred())
		Expect(modifiedScore).To(Equal(plainScore))
	})

	It("rejects spectra without a precursor m/z", func() {
		m := newMeasure(nil)
		withPrecursor := newSpectrum(
			[]float64{100},
			[]float64{1.0},
			spectrum.Metadata{"precursor_mz": 500.0},
		)
		withoutPrecursor := newSpectrum([]float64{100}, []float64{1.0}, nil)

		_, err := m.Pair(withoutPrecursor, withPrecursor)
		Expect(err).To(MatchError(ErrMissingPrecursorMz))
		Expect(err.Error()).To(ContainSubstring("reference spectrum"))

		_, err = m.Pair(withPrecursor, withoutPrecursor)
		Expect(err).To(MatchError(ErrMissingPrecursorMz))
		Expect(err.Error()).To(ContainSubstring("query spectrum"))
	})
})
