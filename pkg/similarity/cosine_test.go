package similarity

import (
	"math"

	. "github.com/onsi/ginkgo/v2/dsl/core"
	. "github.com/onsi/gomega"
)

var _ = Describe("CosineGreedy", func() {
	newMeasure := func(opts Options) *CosineGreedy {
		m, err := NewCosineGreedy(opts)
		Expect(err).NotTo(HaveOccurred())
		return m
	}

	It("reports its name and fields", func() {
		m := newMeasure(nil)
		Expect(m.Name()).To(Equal("CosineGreedy"))
		Expect(m.Fields()).To(Equal([]string{"score", "matches"}))
		Expect(m.Symmetric()).To(BeTrue())
	})

	It("scores identical spectra as 1.0 with all peaks matched", func() {
		m := newMeasure(nil)
		s := newSpectrum(
			[]float64{100, 200, 300},
			[]float64{0.1, 0.2, 1.0},
			nil,
		)

		score, err := m.Pair(s, s)
		Expect(err).NotTo(HaveOccurred())
		Expect(score.Score).To(BeNumerically("~", 1.0, 1e-9))
		Expect(score.Matches).To(Equal(3))
	})

	It("only matches peaks within the tolerance", func() {
		m := newMeasure(nil)
		ref := newSpectrum(
			[]float64{100, 200, 300, 500},
			[]float64{0.1, 0.2, 1.0, 0.5},
			nil,
		)
		query := newSpectrum(
			[]float64{100, 290, 490, 510},
			[]float64{0.3, 1.0, 0.2, 0.4},
			nil,
		)

		score, err := m.Pair(ref, query)
		Expect(err).NotTo(HaveOccurred())

		expected := 0.03 / math.Sqrt(1.30*1.29)
		Expect(score.Score).To(BeNumerically("~", expected, 1e-9))
		Expect(score.Matches).To(Equal(1))
	})

	It("uses each peak at most once, highest product first", func() {
		m := newMeasure(Options{"tolerance": 2.0})
		ref := newSpectrum(
			[]float64{100.0, 100.5},
			[]float64{1.0, 0.9},
			nil,
		)
		query := newSpectrum(
			[]float64{100.2, 100.6},
			[]float64{0.8, 1.0},
			nil,
		)

		score, err := m.Pair(ref, query)
		Expect(err).NotTo(HaveOccurred())

		// Greedy picks (ref 0, query 1) then (ref 1, query 0).
		expected := (1.0*1.0 + 0.9*0.8) / math.Sqrt(1.81*1.64)
		Expect(score.Score).To(BeNumerically("~", expected, 1e-9))
		Expect(score.Matches).To(Equal(2))
	})

	It("weights peaks by configured mz and intensity powers", func() {
		ref := newSpectrum([]float64{100, 200}, []float64{1, 1}, nil)
		query := newSpectrum([]float64{100, 300}, []float64{1, 1}, nil)

		plain := newMeasure(nil)
		score, err := plain.Pair(ref, query)
		Expect(err).NotTo(HaveOccurred())
		Expect(score.Score).To(BeNumerically("~", 0.5, 1e-9))

		weighted := newMeasure(Options{"mz_power": 1.0})
		score, err = weighted.Pair(ref, query)
		Expect(err).NotTo(HaveOccurred())
		Expect(score.Score).To(BeNumerically("~", 1/math.Sqrt(50), 1e-9))
	})

	It("scores zero when no peaks fall within the tolerance", func() {
		m := newMeasure(nil)
		ref := newSpectrum([]float64{100, 200}, []float64{1, 1}, nil)
		query := newSpectrum([]float64{150, 250}, []float64{1, 1}, nil)

		score, err := m.Pair(ref, query)
		Expect(err).NotTo(HaveOccurred())
		Expect(score).To(Equal(Score{}))
	})

	It("scores zero against an empty spectrum", func() {
		m := newMeasure(nil)
		ref := newSpectrum([]float64{100, 200}, []float64{1, 1}, nil)
		empty := newSpectrum(nil, nil, nil)

		score, err := m.Pair(ref, empty)
		Expect(err).NotTo(HaveOccurred())
		Expect(score).To(Equal(Score{}))
	})

	It("rejects a non-numeric tolerance option", func() {
		_, err := NewCosineGreedy(Options{"tolerance": "wide"})
		Expect(err).To(MatchError(ErrInvalidOption))
	})
})
