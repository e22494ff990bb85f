package filters_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/spectralworks/specmatch/pkg/filters"
)

var _ = Describe("normalize_intensities", func() {
	var step filters.Step

	BeforeEach(func() {
		step = mustStep("normalize_intensities", nil)
	})

	It("scales the highest peak to 1.0", func() {
		in := buildSpectrum([]float64{10, 20, 30, 40}, []float64{0, 1, 10, 100}, nil)

		out := step.Apply(in)

		Expect(out.Peaks().MaxIntensity()).To(Equal(1.0))
		Expect(out.Peaks().Mzs()).To(Equal([]float64{10, 20, 30, 40}))
		Expect(out.Peaks().Intensities()).To(Equal([]float64{0, 0.01, 0.1, 1.0}))
	})

	It("leaves the input spectrum unchanged", func() {
		in := buildSpectrum([]float64{10}, []float64{50}, nil)

		_ = step.Apply(in)

		Expect(in.Peaks().Intensities()).To(Equal([]float64{50}))
	})

	It("passes empty spectra through unchanged", func() {
		in := buildSpectrum(nil, nil, nil)

		out := step.Apply(in)

		Expect(out).NotTo(BeNil())
		Expect(out.NumPeaks()).To(BeZero())
	})

	It("rejects spectra without positive intensities", func() {
		in := buildSpectrum([]float64{10, 20}, []float64{0, -5}, nil)

		Expect(step.Apply(in)).To(BeNil())
	})
})

var _ = Describe("select_by_intensity", func() {
	DescribeTable("keeps peaks within the inclusive range",
		func(mzs, intensities []float64, from, to float64, wantMzs, wantIntensities []float64) {
			step := mustStep("select_by_intensity", filters.Options{
				"intensity_from": from,
				"intensity_to":   to,
			})

			out := step.Apply(buildSpectrum(mzs, intensities, nil))

			Expect(out.Peaks().Mzs()).To(Equal(wantMzs))
			Expect(out.Peaks().Intensities()).To(Equal(wantIntensities))
		},
		Entry("interior band",
			[]float64{10, 20, 30, 40}, []float64{1, 10, 100, 1000},
			10.0, 200.0,
			[]float64{20, 30}, []float64{10, 100}),
		Entry("bounds are inclusive",
			[]float64{998, 999, 1000, 1001, 1002}, []float64{198, 199, 200, 201, 202},
			10.0, 200.0,
			[]float64{998, 999, 1000}, []float64{198, 199, 200}),
		Entry("narrow band",
			[]float64{10, 20, 30, 40}, []float64{1, 10, 100, 1000},
			15.0, 135.0,
			[]float64{30}, []float64{100}),
	)
})

var _ = Describe("select_by_relative_intensity", func() {
	It("filters on intensity relative to the base peak", func() {
		step := mustStep("select_by_relative_intensity", filters.Options{
			"intensity_from": 0.1,
			"intensity_to":   1.0,
		})
		in := buildSpectrum([]float64{10, 20, 30}, []float64{5, 50, 100}, nil)

		out := step.Apply(in)

		Expect(out.Peaks().Mzs()).To(Equal([]float64{20, 30}))
	})
})

var _ = Describe("select_by_mz", func() {
	It("keeps peaks within the inclusive mz window", func() {
		step := mustStep("select_by_mz", filters.Options{"mz_from": 15.0, "mz_to": 30.0})
		in := buildSpectrum([]float64{10, 15, 20, 30, 35}, []float64{1, 2, 3, 4, 5}, nil)

		out := step.Apply(in)

		Expect(out.Peaks().Mzs()).To(Equal([]float64{15, 20, 30}))
	})
})

var _ = Describe("require_minimum_number_of_peaks", func() {
	It("rejects spectra below the default of 10 peaks", func() {
		step := mustStep("require_minimum_number_of_peaks", nil)
		in := buildSpectrum([]float64{10, 20}, []float64{1, 1}, nil)

		Expect(step.Apply(in)).To(BeNil())
	})

	It("keeps spectra meeting a custom threshold", func() {
		step := mustStep("require_minimum_number_of_peaks", filters.Options{"n_required": 2})
		in := buildSpectrum([]float64{10, 20}, []float64{1, 1}, nil)

		Expect(step.Apply(in)).NotTo(BeNil())
	})
})

var _ = Describe("reduce_to_number_of_peaks", func() {
	It("keeps everything with default parameters", func() {
		step := mustStep("reduce_to_number_of_peaks", nil)
		in := buildSpectrum([]float64{10, 20, 30, 40}, []float64{0, 1, 10, 100}, nil)

		out := step.Apply(in)

		Expect(out.Equal(in)).To(BeTrue())
	})

	It("rejects spectra below n_required", func() {
		step := mustStep("reduce_to_number_of_peaks", filters.Options{"n_required": 5})
		in := buildSpectrum([]float64{10, 20}, []float64{0.5, 1}, nil)

		Expect(step.Apply(in)).To(BeNil())
	})

	It("keeps the top n_max intensities in mz order", func() {
		step := mustStep("reduce_to_number_of_peaks", filters.Options{"n_max": 4})
		in := buildSpectrum([]float64{10, 20, 30, 40, 50}, []float64{1, 1, 10, 20, 100}, nil)

		out := step.Apply(in)

		Expect(out.Peaks().Mzs()).To(Equal([]float64{20, 30, 40, 50}))
	})

	It("scales the desired count with parent mass", func() {
		step := mustStep("reduce_to_number_of_peaks", filters.Options{
			"n_required":    2,
			"n_max":         4,
			"ratio_desired": 0.1,
		})
		in := buildSpectrum([]float64{10, 20, 30, 40}, []float64{0, 1, 10, 100},
			map[string]any{"parent_mass": 20})

		out := step.Apply(in)

		Expect(out.Peaks().Mzs()).To(Equal([]float64{30, 40}))
	})

	It("never drops below n_required", func() {
		step := mustStep("reduce_to_number_of_peaks", filters.Options{
			"n_required":    3,
			"n_max":         4,
			"ratio_desired": 0.1,
		})
		in := buildSpectrum([]float64{10, 20, 30, 40}, []float64{0, 1, 10, 100},
			map[string]any{"parent_mass": 20})

		out := step.Apply(in)

		Expect(out.Peaks().Mzs()).To(Equal([]float64{20, 30, 40}))
	})

	It("caps the desired count at n_max", func() {
		step := mustStep("reduce_to_number_of_peaks", filters.Options{
			"n_required":    3,
			"n_max":         4,
			"ratio_desired": 0.1,
		})
		in := buildSpectrum([]float64{10, 20, 30, 40, 50, 60}, []float64{1, 1, 10, 100, 50, 20},
			map[string]any{"parent_mass": 60})

		out := step.Apply(in)

		Expect(out.Peaks().Mzs()).To(Equal([]float64{30, 40, 50, 60}))
	})

	It("restores mz order after selecting by intensity", func() {
		step := mustStep("reduce_to_number_of_peaks", filters.Options{"n_max": 5})
		in := buildSpectrum([]float64{10, 20, 30, 40, 50, 60}, []float64{5, 1, 4, 3, 100, 2},
			map[string]any{"parent_mass": 20})

		out := step.Apply(in)

		Expect(out.Peaks().Mzs()).To(Equal([]float64{10, 30, 40, 50, 60}))
		Expect(out.Peaks().Intensities()).To(Equal([]float64{5, 4, 3, 100, 2}))
	})

	It("rejects ratio_desired without parent_mass", func() {
		step := mustStep("reduce_to_number_of_peaks", filters.Options{
			"n_required":    4,
			"ratio_desired": 0.1,
		})
		in := buildSpectrum([]float64{10, 20, 30, 40}, []float64{0, 1, 10, 100}, nil)

		Expect(step.Apply(in)).To(BeNil())
	})
})

var _ = Describe("require_precursor_below_mz", func() {
	It("keeps spectra below the default maximum", func() {
		step := mustStep("require_precursor_below_mz", nil)
		in := buildSpectrum([]float64{10, 20, 30, 40}, []float64{0, 1, 10, 100},
			map[string]any{"precursor_mz": 60.0})

		out := step.Apply(in)

		Expect(out.Equal(in)).To(BeTrue())
	})

	It("rejects spectra at or above a custom maximum", func() {
		step := mustStep("require_precursor_below_mz", filters.Options{"max_mz": 50})
		in := buildSpectrum([]float64{10, 20, 30, 40}, []float64{0, 1, 10, 100},
			map[string]any{"precursor_mz": 60.0})

		Expect(step.Apply(in)).To(BeNil())
	})

	It("returns a clone, not the input", func() {
		in := buildSpectrum([]float64{10}, []float64{1}, map[string]any{"precursor_mz": 1.0})
		step := mustStep("require_precursor_below_mz", nil)

		out := step.Apply(in)
		out.Set("testfield", "test")

		Expect(in.Has("testfield")).To(BeFalse())
	})

	It("rejects spectra without a precursor", func() {
		step := mustStep("require_precursor_below_mz", nil)
		in := buildSpectrum([]float64{10}, []float64{1}, nil)

		Expect(step.Apply(in)).To(BeNil())
	})
})

var _ = Describe("require_precursor_mz", func() {
	It("rejects a missing precursor", func() {
		step := mustStep("require_precursor_mz", nil)

		Expect(step.Apply(buildSpectrum([]float64{10}, []float64{1}, nil))).To(BeNil())
	})

	It("rejects precursors below the minimum", func() {
		step := mustStep("require_precursor_mz", filters.Options{"minimum_accepted_mz": 100})
		in := buildSpectrum([]float64{10}, []float64{1}, map[string]any{"precursor_mz": 50.0})

		Expect(step.Apply(in)).To(BeNil())
	})

	It("keeps precursors at or above the minimum", func() {
		step := mustStep("require_precursor_mz", nil)
		in := buildSpectrum([]float64{10}, []float64{1}, map[string]any{"precursor_mz": 50.0})

		Expect(step.Apply(in)).NotTo(BeNil())
	})
})

var _ = Describe("remove_peaks_around_precursor_mz", func() {
	It("drops peaks within the tolerance window", func() {
		step := mustStep("remove_peaks_around_precursor_mz", filters.Options{"mz_tolerance": 5})
		in := buildSpectrum([]float64{90, 98, 100, 103, 120}, []float64{1, 1, 1, 1, 1},
			map[string]any{"precursor_mz": 100.0})

		out := step.Apply(in)

		Expect(out.Peaks().Mzs()).To(Equal([]float64{90, 120}))
	})

	It("passes through without a precursor", func() {
		step := mustStep("remove_peaks_around_precursor_mz", nil)
		in := buildSpectrum([]float64{90, 100}, []float64{1, 1}, nil)

		out := step.Apply(in)

		Expect(out.NumPeaks()).To(Equal(2))
	})
})
