// Package msp reads and writes the MSP spectral text format: one record
// per spectrum with KEY: value metadata lines, a NUM PEAKS count and one
// peak per line, records separated by blank lines.
package msp

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spectralworks/specmatch/pkg/logger"
	"github.com/spectralworks/specmatch/pkg/spectrum"
)

const numPeaksKey = "num peaks"

// isNumPeaksKey matches the peak count marker in both its file spelling
// and its harmonized metadata spelling.
func isNumPeaksKey(key string) bool {
	key = strings.ReplaceAll(strings.ToLower(key), "_", " ")
	return strings.HasPrefix(key, numPeaksKey)
}

// ReadFile reads every record of an MSP file.
func ReadFile(path string, log *slog.Logger) ([]*spectrum.Spectrum, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening msp file: %w", err)
	}
	defer f.Close()

	spectra, err := Read(f, log)
	if err != nil {
		return nil, fmt.Errorf("reading msp file %q: %w", path, err)
	}
	return spectra, nil
}

// Read parses MSP records from a reader. Malformed records are logged and
// skipped; only I/O failures abort the read. Keys are matched ignoring
// case and peaks may be separated by tabs or spaces.
func Read(r io.Reader, log *slog.Logger) ([]*spectrum.Spectrum, error) {
	if log == nil {
		log = logger.Nop()
	}

	var spectra []*spectrum.Spectrum
	rec := newRecord()
	flush := func() {
		if s := rec.build(log); s != nil {
			spectra = append(spectra, s)
		}
		rec = newRecord()
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			flush()
			continue
		}

		if rec.inPeaks {
			rec.addPeakLine(line)
			continue
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			rec.fail("line without key", line)
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		if isNumPeaksKey(key) {
			n, err := strconv.Atoi(value)
			if err != nil {
				rec.fail("invalid peak count", value)
				continue
			}
			rec.declared = n
			rec.inPeaks = true
			continue
		}
		rec.metadata.Set(key, value)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning msp records: %w", err)
	}
	flush()

	return spectra, nil
}

// record accumulates one MSP entry while scanning.
type record struct {
	metadata spectrum.Metadata
	mzs      []float64
	ints     []float64
	comments map[float64]string

	declared int
	inPeaks  bool
	badLine  string
	badWhy   string
}

func newRecord() *record {
	return &record{
		metadata: spectrum.Metadata{},
		comments: make(map[float64]string),
		declared: -1,
	}
}

func (rec *record) fail(why, line string) {
	if rec.badWhy == "" {
		rec.badWhy = why
		rec.badLine = line
	}
}

func (rec *record) addPeakLine(line string) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		rec.fail("short peak line", line)
		return
	}
	mz, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		rec.fail("invalid peak mz", line)
		return
	}
	intensity, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		rec.fail("invalid peak intensity", line)
		return
	}

	rec.mzs = append(rec.mzs, mz)
	rec.ints = append(rec.ints, intensity)
	if len(fields) > 2 {
		comment := strings.Trim(strings.Join(fields[2:], " "), `"`)
		rec.comments[mz] = comment
	}
}

// build turns the accumulated record into a spectrum, or nil for empty or
// malformed records.
func (rec *record) build(log *slog.Logger) *spectrum.Spectrum {
	if rec.badWhy != "" {
		log.Warn("skipping malformed msp record", "reason", rec.badWhy, "line", rec.badLine)
		return nil
	}
	if len(rec.metadata) == 0 && len(rec.mzs) == 0 {
		return nil
	}
	if rec.declared >= 0 && rec.declared != len(rec.mzs) {
		log.Warn("msp peak count mismatch",
			"declared", rec.declared,
			"found", len(rec.mzs))
	}

	sort.Sort(&peakSorter{mzs: rec.mzs, ints: rec.ints})
	peaks, err := spectrum.NewPeaks(rec.mzs, rec.ints)
	if err != nil {
		log.Warn("skipping msp record with unusable peaks", "error", err)
		return nil
	}

	s := spectrum.New(peaks, rec.metadata)
	for mz, comment := range rec.comments {
		s.SetPeakComment(mz, comment)
	}
	return s
}

type peakSorter struct {
	mzs  []float64
	ints []float64
}

func (p *peakSorter) Len() int           { return len(p.mzs) }
func (p *peakSorter) Less(i, j int) bool { return p.mzs[i] < p.mzs[j] }
func (p *peakSorter) Swap(i, j int) {
	p.mzs[i], p.mzs[j] = p.mzs[j], p.mzs[i]
	p.ints[i], p.ints[j] = p.ints[j], p.ints[i]
}

// WriteFile writes spectra as an MSP file.
func WriteFile(path string, spectra []*spectrum.Spectrum) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating msp file: %w", err)
	}

	if err := Write(f, spectra); err != nil {
		f.Close()
		return fmt.Errorf("writing msp file %q: %w", path, err)
	}
	return f.Close()
}

// Write serializes spectra as MSP records: metadata keys uppercased and
// sorted, nil values skipped, peaks tab-separated with the comment quoted.
func Write(w io.Writer, spectra []*spectrum.Spectrum) error {
	bw := bufio.NewWriter(w)
	for _, s := range spectra {
		if err := writeRecord(bw, s); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func writeRecord(w *bufio.Writer, s *spectrum.Spectrum) error {
	meta := s.Metadata()
	for _, key := range meta.Keys() {
		if isNumPeaksKey(key) {
			continue
		}
		value := meta.Get(key)
		if value == nil {
			continue
		}
		if _, err := fmt.Fprintf(w, "%s: %v\n", strings.ToUpper(key), value); err != nil {
			return err
		}
	}

	peaks := s.Peaks()
	if _, err := fmt.Fprintf(w, "NUM PEAKS: %d\n", len(peaks)); err != nil {
		return err
	}
	for _, p := range peaks {
		line := strconv.FormatFloat(p.Mz, 'g', -1, 64) + "\t" + strconv.FormatFloat(p.Intensity, 'g', -1, 64)
		if c, ok := s.PeakComment(p.Mz); ok {
			line += "\t" + strconv.Quote(c)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintln(w)
	return err
}
