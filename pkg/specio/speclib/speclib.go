// Package speclib stores spectra in a SQLite library file.
//
// Each spectrum occupies one row: the harmonized metadata as a JSON
// document, the peak list as an interleaved little-endian float64 blob,
// and the precursor m/z denormalized into its own column so external
// tools can query the library without decoding blobs.
package speclib

import (
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"

	_ "github.com/mattn/go-sqlite3"

	"github.com/spectralworks/specmatch/pkg/spectrum"
)

const schema = `
CREATE TABLE IF NOT EXISTS spectra (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	precursor_mz REAL,
	metadata TEXT NOT NULL,
	peaks BLOB NOT NULL
)`

// peakStride is the encoded size of one peak: two float64 values.
const peakStride = 16

// Load reads every spectrum from the library at path in insertion order.
func Load(path string) ([]*spectrum.Spectrum, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("opening spectral library: %w", err)
	}

	db, err := open(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.Query(`SELECT metadata, peaks FROM spectra ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying spectra: %w", err)
	}
	defer rows.Close()

	var spectra []*spectrum.Spectrum
	for rows.Next() {
		var doc string
		var blob []byte
		if err := rows.Scan(&doc, &blob); err != nil {
			return nil, fmt.Errorf("scanning spectrum row: %w", err)
		}

		var meta spectrum.Metadata
		if err := json.Unmarshal([]byte(doc), &meta); err != nil {
			return nil, fmt.Errorf("decoding spectrum metadata: %w", err)
		}
		peaks, err := deserializePeaks(blob)
		if err != nil {
			return nil, fmt.Errorf("decoding spectrum peaks: %w", err)
		}
		spectra = append(spectra, spectrum.New(peaks, meta))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading spectra: %w", err)
	}

	return spectra, nil
}

// Save writes spectra to the library at path, replacing any existing
// contents. The file is created if it does not exist.
func Save(path string, spectra []*spectrum.Spectrum) error {
	db, err := open(path)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning library transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM spectra`); err != nil {
		return fmt.Errorf("clearing spectra table: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO spectra (precursor_mz, metadata, peaks) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing spectrum insert: %w", err)
	}
	defer stmt.Close()

	for i, s := range spectra {
		doc, err := json.Marshal(s.Metadata())
		if err != nil {
			return fmt.Errorf("encoding metadata for spectrum %d: %w", i, err)
		}

		var precursor any
		if v, ok := s.Float("precursor_mz"); ok {
			precursor = v
		}

		if _, err := stmt.Exec(precursor, string(doc), serializePeaks(s.Peaks())); err != nil {
			return fmt.Errorf("inserting spectrum %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing library transaction: %w", err)
	}

	return nil
}

func open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening spectral library: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating spectra table: %w", err)
	}
	return db, nil
}

// serializePeaks encodes peaks as little-endian (mz, intensity) float64
// pairs.
func serializePeaks(peaks spectrum.Peaks) []byte {
	buf := make([]byte, len(peaks)*peakStride)
	for i, p := range peaks {
		binary.LittleEndian.PutUint64(buf[i*peakStride:], math.Float64bits(p.Mz))
		binary.LittleEndian.PutUint64(buf[i*peakStride+8:], math.Float64bits(p.Intensity))
	}
	return buf
}

func deserializePeaks(b []byte) (spectrum.Peaks, error) {
	if len(b)%peakStride != 0 {
		return nil, fmt.Errorf("invalid peaks blob length %d: must be a multiple of %d", len(b), peakStride)
	}
	peaks := make(spectrum.Peaks, len(b)/peakStride)
	for i := range peaks {
		peaks[i] = spectrum.Peak{
			Mz:        math.Float64frombits(binary.LittleEndian.Uint64(b[i*peakStride:])),
			Intensity: math.Float64frombits(binary.LittleEndian.Uint64(b[i*peakStride+8:])),
		}
	}
	return peaks, nil
}
