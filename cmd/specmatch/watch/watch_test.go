package watchcmder_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	watchcmder "github.com/spectralworks/specmatch/cmd/specmatch/watch"
	"github.com/spectralworks/specmatch/pkg/logger"
	"github.com/spectralworks/specmatch/pkg/specio"
	testutils "github.com/spectralworks/specmatch/pkg/utils/test"
)

const scoringWorkflow = `query_filters:
reference_filters:
score_computations:
  - [cosinegreedy, {tolerance: 0.2}]
`

var _ = Describe("NewWatchCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := watchcmder.NewWatchCmd()
		Expect(cmd.Use).To(Equal("watch <directory>"))
	})

	It("has the workflow, references, and output flags", func() {
		cmd := watchcmder.NewWatchCmd()
		Expect(cmd.Flags().Lookup("workflow")).NotTo(BeNil())
		Expect(cmd.Flags().Lookup("references")).NotTo(BeNil())
		Expect(cmd.Flags().Lookup("output-dir")).NotTo(BeNil())
		Expect(cmd.Flags().Lookup("workers")).NotTo(BeNil())
	})

	It("requires exactly one directory argument", func() {
		cmd := watchcmder.NewWatchCmd()
		Expect(cmd.Args(cmd, []string{})).To(HaveOccurred())
		Expect(cmd.Args(cmd, []string{"a", "b"})).To(HaveOccurred())
	})
})

var _ = Describe("Watch command execution", func() {
	var (
		tmpDir   string
		origDir  string
		watchDir string
		outDir   string
		wfPath   string
		refPath  string
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "specmatch-watch-test-*")
		Expect(err).NotTo(HaveOccurred())

		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())

		// Create a local .specmatch dir so the manager picks it up
		err = os.MkdirAll(filepath.Join(tmpDir, ".specmatch"), 0o755)
		Expect(err).NotTo(HaveOccurred())

		err = os.Chdir(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		watchDir = filepath.Join(tmpDir, "incoming")
		Expect(os.MkdirAll(watchDir, 0o755)).To(Succeed())
		outDir = filepath.Join(tmpDir, "results")

		wfPath = filepath.Join(tmpDir, "workflow.yaml")
		err = os.WriteFile(wfPath, []byte(scoringWorkflow), 0o644)
		Expect(err).NotTo(HaveOccurred())

		// The reference file lives outside the watched directory.
		refPath, err = testutils.WriteOverlapSpectra(tmpDir)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		err := os.Chdir(origDir)
		Expect(err).NotTo(HaveOccurred())
		os.RemoveAll(tmpDir)
	})

	// dropSpectra copies the reference file into the watched directory
	// under the given name.
	dropSpectra := func(name string) {
		data, err := os.ReadFile(refPath)
		Expect(err).NotTo(HaveOccurred())
		Expect(os.WriteFile(filepath.Join(watchDir, name), data, 0o644)).To(Succeed())
	}

	It("errors when the directory does not exist", func() {
		cmd := watchcmder.NewWatchCmd()
		cmd.SetArgs([]string{"-f", wfPath, "-r", refPath, filepath.Join(tmpDir, "missing")})
		err := cmd.Execute()
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("checking watch directory"))
	})

	It("errors when no references are available", func() {
		cmd := watchcmder.NewWatchCmd()
		cmd.SetArgs([]string{"-f", wfPath, watchDir})
		err := cmd.Execute()
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("no references"))
	})

	It("errors when no workflow is configured", func() {
		cmd := watchcmder.NewWatchCmd()
		cmd.SetArgs([]string{"-r", refPath, watchDir})
		err := cmd.Execute()
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("workflow init"))
	})

	It("scores files dropped into the watched directory", func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		cmd := watchcmder.NewWatchCmd()
		cmd.SetArgs([]string{"-f", wfPath, "-r", refPath, "-o", outDir, watchDir})

		errChan := make(chan error, 1)
		go func() {
			errChan <- cmd.ExecuteContext(ctx)
		}()

		// Give the watcher a beat to register before dropping files.
		time.Sleep(200 * time.Millisecond)

		Expect(os.WriteFile(filepath.Join(watchDir, "notes.txt"), []byte("not spectra"), 0o644)).To(Succeed())
		dropSpectra("drop.msp")

		outPath := filepath.Join(outDir, "drop.scores.json")
		Eventually(func() error {
			_, err := os.Stat(outPath)
			return err
		}).WithTimeout(10 * time.Second).Should(Succeed())

		raw, err := os.ReadFile(outPath)
		Expect(err).NotTo(HaveOccurred())

		var doc struct {
			Columns []string `json:"columns"`
			Entries []any    `json:"entries"`
		}
		Expect(json.Unmarshal(raw, &doc)).To(Succeed())
		Expect(doc.Columns).To(Equal([]string{"CosineGreedy_score", "CosineGreedy_matches"}))
		Expect(doc.Entries).To(HaveLen(4))

		Expect(filepath.Join(outDir, "notes.scores.json")).NotTo(BeAnExistingFile())

		cancel()
		var execErr error
		Eventually(errChan).WithTimeout(5 * time.Second).Should(Receive(&execErr))
		Expect(execErr).NotTo(HaveOccurred())
	})

	It("uses the configured library as the default references", func() {
		spectra, err := specio.Load(refPath, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		Expect(specio.Save(filepath.Join(tmpDir, "library.db"), spectra)).To(Succeed())

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		cmd := watchcmder.NewWatchCmd()
		cmd.SetArgs([]string{"-f", wfPath, "-o", outDir, watchDir})

		errChan := make(chan error, 1)
		go func() {
			errChan <- cmd.ExecuteContext(ctx)
		}()

		time.Sleep(200 * time.Millisecond)

		dropSpectra("drop.msp")

		Eventually(func() error {
			_, err := os.Stat(filepath.Join(outDir, "drop.scores.json"))
			return err
		}).WithTimeout(10 * time.Second).Should(Succeed())

		cancel()
		Eventually(errChan).WithTimeout(5 * time.Second).Should(Receive())
	})
})
