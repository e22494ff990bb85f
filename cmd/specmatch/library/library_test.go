package librarycmder_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	librarycmder "github.com/spectralworks/specmatch/cmd/specmatch/library"
	"github.com/spectralworks/specmatch/pkg/logger"
	"github.com/spectralworks/specmatch/pkg/specio"
	testutils "github.com/spectralworks/specmatch/pkg/utils/test"
)

var _ = Describe("NewLibraryCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := librarycmder.NewLibraryCmd()
		Expect(cmd.Use).To(Equal("library"))
	})

	It("has import and export subcommands", func() {
		cmd := librarycmder.NewLibraryCmd()
		cmds := cmd.Commands()
		subcommands := make([]string, 0, len(cmds))
		for _, sub := range cmds {
			subcommands = append(subcommands, sub.Name())
		}
		Expect(subcommands).To(ContainElements("import", "export"))
	})
})

var _ = Describe("Library command execution", func() {
	var (
		tmpDir  string
		origDir string
		mspPath string
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "specmatch-library-test-*")
		Expect(err).NotTo(HaveOccurred())

		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())

		// Create a local .specmatch dir so the manager picks it up
		err = os.MkdirAll(filepath.Join(tmpDir, ".specmatch"), 0o755)
		Expect(err).NotTo(HaveOccurred())

		err = os.Chdir(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		mspPath, err = testutils.WriteOverlapSpectra(tmpDir)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		err := os.Chdir(origDir)
		Expect(err).NotTo(HaveOccurred())
		os.RemoveAll(tmpDir)
	})

	Describe("import subcommand", func() {
		It("creates the library at the default path", func() {
			cmd := librarycmder.NewLibraryCmd()
			cmd.SetArgs([]string{"import", mspPath})
			err := cmd.Execute()
			Expect(err).NotTo(HaveOccurred())

			spectra, err := specio.Load(filepath.Join(tmpDir, "library.db"), logger.Nop())
			Expect(err).NotTo(HaveOccurred())
			Expect(spectra).To(HaveLen(2))
		})

		It("appends on repeat imports", func() {
			for i := 0; i < 2; i++ {
				cmd := librarycmder.NewLibraryCmd()
				cmd.SetArgs([]string{"import", mspPath})
				Expect(cmd.Execute()).To(Succeed())
			}

			spectra, err := specio.Load(filepath.Join(tmpDir, "library.db"), logger.Nop())
			Expect(err).NotTo(HaveOccurred())
			Expect(spectra).To(HaveLen(4))
		})

		It("replaces the library contents with --replace", func() {
			cmd := librarycmder.NewLibraryCmd()
			cmd.SetArgs([]string{"import", mspPath})
			Expect(cmd.Execute()).To(Succeed())

			cmd = librarycmder.NewLibraryCmd()
			cmd.SetArgs([]string{"import", "--replace", mspPath})
			Expect(cmd.Execute()).To(Succeed())

			spectra, err := specio.Load(filepath.Join(tmpDir, "library.db"), logger.Nop())
			Expect(err).NotTo(HaveOccurred())
			Expect(spectra).To(HaveLen(2))
		})

		It("honors the library.path config key", func() {
			data := `[library]
path = "custom.db"
`
			err := os.WriteFile(filepath.Join(tmpDir, ".specmatch", "config.toml"), []byte(data), 0o644)
			Expect(err).NotTo(HaveOccurred())

			cmd := librarycmder.NewLibraryCmd()
			cmd.SetArgs([]string{"import", mspPath})
			Expect(cmd.Execute()).To(Succeed())

			spectra, err := specio.Load(filepath.Join(tmpDir, "custom.db"), logger.Nop())
			Expect(err).NotTo(HaveOccurred())
			Expect(spectra).To(HaveLen(2))
		})

		It("errors for missing input files", func() {
			cmd := librarycmder.NewLibraryCmd()
			cmd.SetArgs([]string{"import", filepath.Join(tmpDir, "missing.msp")})
			err := cmd.Execute()
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("importing spectra"))
		})
	})

	Describe("export subcommand", func() {
		It("round-trips the library to an MSP file", func() {
			importCmd := librarycmder.NewLibraryCmd()
			importCmd.SetArgs([]string{"import", mspPath})
			Expect(importCmd.Execute()).To(Succeed())

			outPath := filepath.Join(tmpDir, "backup.msp")
			cmd := librarycmder.NewLibraryCmd()
			cmd.SetArgs([]string{"export", outPath})
			Expect(cmd.Execute()).To(Succeed())

			spectra, err := specio.Load(outPath, logger.Nop())
			Expect(err).NotTo(HaveOccurred())
			Expect(spectra).To(HaveLen(2))
		})

		It("errors when the library does not exist", func() {
			cmd := librarycmder.NewLibraryCmd()
			cmd.SetArgs([]string{"export", filepath.Join(tmpDir, "backup.msp")})
			err := cmd.Execute()
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("loading library"))
		})
	})
})
