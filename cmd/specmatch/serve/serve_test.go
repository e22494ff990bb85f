package servecmder_test

import (
	"context"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	servecmder "github.com/spectralworks/specmatch/cmd/specmatch/serve"
)

var _ = Describe("Serve Command", func() {
	var (
		tmpDir      string
		originalDir string
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "specmatch-serve-test-*")
		Expect(err).NotTo(HaveOccurred())

		originalDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())

		// Create a local .specmatch dir so the manager picks it up
		Expect(os.MkdirAll(filepath.Join(tmpDir, ".specmatch"), 0o755)).To(Succeed())
		Expect(os.Chdir(tmpDir)).To(Succeed())
	})

	AfterEach(func() {
		Expect(os.Chdir(originalDir)).To(Succeed())
		Expect(os.RemoveAll(tmpDir)).To(Succeed())
	})

	Describe("NewServeCmd", func() {
		It("should create a serve command", func() {
			cmd := servecmder.NewServeCmd()
			Expect(cmd).NotTo(BeNil())
			Expect(cmd.Use).To(Equal("serve"))
		})

		It("should have a listen flag with the default address", func() {
			cmd := servecmder.NewServeCmd()

			flag := cmd.Flags().Lookup("listen")
			Expect(flag).NotTo(BeNil())
			Expect(flag.Shorthand).To(Equal("l"))
			Expect(flag.DefValue).To(Equal(":8081"))
		})

		It("should have archive flags with local defaults", func() {
			cmd := servecmder.NewServeCmd()

			provider := cmd.Flags().Lookup("archive-provider")
			Expect(provider).NotTo(BeNil())
			Expect(provider.DefValue).To(Equal("inmemory"))

			target := cmd.Flags().Lookup("archive-target")
			Expect(target).NotTo(BeNil())
		})

		It("should have eventstream flags defaulting to the nop publisher", func() {
			cmd := servecmder.NewServeCmd()

			provider := cmd.Flags().Lookup("eventstream-provider")
			Expect(provider).NotTo(BeNil())
			Expect(provider.DefValue).To(Equal("nop"))

			Expect(cmd.Flags().Lookup("eventstream-brokers")).NotTo(BeNil())
			Expect(cmd.Flags().Lookup("eventstream-topic")).NotTo(BeNil())
		})

		It("should have a workers flag", func() {
			cmd := servecmder.NewServeCmd()

			flag := cmd.Flags().Lookup("workers")
			Expect(flag).NotTo(BeNil())
			Expect(flag.Shorthand).To(Equal("w"))
		})

		It("should reject positional arguments", func() {
			cmd := servecmder.NewServeCmd()

			err := cmd.Args(cmd, []string{"extra"})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Execute", func() {
		It("should fail on an unknown archive provider", func() {
			cmd := servecmder.NewServeCmd()
			cmd.SetArgs([]string{"--archive-provider", "papertape"})

			err := cmd.Execute()
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("archive provider"))
		})

		It("should start with a sqlite archive and shut down on context cancel", func() {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			cmd := servecmder.NewServeCmd()
			cmd.SetArgs([]string{
				"--listen", "127.0.0.1:0",
				"--archive-provider", "sqlite",
				"--archive-target", "runs.db",
			})

			errChan := make(chan error, 1)
			go func() {
				errChan <- cmd.ExecuteContext(ctx)
			}()

			// The sqlite driver creates its database during startup.
			Eventually(func() error {
				_, err := os.Stat(filepath.Join(tmpDir, "runs.db"))
				return err
			}).WithTimeout(5 * time.Second).Should(Succeed())

			// Give the listener a beat to come up before stopping it.
			time.Sleep(300 * time.Millisecond)
			cancel()

			var execErr error
			Eventually(errChan).WithTimeout(10 * time.Second).Should(Receive(&execErr))
			Expect(execErr).NotTo(HaveOccurred())
		})
	})
})
