package specmatchcmder_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	specmatchcmder "github.com/spectralworks/specmatch/cmd/specmatch"
)

var _ = Describe("Specmatch Command", func() {
	It("should create the root command", func() {
		cmd := specmatchcmder.NewSpecmatchCmd()
		Expect(cmd).NotTo(BeNil())
		Expect(cmd.Use).To(Equal("specmatch"))
	})

	It("should register every subcommand", func() {
		cmd := specmatchcmder.NewSpecmatchCmd()

		names := make([]string, 0, len(cmd.Commands()))
		for _, sub := range cmd.Commands() {
			names = append(names, sub.Name())
		}

		Expect(names).To(ContainElements(
			"run",
			"process",
			"workflow",
			"library",
			"watch",
			"serve",
			"runs",
			"config",
			"version",
		))
	})

	It("should have a persistent debug flag", func() {
		cmd := specmatchcmder.NewSpecmatchCmd()

		flag := cmd.PersistentFlags().Lookup("debug")
		Expect(flag).NotTo(BeNil())
		Expect(flag.Shorthand).To(Equal("d"))
		Expect(flag.DefValue).To(Equal("false"))
	})

	It("should have a persistent config-dir flag", func() {
		cmd := specmatchcmder.NewSpecmatchCmd()

		flag := cmd.PersistentFlags().Lookup("config-dir")
		Expect(flag).NotTo(BeNil())
		Expect(flag.DefValue).To(Equal(""))
	})
})
