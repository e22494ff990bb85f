package dotdir_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/spectralworks/specmatch/pkg/dotdir"
)

var _ = Describe("dotdir.Manager workspace", func() {
	var tmpDir string
	var m *dotdir.Manager

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "dotdir-test-*")
		Expect(err).NotTo(HaveOccurred())
		m = dotdir.NewManager()
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	Describe("LoadWorkspaceState", func() {
		It("returns nil when no workspace file exists", func() {
			state, err := m.LoadWorkspaceState(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(state).To(BeNil())
		})

		It("loads a valid workspace state", func() {
			// Write a workspace file manually
			data := `{"workflow_path":"workflows/default.yaml","last_run_id":"run-42"}`
			err := os.WriteFile(filepath.Join(tmpDir, "workspace.json"), []byte(data), 0o644)
			Expect(err).NotTo(HaveOccurred())

			state, err := m.LoadWorkspaceState(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(state).NotTo(BeNil())
			Expect(state.WorkflowPath).To(Equal("workflows/default.yaml"))
			Expect(state.LastRunID).To(Equal("run-42"))
		})

		It("returns error for invalid JSON", func() {
			err := os.WriteFile(filepath.Join(tmpDir, "workspace.json"), []byte("not json"), 0o644)
			Expect(err).NotTo(HaveOccurred())

			state, err := m.LoadWorkspaceState(tmpDir)
			Expect(err).To(HaveOccurred())
			Expect(state).To(BeNil())
		})
	})

	Describe("SaveWorkspace", func() {
		It("persists workspace state to disk", func() {
			state := &dotdir.WorkspaceState{
				WorkflowPath: "pipeline.yaml",
				LastRunID:    "run-7",
			}

			err := m.SaveWorkspace(state, tmpDir)
			Expect(err).NotTo(HaveOccurred())

			// Verify the file exists
			_, err = os.Stat(filepath.Join(tmpDir, "workspace.json"))
			Expect(err).NotTo(HaveOccurred())

			// Load it back and verify
			loaded, err := m.LoadWorkspaceState(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.WorkflowPath).To(Equal("pipeline.yaml"))
			Expect(loaded.LastRunID).To(Equal("run-7"))
		})

		It("returns error for nil state", func() {
			err := m.SaveWorkspace(nil, tmpDir)
			Expect(err).To(HaveOccurred())
		})

		It("overwrites existing workspace state", func() {
			first := &dotdir.WorkspaceState{WorkflowPath: "first.yaml"}
			second := &dotdir.WorkspaceState{WorkflowPath: "second.yaml"}

			err := m.SaveWorkspace(first, tmpDir)
			Expect(err).NotTo(HaveOccurred())

			err = m.SaveWorkspace(second, tmpDir)
			Expect(err).NotTo(HaveOccurred())

			loaded, err := m.LoadWorkspaceState(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.WorkflowPath).To(Equal("second.yaml"))
		})
	})

	Describe("ClearWorkspace", func() {
		It("removes the workspace file", func() {
			state := &dotdir.WorkspaceState{WorkflowPath: "to-clear.yaml"}
			err := m.SaveWorkspace(state, tmpDir)
			Expect(err).NotTo(HaveOccurred())

			err = m.ClearWorkspace(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			// Verify it's gone
			loaded, err := m.LoadWorkspaceState(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(BeNil())
		})

		It("succeeds when no workspace file exists", func() {
			err := m.ClearWorkspace(tmpDir)
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("round-trip", func() {
		It("saves and loads workspace state correctly", func() {
			state := &dotdir.WorkspaceState{
				WorkflowPath: "workflows/similarity.yaml",
				LastRunID:    "20260825T101500Z-a1b2",
			}

			err := m.SaveWorkspace(state, tmpDir)
			Expect(err).NotTo(HaveOccurred())

			loaded, err := m.LoadWorkspaceState(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(Equal(state))
		})
	})
})
