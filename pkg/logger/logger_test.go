package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/spectralworks/specmatch/pkg/logger"
)

// decodeLine parses a single JSON log record from buf.
func decodeLine(buf *bytes.Buffer) map[string]any {
	var parsed map[string]any
	Expect(json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &parsed)).To(Succeed())
	return parsed
}

var _ = Describe("New", func() {
	It("writes text records at Info by default", func() {
		var buf bytes.Buffer
		l := logger.New(logger.WithWriter(&buf))
		l.Info("run archived", "run_id", "run-1")

		Expect(buf.String()).To(ContainSubstring("run archived"))
		Expect(buf.String()).To(ContainSubstring("run_id"))
		Expect(buf.String()).To(ContainSubstring("run-1"))
	})

	It("gates Debug records on the debug option", func() {
		var quiet, chatty bytes.Buffer
		logger.New(logger.WithWriter(&quiet)).Debug("hidden")
		logger.New(logger.WithWriter(&chatty), logger.WithDebug(true)).Debug("visible")

		Expect(quiet.String()).To(BeEmpty())
		Expect(chatty.String()).To(ContainSubstring("visible"))
	})

	It("emits structured records with the JSON handler", func() {
		var buf bytes.Buffer
		l := logger.New(logger.WithWriter(&buf), logger.WithJSON(true))
		l.Info("spectra imported", "count", 2)

		parsed := decodeLine(&buf)
		Expect(parsed["msg"]).To(Equal("spectra imported"))
		Expect(parsed["count"]).To(BeNumerically("==", 2))
	})

	It("emits readable records with the pretty handler", func() {
		var buf bytes.Buffer
		l := logger.New(logger.WithWriter(&buf), logger.WithPretty(true))
		l.Info("watching for spectra files")

		Expect(buf.String()).To(ContainSubstring("watching for spectra files"))
	})

	It("fans output out to every writer", func() {
		var first, second bytes.Buffer
		l := logger.New(logger.WithWriters(&first, &second))
		l.Info("shared")

		Expect(first.String()).To(ContainSubstring("shared"))
		Expect(second.String()).To(ContainSubstring("shared"))
	})

	It("includes the call site with the source option", func() {
		var buf bytes.Buffer
		l := logger.New(logger.WithWriter(&buf), logger.WithJSON(true), logger.WithSource(true))
		l.Info("located")

		parsed := decodeLine(&buf)
		Expect(parsed).To(HaveKey("source"))
	})

	It("nests grouped attributes in JSON output", func() {
		var buf bytes.Buffer
		l := logger.New(logger.WithWriter(&buf), logger.WithJSON(true))
		l.WithGroup("run").Info("finished", "scores", 4)

		parsed := decodeLine(&buf)
		group, ok := parsed["run"].(map[string]any)
		Expect(ok).To(BeTrue(), "expected a 'run' group in the JSON record")
		Expect(group["scores"]).To(BeNumerically("==", 4))
	})

	It("carries bound attributes into child records", func() {
		var buf bytes.Buffer
		l := logger.New(logger.WithWriter(&buf), logger.WithJSON(true))
		l.With("service", "pipeline").Info("started")

		parsed := decodeLine(&buf)
		Expect(parsed["service"]).To(Equal("pipeline"))
		Expect(parsed["msg"]).To(Equal("started"))
	})
})

var _ = Describe("Nop", func() {
	It("is disabled at every level", func() {
		h := logger.Nop().Handler()
		for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
			Expect(h.Enabled(context.Background(), level)).To(BeFalse())
		}
	})

	It("stays safe through With and WithGroup", func() {
		l := logger.Nop()
		Expect(func() {
			l.With("run_id", "run-1").Error("dropped")
			l.WithGroup("stage").Warn("dropped")
		}).NotTo(Panic())
	})
})

var _ = Describe("Multi", func() {
	It("dispatches every record to all loggers", func() {
		var terminal, file bytes.Buffer
		multi := logger.Multi(
			logger.New(logger.WithWriter(&terminal)),
			logger.New(logger.WithWriter(&file), logger.WithJSON(true)),
		)
		multi.Info("scored", "pairs", 4)

		Expect(terminal.String()).To(ContainSubstring("scored"))
		parsed := decodeLine(&file)
		Expect(parsed["msg"]).To(Equal("scored"))
	})

	It("honors each handler's own level", func() {
		var quiet, verbose bytes.Buffer
		multi := logger.Multi(
			logger.New(logger.WithWriter(&quiet)),
			logger.New(logger.WithWriter(&verbose), logger.WithDebug(true)),
		)
		multi.Debug("settling")

		Expect(quiet.String()).To(BeEmpty())
		Expect(verbose.String()).To(ContainSubstring("settling"))
	})

	It("propagates With through the fan-out", func() {
		var buf bytes.Buffer
		multi := logger.Multi(logger.New(logger.WithWriter(&buf), logger.WithJSON(true)))
		multi.With("component", "watch").Info("ready")

		parsed := decodeLine(&buf)
		Expect(parsed["component"]).To(Equal("watch"))
	})

	It("propagates WithGroup through the fan-out", func() {
		var buf bytes.Buffer
		multi := logger.Multi(logger.New(logger.WithWriter(&buf), logger.WithJSON(true)))
		multi.WithGroup("drop").Info("scored", "path", "a.msp")

		parsed := decodeLine(&buf)
		group, ok := parsed["drop"].(map[string]any)
		Expect(ok).To(BeTrue(), "expected a 'drop' group in the JSON record")
		Expect(group["path"]).To(Equal("a.msp"))
	})
})
