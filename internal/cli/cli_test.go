package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/brevet/internal/adapters/http/api"
	service "github.com/okian/brevet/internal/app"
	"github.com/okian/brevet/internal/domain/types"
	"github.com/okian/brevet/pkg/logger"
)

const goodEvaluations = `{"evaluations": [
  {"subject": "Maths", "grade": "A", "coefficient": 2},
  {"subject": "Français", "grade": "A+"},
  {"subject": "Français", "grade": "e", "coefficient": 1}
]}`

const badEvaluations = `[
  {"subject": "Maths", "grade": "Z"},
  {"subject": "SVT", "grade": "A", "coefficient": 0}
]`

func run(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := Execute(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func decodeReport(s string) types.Report {
	var r types.Report
	So(json.Unmarshal([]byte(s), &r), ShouldBeNil)
	return r
}

func TestAnalyzeCommand(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.json", goodEvaluations)
	bad := writeFile(t, dir, "bad.json", badEvaluations)

	Convey("Given evaluation files", t, func() {
		Convey("analyze prints a JSON report", func() {
			code, out, _ := run("analyze", good, "--format", "json", "--lang", "en")
			So(code, ShouldEqual, 0)

			r := decodeReport(out)
			So(r.Language, ShouldEqual, "en")
			So(r.TotalEvaluations, ShouldEqual, 3)
			So(r.BrevetStats, ShouldNotBeNil)
			So(r.BrevetStats.MoyennePoints, ShouldEqual, 35.0)
			So(r.BrevetStats.SocleSur400, ShouldEqual, 280.0)
			So(r.BrevetStats.PerformanceLevel, ShouldEqual, "Bien")
			So(r.SubjectAverages["Français"].Average, ShouldEqual, 30.0)
		})

		Convey("analyze renders the console report", func() {
			code, out, _ := run("analyze", good, "--lang", "en", "--no-color")
			So(code, ShouldEqual, 0)
			So(out, ShouldContainSubstring, "280.00")
			So(out, ShouldContainSubstring, "Maths")
		})

		Convey("colors notation is applied to displayed grades", func() {
			code, out, _ := run("analyze", good, "--format", "json", "--notation", "colors")
			So(code, ShouldEqual, 0)
			r := decodeReport(out)
			So(r.Evaluations[0].Grade, ShouldEqual, "V")
			So(r.Evaluations[0].Symbol, ShouldEqual, "A")
		})

		Convey("--output writes the report to a file", func() {
			path := filepath.Join(t.TempDir(), "report.md")
			code, out, _ := run("analyze", good, "--format", "markdown", "-o", path)
			So(code, ShouldEqual, 0)
			So(out, ShouldBeEmpty)
			data, err := os.ReadFile(path)
			So(err, ShouldBeNil)
			So(string(data), ShouldContainSubstring, "Maths")
		})

		Convey("a file without valid records still prints the skipped ones and exits 2", func() {
			code, out, stderr := run("analyze", bad, "--format", "json")
			So(code, ShouldEqual, 2)
			r := decodeReport(out)
			So(r.BrevetStats, ShouldBeNil)
			So(r.Skipped, ShouldHaveLength, 2)
			So(stderr, ShouldContainSubstring, "Error:")
		})

		Convey("abort policy fails on the first bad record without a report", func() {
			code, out, _ := run("analyze", good, bad, "--policy", "abort", "--format", "json")
			So(code, ShouldEqual, 2)
			So(out, ShouldBeEmpty)
		})

		Convey("a glob pattern picks up several files", func() {
			code, out, _ := run("analyze", filepath.Join(dir, "*.json"), "--format", "json")
			So(code, ShouldEqual, 0)
			r := decodeReport(out)
			So(r.TotalEvaluations, ShouldEqual, 5)
			So(r.Skipped, ShouldHaveLength, 2)
		})

		Convey("usage and config errors exit 1", func() {
			code, _, _ := run("analyze", filepath.Join(dir, "missing.json"))
			So(code, ShouldEqual, 1)

			code, _, _ = run("analyze", good, "--format", "pdf")
			So(code, ShouldEqual, 1)

			code, _, stderr := run("analyze", good, "--policy", "maybe")
			So(code, ShouldEqual, 1)
			So(stderr, ShouldContainSubstring, "invalid config")

			code, _, _ = run("analyze")
			So(code, ShouldEqual, 1)
		})

		Convey("a config file supplies defaults that flags override", func() {
			cfgPath := writeFile(t, t.TempDir(), "brevet.yaml", "language: es\nnotation: colors\n")

			code, out, _ := run("analyze", good, "--format", "json", "--config", cfgPath)
			So(code, ShouldEqual, 0)
			r := decodeReport(out)
			So(r.Language, ShouldEqual, "es")
			So(r.Notation, ShouldEqual, "colors")

			code, out, _ = run("analyze", good, "--format", "json", "--config", cfgPath, "--notation", "letters")
			So(code, ShouldEqual, 0)
			So(decodeReport(out).Notation, ShouldEqual, "letters")
		})

		Convey("--log-file receives the log records", func() {
			logPath := filepath.Join(t.TempDir(), "brevet.log")
			code, _, _ := run("analyze", good, "--format", "json", "--log-level", "debug", "--log-file", logPath)
			So(code, ShouldEqual, 0)
			data, err := os.ReadFile(logPath)
			So(err, ShouldBeNil)
			So(string(data), ShouldContainSubstring, "analysis completed")
		})
	})
}

func TestSampleCommand(t *testing.T) {
	Convey("Given the sample command", t, func() {
		dir := t.TempDir()

		Convey("it prints JSON that analyze accepts", func() {
			code, out, _ := run("sample", "--count", "16")
			So(code, ShouldEqual, 0)
			var doc types.AnalyzeRequest
			So(json.Unmarshal([]byte(out), &doc), ShouldBeNil)
			So(doc.Evaluations, ShouldHaveLength, 16)
		})

		Convey("a .yaml output switches the encoding", func() {
			path := filepath.Join(dir, "grades.yaml")
			code, _, _ := run("sample", "--count", "8", "--colors", "-o", path)
			So(code, ShouldEqual, 0)

			code, out, _ := run("analyze", path, "--format", "json")
			So(code, ShouldEqual, 0)
			r := decodeReport(out)
			So(r.TotalEvaluations, ShouldEqual, 8)
			So(r.Skipped, ShouldBeEmpty)
		})

		Convey("invalid ratio out of range is an error", func() {
			code, _, _ := run("sample", "--invalid-ratio", "2")
			So(code, ShouldEqual, 1)
		})
	})
}

func TestBatchCommand(t *testing.T) {
	Convey("Given a directory of student files", t, func() {
		dir := t.TempDir()
		writeFile(t, dir, "alice.json", goodEvaluations)
		writeFile(t, dir, "bob.json", goodEvaluations)
		writeFile(t, dir, "carol.json", badEvaluations)
		outDir := filepath.Join(t.TempDir(), "reports")

		code, out, stderr := run("batch", filepath.Join(dir, "*.json"),
			"--workers", "2", "--out-dir", outDir, "--format", "json", "--no-color", "--lang", "en")

		Convey("Then every file appears in the summary", func() {
			So(out, ShouldContainSubstring, "alice.json")
			So(out, ShouldContainSubstring, "bob.json")
			So(out, ShouldContainSubstring, "carol.json")
			So(out, ShouldContainSubstring, "280.00")
			So(out, ShouldContainSubstring, "insufficient data")
		})

		Convey("Then a failed job makes the command fail", func() {
			So(code, ShouldEqual, 1)
			So(stderr, ShouldContainSubstring, "batch jobs failed: 1 of 3")
		})

		Convey("Then one report per file is written", func() {
			for _, name := range []string{"alice.json", "bob.json", "carol.json"} {
				data, err := os.ReadFile(filepath.Join(outDir, name))
				So(err, ShouldBeNil)
				r := decodeReport(string(data))
				So(r.TotalEvaluations, ShouldBeGreaterThan, 0)
			}
		})
	})
}

func TestBatchCommandSameNames(t *testing.T) {
	Convey("Given same-named student files in sibling class directories", t, func() {
		dir := t.TempDir()
		So(os.MkdirAll(filepath.Join(dir, "3A"), 0o755), ShouldBeNil)
		So(os.MkdirAll(filepath.Join(dir, "3B"), 0o755), ShouldBeNil)
		writeFile(t, filepath.Join(dir, "3A"), "alice.json", goodEvaluations)
		writeFile(t, filepath.Join(dir, "3B"), "alice.json", `[{"subject": "Maths", "grade": "E"}]`)
		outDir := filepath.Join(t.TempDir(), "reports")

		code, _, _ := run("batch", filepath.Join(dir, "**", "*.json"), "--out-dir", outDir, "--format", "json")

		Convey("Then each report keeps its class directory", func() {
			So(code, ShouldEqual, 0)

			data, err := os.ReadFile(filepath.Join(outDir, "3A", "alice.json"))
			So(err, ShouldBeNil)
			So(decodeReport(string(data)).TotalEvaluations, ShouldEqual, 3)

			data, err = os.ReadFile(filepath.Join(outDir, "3B", "alice.json"))
			So(err, ShouldBeNil)
			So(decodeReport(string(data)).TotalEvaluations, ShouldEqual, 1)
		})
	})

	Convey("Given one student in two encodings", t, func() {
		dir := t.TempDir()
		writeFile(t, dir, "alice.json", goodEvaluations)
		writeFile(t, dir, "alice.yaml", goodEvaluations)
		outDir := filepath.Join(t.TempDir(), "reports")

		code, _, _ := run("batch", filepath.Join(dir, "alice.*"), "--out-dir", outDir, "--format", "json")

		Convey("Then both reports are written under distinct names", func() {
			So(code, ShouldEqual, 0)
			_, err := os.Stat(filepath.Join(outDir, "alice.json"))
			So(err, ShouldBeNil)
			_, err = os.Stat(filepath.Join(outDir, "alice-yaml.json"))
			So(err, ShouldBeNil)
		})
	})
}

func TestReportPaths(t *testing.T) {
	Convey("Given batch inputs", t, func() {
		root := t.TempDir()

		Convey("A single file keeps its base name", func() {
			got, err := reportPaths([]string{filepath.Join(root, "a", "bob.yaml")}, "markdown")
			So(err, ShouldBeNil)
			So(got, ShouldResemble, []string{"bob.md"})
		})

		Convey("Paths below the common directory are kept", func() {
			got, err := reportPaths([]string{
				filepath.Join(root, "classes", "3A", "alice.json"),
				filepath.Join(root, "classes", "3B", "alice.json"),
				filepath.Join(root, "classes", "3B", "sub", "carol.json"),
			}, "json")
			So(err, ShouldBeNil)
			So(got, ShouldResemble, []string{
				filepath.Join("3A", "alice.json"),
				filepath.Join("3B", "alice.json"),
				filepath.Join("3B", "sub", "carol.json"),
			})
		})

		Convey("Every name is unique", func() {
			got, err := reportPaths([]string{
				filepath.Join(root, "alice.json"),
				filepath.Join(root, "alice.yaml"),
				filepath.Join(root, "alice.yml"),
			}, "console")
			So(err, ShouldBeNil)
			So(got, ShouldResemble, []string{"alice.txt", "alice-yaml.txt", "alice-yml.txt"})
		})
	})
}

func TestSubmitCommand(t *testing.T) {
	Convey("Given a running server", t, func() {
		svc := service.New(service.WithLogger(logger.Nop()))
		mux := http.NewServeMux()
		api.NewServer(svc, svc).Register(context.Background(), mux)
		srv := httptest.NewServer(mux)
		defer srv.Close()

		good := writeFile(t, t.TempDir(), "good.json", goodEvaluations)

		Convey("submit prints the server's report", func() {
			code, out, _ := run("submit", good, "--url", srv.URL, "--format", "json", "--lang", "es")
			So(code, ShouldEqual, 0)
			r := decodeReport(out)
			So(r.Language, ShouldEqual, "es")
			So(r.BrevetStats.SocleSur400, ShouldEqual, 280.0)
		})

		Convey("data without a valid record exits 2 like analyze and keeps the skipped list", func() {
			bad := writeFile(t, t.TempDir(), "bad.json", badEvaluations)
			code, out, stderr := run("submit", bad, "--url", srv.URL, "--format", "json")
			So(code, ShouldEqual, 2)
			r := decodeReport(out)
			So(r.BrevetStats, ShouldBeNil)
			So(r.Skipped, ShouldHaveLength, 2)
			So(stderr, ShouldContainSubstring, "insufficient_data")

			localCode, _, _ := run("analyze", bad, "--format", "json")
			So(localCode, ShouldEqual, code)
		})

		Convey("an abort on a bad grade exits 2", func() {
			bad := writeFile(t, t.TempDir(), "bad.json", badEvaluations)
			code, out, _ := run("submit", bad, "--url", srv.URL, "--policy", "abort", "--format", "json")
			So(code, ShouldEqual, 2)
			So(out, ShouldBeEmpty)
		})

		Convey("an unreachable server fails the health check", func() {
			code, _, stderr := run("submit", good, "--url", "http://127.0.0.1:1", "--timeout", "200ms")
			So(code, ShouldEqual, 1)
			So(stderr, ShouldContainSubstring, "analyzer unhealthy")
		})
	})
}
