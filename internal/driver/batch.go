package driver

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"go.uber.org/zap"

	"opiniontrace/internal/extract"
	"opiniontrace/internal/report"
)

// Stage describes a phase of one batch trace.
type Stage string

const (
	// StageDecode is the payload decode stage.
	StageDecode Stage = "decode"
	// StageDiagnose is the diagnosis stage.
	StageDiagnose Stage = "diagnose"
	// StageWrite is the report write stage.
	StageWrite Stage = "write"
)

// Status captures progress state within a stage.
type Status string

const (
	// StatusQueued indicates the dump is waiting to start.
	StatusQueued Status = "queued"
	// StatusWorking indicates the dump is currently being traced.
	StatusWorking Status = "working"
	// StatusDone indicates the dump finished.
	StatusDone Status = "done"
	// StatusError indicates the dump could not be traced.
	StatusError Status = "error"
)

// Event reports progress for one dump file.
type Event struct {
	File   string
	Stage  Stage
	Status Status
	Err    error
}

// ProgressSink consumes progress events.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

// BatchOptions configures a directory trace.
type BatchOptions struct {
	Options
	// Jobs bounds worker parallelism; zero or less means GOMAXPROCS.
	Jobs int
	// OutDir receives the reports, mirroring the dump directory
	// layout. Empty writes each report next to its dump.
	OutDir string
	// Progress receives per-file events; nil disables reporting.
	Progress ProgressSink
}

// Outcome label for dumps that never produced a report.
const OutcomeFailed = "failed"

// Outcome label for stack-only runs, which carry no reason code.
const OutcomeStack = "stack"

// TraceDirResult records the fate of one dump in a batch.
type TraceDirResult struct {
	Path    string
	OutPath string
	Outcome string
	Err     error
}

const reportSuffix = ".trace.json"

// ListDumps returns the sorted list of extraction dumps under dir.
// Reports written by earlier runs are excluded.
func ListDumps(dir string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasSuffix(path, reportSuffix) {
			return nil
		}
		switch filepath.Ext(path) {
		case ".json", ".msgpack", ".mp", ".bin":
			files = append(files, path)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// TraceDir diagnoses every extraction dump under dir in parallel and
// writes one report per dump. Per-file failures become "failed"
// outcomes; only walk errors and cancellation abort the batch.
func TraceDir(ctx context.Context, dir string, opts BatchOptions) ([]TraceDirResult, error) {
	files, err := ListDumps(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, nil
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	emitQueued(opts.Progress, files)

	results := make([]TraceDirResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))

	for i, path := range files {
		g.Go(func(i int, path string) func() error {
			return func() error {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}
				results[i] = traceOne(dir, path, opts)
				return nil
			}
		}(i, path))
	}

	if err := g.Wait(); err != nil {
		return results, err
	}

	opts.logger().Info("batch complete",
		zap.String("dir", dir),
		zap.Int("dumps", len(results)))
	return results, nil
}

func traceOne(root, path string, opts BatchOptions) TraceDirResult {
	res := TraceDirResult{Path: path, Outcome: OutcomeFailed}

	emit(opts.Progress, path, StageDecode, StatusWorking, nil)
	p, err := extract.Load(path)
	if err != nil {
		res.Err = err
		emit(opts.Progress, path, StageDecode, StatusError, err)
		return res
	}

	emit(opts.Progress, path, StageDiagnose, StatusWorking, nil)
	traced, err := Trace(p, opts.Options)
	if err != nil {
		res.Err = err
		emit(opts.Progress, path, StageDiagnose, StatusError, err)
		return res
	}

	emit(opts.Progress, path, StageWrite, StatusWorking, nil)
	outPath, err := outPathFor(root, opts.OutDir, path)
	if err == nil {
		err = writeReport(outPath, traced.Output)
	}
	if err != nil {
		res.Err = err
		emit(opts.Progress, path, StageWrite, StatusError, err)
		return res
	}

	res.OutPath = outPath
	res.Outcome = outcomeOf(traced.Output)
	res.Err = nil
	emit(opts.Progress, path, StageWrite, StatusDone, nil)
	return res
}

// outPathFor maps a dump path to its report path. With an out
// directory the dump's position relative to the batch root is kept.
func outPathFor(root, outDir, path string) (string, error) {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + reportSuffix
	if outDir == "" {
		return filepath.Join(filepath.Dir(path), name), nil
	}
	rel, err := filepath.Rel(root, filepath.Dir(path))
	if err != nil {
		return "", fmt.Errorf("dump %s escapes batch root: %w", path, err)
	}
	return filepath.Join(outDir, rel, name), nil
}

func writeReport(path string, out report.Output) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := report.JSON(f, out); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// outcomeOf labels a produced report for the batch summary: the error
// kind, the diagnosis reason, or the stack-only marker.
func outcomeOf(out report.Output) string {
	switch {
	case out.Error != nil:
		return *out.Error
	case out.Diagnosis != nil:
		return out.Diagnosis.Reason
	default:
		return OutcomeStack
	}
}

// Summarize renders the one-line batch summary with counts by outcome.
func Summarize(results []TraceDirResult) string {
	if len(results) == 0 {
		return "no extraction dumps found"
	}
	counts := make(map[string]int, 4)
	for i := range results {
		counts[results[i].Outcome]++
	}
	outcomes := make([]string, 0, len(counts))
	for o := range counts {
		outcomes = append(outcomes, o)
	}
	sort.Strings(outcomes)
	parts := make([]string, 0, len(outcomes))
	for _, o := range outcomes {
		parts = append(parts, fmt.Sprintf("%d %s", counts[o], o))
	}
	return fmt.Sprintf("traced %d dumps: %s", len(results), strings.Join(parts, ", "))
}

func emitQueued(sink ProgressSink, files []string) {
	if sink == nil {
		return
	}
	for _, file := range files {
		sink.OnEvent(Event{File: file, Stage: StageDecode, Status: StatusQueued})
	}
}

func emit(sink ProgressSink, file string, stage Stage, status Status, err error) {
	if sink == nil {
		return
	}
	sink.OnEvent(Event{File: file, Stage: stage, Status: status, Err: err})
}
