// Package driver orchestrates one diagnosis run end to end: obtain an
// extraction payload (file, stdin or extractor subprocess), validate it
// into an opinion stack, run the classifier and assemble the report.
// Batch mode walks a directory of dumps and traces them in parallel.
package driver

import (
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"opiniontrace/internal/diagnose"
	"opiniontrace/internal/extract"
	"opiniontrace/internal/observ"
	"opiniontrace/internal/reason"
	"opiniontrace/internal/report"
)

// Options configures a single trace run.
type Options struct {
	// UserLayer is the layer whose opinion should be explained. May be
	// empty only in stack-only mode.
	UserLayer string
	// StackOnly skips the diagnosis and reports the stack alone.
	StackOnly bool
	// Registry supplies the reason table; nil means the builtin table.
	Registry *reason.Registry
	// Logger receives run diagnostics; nil means no logging.
	Logger *zap.Logger
	// EnableTimings collects per-phase wall times on the result.
	EnableTimings bool
}

func (o Options) logger() *zap.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return zap.NewNop()
}

func (o Options) registry() *reason.Registry {
	if o.Registry != nil {
		return o.Registry
	}
	return reason.Builtin()
}

func (o Options) timer() *observ.Timer {
	if !o.EnableTimings {
		return nil
	}
	return observ.NewTimer()
}

// TraceResult is one completed run: the report to render plus the phase
// timer when timings were requested.
type TraceResult struct {
	Output report.Output
	Timer  *observ.Timer
}

// Trace diagnoses an already-decoded payload.
func Trace(p *extract.Payload, opts Options) (*TraceResult, error) {
	return run(p, opts, opts.timer())
}

// TraceFile loads an extraction dump and diagnoses it. The wire format
// is picked by the file extension.
func TraceFile(path string, opts Options) (*TraceResult, error) {
	timer := opts.timer()
	idx := beginPhase(timer, observ.PhaseDecode)
	p, err := extract.Load(path)
	endPhase(timer, idx, "")
	if err != nil {
		return nil, err
	}
	return run(p, opts, timer)
}

// TraceReader decodes a payload from r in the given wire format and
// diagnoses it. Stdin input comes through here.
func TraceReader(r io.Reader, format string, opts Options) (*TraceResult, error) {
	timer := opts.timer()
	idx := beginPhase(timer, observ.PhaseDecode)
	p, err := extract.Decode(r, format)
	endPhase(timer, idx, "")
	if err != nil {
		return nil, err
	}
	return run(p, opts, timer)
}

// TraceExtractor runs the configured extractor subprocess for one query
// and diagnoses its output. A missing user layer is caught before the
// subprocess is launched.
func TraceExtractor(ctx context.Context, ex *extract.Extractor, stage, primPath, attribute string, timeCode *float64, opts Options) (*TraceResult, error) {
	if !opts.StackOnly && strings.TrimSpace(opts.UserLayer) == "" {
		q := report.QueryJSON{Stage: stage, PrimPath: primPath, Attribute: attribute, Time: timeCode}
		return &TraceResult{Output: report.BuildFailure(q, report.KindEmptyUserLayer)}, nil
	}
	timer := opts.timer()
	idx := beginPhase(timer, observ.PhaseExtract)
	p, err := ex.Run(ctx, stage, primPath, attribute, timeCode)
	endPhase(timer, idx, "")
	if err != nil {
		return nil, err
	}
	return run(p, opts, timer)
}

func run(p *extract.Payload, opts Options, timer *observ.Timer) (*TraceResult, error) {
	log := opts.logger()
	layer := strings.TrimSpace(opts.UserLayer)
	q := queryEcho(p, layer)

	if !opts.StackOnly && layer == "" {
		return &TraceResult{Output: report.BuildFailure(q, report.KindEmptyUserLayer), Timer: timer}, nil
	}
	if p.Error != nil {
		log.Warn("extractor reported failure",
			zap.String("code", p.Error.Code),
			zap.String("message", p.Error.Message))
		return &TraceResult{Output: report.BuildFailure(q, p.Error.Code), Timer: timer}, nil
	}

	validateIdx := beginPhase(timer, observ.PhaseValidate)
	s, err := p.Stack()
	validateNote := ""
	if timer != nil && s != nil {
		validateNote = fmt.Sprintf("opinions=%d", s.Len())
	}
	endPhase(timer, validateIdx, validateNote)
	if err != nil {
		return failure(q, err, timer, log)
	}

	var d *diagnose.Diagnosis
	if !opts.StackOnly {
		diagIdx := beginPhase(timer, observ.PhaseDiagnose)
		d, err = diagnose.Diagnose(p.Query(layer), s, environment(p), opts.registry())
		diagNote := ""
		if timer != nil && d != nil {
			diagNote = fmt.Sprintf("reason=%s", d.Reason)
		}
		endPhase(timer, diagIdx, diagNote)
		if err != nil {
			return failure(q, err, timer, log)
		}
		log.Debug("diagnosis complete",
			zap.String("prim", p.PrimPath),
			zap.String("attribute", p.Attribute),
			zap.String("reason", string(d.Reason)))
	}

	out := report.Build(q, report.Resolved{Value: p.ResolvedValue, Type: p.ResolvedValueType}, s, d)
	return &TraceResult{Output: out, Timer: timer}, nil
}

// failure turns an engine error into its reportable kind. Errors
// outside the report contract propagate to the shell instead.
func failure(q report.QueryJSON, err error, timer *observ.Timer, log *zap.Logger) (*TraceResult, error) {
	kind := report.Kind(err)
	if kind == "" {
		return nil, err
	}
	log.Warn("query failed", zap.String("kind", kind), zap.Error(err))
	return &TraceResult{Output: report.BuildFailure(q, kind), Timer: timer}, nil
}

func queryEcho(p *extract.Payload, layer string) report.QueryJSON {
	q := report.QueryJSON{
		Stage:     p.Stage,
		PrimPath:  p.PrimPath,
		Attribute: p.Attribute,
		Time:      p.Time,
	}
	if layer != "" {
		q.UserLayer = &layer
	}
	return q
}

func environment(p *extract.Payload) diagnose.Environment {
	return diagnose.Environment{
		LayerMuting: p.LayerMuting,
		PrimLoaded:  p.PrimIsLoaded,
	}
}

func beginPhase(t *observ.Timer, name string) int {
	if t == nil {
		return -1
	}
	return t.Begin(name)
}

func endPhase(t *observ.Timer, idx int, note string) {
	if t == nil || idx < 0 {
		return
	}
	t.End(idx, note)
}
