// Package prof wraps the runtime profilers behind a session so a
// command can start every requested collector in one call and tear
// them down in one deferred call.
package prof

import (
	"os"
	"runtime"
	"runtime/pprof"
	rtrace "runtime/trace"
)

// Options names the profile outputs for one run. An empty path
// disables the corresponding collector.
type Options struct {
	CPUPath   string
	MemPath   string
	TracePath string
}

// Session owns the collectors started by Start.
type Session struct {
	cpuFile   *os.File
	traceFile *os.File
	memPath   string
	stopped   bool
}

// Start enables the requested collectors. On error nothing is left
// running.
func Start(opts Options) (*Session, error) {
	s := &Session{memPath: opts.MemPath}

	if opts.CPUPath != "" {
		f, err := os.Create(opts.CPUPath)
		if err != nil {
			return nil, err
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			return nil, err
		}
		s.cpuFile = f
	}

	if opts.TracePath != "" {
		f, err := os.Create(opts.TracePath)
		if err != nil {
			s.stopCPU()
			return nil, err
		}
		if err := rtrace.Start(f); err != nil {
			_ = f.Close()
			s.stopCPU()
			return nil, err
		}
		s.traceFile = f
	}

	return s, nil
}

// Stop ends the collectors in reverse start order, then writes the
// heap profile. Safe to call more than once and on a nil session.
func (s *Session) Stop() error {
	if s == nil || s.stopped {
		return nil
	}
	s.stopped = true

	s.stopTrace()
	s.stopCPU()
	return s.writeMem()
}

func (s *Session) stopCPU() {
	if s.cpuFile == nil {
		return
	}
	pprof.StopCPUProfile()
	_ = s.cpuFile.Close()
	s.cpuFile = nil
}

func (s *Session) stopTrace() {
	if s.traceFile == nil {
		return
	}
	rtrace.Stop()
	_ = s.traceFile.Close()
	s.traceFile = nil
}

func (s *Session) writeMem() error {
	if s.memPath == "" {
		return nil
	}
	f, err := os.Create(s.memPath)
	if err != nil {
		return err
	}
	runtime.GC()
	if err := pprof.WriteHeapProfile(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
