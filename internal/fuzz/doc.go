// Package fuzztests houses Go fuzz harnesses that exercise the payload
// pipeline (bytes -> decode -> validated stack -> report). Its goal is
// to smoke test robustness and guard against panics on arbitrary
// extractor output.
//
// It does not generate corpora, write files, or drive the CLI.
package fuzztests
