// Package state carries per invocation environment of markfmt commands
// through context.
package state

import (
	"context"
	"time"

	"go.uber.org/zap"

	"markfmt/config"
)

type envKey struct{}

// LocalEnv is set up by the command line Before hook and torn down in After.
type LocalEnv struct {
	Cfg *config.Config // formatting and logging configuration
	Rpt *config.Report // debug archive, nil unless --debug was given
	Log *zap.Logger

	// toggle may replace an existing destination document
	Overwrite bool

	start         time.Time
	restoreStdLog func()
}

func EnvFromContext(ctx context.Context) *LocalEnv {
	if env, ok := ctx.Value(envKey{}).(*LocalEnv); ok {
		return env
	}
	// this should never happen
	panic("localenv not found in context")
}

func ContextWithEnv(ctx context.Context) context.Context {
	return context.WithValue(ctx, envKey{}, newLocalEnv())
}

// Uptime is how long the command has been running, logged on exit.
func (e *LocalEnv) Uptime() time.Duration {
	return time.Since(e.start)
}

// RedirectStdLog sends output of libraries using standard log through zap.
func (e *LocalEnv) RedirectStdLog() {
	if e.Log == nil {
		return
	}
	e.restoreStdLog = zap.RedirectStdLog(e.Log)
}

func (e *LocalEnv) RestoreStdLog() {
	if e.Log != nil {
		_ = e.Log.Sync()
	}
	if e.restoreStdLog != nil {
		e.restoreStdLog()
		e.restoreStdLog = nil
	}
}
