package runner

import (
	"context"
	"log/slog"
	"strings"
	"time"

	ferrors "git.home.luguber.info/inful/next2gas/internal/foundation/errors"
	"git.home.luguber.info/inful/next2gas/internal/logfields"
	"git.home.luguber.info/inful/next2gas/internal/metrics"
)

// Invoker runs the configured install and build command sequences. Each
// sequence stops at the first failing command.
type Invoker struct {
	Runner   Runner
	Recorder metrics.Recorder
	Install  []string
	Build    []string
}

// RunInstall installs the project's packages in dir.
func (i *Invoker) RunInstall(ctx context.Context, dir string) error {
	return i.sequence(ctx, dir, i.Install)
}

// RunBuild produces the static export in dir.
func (i *Invoker) RunBuild(ctx context.Context, dir string) error {
	return i.sequence(ctx, dir, i.Build)
}

func (i *Invoker) sequence(ctx context.Context, dir string, commands []string) error {
	rec := i.Recorder
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	for _, line := range commands {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			return ferrors.ValidationError("empty command in sequence").Build()
		}
		slog.Info("Running external command", logfields.Command(line))
		start := time.Now()
		res, err := i.Runner.Run(ctx, dir, fields[0], fields[1:]...)
		d := res.Duration
		if d == 0 {
			d = time.Since(start)
		}
		rec.ObserveCommandDuration(fields[0], d, err == nil)
		if err != nil {
			return err
		}
		slog.Info("External command finished", logfields.Command(line), logfields.DurationMS(float64(d.Milliseconds())))
	}
	return nil
}
