/*
 * runner.go, part of gopenelopetools.
 *
 *
 * Copyright 2024 The gopenelopetools Authors
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 *
 */

package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pymontecarlo/gopenelopetools/config"
	"github.com/pymontecarlo/gopenelopetools/fileio"
)

var (
	ErrJob   = errors.New("bad job")
	ErrStart = errors.New("program could not be started")
	ErrExit  = errors.New("program failed")
)

// Error is the error type of the runner package.
type Error struct {
	kind     error
	message  string
	workdir  string
	deco     []string
	critical bool
}

func newError(kind error, workdir, format string, args ...any) *Error {
	return &Error{kind: kind, workdir: workdir, message: fmt.Sprintf(format, args...), critical: true}
}

func (err *Error) Error() string {
	if err.workdir == "" {
		return fmt.Sprintf("runner: %v: %s", err.kind, err.message)
	}
	return fmt.Sprintf("runner %s: %v: %s", err.workdir, err.kind, err.message)
}

func (err *Error) Unwrap() error { return err.kind }

// Decorate adds information to the error, and returns all decorations so far.
func (err *Error) Decorate(deco string) []string {
	if deco != "" {
		err.deco = append(err.deco, deco)
	}
	return err.deco
}

// FileName returns the work directory of the failed job.
func (err *Error) FileName() string { return err.workdir }

func (err *Error) Critical() bool { return err.critical }

// InputFunc writes the input of a program. material.Material.WriteInput is
// one; penepma.Input.Write needs a closure over its geometry index.
type InputFunc func(w io.Writer) error

// Job is one run of a program.
type Job struct {
	Program   config.Program
	WorkDir   string //created under the configured work directory if empty
	InputName string //the configured input name if empty
	Input     InputFunc
	Files     []string //copied into the work directory before the run, decompressed if needed
}

// Status is what a finished run left.
type Status struct {
	Program  config.Program
	WorkDir  string
	Lines    []string //standard output
	Stderr   string
	ExitCode int
	Elapsed  time.Duration
}

func (S *Status) Success() bool { return S.ExitCode == 0 }

// Runner starts the configured programs.
type Runner struct {
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *Metrics //nil records nothing
}

// New returns a runner for C. A nil logger discards the log.
func New(C *config.Config, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{Config: C, Logger: logger}
}

func (R *Runner) logger() *zap.Logger {
	if R.Logger == nil {
		return zap.NewNop()
	}
	return R.Logger
}

// prepare fills in the defaults of J, creates its work directory and writes
// its input there.
func (R *Runner) prepare(J *Job, pc *config.ProgramConfig) error {
	if J.Input == nil {
		return newError(ErrJob, J.WorkDir, "no input for %s", J.Program)
	}
	if J.WorkDir == "" {
		J.WorkDir = filepath.Join(R.Config.WorkDir, fmt.Sprintf("%s-%s", J.Program, uuid.NewString()))
	}
	if J.InputName == "" {
		J.InputName = pc.InputName
	}
	if err := os.MkdirAll(J.WorkDir, 0o755); err != nil {
		return newError(ErrJob, J.WorkDir, "%v", err)
	}
	f, err := os.Create(filepath.Join(J.WorkDir, J.InputName))
	if err != nil {
		return newError(ErrJob, J.WorkDir, "%v", err)
	}
	w := bufio.NewWriter(f)
	err = J.Input(w)
	if err == nil {
		err = w.Flush()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		e := newError(ErrJob, J.WorkDir, "writing %s: %v", J.InputName, err)
		e.Decorate("prepare")
		return e
	}
	for _, src := range J.Files {
		dst := filepath.Join(J.WorkDir, Plain(filepath.Base(src)))
		if err := fileio.Copy(src, dst); err != nil {
			return newError(ErrJob, J.WorkDir, "%v", err)
		}
	}
	return nil
}

// Plain returns name without the extension of its compression, if any.
func Plain(name string) string {
	if c := fileio.Compression(name); c != "" {
		return strings.TrimSuffix(name, "."+c)
	}
	return name
}

// Run writes the input of J into its work directory, runs the program and
// waits for it. The standard output is collected in the returned status and
// logged at debug level as it comes. A program that exits with an error
// gives both the status and an error wrapping ErrExit. Cancelling ctx kills
// the program.
func (R *Runner) Run(ctx context.Context, J *Job) (*Status, error) {
	pc, err := R.Config.Program(J.Program)
	if err != nil {
		return nil, newError(ErrJob, J.WorkDir, "%v", err)
	}
	if err := R.prepare(J, pc); err != nil {
		return nil, err
	}
	args := append([]string{}, pc.Args...)
	cmd := exec.CommandContext(ctx, pc.Executable, args...)
	cmd.Dir = J.WorkDir
	if pc.Stdin {
		in, err := os.Open(filepath.Join(J.WorkDir, J.InputName))
		if err != nil {
			return nil, newError(ErrJob, J.WorkDir, "%v", err)
		}
		defer in.Close()
		cmd.Stdin = in
	} else {
		cmd.Args = append(cmd.Args, J.InputName)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, newError(ErrStart, J.WorkDir, "%v", err)
	}
	var stderr strings.Builder
	cmd.Stderr = &stderr

	log := R.logger().With(zap.String("program", J.Program.String()), zap.String("workdir", J.WorkDir))
	S := &Status{Program: J.Program, WorkDir: J.WorkDir}
	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, newError(ErrStart, J.WorkDir, "%s: %v", pc.Executable, err)
	}
	log.Info("started", zap.String("executable", pc.Executable), zap.Int("pid", cmd.Process.Pid))
	R.Metrics.start()

	//the pipe has to be read to the end before Wait
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		sc := bufio.NewScanner(stdout)
		sc.Buffer(make([]byte, 64*1024), 1024*1024)
		for sc.Scan() {
			line := strings.TrimRight(sc.Text(), "\r")
			S.Lines = append(S.Lines, line)
			log.Debug("output", zap.String("line", line))
		}
		if err := sc.Err(); err != nil {
			io.Copy(io.Discard, stdout)
			return err
		}
		return nil
	})
	drainErr := g.Wait()
	waitErr := cmd.Wait()
	S.Elapsed = time.Since(start)
	S.Stderr = stderr.String()
	S.ExitCode = cmd.ProcessState.ExitCode()
	log.Info("finished", zap.Int("exit", S.ExitCode), zap.Duration("elapsed", S.Elapsed))

	var rerr *Error
	switch {
	case ctx.Err() != nil:
		rerr = &Error{kind: ctx.Err(), workdir: J.WorkDir, message: "killed", critical: true}
	case waitErr != nil:
		rerr = newError(ErrExit, J.WorkDir, "%s: exit status %d: %s", J.Program, S.ExitCode, strings.TrimSpace(S.Stderr))
	case drainErr != nil:
		rerr = newError(ErrExit, J.WorkDir, "reading output: %v", drainErr)
	}
	if rerr != nil {
		R.Metrics.done(S, S.Elapsed, rerr)
		return S, rerr
	}
	R.Metrics.done(S, S.Elapsed, nil)
	return S, nil
}

// Collect copies the files of the work directory of J matching any of
// patterns into dst, zstd-compressing them if compress is true. It returns
// the names of the new files.
func (R *Runner) Collect(J *Job, patterns []string, dst string, compress bool) ([]string, error) {
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return nil, newError(ErrJob, J.WorkDir, "%v", err)
	}
	var ret []string
	seen := make(map[string]bool)
	for _, p := range patterns {
		matches, err := filepath.Glob(filepath.Join(J.WorkDir, p))
		if err != nil {
			return ret, newError(ErrJob, J.WorkDir, "pattern %q: %v", p, err)
		}
		for _, m := range matches {
			if seen[m] {
				continue
			}
			seen[m] = true
			name := filepath.Join(dst, filepath.Base(m))
			if compress {
				name += ".zst"
			}
			if err := fileio.Copy(m, name); err != nil {
				e := newError(ErrJob, J.WorkDir, "%v", err)
				e.Decorate("Collect")
				return ret, e
			}
			R.logger().Debug("collected", zap.String("file", name))
			ret = append(ret, name)
		}
	}
	return ret, nil
}

// Clean removes the work directory of J unless the configuration asks to
// keep it.
func (R *Runner) Clean(J *Job) error {
	if R.Config.Keep || J.WorkDir == "" {
		return nil
	}
	R.logger().Debug("removing", zap.String("workdir", J.WorkDir))
	return os.RemoveAll(J.WorkDir)
}
