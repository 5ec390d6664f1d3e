/*
 * config.go, part of gopenelopetools.
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

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Program is one of the PENELOPE programs the tools know how to drive.
type Program int

const (
	Material Program = iota + 1 //builds material data files
	Penepma                     //electron probe microanalysis
)

var programNames = map[Program]string{
	Material: "material",
	Penepma:  "penepma",
}

func (P Program) String() string {
	if s, ok := programNames[P]; ok {
		return s
	}
	return fmt.Sprintf("Program(%d)", int(P))
}

// Programs returns every known program, in order.
func Programs() []Program {
	return []Program{Material, Penepma}
}

var ErrUnknownProgram = errors.New("unknown program")

// ParseProgram returns the program with the given name, ignoring case.
func ParseProgram(name string) (Program, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for p, s := range programNames {
		if s == name {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownProgram, name)
}

// ProgramConfig tells how to start a program.
type ProgramConfig struct {
	Executable string   `yaml:"executable"`
	Stdin      bool     `yaml:"stdin"`      //feed the input file on stdin instead of naming it
	Args       []string `yaml:"args,omitempty"`
	InputName  string   `yaml:"input_name"` //name of the input file in the work directory
}

// LogConfig sets up the logger of the command line tools.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` //json or console
}

// Config holds the settings of the tools. Programs is keyed by program name.
type Config struct {
	WorkDir  string                    `yaml:"workdir"`
	Keep     bool                      `yaml:"keep"` //keep the work directories after collecting results
	Log      LogConfig                 `yaml:"log"`
	Programs map[string]*ProgramConfig `yaml:"programs"`
}

// Default returns the configuration used when there is no file. The
// programs are looked for under $PENELOPE_PATH.
func Default() *Config {
	return &Config{
		WorkDir: os.TempDir(),
		Log:     LogConfig{Level: "info", Format: "console"},
		Programs: map[string]*ProgramConfig{
			Material.String(): {
				Executable: "${PENELOPE_PATH}/material",
				Stdin:      true,
				InputName:  "material.in",
			},
			Penepma.String(): {
				Executable: "${PENELOPE_PATH}/penepma",
				Stdin:      true,
				InputName:  "penepma.in",
			},
		},
	}
}

// Load reads the configuration in path over the defaults. A missing file
// is not an error, the defaults are returned.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	C, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return C, nil
}

// Parse reads a YAML configuration over the defaults and validates it.
func Parse(data []byte) (*Config, error) {
	C := Default()
	if err := yaml.Unmarshal(data, C); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	//a program given in the file only in part keeps the default for the rest
	def := Default()
	for name, p := range C.Programs {
		d, ok := def.Programs[name]
		if p == nil {
			C.Programs[name] = d
			continue
		}
		if !ok {
			continue
		}
		if p.Executable == "" {
			p.Executable = d.Executable
		}
		if p.InputName == "" {
			p.InputName = d.InputName
		}
	}
	if err := C.Validate(); err != nil {
		return nil, err
	}
	return C, nil
}

// Validate checks that only known programs are configured and that each
// has an executable.
func (C *Config) Validate() error {
	names := make([]string, 0, len(C.Programs))
	for name := range C.Programs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if P, err := ParseProgram(name); err != nil {
			return err
		} else if P.String() != name {
			return fmt.Errorf("program %q should be written %q", name, P.String())
		}
		p := C.Programs[name]
		if p == nil || p.Executable == "" {
			return fmt.Errorf("program %s: no executable", name)
		}
		if p.InputName == "" || strings.ContainsRune(p.InputName, filepath.Separator) {
			return fmt.Errorf("program %s: bad input name %q", name, p.InputName)
		}
	}
	switch C.Log.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("log format %q", C.Log.Format)
	}
	return nil
}

// Program returns the configuration of p with the environment variables
// in the executable and arguments expanded.
func (C *Config) Program(p Program) (*ProgramConfig, error) {
	pc, ok := C.Programs[p.String()]
	if !ok || pc == nil {
		return nil, fmt.Errorf("%w: %s is not configured", ErrUnknownProgram, p)
	}
	ret := *pc
	ret.Executable = os.ExpandEnv(pc.Executable)
	ret.Args = make([]string, len(pc.Args))
	for i, a := range pc.Args {
		ret.Args[i] = os.ExpandEnv(a)
	}
	return &ret, nil
}

// Save writes the configuration to path as YAML.
func (C *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(C)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
