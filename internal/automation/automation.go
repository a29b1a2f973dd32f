// Package automation replays scripted control changes against a running
// simulation and sweeps scenario parameters across runs.
package automation

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/san-kum/particlelife/internal/dynamo"
	"github.com/san-kum/particlelife/internal/universe"
	"gopkg.in/yaml.v3"
)

// Script is a timed sequence of control events.
type Script struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Steps       int     `yaml:"steps"`
	Events      []Event `yaml:"events"`
}

// Event fires before timestep At. Every set field is applied, in the order
// the fields are declared.
type Event struct {
	At         int              `yaml:"at"`
	Seed       *uint64          `yaml:"seed,omitempty"`
	Preset     string           `yaml:"preset,omitempty"`
	Randomize  *universe.Params `yaml:"randomize,omitempty"`
	Wrap       *bool            `yaml:"wrap,omitempty"`
	Friction   *float64         `yaml:"friction,omitempty"`
	DeltaTime  *float64         `yaml:"delta_time,omitempty"`
	TimeScale  float64          `yaml:"time_scale,omitempty"`
	DumpParams bool             `yaml:"dump_params,omitempty"`
}

// Controls is the part of a simulator a script drives.
type Controls interface {
	Step(ctx context.Context) error
	Reseed(seed uint64)
	ApplyPreset(name string) error
	Randomize(p universe.Params) error
	SetWrap(wrap bool)
	SetFriction(f float64) error
	SetDeltaTime(dt float64) error
	ScaleTime(factor float64) error
	WriteParams(w io.Writer) error
}

// LoadScript loads a script from a YAML file.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScript(data)
}

// ParseScript decodes and validates a YAML script.
func ParseScript(data []byte) (*Script, error) {
	var script Script
	if err := yaml.Unmarshal(data, &script); err != nil {
		return nil, err
	}
	if err := script.Validate(); err != nil {
		return nil, err
	}
	sort.SliceStable(script.Events, func(i, j int) bool { return script.Events[i].At < script.Events[j].At })
	return &script, nil
}

func (s *Script) Validate() error {
	if s.Steps <= 0 {
		return dynamo.Invalidf("script %q: steps must be positive", s.Name)
	}
	for i, ev := range s.Events {
		if ev.At < 0 || ev.At > s.Steps {
			return dynamo.Invalidf("script %q: event %d at step %d outside [0, %d]", s.Name, i, ev.At, s.Steps)
		}
		if ev.TimeScale < 0 || !dynamo.Finite(ev.TimeScale) {
			return dynamo.Invalidf("script %q: event %d needs a finite non-negative time scale", s.Name, i)
		}
	}
	return nil
}

// Run plays the script: events due at step k fire, then timestep k runs.
// Parameter dumps go to out. It returns the number of events applied.
func Run(ctx context.Context, script *Script, target Controls, out io.Writer) (int, error) {
	applied := 0
	next := 0
	for step := 0; step <= script.Steps; step++ {
		for next < len(script.Events) && script.Events[next].At == step {
			if err := apply(script.Events[next], target, out); err != nil {
				return applied, fmt.Errorf("event at step %d: %w", step, err)
			}
			applied++
			next++
		}
		if step == script.Steps {
			break
		}
		if err := target.Step(ctx); err != nil {
			return applied, err
		}
	}
	return applied, nil
}

func apply(ev Event, target Controls, out io.Writer) error {
	if ev.Seed != nil {
		target.Reseed(*ev.Seed)
	}
	if ev.Preset != "" {
		if err := target.ApplyPreset(ev.Preset); err != nil {
			return err
		}
	}
	if ev.Randomize != nil {
		if err := target.Randomize(*ev.Randomize); err != nil {
			return err
		}
	}
	if ev.Wrap != nil {
		target.SetWrap(*ev.Wrap)
	}
	if ev.Friction != nil {
		if err := target.SetFriction(*ev.Friction); err != nil {
			return err
		}
	}
	if ev.DeltaTime != nil {
		if err := target.SetDeltaTime(*ev.DeltaTime); err != nil {
			return err
		}
	}
	if ev.TimeScale > 0 {
		if err := target.ScaleTime(ev.TimeScale); err != nil {
			return err
		}
	}
	if ev.DumpParams && out != nil {
		if err := target.WriteParams(out); err != nil {
			return err
		}
	}
	return nil
}
