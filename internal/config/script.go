package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Script is a list of operations replayed on top of the seed by hs run.
type Script struct {
	Steps []Step `yaml:"steps"`
}

// Step is one scripted operation. Which fields matter depends on Op.
type Step struct {
	Op          string  `yaml:"op" json:"op"`
	Project     int     `yaml:"project" json:"project"`
	Task        string  `yaml:"task" json:"task,omitempty"`
	Description string  `yaml:"description,omitempty" json:"description,omitempty"`
	Worker      int     `yaml:"worker,omitempty" json:"-"`
	Strategy    string  `yaml:"strategy,omitempty" json:"strategy,omitempty"`
	Days        float64 `yaml:"days,omitempty" json:"days,omitempty"`
	Date        string  `yaml:"date,omitempty" json:"date,omitempty"`
}

const (
	OpAddTask  = "add_task"
	OpAssign   = "assign"
	OpReassign = "reassign"
	OpDelay    = "delay"
	OpFinish   = "finish"
	OpFinalize = "finalize"
)

const (
	StrategyFirst      = "first"
	StrategyLeastDelay = "least-delay"
)

// LoadScript reads and validates a script file.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ScriptFromYAML(data)
}

func ScriptFromYAML(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("invalid script yaml: %w", err)
	}
	for i, st := range s.Steps {
		if err := st.validate(); err != nil {
			return nil, fmt.Errorf("steps[%d]: %w", i, err)
		}
	}
	return &s, nil
}

func (s Step) validate() error {
	if s.Project <= 0 {
		return fmt.Errorf("project is required")
	}
	if s.Op != OpFinalize && strings.TrimSpace(s.Task) == "" {
		return fmt.Errorf("%s needs a task", s.Op)
	}
	switch s.Op {
	case OpAddTask, OpFinish:
	case OpDelay:
		if s.Days <= 0 {
			return fmt.Errorf("delay needs days > 0")
		}
	case OpFinalize:
		if s.Date == "" {
			return fmt.Errorf("finalize needs a date")
		}
	case OpAssign:
		if s.Strategy != "" && s.Strategy != StrategyFirst && s.Strategy != StrategyLeastDelay {
			return fmt.Errorf("unknown strategy %q", s.Strategy)
		}
	case OpReassign:
		if s.Worker == 0 && s.Strategy != StrategyLeastDelay {
			return fmt.Errorf("reassign needs a worker or strategy least-delay")
		}
	default:
		return fmt.Errorf("unknown op %q", s.Op)
	}
	return nil
}
