package crontab

import (
	"fmt"
	"maps"
	"strings"

	"crontab/internal/shared"
)

// Kind selects how a job's command is executed. The set is closed.
type Kind int

const (
	// KindExternal runs the command line through the OS shell.
	KindExternal Kind = iota + 1
	// KindInternal resolves the command against the in-process command tree.
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindExternal:
		return "external"
	case KindInternal:
		return "internal"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind maps a configuration type string to a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "external", "shell":
		return KindExternal, nil
	case "internal", "command":
		return KindInternal, nil
	default:
		return 0, fmt.Errorf("%w: unknown type %q", shared.ErrInvalidJob, s)
	}
}

// Params are the scalar arguments of an internal job. Values are strings,
// booleans, numbers, nil, or lists of those.
type Params map[string]any

// Job is an immutable job definition.
type Job struct {
	name     string
	command  string
	schedule *Expression
	kind     Kind
	params   Params
}

// NewJob validates and builds a job. Params are kept only for internal jobs.
func NewJob(name, command string, schedule *Expression, kind Kind, params Params) (*Job, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", shared.ErrInvalidJob)
	}
	if strings.TrimSpace(command) == "" {
		return nil, fmt.Errorf("%w: job %q: command is required", shared.ErrInvalidJob, name)
	}
	if schedule == nil {
		return nil, fmt.Errorf("%w: job %q: schedule is required", shared.ErrInvalidJob, name)
	}
	if kind != KindExternal && kind != KindInternal {
		return nil, fmt.Errorf("%w: job %q: %s", shared.ErrInvalidJob, name, kind)
	}

	j := &Job{name: name, command: command, schedule: schedule, kind: kind}
	if kind == KindInternal && len(params) > 0 {
		for k, v := range params {
			if err := checkParam(v); err != nil {
				return nil, fmt.Errorf("%w: job %q: param %q: %w", shared.ErrInvalidJob, name, k, err)
			}
		}
		j.params = maps.Clone(params)
	}
	return j, nil
}

func checkParam(v any) error {
	switch x := v.(type) {
	case nil, string, bool, int, int32, int64, uint, uint32, uint64, float32, float64, fmt.Stringer:
		return nil
	case []any:
		for _, item := range x {
			if _, nested := item.([]any); nested {
				return fmt.Errorf("nested lists are not supported")
			}
			if err := checkParam(item); err != nil {
				return err
			}
		}
		return nil
	case []string:
		return nil
	default:
		return fmt.Errorf("unsupported value of type %T", v)
	}
}

func (j *Job) Name() string          { return j.name }
func (j *Job) Command() string       { return j.command }
func (j *Job) Schedule() *Expression { return j.schedule }
func (j *Job) Kind() Kind            { return j.kind }

// Params returns a copy of the job's params; nil for external jobs.
func (j *Job) Params() Params {
	return maps.Clone(j.params)
}

// Record is one job entry as read from a configuration source.
type Record struct {
	Name       string         `yaml:"-" json:"name"`
	Command    string         `yaml:"command" json:"command"`
	Expression string         `yaml:"expression" json:"expression"`
	Type       string         `yaml:"type" json:"type"`
	Params     map[string]any `yaml:"params" json:"params,omitempty"`
}

// Job converts the record into a validated job definition.
func (r Record) Job() (*Job, error) {
	if strings.TrimSpace(r.Expression) == "" {
		return nil, fmt.Errorf("%w: job %q: expression is required", shared.ErrInvalidJob, r.Name)
	}
	kind, err := ParseKind(r.Type)
	if err != nil {
		return nil, shared.Wrapf(err, "job %q", r.Name)
	}
	schedule, err := ParseExpression(r.Expression)
	if err != nil {
		return nil, shared.Wrapf(err, "job %q", r.Name)
	}
	return NewJob(r.Name, r.Command, schedule, kind, r.Params)
}
