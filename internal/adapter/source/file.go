package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"crontab/internal/crontab"
	"crontab/internal/shared"
)

// File reads a YAML crontab:
//
//	tab:
//	  backup:
//	    command: "pg_dump app > /backups/app.sql"
//	    expression: "0 3 * * *"
//	    type: external
//
// The `tab` mapping may also be nested under a top-level `crontab` key.
// Jobs keep the order in which they appear in the file.
type File struct {
	path   string
	logger *slog.Logger
}

// NewFile creates a File source.
func NewFile(path string, logger *slog.Logger) *File {
	if logger == nil {
		logger = slog.Default()
	}
	return &File{path: path, logger: logger}
}

// Load implements Source.
func (f *File) Load(_ context.Context) ([]crontab.Record, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read crontab file: %w", err)
	}
	records, err := ParseYAML(data)
	if err != nil {
		return nil, shared.Wrapf(err, "%s", f.path)
	}
	f.logger.Debug("crontab file loaded", "path", f.path, "jobs", len(records))
	return records, nil
}

// ParseYAML decodes the `tab` mapping of a crontab document. Duplicate job
// names are returned as separate records so the registry can reject them.
func ParseYAML(data []byte) ([]crontab.Record, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: yaml: %w", shared.ErrInvalidJob, err)
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: yaml: top level must be a mapping", shared.ErrInvalidJob)
	}
	tab := lookup(root, "tab")
	if tab == nil {
		if nested := lookup(root, "crontab"); nested != nil && nested.Kind == yaml.MappingNode {
			tab = lookup(nested, "tab")
		}
	}
	if tab == nil || tab.Tag == "!!null" {
		return nil, nil
	}
	if tab.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: yaml: line %d: tab must be a mapping of job name to job", shared.ErrInvalidJob, tab.Line)
	}

	records := make([]crontab.Record, 0, len(tab.Content)/2)
	for i := 0; i+1 < len(tab.Content); i += 2 {
		key, value := tab.Content[i], tab.Content[i+1]
		if value.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("%w: yaml: line %d: job %q must be a mapping", shared.ErrInvalidJob, value.Line, key.Value)
		}
		var r crontab.Record
		if err := value.Decode(&r); err != nil {
			return nil, fmt.Errorf("%w: yaml: job %q: %w", shared.ErrInvalidJob, key.Value, err)
		}
		r.Name = key.Value
		records = append(records, r)
	}
	return records, nil
}

func lookup(mapping *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}
