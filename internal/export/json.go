package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rmcastelo/painel/internal/store"
	"github.com/rmcastelo/painel/internal/tasks"
)

type jsonExport struct {
	ExportedAt string          `json:"exported_at"`
	Count      int             `json:"count"`
	Projects   []jsonProject   `json:"projects"`
	NextSteps  []jsonStepGroup `json:"next_steps,omitempty"`
}

type jsonProject map[string]string

type jsonStepGroup struct {
	Project string     `json:"project"`
	Count   int        `json:"count"`
	Steps   []jsonStep `json:"steps"`
}

type jsonStep struct {
	Texto       string `json:"texto"`
	Status      string `json:"status"`
	Prazo       string `json:"prazo,omitempty"`
	Responsavel string `json:"responsavel,omitempty"`
}

// ToJSON writes the selected project fields plus the grouped
// next-steps view.
func ToJSON(projects []store.Project, fields []Field, groups []tasks.Group, path string) error {
	out := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(projects),
	}

	for _, p := range projects {
		row := make(jsonProject, len(fields))
		for _, field := range fields {
			row[field.Key] = fieldValue(p, field.Key)
		}
		out.Projects = append(out.Projects, row)
	}

	for _, g := range groups {
		group := jsonStepGroup{Project: g.ProjectName, Count: g.Count()}
		for _, t := range g.Tasks {
			group.Steps = append(group.Steps, jsonStep{
				Texto:       t.Texto,
				Status:      t.Status,
				Prazo:       t.StepPrazo,
				Responsavel: t.StepResponsavel,
			})
		}
		out.NextSteps = append(out.NextSteps, group)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
