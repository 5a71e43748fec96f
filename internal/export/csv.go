package export

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/rmcastelo/painel/internal/store"
	"github.com/rmcastelo/painel/internal/tasks"
)

// ToCSV writes the selected project fields plus a grouped next-steps
// section. The file starts with a UTF-8 BOM so spreadsheet apps keep
// the accented characters intact.
func ToCSV(projects []store.Project, fields []Field, groups []tasks.Group, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write([]byte("\xEF\xBB\xBF")); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}

	w := csv.NewWriter(f)
	defer w.Flush()

	header := make([]string, len(fields))
	for i, field := range fields {
		header[i] = field.Label
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, p := range projects {
		row := make([]string, len(fields))
		for i, field := range fields {
			row[i] = fieldValue(p, field.Key)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	if len(groups) > 0 {
		if err := w.Write([]string{}); err != nil {
			return err
		}
		if err := w.Write([]string{"Próximos Passos"}); err != nil {
			return err
		}
		if err := w.Write([]string{"Projeto", "Passo", "Status", "Prazo", "Responsável"}); err != nil {
			return err
		}
		for _, g := range groups {
			for _, t := range g.Tasks {
				row := []string{g.ProjectName, t.Texto, t.Status, t.StepPrazo, t.StepResponsavel}
				if err := w.Write(row); err != nil {
					return err
				}
			}
		}
	}

	return w.Error()
}
