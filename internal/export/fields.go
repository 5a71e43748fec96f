package export

import (
	"fmt"
	"strings"

	"github.com/rmcastelo/painel/internal/store"
)

// Field is one exportable project column.
type Field struct {
	Key   string
	Label string
}

// DefaultFields mirrors the selection the export dialog starts with.
func DefaultFields() []Field {
	return []Field{
		{Key: "id", Label: "Nº"},
		{Key: "nome", Label: "Projeto"},
		{Key: "status", Label: "Status"},
		{Key: "progresso", Label: "Progresso"},
		{Key: "prazo", Label: "Prazo"},
		{Key: "responsavel", Label: "Responsável"},
		{Key: "objetivo", Label: "Objetivo"},
		{Key: "passoCritico", Label: "Passo Crítico"},
		{Key: "metas", Label: "Metas"},
	}
}

func fieldValue(p store.Project, key string) string {
	switch key {
	case "id":
		return fmt.Sprintf("%d", p.ID)
	case "nome":
		return p.Nome
	case "status":
		return p.Status
	case "progresso":
		return fmt.Sprintf("%d%%", p.Progresso)
	case "prazo":
		return p.Prazo
	case "descricao":
		return p.Descricao
	case "objetivo":
		return p.Objetivo
	case "responsavel":
		return p.Responsavel
	case "passoCritico":
		return p.PassoCritico
	case "metas":
		return strings.Join(p.Metas, "; ")
	case "proximos_passos":
		texts := make([]string, len(p.Steps))
		for i, s := range p.Steps {
			texts[i] = s.Texto
		}
		return strings.Join(texts, "; ")
	default:
		return ""
	}
}
