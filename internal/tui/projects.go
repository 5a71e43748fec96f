package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/rmcastelo/painel/internal/store"
	"github.com/rmcastelo/painel/internal/tasks"
	"github.com/rmcastelo/painel/internal/velocity"
)

type projectsModel struct {
	store  *store.Store
	width  int
	height int

	projects      []store.Project
	cursor        int
	itemCursor    int
	viewingDetail bool

	formActive bool
	form       *huh.Form
	formType   string // "project", "edit_project", "step", "meta", "confirm_delete"

	// Form field pointers (survive value copies)
	formNome        *string
	formStatus      *string
	formProgress    *string
	formPrazo       *string
	formResponsavel *string
	formDescricao   *string
	formObjetivo    *string
	formPasso       *string
	formStepText    *string
	formMeta        *string
	formConfirm     *bool

	editingDocID string
}

func newProjectsModel(s *store.Store) projectsModel {
	nome, status, progress, prazo := "", store.StatusNotStarted, "0", ""
	responsavel, descricao, objetivo, passo := "", "", "", ""
	stepText, meta := "", ""
	confirm := false
	return projectsModel{
		store:           s,
		formNome:        &nome,
		formStatus:      &status,
		formProgress:    &progress,
		formPrazo:       &prazo,
		formResponsavel: &responsavel,
		formDescricao:   &descricao,
		formObjetivo:    &objetivo,
		formPasso:       &passo,
		formStepText:    &stepText,
		formMeta:        &meta,
		formConfirm:     &confirm,
	}
}

func (p *projectsModel) setSize(w, h int) {
	p.width = w
	p.height = h
}

func (p *projectsModel) setProjects(projects []store.Project) {
	p.projects = projects
	if p.cursor >= len(p.projects) {
		p.cursor = max(0, len(p.projects)-1)
	}
	if p.viewingDetail {
		p.clampItemCursor()
	}
}

func (p *projectsModel) clampItemCursor() {
	n := 0
	if p.cursor < len(p.projects) {
		proj := p.projects[p.cursor]
		n = len(proj.Steps) + len(proj.Metas)
	}
	if p.itemCursor >= n {
		p.itemCursor = max(0, n-1)
	}
}

func (p projectsModel) update(msg tea.Msg) (projectsModel, tea.Cmd) {
	if p.formActive && p.form != nil {
		return p.updateForm(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		if p.viewingDetail {
			return p.updateDetail(msg)
		}
		return p.updateList(msg)
	}
	return p, nil
}

func (p projectsModel) updateList(msg tea.KeyMsg) (projectsModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if p.cursor > 0 {
			p.cursor--
		}
	case key.Matches(msg, keys.Down):
		if p.cursor < len(p.projects)-1 {
			p.cursor++
		}
	case key.Matches(msg, keys.Enter):
		if len(p.projects) > 0 {
			p.viewingDetail = true
			p.itemCursor = 0
		}
	case key.Matches(msg, keys.New):
		return p.showProjectForm(false)
	case key.Matches(msg, keys.Edit):
		if len(p.projects) > 0 {
			return p.showProjectForm(true)
		}
	case key.Matches(msg, keys.Delete):
		if len(p.projects) > 0 {
			return p.showDeleteConfirm()
		}
	}
	return p, nil
}

func (p projectsModel) updateDetail(msg tea.KeyMsg) (projectsModel, tea.Cmd) {
	proj := p.projects[p.cursor]
	itemCount := len(proj.Steps) + len(proj.Metas)

	switch {
	case key.Matches(msg, keys.Back):
		p.viewingDetail = false
		return p, nil
	case key.Matches(msg, keys.Up):
		if p.itemCursor > 0 {
			p.itemCursor--
		}
	case key.Matches(msg, keys.Down):
		if p.itemCursor < itemCount-1 {
			p.itemCursor++
		}
	case key.Matches(msg, keys.New):
		return p.showStepForm()
	case msg.String() == "m":
		return p.showMetaForm()
	case key.Matches(msg, keys.Delete):
		if itemCount > 0 {
			return p, p.deleteItem(proj)
		}
	case msg.String() == "C":
		if itemCount > 0 {
			return p, p.clearList(proj)
		}
	}
	return p, nil
}

// clearList empties whichever list the cursor sits in.
func (p projectsModel) clearList(proj store.Project) tea.Cmd {
	docID := proj.DocID
	kind := tasks.KindSteps
	label := "Steps cleared"
	if p.itemCursor >= len(proj.Steps) {
		kind = tasks.KindMetas
		label = "Goals cleared"
	}
	projects := p.projects
	agg := tasks.New(p.store)
	return func() tea.Msg {
		if err := agg.ClearAll(projects, docID, kind); err != nil {
			return statusCmdError(fmt.Sprintf("Clear error: %v", err))
		}
		return statusCmdText(label)
	}
}

// deleteItem removes the step or meta under the cursor; the cursor
// spans steps first, then metas.
func (p projectsModel) deleteItem(proj store.Project) tea.Cmd {
	docID := proj.DocID
	idx := p.itemCursor
	kind := tasks.KindSteps
	if idx >= len(proj.Steps) {
		kind = tasks.KindMetas
		idx -= len(proj.Steps)
	}
	projects := p.projects
	agg := tasks.New(p.store)
	return func() tea.Msg {
		if err := agg.DeleteAt(projects, docID, kind, idx); err != nil {
			return statusCmdError(fmt.Sprintf("Delete error: %v", err))
		}
		return statusCmdText("Item removed")
	}
}

func (p projectsModel) showProjectForm(edit bool) (projectsModel, tea.Cmd) {
	if edit {
		proj := p.projects[p.cursor]
		*p.formNome = proj.Nome
		*p.formStatus = proj.Status
		*p.formProgress = strconv.Itoa(proj.Progresso)
		*p.formPrazo = proj.Prazo
		*p.formResponsavel = proj.Responsavel
		*p.formDescricao = proj.Descricao
		*p.formObjetivo = proj.Objetivo
		*p.formPasso = proj.PassoCritico
		p.formType = "edit_project"
		p.editingDocID = proj.DocID
	} else {
		*p.formNome = ""
		*p.formStatus = store.StatusNotStarted
		*p.formProgress = "0"
		*p.formPrazo = ""
		*p.formResponsavel = ""
		*p.formDescricao = ""
		*p.formObjetivo = ""
		*p.formPasso = ""
		p.formType = "project"
	}

	statusOptions := make([]huh.Option[string], len(projectStatuses))
	for i, s := range projectStatuses {
		statusOptions[i] = huh.NewOption(s, s)
	}

	p.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Name").Value(p.formNome).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("name is required")
					}
					return nil
				}),
			huh.NewSelect[string]().Title("Status").Options(statusOptions...).Value(p.formStatus),
			huh.NewInput().Title("Progress (0-100)").Value(p.formProgress).
				Validate(func(s string) error {
					n, err := strconv.Atoi(strings.TrimSpace(s))
					if err != nil || n < 0 || n > 100 {
						return fmt.Errorf("enter a number from 0 to 100")
					}
					return nil
				}),
			huh.NewInput().Title("Deadline (DD/MM/YYYY)").Value(p.formPrazo),
			huh.NewInput().Title("Owner").Value(p.formResponsavel),
		),
		huh.NewGroup(
			huh.NewText().Title("Description").Value(p.formDescricao),
			huh.NewText().Title("Objective").Value(p.formObjetivo),
			huh.NewInput().Title("Critical Step").Value(p.formPasso),
		),
	).WithShowHelp(true).WithShowErrors(true)

	p.formActive = true
	return p, p.form.Init()
}

func (p projectsModel) showStepForm() (projectsModel, tea.Cmd) {
	*p.formStepText = ""
	p.formType = "step"

	p.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Next Step").Value(p.formStepText),
		),
	).WithShowHelp(true).WithShowErrors(true)

	p.formActive = true
	return p, p.form.Init()
}

func (p projectsModel) showMetaForm() (projectsModel, tea.Cmd) {
	*p.formMeta = ""
	p.formType = "meta"

	p.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Goal").Value(p.formMeta),
		),
	).WithShowHelp(true).WithShowErrors(true)

	p.formActive = true
	return p, p.form.Init()
}

func (p projectsModel) showDeleteConfirm() (projectsModel, tea.Cmd) {
	proj := p.projects[p.cursor]
	*p.formConfirm = false
	p.formType = "confirm_delete"
	p.editingDocID = proj.DocID

	p.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete %q?", proj.Nome)).
				Description("The project and its steps are removed. Reminders keep their copy of the name.").
				Affirmative("Delete").
				Negative("Cancel").
				Value(p.formConfirm),
		),
	).WithShowHelp(true)

	p.formActive = true
	return p, p.form.Init()
}

func (p projectsModel) updateForm(msg tea.Msg) (projectsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			p.formActive = false
			p.form = nil
			return p, nil
		}
	}

	form, cmd := p.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		p.form = f
	}

	if p.form.State == huh.StateCompleted {
		p.formActive = false
		switch p.formType {
		case "project":
			return p, p.submitCreate()
		case "edit_project":
			return p, p.submitEdit()
		case "step":
			return p, p.submitStep()
		case "meta":
			return p, p.submitMeta()
		case "confirm_delete":
			if *p.formConfirm {
				return p, p.submitDelete()
			}
			return p, nil
		}
	}

	return p, cmd
}

func (p projectsModel) submitCreate() tea.Cmd {
	proj := store.Project{
		Nome:         strings.TrimSpace(*p.formNome),
		Status:       *p.formStatus,
		Progresso:    atoiClamped(*p.formProgress),
		Prazo:        strings.TrimSpace(*p.formPrazo),
		Responsavel:  strings.TrimSpace(*p.formResponsavel),
		Descricao:    *p.formDescricao,
		Objetivo:     *p.formObjetivo,
		PassoCritico: strings.TrimSpace(*p.formPasso),
	}
	s := p.store
	return func() tea.Msg {
		if err := s.CreateProject(&proj); err != nil {
			return statusCmdError(fmt.Sprintf("Create error: %v", err))
		}
		return statusCmdText(fmt.Sprintf("Project #%d created", proj.ID))
	}
}

func (p projectsModel) submitEdit() tea.Cmd {
	docID := p.editingDocID
	now := time.Now().UTC()
	fields := map[string]any{
		"nome":         strings.TrimSpace(*p.formNome),
		"status":       *p.formStatus,
		"progresso":    atoiClamped(*p.formProgress),
		"prazo":        strings.TrimSpace(*p.formPrazo),
		"responsavel":  strings.TrimSpace(*p.formResponsavel),
		"descricao":    *p.formDescricao,
		"objetivo":     *p.formObjetivo,
		"passoCritico": strings.TrimSpace(*p.formPasso),
		"updatedAt":    now,
	}
	if *p.formStatus == store.StatusCompleted {
		fields["completedAt"] = now
		fields["progresso"] = 100
	}
	s := p.store
	return func() tea.Msg {
		if err := s.UpdateProject(docID, fields); err != nil {
			return statusCmdError(fmt.Sprintf("Update error: %v", err))
		}
		return statusCmdText("Project updated")
	}
}

func (p projectsModel) submitStep() tea.Cmd {
	text := strings.TrimSpace(*p.formStepText)
	if text == "" {
		return nil
	}
	proj := p.projects[p.cursor]
	steps := append(append([]store.Step{}, proj.Steps...), store.Step{Texto: text, Status: store.StepPending})
	docID := proj.DocID
	s := p.store
	return func() tea.Msg {
		if err := s.SaveSteps(docID, steps); err != nil {
			return statusCmdError(fmt.Sprintf("Step error: %v", err))
		}
		if err := s.UpdateProject(docID, map[string]any{"updatedAt": time.Now().UTC()}); err != nil {
			return statusCmdError(fmt.Sprintf("Step error: %v", err))
		}
		return statusCmdText("Step added")
	}
}

func (p projectsModel) submitMeta() tea.Cmd {
	text := strings.TrimSpace(*p.formMeta)
	if text == "" {
		return nil
	}
	proj := p.projects[p.cursor]
	metas := append(append([]string{}, proj.Metas...), text)
	docID := proj.DocID
	s := p.store
	return func() tea.Msg {
		if err := s.SaveMetas(docID, metas); err != nil {
			return statusCmdError(fmt.Sprintf("Goal error: %v", err))
		}
		return statusCmdText("Goal added")
	}
}

func (p projectsModel) submitDelete() tea.Cmd {
	docID := p.editingDocID
	s := p.store
	return func() tea.Msg {
		if err := s.DeleteProject(docID); err != nil {
			return statusCmdError(fmt.Sprintf("Delete error: %v", err))
		}
		return statusCmdText("Project deleted")
	}
}

func atoiClamped(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}

func (p projectsModel) view() string {
	if p.formActive && p.form != nil {
		title := titleStyle.Render("New Project")
		switch p.formType {
		case "edit_project":
			title = titleStyle.Render("Edit Project")
		case "step":
			title = titleStyle.Render("New Step")
		case "meta":
			title = titleStyle.Render("New Goal")
		case "confirm_delete":
			title = titleStyle.Render("Delete Project")
		}
		formView := p.form.View()
		content := lipgloss.JoinVertical(lipgloss.Left, title, "", formView)
		return panelStyle.Width(p.width - 4).Render(content)
	}

	if p.viewingDetail {
		return p.renderDetail()
	}
	return p.renderList()
}

func (p projectsModel) renderList() string {
	w := p.width - 4
	title := titleStyle.Render("Projects")

	if len(p.projects) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No projects yet. Press n to create one."),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	header := mutedStyle.Render(fmt.Sprintf("  %-4s %-28s %-14s %5s  %-11s %s",
		"#", "Name", "Status", "Prog", "Deadline", "Owner"))
	rows = append(rows, header)

	now := time.Now()
	for i, proj := range p.projects {
		cursor := "  "
		style := normalItemStyle
		if i == p.cursor {
			cursor = "> "
			style = selectedItemStyle
		}

		dot := lipgloss.NewStyle().Foreground(statusColors[proj.Status]).Render("●")
		vel := ""
		if proj.Status == store.StatusInProgress || proj.Status == store.StatusPlanned {
			switch velocity.Classify(proj, now) {
			case velocity.Slow:
				vel = " " + velocitySlowStyle.Render("◆")
			case velocity.Stagnant:
				vel = " " + velocityStagnantStyle.Render("◆")
			}
		}

		row := style.Render(fmt.Sprintf("%s%-4d %-28s", cursor, proj.ID, truncate(proj.Nome, 28))) +
			fmt.Sprintf(" %s %-12s %4d%%  %-11s %s%s",
				dot, truncate(proj.Status, 12), proj.Progresso,
				shortPrazo(proj.Prazo), truncate(proj.Responsavel, 14), vel)
		rows = append(rows, row)
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  n: new  e: edit  d: delete  enter: details"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (p projectsModel) renderDetail() string {
	w := p.width - 4
	proj := p.projects[p.cursor]

	dot := lipgloss.NewStyle().Foreground(statusColors[proj.Status]).Render("●")
	title := titleStyle.Render(fmt.Sprintf("%s #%d %s", dot, proj.ID, proj.Nome))

	var rows []string
	rows = append(rows, title)
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %s · %d%% · %s", proj.Status, proj.Progresso, shortPrazo(proj.Prazo))))
	rows = append(rows, "")

	if proj.Descricao != "" {
		rows = append(rows, "  "+proj.Descricao)
		rows = append(rows, "")
	}
	if proj.Objetivo != "" {
		rows = append(rows, highlightStyle.Render("  Objective: ")+proj.Objetivo)
	}
	if proj.PassoCritico != "" {
		rows = append(rows, warningStyle.Render("  Critical step: ")+proj.PassoCritico)
	}
	if proj.Objetivo != "" || proj.PassoCritico != "" {
		rows = append(rows, "")
	}

	rows = append(rows, titleStyle.Render("  Next Steps"))
	if len(proj.Steps) == 0 {
		rows = append(rows, mutedStyle.Render("    none"))
	}
	for i, step := range proj.Steps {
		cursor := "    "
		style := normalItemStyle
		if i == p.itemCursor {
			cursor = "  > "
			style = selectedItemStyle
		}
		icon := stepStatusIcon(step.Status)
		extra := ""
		if step.Aguardando != "" {
			extra = mutedStyle.Render(" (waiting on " + step.Aguardando + ")")
		}
		rows = append(rows, style.Render(fmt.Sprintf("%s%s %s", cursor, icon, step.Texto))+extra)
	}

	rows = append(rows, "")
	rows = append(rows, titleStyle.Render("  Goals"))
	if len(proj.Metas) == 0 {
		rows = append(rows, mutedStyle.Render("    none"))
	}
	for i, meta := range proj.Metas {
		cursor := "    "
		style := normalItemStyle
		if len(proj.Steps)+i == p.itemCursor {
			cursor = "  > "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+"• "+meta))
	}

	if swot := renderSWOT(proj.SWOT); swot != "" {
		rows = append(rows, "")
		rows = append(rows, swot)
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  n: add step  m: add goal  d: delete item  C: clear list  esc: back"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func renderSWOT(s store.SWOT) string {
	if s.Forcas == "" && s.Fraquezas == "" && s.Oportunidades == "" && s.Ameacas == "" {
		return ""
	}
	var rows []string
	rows = append(rows, titleStyle.Render("  SWOT"))
	quad := func(label, text string, style lipgloss.Style) {
		if text == "" {
			return
		}
		rows = append(rows, style.Render("    "+label+": ")+text)
	}
	quad("Strengths", s.Forcas, successStyle)
	quad("Weaknesses", s.Fraquezas, errorStyle)
	quad("Opportunities", s.Oportunidades, highlightStyle)
	quad("Threats", s.Ameacas, warningStyle)
	return strings.Join(rows, "\n")
}
