package review

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"monoscan/extract"
	"monoscan/service"
)

// analysisMsg delivers the finished analysis to the UI loop.
type analysisMsg struct {
	analysis *service.Analysis
	err      error
}

// item adapts one classified ingredient to the list component.
type item struct {
	ia service.IngredientAnalysis
}

func (i item) Title() string {
	return i.ia.Ingredient.Name
}

func (i item) Description() string {
	verdict := i.ia.Verdict.ClassificationText
	if verdict == "" {
		verdict = "non-medicinal"
	}
	return fmt.Sprintf("%s · confidence %.2f", verdict, i.ia.Verdict.Confidence)
}

func (i item) FilterValue() string {
	return i.ia.Ingredient.Name
}

// Model is the interactive review screen: the ingredient list on the
// left, the selected verdict's detail on the right.
type Model struct {
	analyzer *service.Analyzer
	path     string

	list     list.Model
	detail   viewport.Model
	spinner  spinner.Model
	markdown *glamour.TermRenderer

	analysis *service.Analysis
	loading  bool
	err      error
	width    int
	height   int
}

// NewModel creates the review screen for one document.
func NewModel(analyzer *service.Analyzer, path string) Model {
	s := spinner.New()
	s.Spinner = spinner.Jump
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	l := list.New(nil, list.NewDefaultDelegate(), 40, 20)
	l.Title = "Ingredients"
	l.SetShowStatusBar(false)

	markdown, _ := glamour.NewTermRenderer(
		glamour.WithStylePath("dracula"),
		glamour.WithWordWrap(0),
	)

	return Model{
		analyzer: analyzer,
		path:     path,
		list:     l,
		detail:   viewport.New(40, 20),
		spinner:  s,
		markdown: markdown,
		loading:  true,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.analyze())
}

// analyze runs the pipeline off the UI loop.
func (m Model) analyze() tea.Cmd {
	return func() tea.Msg {
		analysis, err := m.analyzer.AnalyzeFile(context.Background(), m.path)
		return analysisMsg{analysis: analysis, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()

	case analysisMsg:
		m.loading = false
		m.err = msg.err
		m.analysis = msg.analysis
		if m.analysis != nil {
			items := make([]list.Item, len(m.analysis.Ingredients))
			for i, ia := range m.analysis.Ingredients {
				items[i] = item{ia: ia}
			}
			m.list.SetItems(items)
			m.renderDetail()
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	}

	if m.loading {
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	before := m.list.Index()
	m.list, cmd = m.list.Update(msg)
	cmds = append(cmds, cmd)
	if m.list.Index() != before {
		m.renderDetail()
	}

	m.detail, cmd = m.detail.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// layout recomputes component sizes from the window size.
func (m *Model) layout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	listWidth := m.width / 3
	if listWidth < 30 {
		listWidth = 30
	}
	contentHeight := m.height - 2
	if contentHeight < 1 {
		contentHeight = 1
	}
	m.list.SetSize(listWidth, contentHeight)
	m.detail.Width = m.width - listWidth - 2
	m.detail.Height = contentHeight
	m.renderDetail()
}

// renderDetail rebuilds the detail pane for the selected ingredient.
func (m *Model) renderDetail() {
	selected, ok := m.list.SelectedItem().(item)
	if !ok {
		m.detail.SetContent("")
		return
	}

	md := detailMarkdown(selected.ia)
	if m.markdown != nil {
		if rendered, err := m.markdown.Render(md); err == nil {
			md = rendered
		}
	}
	m.detail.SetContent(md)
	m.detail.GotoTop()
}

// detailMarkdown formats one verdict as markdown for the detail pane.
func detailMarkdown(ia service.IngredientAnalysis) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", ia.Ingredient.Name)
	if ia.Ingredient.Amount != "" {
		fmt.Fprintf(&sb, "**Amount:** %s\n\n", ia.Ingredient.Amount)
	}
	fmt.Fprintf(&sb, "**Type:** %s\n\n", ia.Ingredient.Type)
	if ia.Ingredient.Type == extract.Medicinal {
		fmt.Fprintf(&sb, "**Classification:** %s\n\n", ia.Verdict.ClassificationText)
		fmt.Fprintf(&sb, "**Monograph found:** %t\n\n", ia.Verdict.MonographFound)
	}
	fmt.Fprintf(&sb, "**Confidence:** %.2f\n\n", ia.Verdict.Confidence)
	if ia.Verdict.Reasoning != "" {
		fmt.Fprintf(&sb, "## Reasoning\n\n%s\n", ia.Verdict.Reasoning)
	}
	return sb.String()
}

var statusStyle = lipgloss.NewStyle().Padding(0, 1).Faint(true)

func (m Model) View() string {
	if m.loading {
		return fmt.Sprintf("\n %s Analyzing %s...\n", m.spinner.View(), m.path)
	}
	if m.err != nil {
		return fmt.Sprintf("\n analysis failed: %v\n\n press q to quit\n", m.err)
	}
	if m.analysis == nil || len(m.analysis.Ingredients) == 0 {
		return "\n No ingredient list recognized.\n\n press q to quit\n"
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top, m.list.View(), "  ", m.detail.View())
	status := statusStyle.Render(fmt.Sprintf(
		"%s · strategy: %s · %d ingredients · %d monographs found · q to quit",
		m.analysis.File, m.analysis.Strategy,
		m.analysis.Summary.Total, m.analysis.Summary.MonographsFound,
	))
	return lipgloss.JoinVertical(lipgloss.Left, body, status)
}

// Run starts the review UI and blocks until the user quits.
func Run(analyzer *service.Analyzer, path string) error {
	p := tea.NewProgram(NewModel(analyzer, path), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
