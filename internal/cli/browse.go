package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/figtreehq/figtree/pkg/pipeline"
	"github.com/figtreehq/figtree/pkg/scene"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// browseCommand creates the browse command.
func (c *CLI) browseCommand() *cobra.Command {
	var noCache bool

	cmd := &cobra.Command{
		Use:   "browse <file>",
		Short: "Interactively walk the scene graph in a TUI",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := c.newRunner(noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			result, err := runner.Execute(cmd.Context(), pipeline.Options{
				Path:   args[0],
				Logger: c.Logger,
			})
			if err != nil {
				return err
			}

			model := NewTreeModel(result.Graph)
			p := tea.NewProgram(model, tea.WithContext(cmd.Context()))
			_, err = p.Run()
			return err
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the document cache")

	return cmd
}

// =============================================================================
// TreeModel - Interactive scene graph navigation
// =============================================================================

// TreeModel is the bubbletea model for walking the scene graph.
// Navigation is a stack of nodes from the root down to the current
// parent; the list shows the current parent's children.
type TreeModel struct {
	graph  *scene.Graph
	stack  []*scene.Node
	items  []*scene.Node
	Cursor int
	Height int
	Offset int
}

// NewTreeModel creates a tree model rooted at the document's pages.
func NewTreeModel(g *scene.Graph) TreeModel {
	m := TreeModel{
		graph:  g,
		Height: 15,
	}
	m.items = g.Pages
	if len(m.items) == 0 && g.Document != nil {
		m.items = g.ChildNodes(g.Document)
	}
	return m
}

func (m TreeModel) Init() tea.Cmd {
	return nil
}

func (m TreeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.items)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter", "l", "right":
			if m.Cursor < len(m.items) {
				node := m.items[m.Cursor]
				children := m.graph.ChildNodes(node)
				if len(children) > 0 {
					m.stack = append(m.stack, node)
					m.items = children
					m.Cursor = 0
					m.Offset = 0
				}
			}
		case "esc", "h", "left", "backspace":
			if len(m.stack) == 0 {
				return m, tea.Quit
			}
			parent := m.stack[len(m.stack)-1]
			m.stack = m.stack[:len(m.stack)-1]
			if len(m.stack) == 0 {
				m.items = m.graph.Pages
			} else {
				m.items = m.graph.ChildNodes(m.stack[len(m.stack)-1])
			}
			m.Cursor = indexOfNode(m.items, parent)
			m.Offset = 0
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 8
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m TreeModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Scene Graph"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ descend  ⌫ ascend  q quit"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(m.breadcrumb()))
	b.WriteString("\n\n")

	end := m.Offset + m.Height
	if end > len(m.items) {
		end = len(m.items)
	}

	for i := m.Offset; i < end; i++ {
		n := m.items[i]

		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}

		label := n.Name
		if label == "" {
			label = string(n.GUID)
		}
		childMark := ""
		if len(n.Children) > 0 {
			childMark = fmt.Sprintf(" (%d)", len(n.Children))
		}
		line := fmt.Sprintf("%s%-30s %s%s", cursor, label, listDimStyle.Render(n.Type), childMark)

		switch {
		case i == m.Cursor:
			b.WriteString(listSelectedStyle.Render(line))
		case !n.IsVisible():
			b.WriteString(listDimStyle.Render(line))
		default:
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.items))))

	return b.String()
}

// breadcrumb renders the navigation stack as a path.
func (m TreeModel) breadcrumb() string {
	parts := []string{"/"}
	for _, n := range m.stack {
		label := n.Name
		if label == "" {
			label = string(n.GUID)
		}
		parts = append(parts, label)
	}
	return strings.Join(parts, " › ")
}

func indexOfNode(nodes []*scene.Node, target *scene.Node) int {
	for i, n := range nodes {
		if n.GUID == target.GUID {
			return i
		}
	}
	return 0
}
