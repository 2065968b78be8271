package cli

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pangenomerge/pkg/pangraph"
)

func (c *CLI) inspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <graph.gml>",
		Short: "Browse the gene families of a graph",
		Long: `Inspect opens an interactive browser over the nodes of a graph.

Keys: ↑/↓ or j/k move, pgup/pgdn page, s cycles the sort order, enter shows
the neighbors of the selected family, q quits.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := loadGraph(args[0])
			if err != nil {
				return err
			}
			c.Logger.Debug("inspecting graph", "nodes", g.NodeCount(), "edges", g.EdgeCount())
			_, err = tea.NewProgram(newNodeBrowser(g), tea.WithContext(cmd.Context()), tea.WithAltScreen()).Run()
			return err
		},
	}
}

// =============================================================================
// nodeBrowser - Interactive node list
// =============================================================================

var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	detailBoxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim).Padding(0, 1)
)

// sortOrder orders the browser's rows.
type sortOrder int

const (
	sortBySize sortOrder = iota
	sortByDegree
	sortByID
)

func (s sortOrder) String() string {
	switch s {
	case sortByDegree:
		return "degree"
	case sortByID:
		return "id"
	default:
		return "genomes"
	}
}

// nodeBrowser is the bubbletea model of the inspect command.
type nodeBrowser struct {
	graph  *pangraph.Graph
	nodes  []*pangraph.Node
	order  sortOrder
	cursor int
	offset int
	height int
	expand bool
}

func newNodeBrowser(g *pangraph.Graph) nodeBrowser {
	g.RecomputeDegrees()
	m := nodeBrowser{graph: g, nodes: slices.Clone(g.Nodes()), height: 15}
	m.sort()
	return m
}

func (m *nodeBrowser) sort() {
	slices.SortStableFunc(m.nodes, func(a, b *pangraph.Node) int {
		var c int
		switch m.order {
		case sortBySize:
			c = cmp.Compare(b.Size(), a.Size())
		case sortByDegree:
			c = cmp.Compare(b.Degree, a.Degree)
		}
		if c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

func (m nodeBrowser) Init() tea.Cmd { return nil }

func (m nodeBrowser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			m.move(-1)
		case "down", "j":
			m.move(1)
		case "pgup":
			m.move(-m.height)
		case "pgdown":
			m.move(m.height)
		case "s":
			m.order = (m.order + 1) % 3
			m.sort()
			m.cursor, m.offset = 0, 0
		case "enter":
			m.expand = !m.expand
		}
	case tea.WindowSizeMsg:
		m.height = max(msg.Height-14, 5)
	}
	return m, nil
}

func (m *nodeBrowser) move(delta int) {
	if len(m.nodes) == 0 {
		return
	}
	m.cursor = min(max(m.cursor+delta, 0), len(m.nodes)-1)
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.height {
		m.offset = m.cursor - m.height + 1
	}
}

func (m nodeBrowser) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Gene families"))
	fmt.Fprintf(&b, "  %s\n", StyleDim.Render(fmt.Sprintf("%d nodes · %d edges · sorted by %s", m.graph.NodeCount(), m.graph.EdgeCount(), m.order)))
	b.WriteString(StyleDim.Render("↑/↓ navigate  s sort  ⏎ neighbors  q quit"))
	b.WriteString("\n\n")

	if len(m.nodes) == 0 {
		b.WriteString(StyleDim.Render("  (empty graph)"))
		return b.String()
	}

	end := min(m.offset+m.height, len(m.nodes))
	for i := m.offset; i < end; i++ {
		n := m.nodes[i]
		line := fmt.Sprintf("%-32s %4d genomes %4d genes %3d edges", truncate(n.ID, 32), n.Size(), len(n.SeqIDs), n.Degree)
		if i == m.cursor {
			b.WriteString(listSelectedStyle.Render("▸ " + line))
		} else {
			b.WriteString(listNormalStyle.Render("  " + line))
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\n%s\n", StyleDim.Render(fmt.Sprintf("  [%d/%d]", m.cursor+1, len(m.nodes))))
	b.WriteString(detailBoxStyle.Render(m.detail(m.nodes[m.cursor])))
	return b.String()
}

// detail describes one node.
func (m nodeBrowser) detail(n *pangraph.Node) string {
	lines := []string{
		StyleTitle.Render(n.ID),
		"genomes:    " + strings.Join(truncateList(n.Members.Sorted(), 12), " "),
		"genes:      " + fmt.Sprint(len(n.SeqIDs)),
		"lengths:    " + fmt.Sprint(n.Lengths),
	}
	if n.Annotation != "" {
		lines = append(lines, "annotation: "+n.Annotation)
	}
	if n.Description != "" {
		lines = append(lines, "desc:       "+n.Description)
	}
	if n.Paralog {
		lines = append(lines, StyleWarning.Render("paralog"))
	}
	if m.expand {
		neighbors := m.graph.Neighbors(n.ID)
		slices.Sort(neighbors)
		lines = append(lines, "neighbors:  "+strings.Join(truncateList(neighbors, 12), " "))
	}
	return strings.Join(lines, "\n")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}

func truncateList(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return append(slices.Clone(items[:n]), fmt.Sprintf("(+%d)", len(items)-n))
}
