package report

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// WriteText writes the entries for pkg as human-readable styled text,
// one table per declaring type. Output uses lipgloss for color and
// formatting when the output is a TTY; degrades gracefully for pipes
// and CI.
func WriteText(w io.Writer, pkg string, entries []Entry) error {
	s := DefaultStyles()

	fmt.Fprintln(w, s.SubHeader.Render(pkg))
	if len(entries) == 0 {
		fmt.Fprintln(w, s.Muted.Render("    No nil-argument cases."))
		return nil
	}

	groups, order := groupByType(entries)
	members := make(map[string]bool)
	for _, name := range order {
		fmt.Fprintln(w)
		writeGroup(w, name, groups[name], s)
		for _, e := range groups[name] {
			members[e.QualifiedName()] = true
		}
	}

	fmt.Fprintf(w, "\n%s\n",
		s.Header.Render(fmt.Sprintf(
			"%d type(s), %d member(s), %d case(s)",
			len(order), len(members), len(entries))))
	return nil
}

func groupByType(entries []Entry) (map[string][]Entry, []string) {
	groups := make(map[string][]Entry)
	var order []string
	for _, e := range entries {
		name := e.Type
		if name == "" {
			name = "(package)"
		}
		if _, ok := groups[name]; !ok {
			order = append(order, name)
		}
		groups[name] = append(groups[name], e)
	}
	return groups, order
}

func writeGroup(w io.Writer, name string, entries []Entry, s Styles) {
	fmt.Fprintln(w, s.Header.Render(fmt.Sprintf("=== %s ===", name)))

	// Budget: 80 cols total. Borders take 5, padding 8 for 4 columns.
	const maxType = 24
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		typ := e.ParamType
		if len(typ) > maxType {
			typ = typ[:maxType-3] + "..."
		}
		rows = append(rows, []string{e.Kind, e.Member, e.Param, typ})
	}

	t := table.New().
		Width(76).
		Border(lipgloss.NormalBorder()).
		BorderStyle(s.Border).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.TableHeader
			}
			if col == 0 && row >= 0 && row < len(rows) {
				return s.KindStyle(rows[row][0])
			}
			return s.TableCell
		}).
		Headers("KIND", "MEMBER", "NIL PARAM", "TYPE").
		Rows(rows...)

	fmt.Fprintln(w, t)
}
