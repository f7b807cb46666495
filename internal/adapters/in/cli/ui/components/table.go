// Package components renders reusable terminal widgets.
package components

import (
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"

	"github.com/eci4ever/bizadmin/internal/adapters/in/cli/ui/styles"
	"github.com/eci4ever/bizadmin/internal/domain"
)

// TableColumn defines a table column. Width zero means unbounded.
type TableColumn struct {
	Title string
	Width int
}

// TableModel is a styled table.
type TableModel struct {
	columns     []TableColumn
	rows        [][]string
	border      lipgloss.Border
	borderStyle lipgloss.Style
	headerStyle lipgloss.Style
	cellStyle   lipgloss.Style
}

// TableOption configures a TableModel.
type TableOption func(*TableModel)

// NewTable creates a new styled table.
func NewTable(opts ...TableOption) *TableModel {
	t := &TableModel{
		border:      lipgloss.RoundedBorder(),
		borderStyle: lipgloss.NewStyle().Foreground(styles.ColorBorder),
		headerStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.ColorPrimary).
			Padding(0, 1),
		cellStyle: lipgloss.NewStyle().
			Foreground(styles.ColorText).
			Padding(0, 1),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func WithColumns(cols []TableColumn) TableOption {
	return func(t *TableModel) { t.columns = cols }
}

func WithRows(rows [][]string) TableOption {
	return func(t *TableModel) { t.rows = rows }
}

func WithHeaderStyle(s lipgloss.Style) TableOption {
	return func(t *TableModel) { t.headerStyle = s }
}

func WithCellStyle(s lipgloss.Style) TableOption {
	return func(t *TableModel) { t.cellStyle = s }
}

// AddRow appends a row.
func (t *TableModel) AddRow(row []string) {
	t.rows = append(t.rows, row)
}

// Render renders the table. A table without columns renders empty.
func (t *TableModel) Render() string {
	if len(t.columns) == 0 {
		return ""
	}

	headers := make([]string, len(t.columns))
	for i, col := range t.columns {
		headers[i] = truncateCell(col.Title, col.Width)
	}

	rows := make([][]string, len(t.rows))
	for r, row := range t.rows {
		rows[r] = make([]string, len(row))
		for c, cell := range row {
			rows[r][c] = truncateCell(cell, t.width(c))
		}
	}

	return table.New().
		Border(t.border).
		BorderStyle(t.borderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			s := t.cellStyle
			if row == table.HeaderRow {
				s = t.headerStyle
			}
			if w := t.width(col); w > 0 {
				s = s.Width(w).MaxWidth(w)
			}
			return s
		}).
		String()
}

func (t *TableModel) width(col int) int {
	if col < 0 || col >= len(t.columns) {
		return 0
	}
	return t.columns[col].Width
}

// truncateCell shortens value to maxWidth display cells with an ellipsis.
// Styled input is returned unchanged.
func truncateCell(value string, maxWidth int) string {
	if strings.Contains(value, "\x1b[") {
		return value
	}
	if maxWidth <= 0 || runewidth.StringWidth(value) <= maxWidth {
		return value
	}
	if maxWidth <= 3 {
		return strings.Repeat(".", maxWidth)
	}

	target := maxWidth - 3
	var b strings.Builder
	width := 0
	g := uniseg.NewGraphemes(value)
	for g.Next() {
		w := runewidth.StringWidth(g.Str())
		if width+w > target {
			break
		}
		b.WriteString(g.Str())
		width += w
	}
	if b.Len() == 0 {
		return strings.Repeat(".", maxWidth)
	}
	return b.String() + "..."
}

// UserTable renders auth users, newest first as given.
func UserTable(users []domain.User, now time.Time) string {
	t := NewTable(WithColumns([]TableColumn{
		{Title: "ID", Width: 38},
		{Title: "Name", Width: 24},
		{Title: "Email", Width: 32},
		{Title: "Role"},
		{Title: "Verified"},
		{Title: "Status"},
	}))
	for _, u := range users {
		role := u.Role.String()
		if u.Role.IsAdmin() {
			role = styles.Theme.BadgeAdmin.Render(role)
		}
		status := "active"
		if u.IsBanned(now) {
			status = styles.Theme.BadgeBanned.Render("banned")
		}
		t.AddRow([]string{u.ID, u.Name, u.Email, role, strconv.FormatBool(u.EmailVerified), status})
	}
	return t.Render()
}
