package tui

import (
	"context"
	"fmt"
	"strings"

	"onlyhate/internal/admin"
	"onlyhate/internal/catalog"
)

type row struct {
	id   string
	text string
}

// deleter is the confirmation flow shared by the three list views.
type deleter interface {
	RequestDelete(id string) error
	Pending() (string, bool)
	ConfirmDelete(ctx context.Context) (bool, error)
	CancelDelete()
}

func (m Model) view() deleter {
	switch tabs[m.tab] {
	case catalog.KindReleases:
		return m.console.Releases
	case catalog.KindProducts:
		return m.console.Products
	}
	return m.console.Bands
}

func (m Model) addForm() admin.Form {
	switch tabs[m.tab] {
	case catalog.KindReleases:
		return m.console.Releases.Add()
	case catalog.KindProducts:
		return m.console.Products.Add()
	}
	return m.console.Bands.Add()
}

func (m Model) editForm(id string) (admin.Form, error) {
	switch tabs[m.tab] {
	case catalog.KindReleases:
		return m.console.Releases.Edit(id)
	case catalog.KindProducts:
		return m.console.Products.Edit(id)
	}
	return m.console.Bands.Edit(id)
}

func (m Model) rowCount(tab int) int {
	switch tabs[tab] {
	case catalog.KindReleases:
		return len(m.console.Releases.Rows())
	case catalog.KindProducts:
		return len(m.console.Products.Rows())
	}
	return len(m.console.Bands.Rows())
}

func (m Model) rows() []row {
	var out []row
	switch tabs[m.tab] {
	case catalog.KindBands:
		for _, b := range m.console.Bands.Rows() {
			out = append(out, row{id: b.ID, text: fmt.Sprintf("%-28s %-4s %-5d %s%s",
				clip(b.Name, 28), clip(b.Country, 4), b.FormedIn, strings.Join(b.Genres, ", "), star(b.Featured))})
		}
	case catalog.KindReleases:
		for _, r := range m.console.Releases.Rows() {
			out = append(out, row{id: r.ID, text: fmt.Sprintf("%-28s %-22s %-4s %-12s %s%s",
				clip(r.Title, 28), clip(r.Artist, 22), yearText(r.Year), r.Type, stock(r.InStock), star(r.Featured))})
		}
	case catalog.KindProducts:
		for _, p := range m.console.Products.Rows() {
			out = append(out, row{id: p.ID, text: fmt.Sprintf("%-30s %-9s %9s  %-22s %s%s",
				clip(p.Name, 30), p.Type, p.Price.StringFixed(2), clip(p.Artist, 22), stock(p.InStock), star(p.Featured))})
		}
	}
	return out
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func star(featured bool) string {
	if featured {
		return " ★"
	}
	return ""
}

func stock(in bool) string {
	if in {
		return "in stock"
	}
	return "sold out"
}

func yearText(y int) string {
	if y == 0 {
		return "----"
	}
	return fmt.Sprint(y)
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("ONLY HATE RECORDS · admin"))
	b.WriteString("\n")
	if user, ok := m.session.User(); ok && m.screen != ScreenLogin {
		b.WriteString(dimStyle.Render("signed in as " + user.Email))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch m.screen {
	case ScreenLogin:
		b.WriteString(m.viewLogin())
	case ScreenList:
		b.WriteString(m.viewList())
	case ScreenForm:
		b.WriteString(m.viewForm())
	case ScreenConfirm:
		b.WriteString(m.viewConfirm())
	}

	b.WriteString("\n")
	if m.busy {
		b.WriteString(m.spinner.View() + " working…\n")
	} else if m.status != "" {
		style := successStyle
		if m.failed {
			style = errorStyle
		}
		b.WriteString(style.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(dimStyle.Render(m.helpText()))
	return b.String()
}

func (m Model) viewLogin() string {
	var b strings.Builder
	b.WriteString(subtitleStyle.Render("Admin Login"))
	b.WriteString("\n\n")
	b.WriteString("Email\n")
	b.WriteString(m.email.View())
	b.WriteString("\n\nPassword\n")
	b.WriteString(m.password.View())
	b.WriteString("\n")
	return boxStyle.Render(b.String())
}

func (m Model) viewTabs() string {
	parts := make([]string, 0, len(tabs))
	counts := m.console.Counts()
	for i, kind := range tabs {
		label := fmt.Sprintf("%d %s (%d)", i+1, strings.ToUpper(string(kind[:1]))+string(kind[1:]), counts[kind])
		if i == m.tab {
			parts = append(parts, activeTabStyle.Render(label))
		} else {
			parts = append(parts, tabStyle.Render(label))
		}
	}
	return strings.Join(parts, " ")
}

func (m Model) viewList() string {
	var b strings.Builder
	b.WriteString(m.viewTabs())
	b.WriteString("\n\n")

	rows := m.rows()
	if len(rows) == 0 {
		b.WriteString(dimStyle.Render(fmt.Sprintf("No %s yet. Press a to add one.", tabs[m.tab])))
		b.WriteString("\n")
		return b.String()
	}
	for i, r := range rows {
		if i == m.cursor[m.tab] {
			b.WriteString(cursorStyle.Render("› " + r.text))
		} else {
			b.WriteString("  " + r.text)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) viewForm() string {
	var b strings.Builder
	b.WriteString(subtitleStyle.Render(m.form.Title()))
	b.WriteString("\n\n")

	for i, f := range m.form.Fields() {
		label := f.Label
		if f.Required {
			label += " *"
		}
		marker := "  "
		if i == m.field {
			marker = "› "
			label = cursorStyle.Render(label)
		}
		b.WriteString(marker + label + "\n")

		switch {
		case i == m.field && m.editing && m.usesArea():
			b.WriteString(m.area.View())
		case i == m.field && m.editing:
			b.WriteString("    " + m.input.View())
		default:
			b.WriteString(dimStyle.Render(indent(displayValue(f))))
		}
		b.WriteString("\n")
		if f.Error != "" {
			b.WriteString(errorStyle.Render("    " + f.Error))
			b.WriteString("\n")
		}
	}
	return boxStyle.Render(b.String())
}

func displayValue(f admin.Field) string {
	switch f.Input {
	case admin.InputToggle:
		if f.Value == "yes" {
			return "[×]"
		}
		return "[ ]"
	case admin.InputReference, admin.InputChoice:
		for _, o := range f.Options {
			if o.Value == f.Value {
				return "‹ " + o.Label + " ›"
			}
		}
		return "‹ none ›"
	}
	if f.Value == "" {
		return "—"
	}
	return f.Value
}

func indent(s string) string {
	return "    " + strings.ReplaceAll(s, "\n", "\n    ")
}

func (m Model) viewConfirm() string {
	id, _ := m.view().Pending()
	name := id
	for _, r := range m.rows() {
		if r.id == id {
			name = strings.TrimSpace(r.text)
		}
	}
	msg := fmt.Sprintf("Delete this %s?\n\n%s\n\n", tabs[m.tab].Singular(), name)
	return boxStyle.Render(warningStyle.Render(msg) + "y: delete • n: keep")
}

func (m Model) helpText() string {
	switch m.screen {
	case ScreenLogin:
		return "tab: switch field • enter: sign in • esc: quit"
	case ScreenList:
		return "tab/1-3: switch • ↑/↓: move • a: add • e: edit • d: delete • r: refresh • L: sign out • q: quit"
	case ScreenForm:
		if m.editing && m.usesArea() {
			return "esc: done"
		}
		if m.editing {
			return "enter: apply • esc: discard edit"
		}
		return "↑/↓: field • enter: edit/toggle • ←/→: choose • ctrl+s: save • esc: cancel"
	case ScreenConfirm:
		return "y: delete • n: keep"
	}
	return ""
}
