package tui

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/casadocigano/fidelidade/internal/errors"
	"github.com/casadocigano/fidelidade/internal/platform"
)

// View renders the TUI (required by Bubble Tea)
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.renderTopBar())
	b.WriteString("\n")
	if nav := m.renderNav(); nav != "" {
		b.WriteString(nav)
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if m.notice != "" {
		b.WriteString(m.env.styles.Warning.Render(m.notice))
		b.WriteString("\n\n")
	}

	// While a guard decides, the target page renders nothing.
	if m.pending == "" {
		b.WriteString(m.page.View())
		b.WriteString("\n")
		if m.page.Busy() {
			b.WriteString(m.spinner.View() + m.env.styles.Muted.Render(" aguarde..."))
			b.WriteString("\n")
		}
	}

	b.WriteString(m.renderHelpLine())
	return b.String()
}

func (m *Model) renderTopBar() string {
	s := m.env.styles
	title := s.Title.Render("Fidelidade")

	bar, ok := m.env.shell.TopBar()
	if !ok {
		return title
	}
	who := fmt.Sprintf("%s · %s · %s", bar.Name, bar.Role, bar.StoreLabel)
	return lipgloss.JoinHorizontal(lipgloss.Top, title, "  ", s.Subtitle.Render(who))
}

func (m *Model) renderNav() string {
	items := m.env.shell.NavItems()
	if len(items) == 0 {
		return ""
	}

	s := m.env.styles
	parts := make([]string, 0, len(items))
	for i, item := range items {
		label := fmt.Sprintf("F%d %s", i+1, item.Title)
		if item.Path == m.route {
			parts = append(parts, s.NavActive.Render(label))
		} else {
			parts = append(parts, s.NavItem.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHelpLine() string {
	s := m.env.styles
	pairs := [][2]string{{"ctrl+c", "sair"}}
	if m.env.shell.LoggedIn() {
		pairs = append(pairs, [2]string{"ctrl+b", "voltar"}, [2]string{"ctrl+l", "logout"})
	}

	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, s.Key.Render(p[0])+" "+s.KeyDesc.Render(p[1]))
	}
	return s.Help.Render(strings.Join(parts, "  "))
}

// flash is a page's inline message. It is cleared before each new attempt.
type flash struct {
	text string
	err  bool
}

func errorFlash(text string) flash   { return flash{text: text, err: true} }
func successFlash(text string) flash { return flash{text: text} }

func (f flash) render(s Styles) string {
	switch {
	case f.text == "":
		return ""
	case f.err:
		return s.Error.Render(f.text)
	default:
		return s.Success.Render(f.text)
	}
}

// errorText picks the message shown for a failed request: the server's
// error payload, a local validation message, or fallback.
func errorText(err error, fallback string) string {
	var he *platform.HTTPError
	if stderrors.As(err, &he) {
		return he.MessageOr(fallback)
	}
	var fe *errors.FidelidadeError
	if stderrors.As(err, &fe) && fe.Message != "" {
		return fe.Message
	}
	return fallback
}

func helpKeys(s Styles, pairs ...string) string {
	parts := make([]string, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		parts = append(parts, s.Key.Render(pairs[i])+" "+s.KeyDesc.Render(pairs[i+1]))
	}
	return s.Muted.Render(strings.Join(parts, "  "))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
