package terminal

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

const bannerVersion = "0.1.0"

// brand colors
var (
	brandCyan    = lipgloss.Color("#00D7FF")
	brandDimCyan = lipgloss.Color("#00AFAF")
	brandGray    = lipgloss.Color("#6C6C6C")
	brandWhite   = lipgloss.Color("#FFFFFF")
	brandDim     = lipgloss.Color("#4E4E4E")
)

// Logo lines, plain block font
var logoLines = []string{
	" ██████   █████  ███    ███  █████  ██     ",
	"██       ██   ██ ████  ████ ██   ██ ██     ",
	"██  ███  ███████ ██ ████ ██ ███████ ██     ",
	"██   ██  ██   ██ ██  ██  ██ ██   ██ ██     ",
	" ██████  ██   ██ ██      ██ ██   ██ ███████",
}

// Gradient colors top→bottom (teal → blue)
var logoGradient = []lipgloss.Color{
	lipgloss.Color("#00FFD7"),
	lipgloss.Color("#00E7DF"),
	lipgloss.Color("#00CFE7"),
	lipgloss.Color("#00B7EF"),
	lipgloss.Color("#009FFF"),
}

// RenderBanner returns the styled welcome banner with gradient logo.
func RenderBanner(model string, width int) string {
	labelStyle := lipgloss.NewStyle().Foreground(brandGray)
	valueStyle := lipgloss.NewStyle().Foreground(brandWhite)
	tipStyle := lipgloss.NewStyle().Foreground(brandDim)
	versionStyle := lipgloss.NewStyle().Foreground(brandDimCyan)

	// Render gradient logo
	var logo string
	if width >= 44 {
		for i, line := range logoLines {
			c := logoGradient[i%len(logoGradient)]
			logo += lipgloss.NewStyle().Foreground(c).Bold(true).Render(line) + "\n"
		}
	} else {
		// Compact fallback
		logo = lipgloss.NewStyle().Foreground(brandCyan).Bold(true).Render(" G A M A L") + "\n"
	}

	ver := versionStyle.Render(fmt.Sprintf("  v%s", bannerVersion))

	modelLine := fmt.Sprintf("  %s %s",
		labelStyle.Render("Model"),
		valueStyle.Render(model),
	)

	tips := tipStyle.Render("  Ask anything · /reset clears history · /review shows timings · Ctrl-D quits")

	return fmt.Sprintf("\n%s%s\n\n%s\n\n%s\n\n", logo, ver, modelLine, tips)
}

func termWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return 80
	}
	return w
}
