package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Confirm shows a warning box on w and reads a line from r. It returns
// true only if the user typed "yes".
func Confirm(w io.Writer, r io.Reader, title string, warnings []string, note string) bool {
	width := GetTerminalWidth()

	lines := []string{"", WarningTitleStyle.Render(fmt.Sprintf("   %s  %s", WarningMarker, title)), ""}
	for _, warning := range warnings {
		lines = append(lines, lipgloss.NewStyle().Foreground(TextColor).Render("   • "+warning))
	}
	lines = append(lines, "")

	if note != "" {
		lines = append(lines, lipgloss.NewStyle().
			Foreground(MutedColor).
			Italic(true).
			Width(width-12).
			PaddingLeft(3).
			Render(note), "")
	}

	fmt.Fprintln(w, ResultBoxStyle(width, WarningColor).Render(strings.Join(lines, "\n")))
	fmt.Fprintln(w)
	fmt.Fprint(w, WarningTitleStyle.Render(`Type "yes" to continue: `))

	input, err := bufio.NewReader(r).ReadString('\n')
	fmt.Fprintln(w)
	if err != nil && input == "" {
		return false
	}
	if strings.EqualFold(strings.TrimSpace(input), "yes") {
		return true
	}

	fmt.Fprintln(w, lipgloss.NewStyle().Foreground(MutedColor).Render("  Cancelled."))
	return false
}

// ConfirmWiFiChange warns that the controller will leave its setup
// access point once it joins ssid.
func ConfirmWiFiChange(w io.Writer, r io.Reader, ssid string) bool {
	return Confirm(w, r,
		"CHANGE WIFI NETWORK",
		[]string{
			fmt.Sprintf("The controller will try to join %q", ssid),
			"If it connects, its setup access point may go away",
			"This computer may lose its connection to the controller",
		},
		"If the password is wrong the controller stays on its current network "+
			"and reports the failure on its next config poll.",
	)
}

// ReadPassword prompts on w and reads a password without echo when in
// is a terminal. Otherwise it reads a plain line.
func ReadPassword(w io.Writer, in *os.File, prompt string) (string, error) {
	fmt.Fprint(w, prompt)
	fd := int(in.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(w)
		return string(b), err
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
