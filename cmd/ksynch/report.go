package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kolkov/ksynch/internal/kernel/scenario"
)

// Colors adapt to light and dark terminals; lipgloss drops them entirely
// when the output is not a terminal.
var (
	primaryColor = lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7571F9"}
	successColor = lipgloss.AdaptiveColor{Light: "#02BA84", Dark: "#02BF87"}
	errorColor   = lipgloss.AdaptiveColor{Light: "#FE5F86", Dark: "#FE5F86"}
	mutedColor   = lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#5C5C5C"}
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Underline(true).
			PaddingRight(2)

	cellStyle = lipgloss.NewStyle().
			PaddingRight(2)

	passStyle = lipgloss.NewStyle().
			Foreground(successColor).
			Bold(true).
			PaddingRight(2)

	failStyle = lipgloss.NewStyle().
			Foreground(errorColor).
			Bold(true).
			PaddingRight(2)

	mutedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	eventStyle = lipgloss.NewStyle().
			PaddingLeft(4)
)

// column renders one table column with every cell padded to the widest.
func column(header string, cells []string, styles []lipgloss.Style) string {
	width := lipgloss.Width(header)
	for _, c := range cells {
		width = max(width, lipgloss.Width(c))
	}
	rows := make([]string, 0, len(cells)+1)
	rows = append(rows, headerStyle.Width(width+2).Render(header))
	for i, c := range cells {
		rows = append(rows, styles[i].Width(width+2).Render(c))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// printResults writes the result table, and event logs for failed
// scenarios (or all with verbose). It returns the number of failures.
func printResults(w io.Writer, results []scenario.Result, verbose bool) int {
	n := len(results)
	names := make([]string, n)
	policies := make([]string, n)
	statuses := make([]string, n)
	events := make([]string, n)
	switches := make([]string, n)
	donations := make([]string, n)
	plain := make([]lipgloss.Style, n)
	status := make([]lipgloss.Style, n)

	failed := 0
	for i, r := range results {
		names[i] = r.Name
		policies[i] = r.Policy.String()
		events[i] = fmt.Sprint(len(r.Events))
		switches[i] = fmt.Sprint(r.Switches)
		donations[i] = fmt.Sprint(r.Totals.Donations + r.Totals.ChainHops)
		plain[i] = cellStyle
		if r.Passed() {
			statuses[i] = "PASS"
			status[i] = passStyle
		} else {
			statuses[i] = "FAIL"
			status[i] = failStyle
			failed++
		}
	}

	fmt.Fprintln(w, titleStyle.Render("Scenarios"))
	fmt.Fprintln(w, lipgloss.JoinHorizontal(lipgloss.Top,
		column("STATUS", statuses, status),
		column("SCENARIO", names, plain),
		column("POLICY", policies, plain),
		column("EVENTS", events, plain),
		column("SWITCHES", switches, plain),
		column("DONATIONS", donations, plain),
	))

	for _, r := range results {
		if !verbose && r.Passed() {
			continue
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, titleStyle.Render(r.Name))
		for _, e := range r.Events {
			fmt.Fprintln(w, eventStyle.Render(e))
		}
		if r.Err != nil {
			fmt.Fprintln(w, failStyle.Render("error: "+r.Err.Error()))
		}
		if d := r.Diff(); d != "" {
			fmt.Fprintln(w, failStyle.Render(d))
		}
	}

	summary := fmt.Sprintf("%d passed, %d failed", n-failed, failed)
	fmt.Fprintln(w)
	if failed > 0 {
		fmt.Fprintln(w, failStyle.Render(summary))
	} else {
		fmt.Fprintln(w, passStyle.Render(summary))
	}
	return failed
}

// printScenarioList writes one line per scenario.
func printScenarioList(w io.Writer, scs []scenario.Scenario) {
	width := 0
	for _, sc := range scs {
		width = max(width, len(sc.Name))
	}
	for _, sc := range scs {
		fmt.Fprintf(w, "%s  %s %s\n",
			sc.Name+strings.Repeat(" ", width-len(sc.Name)),
			sc.Description,
			mutedStyle.Render("("+sc.Policy.String()+")"))
	}
}
