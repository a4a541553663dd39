// Package report renders classifier output for terminals.
package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/fyrsmithlabs/sdrclassifier/internal/classifier"
	"github.com/fyrsmithlabs/sdrclassifier/internal/dataset"
	"github.com/fyrsmithlabs/sdrclassifier/internal/service"
	"github.com/fyrsmithlabs/sdrclassifier/internal/spatial"
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("51")).
			Bold(true).
			Padding(0, 1)

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51")).
			Bold(true).
			MarginTop(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("45"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("231")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	goodStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("46")).
			Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("226")).
			Bold(true)

	badStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)

	borderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("238"))
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return cellStyle.Foreground(lipgloss.Color("51")).Bold(true)
			}
			return cellStyle
		})
}

func field(name, value string) string {
	return labelStyle.Render(name+":") + " " + valueStyle.Render(value)
}

// accuracyBadge colors an accuracy: green from 90%, yellow from 50%.
func accuracyBadge(s dataset.Score) string {
	text := FormatScore(s)
	switch {
	case s.Total == 0:
		return dimStyle.Render(text)
	case s.Accuracy() >= 90:
		return goodStyle.Render(text)
	case s.Accuracy() >= 50:
		return warnStyle.Render(text)
	default:
		return badStyle.Render(text)
	}
}

// Predictions renders ranked prediction results.
func Predictions(results []classifier.Result[string]) string {
	if len(results) == 0 {
		return dimStyle.Render("no matching labels")
	}
	t := newTable("#", "Label", "Same bits", "Similarity")
	for i, r := range results {
		sim := FormatSimilarity(r.Similarity)
		if r.Similarity == classifier.ExactSimilarity {
			sim = goodStyle.Render(sim)
		}
		t.Row(strconv.Itoa(i+1), r.Label, strconv.Itoa(r.NumOfSameBits), sim)
	}
	return t.Render()
}

// Winners renders the spatial winners, most recent last.
func Winners(winners []spatial.Sample[string], unknown string) string {
	if len(winners) == 0 {
		return dimStyle.Render("no rounds yet")
	}
	t := newTable("Round", "Label", "Frame")
	for i, w := range winners {
		label := w.Label
		if label == unknown {
			label = dimStyle.Render(label)
		}
		t.Row(strconv.Itoa(i+1), label, FormatFrame(w.Frame))
	}
	return t.Render()
}

// Status renders a service status snapshot.
func Status(st service.Status, version string) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("sdrd "+version) + "\n")
	b.WriteString(field("Instance", st.InstanceID) + "\n")
	b.WriteString(field("Labels", fmt.Sprintf("%d", st.LabelCount)) + " " + dimStyle.Render(FormatLabels(st.Labels)) + "\n")
	b.WriteString(field("Training pool", strconv.Itoa(st.TrainingPool)) + "\n")
	b.WriteString(field("Whole pool", strconv.Itoa(st.WholePool)) + "\n")
	b.WriteString(field("Winners", strconv.Itoa(st.Winners)) + "\n")
	b.WriteString(sectionStyle.Render("Settings") + "\n")
	b.WriteString(field("Max recorded", strconv.Itoa(st.MaxRecordedElements)) + "\n")
	b.WriteString(field("Match policy", st.MatchPolicy) + "\n")
	b.WriteString(field("Frame policy", st.FramePolicy) + "\n")
	b.WriteString(field("Unknown label", st.UnknownLabel))
	return b.String()
}

// Evaluation renders dataset results with a totals row and every miss.
func Evaluation(results []*dataset.Result) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Evaluation") + "\n")

	t := newTable("Dataset", "Patterns", "Labels", "Queries", "Rounds", "Validations", "Time")
	var queries, rounds, checks dataset.Score
	for _, r := range results {
		t.Row(r.Name,
			strconv.Itoa(r.Patterns),
			strconv.Itoa(r.Labels),
			accuracyBadge(r.Queries),
			accuracyBadge(r.Rounds),
			accuracyBadge(r.Checks),
			FormatDuration(r.Duration),
		)
		queries = sum(queries, r.Queries)
		rounds = sum(rounds, r.Rounds)
		checks = sum(checks, r.Checks)
	}
	if len(results) > 1 {
		t.Row("total", "", "", accuracyBadge(queries), accuracyBadge(rounds), accuracyBadge(checks), "")
	}
	b.WriteString(t.Render())

	var misses []string
	for _, r := range results {
		for _, m := range r.Misses {
			misses = append(misses, fmt.Sprintf("%s %s[%d]: expected %s, got %s",
				r.Name, m.Section, m.Index, valueStyle.Render(m.Expect), badStyle.Render(m.Got)))
		}
	}
	if len(misses) > 0 {
		b.WriteString("\n" + sectionStyle.Render("Misses") + "\n")
		b.WriteString(strings.Join(misses, "\n"))
	}
	return b.String()
}

func sum(a, b dataset.Score) dataset.Score {
	return dataset.Score{Total: a.Total + b.Total, Hits: a.Hits + b.Hits}
}
