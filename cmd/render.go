package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"

	"github.com/abhisek/lecsum/internal/quiz"
	"github.com/abhisek/lecsum/internal/service"
	"github.com/abhisek/lecsum/internal/ui/theme"
)

const timeLayout = "2006-01-02 15:04"

// newTable returns a table with the shared header and border styling.
func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(theme.Border)).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return theme.Title.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
}

func printItem(w io.Writer, n int, it quiz.Item) {
	lipgloss.Fprintf(w, "%s %s\n", theme.Title.Render(fmt.Sprintf("%d.", n)), it.Question)
	lipgloss.Fprintln(w, theme.Hint.Render(fmt.Sprintf("   id %d · %s", it.ID, it.Type)))
	for j, o := range it.Options {
		fmt.Fprintf(w, "   %c) %s\n", 'a'+j, o)
	}
}

func printItems(w io.Writer, items []quiz.Item, withAnswers bool) {
	for i, it := range items {
		printItem(w, i+1, it)
		if withAnswers {
			lipgloss.Fprintln(w, theme.Label.Render("   answer: ")+it.CorrectAnswer)
			if it.Explanation != "" {
				lipgloss.Fprintln(w, theme.Label.Render("   why: ")+it.Explanation)
			}
		}
		fmt.Fprintln(w)
	}
}

func printGrade(w io.Writer, resp *service.GradeResponse) {
	for i, r := range resp.Results {
		mark := theme.Correct.Render("✓")
		if !r.IsCorrect {
			mark = theme.Incorrect.Render("✗")
		}
		lipgloss.Fprintf(w, "%s %d. %s\n", mark, i+1, r.Question)
		lipgloss.Fprintln(w, theme.Label.Render("   your answer: ")+r.UserAnswer)
		if !r.IsCorrect {
			lipgloss.Fprintln(w, theme.Label.Render("   correct: ")+r.CorrectAnswer)
		}
		if r.Feedback != "" {
			lipgloss.Fprintln(w, "   "+strings.ReplaceAll(r.Feedback, "\n", "\n   "))
		}
		for _, c := range r.Citations {
			lipgloss.Fprintln(w, theme.Hint.Render("   ↳ "+c))
		}
		fmt.Fprintln(w)
	}
	lipgloss.Fprintln(w, theme.Card.Render(fmt.Sprintf("Attempt #%d  score %s  (%d/%d correct)",
		resp.AttemptID, theme.Score(resp.Score), resp.Correct, resp.Total)))
}

func printAttempt(w io.Writer, a *quiz.Attempt) {
	lipgloss.Fprintf(w, "%s  %s  score %s (%d/%d)  %s\n",
		theme.Title.Render(fmt.Sprintf("Attempt #%d", a.ID)),
		a.Target, theme.Score(a.Score), a.Correct, a.Total,
		theme.Hint.Render(a.CreatedAt.Local().Format(timeLayout)))
	fmt.Fprintln(w)

	t := newTable("Quiz", "Question", "Answer", "OK")
	for _, r := range a.Results {
		ok := theme.Correct.Render("✓")
		if !r.IsCorrect {
			ok = theme.Incorrect.Render("✗")
		}
		t.Row(strconv.FormatInt(r.QuizID, 10), truncate(r.Question, 60), truncate(r.UserAnswer, 24), ok)
	}
	lipgloss.Fprintln(w, t.String())
}

func printRetry(w io.Writer, r *service.RetryResponse) {
	lipgloss.Fprintf(w, "%s  quiz set #%d  from attempt #%d  %d questions\n\n",
		theme.Title.Render(fmt.Sprintf("Retry set #%d", r.RetrySetID)),
		r.QuizSetID, r.OriginalAttemptID, r.TotalQuestions)
	var prev int64
	for _, it := range r.Items {
		if it.OriginalQuizID != prev {
			lipgloss.Fprintln(w, theme.Hint.Render(fmt.Sprintf("from question %d", it.OriginalQuizID)))
			prev = it.OriginalQuizID
		}
		printItem(w, it.Position, it.Item)
	}
}
