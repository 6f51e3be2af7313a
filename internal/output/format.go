// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"

	"taskdesk/internal/categories"
	"taskdesk/internal/service"
)

const (
	// DateLayout renders dates as day.month.year, hour:minute.
	DateLayout = "02.01.2006, 15:04"

	// None stands in for an absent date or an empty category list.
	None = "-"

	// UnnamedCategory replaces empty category names.
	UnnamedCategory = categories.Placeholder
)

// FormatTask formats a task as a numbered line followed by an indented
// detail line.
// Format: "{ID:>4}  [x] {TITLE}\n      [{DESCRIPTION}\n]      due: {DATE}  categories: {LIST}\n"
func FormatTask(w io.Writer, task service.Task) {
	mark := "[ ]"
	if task.IsCompleted {
		mark = "[x]"
	}
	fmt.Fprintf(w, "%4d  %s %s\n", task.ID, mark, normalizeTitle(task.Title))
	if strings.TrimSpace(task.Description) != "" {
		fmt.Fprintf(w, "      %s\n", normalizeTitle(task.Description))
	}
	fmt.Fprintf(w, "      due: %s  categories: %s\n", FormatDate(task.DueDate), FormatCategories(task.Categories))
}

// FormatPage formats every task of page and a position footer.
func FormatPage(w io.Writer, page service.Page) {
	if len(page.Items) == 0 {
		fmt.Fprintln(w, "no tasks")
	}
	for _, t := range page.Items {
		FormatTask(w, t)
	}
	pages := page.TotalPages()
	if pages < 1 {
		pages = 1
	}
	fmt.Fprintf(w, "page %d/%d, %d total\n", page.Page, pages, page.TotalCount)
}

// FormatCategory formats a category line. Global entries are marked [g],
// user entries [u].
func FormatCategory(w io.Writer, c service.Category) {
	mark := "[u]"
	if c.Scope == service.ScopeGlobal {
		mark = "[g]"
	}
	fmt.Fprintf(w, "%4d  %s %s\n", c.ID, mark, categoryName(c.Name))
}

// FormatIdentity formats the authenticated user.
// Format: "{USERNAME} <{EMAIL}> (id {ID})"
func FormatIdentity(w io.Writer, id service.Identity) {
	fmt.Fprintf(w, "%s <%s> (id %d)\n", id.Username, id.Email, id.ID)
}

// FormatDate renders ts with DateLayout in its own offset, or "-" when absent.
func FormatDate(ts *service.Timestamp) string {
	if ts == nil || ts.IsZero() {
		return None
	}
	return ts.Format(DateLayout)
}

// FormatCategories joins category names with ", ", or returns "-" when empty.
func FormatCategories(cats []service.Category) string {
	if len(cats) == 0 {
		return None
	}
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = categoryName(c.Name)
	}
	return strings.Join(names, ", ")
}

func categoryName(name string) string {
	if strings.TrimSpace(name) == "" {
		return UnnamedCategory
	}
	return name
}

const untitled = "(untitled)"

// normalizeTitle normalizes a task title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")

	if strings.TrimSpace(title) == "" {
		return untitled
	}
	return title
}
