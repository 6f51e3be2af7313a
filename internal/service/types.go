package service

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Identity is the authenticated user's profile.
type Identity struct {
	ID       int    `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// Scope tells global categories apart from the ones a user owns.
type Scope int

const (
	// ScopeGlobal categories are shared and read-only to users.
	ScopeGlobal Scope = iota
	// ScopeUser categories are owned by the authenticated user.
	ScopeUser
)

func (s Scope) String() string {
	if s == ScopeGlobal {
		return "global"
	}
	return "user"
}

// Category is a task category.
// Scope is not part of the wire format; the category store assigns it from
// the endpoint the entry came from.
type Category struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Scope Scope  `json:"-"`
}

// Task represents a single task item.
type Task struct {
	ID          int        `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	IsCompleted bool       `json:"isCompleted"`
	DueDate     *Timestamp `json:"dueDate,omitempty"`
	CreatedAt   Timestamp  `json:"createdAt"`
	Categories  []Category `json:"categories,omitempty"`
}

// Page is one fetched window of the task list.
type Page struct {
	Items      []Task `json:"items"`
	TotalCount int    `json:"totalCount"`
	Page       int    `json:"page"`
	PageSize   int    `json:"pageSize"`
}

// TotalPages returns the number of pages implied by TotalCount and PageSize.
func (p Page) TotalPages() int {
	if p.PageSize <= 0 || p.TotalCount <= 0 {
		return 0
	}
	return (p.TotalCount + p.PageSize - 1) / p.PageSize
}

// TaskQuery holds the list endpoint parameters.
// Zero values mean "not sent": nil IsCompleted and empty strings are omitted.
type TaskQuery struct {
	Page        int
	PageSize    int
	IsCompleted *bool
	SortBy      string
	SortOrder   string
	SearchQuery string
}

// NewTask is the body of a create request.
type NewTask struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	DueDate     *Timestamp `json:"dueDate,omitempty"`
	CategoryIDs []int      `json:"categoryIds,omitempty"`
}

// TaskPatch is the body of an update request. Only non-nil fields are sent.
type TaskPatch struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	IsCompleted *bool      `json:"isCompleted,omitempty"`
	DueDate     *Timestamp `json:"dueDate,omitempty"`
	CategoryIDs *[]int     `json:"categoryIds,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.IsCompleted == nil &&
		p.DueDate == nil && p.CategoryIDs == nil
}

// Timestamp is a time that tolerates zone-less server timestamps.
type Timestamp struct {
	time.Time
}

// Accepted layouts, tried in order.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTimestamp parses s using the layouts accepted from the server.
// Zone-less values are taken as UTC.
func ParseTimestamp(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{t}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("invalid timestamp: %q", s)
}

// MarshalJSON encodes the time in RFC 3339.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Time.Format(time.RFC3339))
}

// UnmarshalJSON accepts null, empty strings and any layout ParseTimestamp knows.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = Timestamp{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*t = Timestamp{}
		return nil
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
