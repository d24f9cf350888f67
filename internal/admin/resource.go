// Package admin describes the staff console: per-entity column renderers,
// search, filters and bulk actions over the admin repository.
package admin

import (
	"context"
	"errors"
	"html/template"
	"strings"
	"time"

	"saferoute/internal/domain"
	"saferoute/internal/repository"
	"saferoute/internal/service"

	"gorm.io/gorm"
)

// Column renders one cell of a list row or one field of a detail page.
type Column[T any] struct {
	Header string
	Render func(*T) template.HTML
}

// Filter narrows a listing by one query parameter.
type Filter struct {
	Param   string
	Label   string
	Options []domain.Choice
	Apply   func(db *gorm.DB, value string, now time.Time) *gorm.DB
}

// Action is a bulk operation over selected rows. It returns how many rows
// it changed.
type Action struct {
	Name  string
	Label string
	Run   func(ctx context.Context, actor service.Actor, ids []uint) (int64, error)
}

// ListQuery is the raw state of a list page.
type ListQuery struct {
	Search  string
	Filters map[string]string
	Page    string
}

type Row struct {
	ID    uint
	Cells []template.HTML
}

type Listing struct {
	Headers []string
	Rows    []Row
	Page    domain.Page
}

type Field struct {
	Label string
	Value template.HTML
}

type Detail struct {
	ID     uint
	Title  string
	Fields []Field
}

// Resource is the type-erased view of a ModelResource used by handlers.
type Resource interface {
	Slug() string
	Title() string
	Searchable() bool
	Filters() []Filter
	Actions() []Action
	Action(name string) (Action, bool)
	List(q ListQuery) (*Listing, error)
	Detail(id uint) (*Detail, error)
}

var ErrUnknownAction = errors.New("unknown action")

// ModelResource lists rows of model T.
type ModelResource[T any] struct {
	slug     string
	title    string
	columns  []Column[T]
	fields   []Column[T]
	search   []string
	filters  []Filter
	actions  []Action
	preloads []string
	id       func(*T) uint
	label    func(*T) string

	repo *repository.AdminRepository
	now  func() time.Time
}

func (r *ModelResource[T]) Slug() string { return r.slug }
func (r *ModelResource[T]) Title() string { return r.title }
func (r *ModelResource[T]) Searchable() bool { return len(r.search) > 0 }
func (r *ModelResource[T]) Filters() []Filter { return r.filters }
func (r *ModelResource[T]) Actions() []Action { return r.actions }

func (r *ModelResource[T]) Action(name string) (Action, bool) {
	for _, a := range r.actions {
		if a.Name == name {
			return a, true
		}
	}
	return Action{}, false
}

func (r *ModelResource[T]) scopes(q ListQuery) []repository.Scope {
	var scopes []repository.Scope
	if term := strings.TrimSpace(q.Search); term != "" && len(r.search) > 0 {
		like := "%" + escapeLike(strings.ToLower(term)) + "%"
		clauses := make([]string, len(r.search))
		args := make([]any, len(r.search))
		for i, col := range r.search {
			clauses[i] = "LOWER(" + col + ") LIKE ? ESCAPE '!'"
			args[i] = like
		}
		where := "(" + strings.Join(clauses, " OR ") + ")"
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB { return db.Where(where, args...) })
	}
	now := r.now()
	for _, f := range r.filters {
		value := q.Filters[f.Param]
		if value == "" {
			continue
		}
		apply := f.Apply
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB { return apply(db, value, now) })
	}
	return scopes
}

func (r *ModelResource[T]) List(q ListQuery) (*Listing, error) {
	var rows []T
	page, err := r.repo.ListPage(new(T), &rows, q.Page, domain.AdminPageSize, r.preloads, r.scopes(q)...)
	if err != nil {
		return nil, err
	}
	out := &Listing{Page: page, Headers: make([]string, len(r.columns))}
	for i, c := range r.columns {
		out.Headers[i] = c.Header
	}
	for i := range rows {
		row := Row{ID: r.id(&rows[i]), Cells: make([]template.HTML, len(r.columns))}
		for j, c := range r.columns {
			row.Cells[j] = c.Render(&rows[i])
		}
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}

func (r *ModelResource[T]) Detail(id uint) (*Detail, error) {
	var row T
	if err := r.repo.Get(&row, id, r.preloads...); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, service.ErrNotFound
		}
		return nil, err
	}
	d := &Detail{ID: id, Title: r.label(&row)}
	for _, f := range r.fields {
		d.Fields = append(d.Fields, Field{Label: f.Header, Value: f.Render(&row)})
	}
	return d, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`!`, `!!`, `%`, `!%`, `_`, `!_`).Replace(s)
}
