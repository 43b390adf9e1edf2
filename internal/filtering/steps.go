package filtering

import (
	"context"
	"strings"

	"github.com/spigell/job-screener/internal/jobs"
)

// fieldFilter keeps (or, when exclude is set, drops) records whose selected
// fields contain any of the configured values, ignoring case.
type fieldFilter struct {
	name     string
	values   []string
	fields   func(jobs.Record) []string
	exclude  bool
	disabled bool
	reason   string
}

func newFieldFilter(name string, values []string, exclude bool, fields func(jobs.Record) []string) *fieldFilter {
	f := &fieldFilter{name: name, exclude: exclude, fields: fields}
	for _, v := range values {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			f.values = append(f.values, v)
		}
	}
	if len(f.values) == 0 {
		f.Disable("no values configured")
	}
	return f
}

// NewCategory keeps jobs whose category contains one of the values.
func NewCategory(values []string) Filter {
	return newFieldFilter("category", values, false, func(r jobs.Record) []string { return []string{r.Category} })
}

// NewLocation keeps jobs whose location contains one of the values.
func NewLocation(values []string) Filter {
	return newFieldFilter("location", values, false, func(r jobs.Record) []string { return []string{r.Location} })
}

// NewCompany keeps jobs posted by a matching company.
func NewCompany(values []string) Filter {
	return newFieldFilter("company", values, false, func(r jobs.Record) []string { return []string{r.Company} })
}

// NewKeyword keeps jobs mentioning one of the values in the title or description.
func NewKeyword(values []string) Filter {
	return newFieldFilter("keyword", values, false, func(r jobs.Record) []string { return []string{r.Title, r.Description} })
}

// NewExcludedCompanies removes jobs posted by a matching company.
func NewExcludedCompanies(values []string) Filter {
	return newFieldFilter("excluded_companies", values, true, func(r jobs.Record) []string { return []string{r.Company} })
}

func (f *fieldFilter) Name() string { return f.name }

func (f *fieldFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *fieldFilter) IsEnabled() bool { return !f.disabled }

func (f *fieldFilter) Apply(_ context.Context, records []jobs.Record) ([]jobs.Record, Step, error) {
	kept := make([]jobs.Record, 0, len(records))
	for _, r := range records {
		if f.matches(r) != f.exclude {
			kept = append(kept, r)
		}
	}
	return kept, Step{Initial: len(records), Dropped: len(records) - len(kept), Left: len(kept)}, nil
}

func (f *fieldFilter) matches(r jobs.Record) bool {
	for _, field := range f.fields(r) {
		field = strings.ToLower(field)
		for _, v := range f.values {
			if strings.Contains(field, v) {
				return true
			}
		}
	}
	return false
}

func (f *fieldFilter) Status() Status {
	details := map[string]string{}
	if len(f.values) > 0 {
		details["values"] = strings.Join(f.values, ",")
	}
	return Status{Name: f.name, Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
