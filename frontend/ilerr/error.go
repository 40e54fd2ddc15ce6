package ilerr

import (
	"cmp"
	"fmt"
	"log/slog"
	"slices"
)

type Errors struct {
	errs []IleError
}

func (r *Errors) With(err ...IleError) *Errors {
	if r == nil {
		return &Errors{errs: err}
	}
	r.errs = append(r.errs, err...)
	return r
}

func (r *Errors) Merge(err *Errors) *Errors {
	if r == nil {
		return err
	}
	if err == nil {
		return r
	}
	if len(err.errs) == 0 {
		return r
	}
	return r.With(err.errs...)
}

func (r *Errors) Errors() []IleError {
	if r == nil {
		return nil
	}
	return r.errs
}

// Sorted returns the errors ordered by position. Errors at the same position keep
// the order they were reported in, so notes stay after the error they annotate.
func (r *Errors) Sorted() []IleError {
	sorted := slices.Clone(r.Errors())
	slices.SortStableFunc(sorted, func(a, b IleError) int {
		return cmp.Compare(a.Pos(), b.Pos())
	})
	return sorted
}

func (r *Errors) HasError() bool {
	if r == nil {
		return false
	}
	return slices.ContainsFunc(r.errs, func(e IleError) bool {
		return e.Severity() == SeverityError
	})
}

func (r *Errors) LogValue() slog.Value {
	var vals []slog.Attr
	for i, v := range r.Errors() {
		vals = append(vals, slog.Attr{
			Key: fmt.Sprint("e", i),
			Value: slog.GroupValue(
				slog.Attr{
					Key:   "msg",
					Value: slog.StringValue(FormatWithCode(v)),
				},
			),
		})
	}
	return slog.GroupValue(vals...)
}
