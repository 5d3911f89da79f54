package engine

import (
	"fmt"

	"github.com/leapstack-labs/leapdq/pkg/core"
	"github.com/leapstack-labs/leapdq/pkg/dataset"
)

// quarantined is TRUE for rows with at least one outcome of either
// criticality. It is never NULL, so the row partition is total.
func quarantined(errCol, warnCol string) string {
	return fmt.Sprintf("(COALESCE(len(%s), 0) > 0 OR COALESCE(len(%s), 0) > 0)",
		dataset.QuoteIdent(errCol), dataset.QuoteIdent(warnCol))
}

// SplitAnnotated partitions an annotated dataset. Rows with any error or
// warning go to quarantined, which keeps both outcome columns; the rest go
// to valid, which drops them.
func SplitAnnotated(ds *dataset.Dataset, errCol, warnCol string) (valid, quarantine *dataset.Dataset, err error) {
	for _, name := range []string{errCol, warnCol} {
		if _, ok := ds.Column(name); !ok {
			return nil, nil, &core.ConfigurationError{
				Field:   "dataset",
				Message: fmt.Sprintf("outcome column %q not found", name),
			}
		}
	}
	pred := quarantined(errCol, warnCol)
	valid = ds.Filter("NOT " + pred).Drop(errCol, warnCol)
	quarantine = ds.Filter(pred)
	return valid, quarantine, nil
}

// Valid returns the rows of an annotated dataset with no outcomes, without
// the outcome columns.
func Valid(ds *dataset.Dataset) (*dataset.Dataset, error) {
	v, _, err := SplitAnnotated(ds, core.ErrorsColumn, core.WarningsColumn)
	return v, err
}

// Quarantined returns the rows of an annotated dataset with at least one
// error or warning.
func Quarantined(ds *dataset.Dataset) (*dataset.Dataset, error) {
	_, q, err := SplitAnnotated(ds, core.ErrorsColumn, core.WarningsColumn)
	return q, err
}
