package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackzampolin/tableqa/internal/table"
)

// Selection picks which extracted tables a run uses.
type Selection string

const (
	// SelectLast keeps the last table of the last requested page.
	SelectLast Selection = "last"
	// SelectFirst keeps the first table of the first requested page.
	SelectFirst Selection = "first"
	// SelectSingle requires exactly one table across all pages.
	SelectSingle Selection = "single"
	// SelectAll keeps every table, each queried separately.
	SelectAll Selection = "all"
)

// ErrAmbiguousTable is returned by SelectSingle when more than one table was found.
var ErrAmbiguousTable = errors.New("more than one table found")

// ParseSelection validates a selection name. Empty means SelectLast.
func ParseSelection(s string) (Selection, error) {
	switch Selection(strings.ToLower(strings.TrimSpace(s))) {
	case "", SelectLast:
		return SelectLast, nil
	case SelectFirst:
		return SelectFirst, nil
	case SelectSingle:
		return SelectSingle, nil
	case SelectAll:
		return SelectAll, nil
	default:
		return "", fmt.Errorf("unknown table selection %q (want last, first, single or all)", s)
	}
}

// Apply filters tables, which must be in extraction order.
func (s Selection) Apply(tables []table.RawTable) ([]table.RawTable, error) {
	if len(tables) == 0 {
		return nil, table.ErrEmptyTable
	}
	switch s {
	case SelectLast, "":
		return tables[len(tables)-1:], nil
	case SelectFirst:
		return tables[:1], nil
	case SelectSingle:
		if len(tables) > 1 {
			return nil, fmt.Errorf("%w: %d tables", ErrAmbiguousTable, len(tables))
		}
		return tables, nil
	case SelectAll:
		return tables, nil
	default:
		return nil, fmt.Errorf("unknown table selection %q", s)
	}
}
