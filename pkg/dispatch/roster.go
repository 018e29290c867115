package dispatch

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/finenotify/finenotify/modules/notifications/domain/delivery"
)

// rosterRow is one spreadsheet line before it becomes a delivery item.
type rosterRow struct {
	Phone    string `validate:"required,numeric,min=8,max=15"`
	FullName string `validate:"required"`
	Plate    string `validate:"required"`
	Amount   string `validate:"required"`
	IssuedAt string
}

// RowError names a spreadsheet row that was skipped and why.
type RowError struct {
	Row    int
	Reason string
}

func (e RowError) String() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Reason)
}

var rosterValidate = validator.New()

// Header names recognized in the first sheet's first row, case-insensitive.
// The contact column is the only one with aliases since input files come
// from several municipal systems.
var headerAliases = map[string]string{
	"phone":     "phone",
	"contact":   "phone",
	"telefono":  "phone",
	"full_name": "full_name",
	"name":      "full_name",
	"nombre":    "full_name",
	"plate":     "plate",
	"matricula": "plate",
	"amount":    "amount",
	"importe":   "amount",
	"issued_at": "issued_at",
	"fecha":     "issued_at",
}

// LoadRoster reads the first sheet of an xlsx file into an ordered batch.
// Invalid rows are skipped and reported; a file with no valid rows is an
// error.
func LoadRoster(path string) (*Batch, []RowError, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "dispatch: open roster %s", path)
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, nil, errors.New("dispatch: roster has no sheets")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, errors.Wrap(err, "dispatch: read roster rows")
	}
	if len(rows) < 2 {
		return nil, nil, errors.New("dispatch: roster has no data rows")
	}

	columns := map[string]int{}
	for i, header := range rows[0] {
		key := strings.ToLower(strings.TrimSpace(header))
		if canonical, ok := headerAliases[key]; ok {
			if _, taken := columns[canonical]; !taken {
				columns[canonical] = i
			}
		}
	}
	if _, ok := columns["phone"]; !ok {
		return nil, nil, errors.New("dispatch: roster has no contact column")
	}

	cell := func(row []string, name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var items []*delivery.Item
	var rowErrors []RowError
	for n, row := range rows[1:] {
		parsed := rosterRow{
			Phone:    strings.TrimPrefix(cell(row, "phone"), "+"),
			FullName: cell(row, "full_name"),
			Plate:    cell(row, "plate"),
			Amount:   cell(row, "amount"),
			IssuedAt: cell(row, "issued_at"),
		}
		if err := rosterValidate.Struct(parsed); err != nil {
			rowErrors = append(rowErrors, RowError{Row: n + 2, Reason: err.Error()})
			continue
		}
		item := delivery.NewItem(len(items), parsed.Phone)
		item.FullName = parsed.FullName
		item.Plate = parsed.Plate
		item.Amount = parsed.Amount
		item.IssuedAt = parsed.IssuedAt
		items = append(items, item)
	}

	if len(items) == 0 {
		return nil, rowErrors, errors.New("dispatch: roster has no valid rows")
	}
	return NewBatch(items), rowErrors, nil
}
