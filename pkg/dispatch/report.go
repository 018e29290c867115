package dispatch

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/finenotify/finenotify/modules/notifications/domain/delivery"
)

var reportHeaders = []string{
	"index", "phone", "full_name", "plate", "amount",
	"status", "message_id", "sent", "delivered", "read",
}

// WriteReport exports the batch as a tabular delivery report keyed by item
// index, with derived sent/delivered/read boolean columns.
func WriteReport(path string, batch *Batch) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	for col, header := range reportHeaders {
		cellName, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return errors.Wrap(err, "dispatch: report header cell")
		}
		if err := f.SetCellValue(sheet, cellName, header); err != nil {
			return errors.Wrap(err, "dispatch: write report header")
		}
	}

	for _, item := range batch.Items() {
		values := []any{
			item.Index,
			item.Phone,
			item.FullName,
			item.Plate,
			item.Amount,
			item.Status.String(),
			item.MessageID,
			wasSent(item.Status),
			wasDelivered(item.Status),
			item.Status == delivery.StatusRead,
		}
		for col, value := range values {
			cellName, err := excelize.CoordinatesToCellName(col+1, item.Index+2)
			if err != nil {
				return errors.Wrap(err, "dispatch: report cell")
			}
			if err := f.SetCellValue(sheet, cellName, value); err != nil {
				return errors.Wrapf(err, "dispatch: write report row %d", item.Index)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return errors.Wrapf(err, "dispatch: save report %s", path)
	}
	return nil
}

func wasSent(s delivery.Status) bool {
	return s == delivery.StatusSent || wasDelivered(s)
}

func wasDelivered(s delivery.Status) bool {
	return s == delivery.StatusDelivered || s == delivery.StatusRead
}

// Summary renders a one-line human summary for the CLI.
func Summary(batch *Batch) string {
	counts := map[delivery.Status]int{}
	for _, status := range batch.States() {
		counts[status]++
	}
	return fmt.Sprintf(
		"%d items: %d sent, %d delivered, %d read, %d failed",
		batch.Len(),
		counts[delivery.StatusSent],
		counts[delivery.StatusDelivered],
		counts[delivery.StatusRead],
		counts[delivery.StatusError]+counts[delivery.StatusFailed],
	)
}
