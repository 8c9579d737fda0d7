package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/agrisoko/marketplace/pkg/model"
)

// statementHeader is the fixed column layout of an exported statement.
var statementHeader = []string{
	"Order ID", "Date", "Counterparty", "Items",
	"Fulfillment", "Payment", "Amount",
}

// FormatAmount renders a major-unit integer price with the display
// currency and two decimal places, e.g. "KES 2500.00".
func FormatAmount(currency string, amount int64) string {
	return fmt.Sprintf("%s %s", currency, decimal.NewFromInt(amount).StringFixed(2))
}

// WriteStatement exports the given orders as a CSV statement for one
// side of the ledger, with a financial summary footer. It is a pure
// read-only consumer of ListFor output.
func WriteStatement(w io.Writer, orders []model.Order, view model.View, currency string) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(statementHeader); err != nil {
		return fmt.Errorf("statement: write header: %w", err)
	}

	for _, o := range orders {
		counterparty := o.Seller
		if view == model.ViewSelling {
			counterparty = o.Buyer
		}
		record := []string{
			o.ID,
			o.CreatedAt.Format(time.DateOnly),
			counterparty,
			o.Items,
			string(o.Fulfillment),
			string(o.Payment),
			FormatAmount(currency, o.Price),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("statement: write row: %w", err)
		}
	}

	sum := FinancialSummary(orders, view)
	total := sum.TotalSpent
	label := "Total spent"
	if view == model.ViewSelling {
		total = sum.TotalEarned
		label = "Total earned"
	}
	footer := []string{"", "", "", "", "", label, FormatAmount(currency, total)}
	if err := cw.Write(footer); err != nil {
		return fmt.Errorf("statement: write footer: %w", err)
	}

	cw.Flush()
	return cw.Error()
}
