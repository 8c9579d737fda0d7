package ledger

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrisoko/marketplace/pkg/model"
)

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "KES 2500.00", FormatAmount("KES", 2500))
	assert.Equal(t, "KES 0.00", FormatAmount("KES", 0))
}

func TestWriteStatement_BuyingView(t *testing.T) {
	orders := []model.Order{
		{
			ID:          "ORD-1",
			Buyer:       "Wanjiku",
			Seller:      "Acme Farm",
			Items:       "Maize",
			Fulfillment: model.FulfillmentPending,
			Payment:     model.PaymentInEscrow,
			Price:       2500,
			CreatedAt:   time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC),
		},
		{
			ID:          "ORD-2",
			Buyer:       "Wanjiku",
			Seller:      "Green Valley",
			Items:       "Beans",
			Fulfillment: model.FulfillmentDelivered,
			Payment:     model.PaymentInEscrow,
			Price:       5000,
			CreatedAt:   time.Date(2026, 8, 21, 10, 0, 0, 0, time.UTC),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteStatement(&buf, orders, model.ViewBuying, "KES"))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4) // header + 2 rows + footer

	assert.Equal(t, statementHeader, records[0])
	assert.Equal(t, "ORD-1", records[1][0])
	assert.Equal(t, "Acme Farm", records[1][2]) // counterparty is the seller
	assert.Equal(t, "KES 2500.00", records[1][6])

	footer := records[3]
	assert.Equal(t, "Total spent", footer[5])
	assert.Equal(t, "KES 7500.00", footer[6])
}

func TestWriteStatement_SellingView_EmptyLedger(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteStatement(&buf, nil, model.ViewSelling, "KES"))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2) // header + footer only

	assert.Equal(t, "Total earned", records[1][5])
	assert.Equal(t, "KES 0.00", records[1][6])
}
