package pdf

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/parkpro/internal/parking/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReceipt() domain.Receipt {
	return domain.Receipt{
		Number:        "01HQ3Z6Y8M4K2V9T7X5R1N0PWS",
		CarNumber:     "XYZ-123",
		EntryTime:     time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC),
		ExitTime:      time.Date(2024, 1, 1, 13, 30, 0, 0, time.UTC),
		DurationLabel: "5h 30m",
		Charges:       decimal.NewFromInt(180),
		Summary:       "Your payment of Rs 180.00 for 5h 30m was successful.",
	}
}

func TestGenerateReceipt(t *testing.T) {
	data := ReceiptDataFrom(sampleReceipt(), time.UTC)
	assert.Equal(t, "Rs 180.00", data.Total)

	r, err := New().GenerateReceipt(context.Background(), data)
	require.NoError(t, err)

	out, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")), "output is not a PDF")
}

func TestGenerateReceiptCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().GenerateReceipt(ctx, ReceiptDataFrom(sampleReceipt(), nil))
	require.ErrorIs(t, err, context.Canceled)
}

func TestFileName(t *testing.T) {
	name := FileName(ReceiptDataFrom(sampleReceipt(), time.UTC))
	assert.Equal(t, "parking-receipt-xyz-123-01hq3z6y8m4k2v9t7x5r1n0pws.pdf", name)
}
