package bankimport

import (
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
)

func TestDecodeBatch(t *testing.T) {
	payload := `{
		"transactions": [
			{
				"referenceNumber": "REF-1",
				"partnerName": "Max Huber",
				"partnerAccount": {"iban": "AT611904300234573201"},
				"amount": {"value": 83998, "precision": 2},
				"booking": "2025-02-03T00:00:00Z",
				"valuation": "2025-02-04T00:00:00Z",
				"reference": "Miete Top 1"
			},
			{
				"referenceNumber": "REF-2",
				"partnerName": "Eva Bauer",
				"partnerAccount": {"iban": "AT861904300235473202"},
				"amount": {"value": -4199, "precision": 2},
				"booking": "2025-02-05"
			},
			{
				"referenceNumber": "REF-1",
				"partnerName": "duplicate of the first row",
				"amount": {"value": 1, "precision": 2},
				"booking": "2025-02-03T00:00:00Z"
			},
			{
				"referenceNumber": "REF-3",
				"partnerName": "missing amount",
				"booking": "2025-02-03T00:00:00Z"
			},
			{
				"referenceNumber": "REF-4",
				"amount": {"value": 100, "precision": 2},
				"booking": "03.02.2025"
			}
		]
	}`

	transactions, stats, err := DecodeBatch(strings.NewReader(payload))
	assert.NoError(t, err)

	assert.Equal(t, 2, stats.Accepted)
	assert.Equal(t, 2, stats.Skipped)
	assert.Equal(t, 1, stats.Duplicates)
	assert.Equal(t, 2, len(transactions))

	assert.Equal(t, "839.98", transactions[0].Amount.StringFixed(2))
	assert.Equal(t, "AT611904300234573201", transactions[0].PartnerIBAN)
	assert.Equal(t, time.Date(2025, time.February, 4, 0, 0, 0, 0, time.UTC), transactions[0].ValutaDate)

	// Date-only timestamps are accepted; valuation falls back to booking.
	assert.Equal(t, "-41.99", transactions[1].Amount.StringFixed(2))
	assert.Equal(t, transactions[1].BookingDate, transactions[1].ValutaDate)
}

func TestDecodeBatchInvalidJSON(t *testing.T) {
	_, _, err := DecodeBatch(strings.NewReader("{"))
	assert.Error(t, err)
}
