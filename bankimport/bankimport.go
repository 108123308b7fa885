// Package bankimport matches incoming bank transactions to open rent
// positions: batch decoding, candidate discovery by IBAN and free text,
// combinatorial multi-lease split search, and the derived booking-creation
// requests.
package bankimport

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hausverwaltung/umlage/money"
)

// Transaction is one bank transaction after decoding.
type Transaction struct {
	ReferenceNumber string
	PartnerName     string
	PartnerIBAN     string
	Amount          decimal.Decimal
	BookingDate     time.Time
	ValutaDate      time.Time
	ReferenceText   string
}

// BatchStats counts what happened to the rows of one batch.
type BatchStats struct {
	Accepted   int
	Skipped    int
	Duplicates int
}

// wire types for the bank export format: amounts arrive as integer minor
// units plus a precision, never as binary floats.
type batchPayload struct {
	Transactions []transactionPayload `json:"transactions"`
}

type transactionPayload struct {
	ReferenceNumber string `json:"referenceNumber"`
	PartnerName     string `json:"partnerName"`
	PartnerAccount  struct {
		IBAN string `json:"iban"`
	} `json:"partnerAccount"`
	Amount struct {
		Value     *int64 `json:"value"`
		Precision int32  `json:"precision"`
	} `json:"amount"`
	Booking   string `json:"booking"`
	Valuation string `json:"valuation"`
	Reference string `json:"reference"`
}

// DecodeBatch reads a transaction batch. Rows with malformed fields are
// skipped and counted, never aborting the batch; duplicate reference
// numbers within the batch are ignored after the first occurrence.
func DecodeBatch(r io.Reader) ([]Transaction, BatchStats, error) {
	var payload batchPayload
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return nil, BatchStats{}, fmt.Errorf("failed to decode transaction batch: %w", err)
	}

	var stats BatchStats
	seen := make(map[string]bool)
	transactions := make([]Transaction, 0, len(payload.Transactions))

	for _, row := range payload.Transactions {
		txn, err := decodeTransaction(row)
		if err != nil {
			stats.Skipped++
			continue
		}
		if seen[txn.ReferenceNumber] {
			stats.Duplicates++
			continue
		}
		seen[txn.ReferenceNumber] = true
		stats.Accepted++
		transactions = append(transactions, txn)
	}

	return transactions, stats, nil
}

func decodeTransaction(row transactionPayload) (Transaction, error) {
	if row.ReferenceNumber == "" {
		return Transaction{}, fmt.Errorf("missing reference number")
	}
	if row.Amount.Value == nil {
		return Transaction{}, fmt.Errorf("missing amount")
	}

	bookingDate, err := parseTimestamp(row.Booking)
	if err != nil {
		return Transaction{}, fmt.Errorf("invalid booking timestamp: %w", err)
	}
	valutaDate := bookingDate
	if row.Valuation != "" {
		if valutaDate, err = parseTimestamp(row.Valuation); err != nil {
			return Transaction{}, fmt.Errorf("invalid valuation timestamp: %w", err)
		}
	}

	return Transaction{
		ReferenceNumber: row.ReferenceNumber,
		PartnerName:     row.PartnerName,
		PartnerIBAN:     row.PartnerAccount.IBAN,
		Amount:          money.FromMinorUnits(*row.Amount.Value, row.Amount.Precision),
		BookingDate:     bookingDate,
		ValutaDate:      valutaDate,
		ReferenceText:   row.Reference,
	}, nil
}

func parseTimestamp(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}
