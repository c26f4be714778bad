package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// GenerateReceipt returns a provider receipt id derived from the current
// time: rcpt_YYYYMMDD-HHMMSS-mmm-RRRR. Providers cap receipts at 40 chars.
func GenerateReceipt() string {
	return generateReceiptAt(time.Now().UTC())
}

func generateReceiptAt(now time.Time) string {
	datePart := now.Format("20060102-150405")
	millis := now.Nanosecond() / int(time.Millisecond)

	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		n = big.NewInt(now.UnixNano() % 10000)
	}

	return fmt.Sprintf("rcpt_%s-%03d-%04d", datePart, millis, n.Int64())
}
