package valueobject

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Ledger column widths for the stored card fragments.
const (
	MaxCardBinLen    = 8
	CardLast4Len     = 4
	MaxCardNumberLen = 19
)

// NormalizeCardNumber removes the hyphens callers use to group card digits.
func NormalizeCardNumber(raw string) string {
	return strings.ReplaceAll(strings.TrimSpace(raw), "-", "")
}

// CardBin returns up to the first six digits of a card number.
func CardBin(cardNumber string) string {
	r := []rune(NormalizeCardNumber(cardNumber))
	return string(r[:min(6, len(r))])
}

// CardLast4 returns up to the last four digits of a card number.
func CardLast4(cardNumber string) string {
	r := []rune(NormalizeCardNumber(cardNumber))
	return string(r[max(0, len(r)-CardLast4Len):])
}

// ValidateCardFields checks the caller-supplied card fragments. Empty values
// are allowed; anything else must be digits that fit the ledger columns.
func ValidateCardFields(cardNumber, cardBin, cardLast4 string) error {
	if n := NormalizeCardNumber(cardNumber); n != "" {
		if !isDigits(n) || len(n) > MaxCardNumberLen {
			return fmt.Errorf("cardNumber must be at most %d digits", MaxCardNumberLen)
		}
	}
	if cardBin != "" && (!isDigits(cardBin) || len(cardBin) > MaxCardBinLen) {
		return fmt.Errorf("cardBin must be at most %d digits, got %q", MaxCardBinLen, cardBin)
	}
	if cardLast4 != "" && (!isDigits(cardLast4) || len(cardLast4) != CardLast4Len) {
		return errors.New("cardLast4 must be exactly 4 digits")
	}
	return nil
}

// FitsLedger reports whether the stored card fragments fit their columns.
func FitsLedger(cardBin, cardLast4 string) bool {
	return utf8.RuneCountInString(cardBin) <= MaxCardBinLen && utf8.RuneCountInString(cardLast4) <= CardLast4Len
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// FirstNonEmpty returns the first argument that is not blank.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
