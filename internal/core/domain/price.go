package domain

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Default and recognised currencies.
const (
	CurrencyINR = "INR"
	CurrencyUSD = "USD"
)

// PriceInfo is a numeric reading of free-text price strings. It is
// best-effort: source documents mix symbols, separators and regional units,
// so consumers must not treat it as authoritative.
type PriceInfo struct {
	Amount          float64 `json:"amount"`
	OriginalPrice   float64 `json:"originalPrice"`
	DiscountAmount  float64 `json:"discountAmount"`
	DiscountPercent int     `json:"discount"`
	Currency        string  `json:"currency"`
	IsOnSale        bool    `json:"isOnSale"`
}

var numberPattern = regexp.MustCompile(`[\d,.]+`)

// InterpretPrice reads the first number out of price and discounted. A
// discounted value below the price marks the item on sale.
func InterpretPrice(price, discounted string) PriceInfo {
	info := PriceInfo{Currency: CurrencyINR}

	if amount, ok := firstNumber(price); ok {
		info.Amount = amount
		info.OriginalPrice = amount
	}
	lower := strings.ToLower(price)
	if strings.Contains(price, "$") || strings.Contains(lower, "usd") {
		info.Currency = CurrencyUSD
	}

	if d, ok := firstNumber(discounted); ok {
		switch {
		case d > 0 && d < info.Amount:
			info.OriginalPrice = info.Amount
			info.Amount = d
			info.IsOnSale = true
			info.DiscountAmount = info.OriginalPrice - d
			if info.OriginalPrice > 0 {
				info.DiscountPercent = int(math.Round(info.DiscountAmount / info.OriginalPrice * 100))
			}
		case info.Amount == 0 && d > 0:
			info.Amount = d
			info.OriginalPrice = d
		}
	}

	if info.OriginalPrice == 0 && info.Amount > 0 {
		info.OriginalPrice = info.Amount
	}
	return info
}

func firstNumber(s string) (float64, bool) {
	m := numberPattern.FindString(s)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
