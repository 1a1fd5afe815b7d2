package cart

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// moneyDecimals is the precision at which prices are kept exactly
const moneyDecimals = 6

var maxMoney = decimal.New(1, 18)

// Money is an exact amount in millionths of the currency unit. On the wire it is a
// plain decimal number.
type Money int64

func MoneyFromCents(cents int64) Money {
	return Money(cents * 10_000)
}

// MoneyFromFloat converts a catalog price. Digits beyond the sixth decimal are rounded.
func MoneyFromFloat(amount float64) Money {
	return Money(decimal.NewFromFloat(amount).Shift(moneyDecimals).Round(0).IntPart())
}

func ParseMoney(s string) (Money, error) {
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("price %q is not a decimal: %w", s, err)
	}
	units := amount.Shift(moneyDecimals)
	if !units.IsInteger() {
		return 0, fmt.Errorf("price %q has more than %d decimals", s, moneyDecimals)
	}
	if units.Abs().GreaterThanOrEqual(maxMoney) {
		return 0, fmt.Errorf("price %q is out of range", s)
	}
	return Money(units.IntPart()), nil
}

func (m Money) Times(quantity int) Money {
	return m * Money(quantity)
}

func (m Money) decimal() decimal.Decimal {
	return decimal.New(int64(m), -moneyDecimals)
}

// String rounds to cents for display
func (m Money) String() string {
	return m.decimal().StringFixed(2)
}

func (m Money) Format(currency string) string {
	return fmt.Sprintf("%s %s", currency, m.String())
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.decimal().String()), nil
}

func (m *Money) UnmarshalJSON(data []byte) error {
	var number json.Number
	err := json.Unmarshal(data, &number)
	if err != nil {
		return fmt.Errorf("price is not a number: %w", err)
	}
	parsed, err := ParseMoney(number.String())
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Product is what the catalog hands to AddItem
type Product struct {
	ProductID string `json:"productId"`
	Title     string `json:"title"`
	Price     Money  `json:"price"`
	Image     string `json:"image"`
}

type CartLine struct {
	Product
	Quantity int `json:"quantity"`
}

func (l CartLine) TotalPrice() Money {
	return l.Price.Times(l.Quantity)
}

type Direction string

const (
	Increment Direction = "inc"
	Decrement Direction = "dec"
)

func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case Increment, Decrement:
		return Direction(s), nil
	default:
		return "", fmt.Errorf("unknown direction %q (expected %q or %q)", s, Increment, Decrement)
	}
}

// View is what the presentation renders
type View struct {
	Cart       []CartLine `json:"cart"`
	TotalPrice Money      `json:"totalPrice"`
	Loading    bool       `json:"loading"`
}
