package cart

import "fmt"

// Every function in this file returns a fresh slice and leaves its input untouched,
// so snapshots handed out earlier stay valid.

func addItem(lines []CartLine, product Product) []CartLine {
	result := make([]CartLine, 0, len(lines)+1)
	merged := false
	for _, l := range lines {
		if l.ProductID == product.ProductID {
			l.Quantity++
			merged = true
		}
		result = append(result, l)
	}
	if !merged {
		result = append(result, CartLine{Product: product, Quantity: 1})
	}
	return result
}

func removeItem(lines []CartLine, productID string) []CartLine {
	result := make([]CartLine, 0, len(lines))
	for _, l := range lines {
		if l.ProductID != productID {
			result = append(result, l)
		}
	}
	return result
}

type lineResultKind int

const (
	lineUpdated lineResultKind = iota
	lineRemoved
)

type lineResult struct {
	kind lineResultKind
	line CartLine
}

func updated(line CartLine) lineResult {
	return lineResult{kind: lineUpdated, line: line}
}

func removed() lineResult {
	return lineResult{kind: lineRemoved}
}

func adjustQuantity(line CartLine, direction Direction) lineResult {
	switch direction {
	case Increment:
		line.Quantity++
		return updated(line)
	case Decrement:
		if line.Quantity <= 1 {
			return removed()
		}
		line.Quantity--
		return updated(line)
	default:
		return updated(line)
	}
}

func updateQuantity(lines []CartLine, productID string, direction Direction) []CartLine {
	results := make([]lineResult, 0, len(lines))
	for _, l := range lines {
		if l.ProductID == productID {
			results = append(results, adjustQuantity(l, direction))
			continue
		}
		results = append(results, updated(l))
	}
	return keepUpdated(results)
}

func keepUpdated(results []lineResult) []CartLine {
	lines := make([]CartLine, 0, len(results))
	for _, r := range results {
		if r.kind == lineUpdated {
			lines = append(lines, r.line)
		}
	}
	return lines
}

func clearLines([]CartLine) []CartLine {
	return []CartLine{}
}

func cloneLines(lines []CartLine) []CartLine {
	result := make([]CartLine, len(lines))
	copy(result, lines)
	return result
}

// ComputeTotal is the sum of price times quantity over all lines
func ComputeTotal(lines []CartLine) Money {
	var total Money
	for _, l := range lines {
		total += l.TotalPrice()
	}
	return total
}

// Validate reports the first line that breaks uniqueness or positivity
func Validate(lines []CartLine) error {
	seen := map[string]bool{}
	for i, l := range lines {
		if l.ProductID == "" {
			return fmt.Errorf("line %d has no product id", i)
		}
		if seen[l.ProductID] {
			return fmt.Errorf("line %d: product %s occurs more than once", i, l.ProductID)
		}
		seen[l.ProductID] = true
		if l.Quantity < 1 {
			return fmt.Errorf("line %d: product %s has quantity %d", i, l.ProductID, l.Quantity)
		}
	}
	return nil
}
