package domain

// CartLine is one distinct purchasable selection and its quantity.
type CartLine struct {
	LineID         string   `json:"lineId"`
	ProductRef     string   `json:"productRef"`
	Name           string   `json:"name,omitempty"`
	UnitPriceCents int64    `json:"unitPrice"`
	Quantity       int      `json:"quantity"`
	SelectedSize   string   `json:"selectedSize,omitempty"`
	SelectedExtras []string `json:"selectedExtras,omitempty"`
	Image          string   `json:"image,omitempty"`
}

// Subtotal is unit price times quantity.
func (l CartLine) Subtotal() int64 {
	return l.UnitPriceCents * int64(l.Quantity)
}

// Clone returns a deep copy of the line.
func (l CartLine) Clone() CartLine {
	out := l
	if l.SelectedExtras != nil {
		out.SelectedExtras = append([]string(nil), l.SelectedExtras...)
	}
	return out
}

// CloneLines deep-copies a slice of lines.
func CloneLines(lines []CartLine) []CartLine {
	if lines == nil {
		return nil
	}
	out := make([]CartLine, len(lines))
	for i, l := range lines {
		out[i] = l.Clone()
	}
	return out
}

// SumLines is sum(unitPrice*quantity) over lines.
func SumLines(lines []CartLine) int64 {
	var total int64
	for _, l := range lines {
		total += l.Subtotal()
	}
	return total
}
