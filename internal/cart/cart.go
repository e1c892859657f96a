package cart

import "encoding/json"

const (
	// MinQty is the floor for any persisted line quantity.
	MinQty = 1
	// MaxQty is the merge ceiling; excess quantity is dropped, not rejected.
	MaxQty = 99
)

// Line is one (product, size) entry with a quantity. The wire layout
// matches the persisted cart layout exactly.
type Line struct {
	ProductID string `json:"id"`
	Size      string `json:"size"`
	Qty       int    `json:"qty"`
}

// Key identifies a line inside a cart. Two lines with the same key never
// coexist; they are always merged.
type Key struct {
	ProductID string
	Size      string
}

func (l Line) Key() Key {
	return Key{ProductID: l.ProductID, Size: l.Size}
}

// Cart is an ordered sequence of lines, insertion order = first-add order.
type Cart []Line

// FindIndex returns the position of the line with the given key, or -1.
func (c Cart) FindIndex(key Key) int {
	for i, line := range c {
		if line.Key() == key {
			return i
		}
	}
	return -1
}

// Clone returns an independent copy of the cart.
func (c Cart) Clone() Cart {
	out := make(Cart, len(c))
	copy(out, c)
	return out
}

// Marshal serializes the cart into the persisted layout.
func (c Cart) Marshal() ([]byte, error) {
	if c == nil {
		c = Cart{}
	}
	return json.Marshal(c)
}

// Unmarshal parses persisted data into a normalized cart. Malformed or
// non-array payloads yield an empty cart, never an error: the persisted
// layer is untrusted and a broken cart must not break the session.
func Unmarshal(raw []byte) Cart {
	if len(raw) == 0 {
		return Cart{}
	}
	var lines []Line
	if err := json.Unmarshal(raw, &lines); err != nil {
		return Cart{}
	}
	return normalize(lines)
}

// normalize restores the cart invariants on whatever was stored: lines
// without a product or with non-positive quantity are dropped, quantities
// clamp at the ceiling, and duplicate keys merge into the first occurrence.
func normalize(lines []Line) Cart {
	out := make(Cart, 0, len(lines))
	for _, line := range lines {
		if line.ProductID == "" || line.Qty <= 0 {
			continue
		}
		if line.Qty > MaxQty {
			line.Qty = MaxQty
		}
		if idx := out.FindIndex(line.Key()); idx >= 0 {
			out[idx].Qty = clampQty(out[idx].Qty + line.Qty)
			continue
		}
		out = append(out, line)
	}
	return out
}

func clampQty(qty int) int {
	if qty < MinQty {
		return MinQty
	}
	if qty > MaxQty {
		return MaxQty
	}
	return qty
}
