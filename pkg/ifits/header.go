package ifits

import (
	"fmt"
	"strconv"
	"strings"
)

// A Card is one keyword record from a FITS header: a name, a value,
// and an optional comment. For keywords like WAVELENG the comment
// carries the unit.
type Card struct {
	Name    string
	Value   interface{}
	Comment string
}

// A Header is the ordered metadata envelope of an image. Order is
// preserved across read/modify/write so the output files stay
// recognizable next to their inputs.
type Header struct {
	cards []Card
}

func (h *Header)Cards() []Card { return h.cards }

func (h *Header)Get(name string) (Card, bool) {
	for _, c := range h.cards {
		if c.Name == name {
			return c, true
		}
	}
	return Card{}, false
}

func (h *Header)Has(name string) bool {
	_, ok := h.Get(name)
	return ok
}

// Set replaces the card in place if the keyword already exists,
// otherwise appends it.
func (h *Header)Set(name string, value interface{}, comment string) {
	for i, c := range h.cards {
		if c.Name == name {
			h.cards[i].Value = value
			if comment != "" {
				h.cards[i].Comment = comment
			}
			return
		}
	}
	h.cards = append(h.cards, Card{Name: name, Value: value, Comment: comment})
}

// Float fetches a keyword as a float64, coping with the value types
// the container parser hands back (int, float, or numeric string).
func (h *Header)Float(name string) (float64, bool) {
	c, ok := h.Get(name)
	if !ok {
		return 0, false
	}
	switch v := c.Value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

func (h *Header)Str(name string) (string, bool) {
	c, ok := h.Get(name)
	if !ok {
		return "", false
	}
	switch v := c.Value.(type) {
	case string:
		return v, true
	default:
		return fmt.Sprintf("%v", v), true
	}
}

// Comment returns the comment attached to a keyword, or "".
func (h *Header)Comment(name string) string {
	c, _ := h.Get(name)
	return c.Comment
}

// Clone is a deep copy; stages that derive a new image from an old
// one start from the old envelope.
func (h *Header)Clone() Header {
	cards := make([]Card, len(h.cards))
	copy(cards, h.cards)
	return Header{cards: cards}
}
