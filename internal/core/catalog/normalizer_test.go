package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeName(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"a bowl of rice", "Rice"},
		{"two plates of chicken biryani", "Chicken Biryani"},
		{"  the   masala dosa  ", "Masala Dosa"},
		{"A Glass Of mango lassi", "Mango Lassi"},
		{"slice of bread", "Bread"},
		{"one small cup of tea", "Tea"},
		{"paneer", "Paneer"},
		{"", ""},
		{"   ", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, NormalizeName(c.raw), "raw=%q", c.raw)
	}
}

func TestNormalizeNameIdempotent(t *testing.T) {
	inputs := []string{"a bowl of rice", "Rice", "Chicken Tikka Masala", "idli sambar"}
	for _, in := range inputs {
		once := NormalizeName(in)
		assert.Equal(t, once, NormalizeName(once), "input=%q", in)
	}
}
