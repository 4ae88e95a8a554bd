package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_Basic(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"Juan Pérez", "juan perez"},
		{"  María   López  ", "maria lopez"},
		{"JOSÉ-LUIS O'BRIEN", "joseluis obrien"},
		{"Núñez, Ángel", "nunez angel"},
		{"a_b", "ab"},
		{"123 Niños", "123 ninos"},
		{"\tcarlos\n\ngarcía", "carlos garcia"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Normalize(tc.in), "input %q", tc.in)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"Juan Pérez", "  MÚLTIPLES   espacios  ", "señor.de.la.barra", "ÁÉÍÓÚ üñ", "",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestNormalize_Alphabet(t *testing.T) {
	inputs := []string{
		"Pérez-García, José!", "   ", "a\tb\nc", "¿Qué? ¡Sí!", "50% + IVA",
	}
	for _, in := range inputs {
		out := Normalize(in)
		for _, r := range out {
			ok := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == ' '
			assert.True(t, ok, "input %q produced %q outside [a-z0-9 ]", in, r)
		}
		assert.NotContains(t, out, "  ", "whitespace must be collapsed")
	}
}
