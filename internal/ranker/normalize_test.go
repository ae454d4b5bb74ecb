package ranker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase", "ACME", "acme"},
		{"diacritics", "Banco de Crédito del Perú", "banco de credito del peru"},
		{"sac suffix", "BANCO DE CREDITO DEL PERU S.A.C.", "banco de credito del peru"},
		{"sa suffix", "ALICORP S.A.", "alicorp"},
		{"eirl suffix", "Transportes Norte E.I.R.L.", "transportes norte"},
		{"srl no dots", "FERRETERIA LIMA SRL", "ferreteria lima"},
		{"punctuation", "Gloria, S.A.", "gloria"},
		{"whitespace", "  CEMENTOS   PACASMAYO  ", "cementos pacasmayo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestSignificantWords(t *testing.T) {
	t.Parallel()

	words := SignificantWords("BANCO DE CREDITO DEL PERU S.A.C.")
	assert.Equal(t, []string{"banco", "credito", "peru"}, words)

	// Short tokens and stopwords drop out.
	assert.Empty(t, SignificantWords("LUZ DEL SUR"))
}

func TestVariants_Acronym(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"bcp"}, Variants("BANCO DE CREDITO DEL PERU S.A.C."))
	assert.Equal(t, []string{"ccl"}, Variants("Cámara de Comercio de Lima"))

	// Single-word names yield an acronym too short to be a brand.
	assert.Nil(t, Variants("ALICORP S.A."))
}
