package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func TestReadProductsCSV_Windows1251(t *testing.T) {
	raw, err := charmap.Windows1251.NewEncoder().String("name,price\nЧерный чай,150.50\nЗеленый чай, 22.8\n")
	require.NoError(t, err)

	got, err := readProductsCSV(bytes.NewReader([]byte(raw)), "windows-1251")

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Черный чай", got[0].Name)
	assert.Equal(t, "150.5", got[0].Price.String())
	assert.Equal(t, "22.8", got[1].Price.String())
}

func TestReadProductsCSV_Latin1SinCabecera(t *testing.T) {
	raw, err := charmap.ISO8859_1.NewEncoder().String("Azúcar,4200\n,10\n")
	require.NoError(t, err)

	got, err := readProductsCSV(strings.NewReader(raw), "latin1")

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Azúcar", got[0].Name)
}

func TestReadProductsCSV_Errores(t *testing.T) {
	_, err := readProductsCSV(strings.NewReader("name,price\nTé,abc\n"), "utf-8")
	assert.ErrorContains(t, err, "línea 2")

	_, err = readProductsCSV(strings.NewReader("Té\n"), "utf-8")
	assert.Error(t, err)

	_, err = readProductsCSV(strings.NewReader(""), "ebcdic")
	assert.ErrorContains(t, err, "charset no soportado")
}
