package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricewatch/internal"
)

func strptr(s string) *string { return &s }

func TestBuildIndexBySKU(t *testing.T) {
	products := []internal.Product{
		{ID: 1, SKU: "AB-100", Name: "Дисплей для iPhone 11 черный"},
		{ID: 2, SKU: "ab–100", Name: "Дисплей для iPhone 11 белый"},
		{ID: 3, SKU: "CD-200", Name: "Дисплей для iPhone 12"},
	}

	idx := BuildIndex(products, "дисплей", nil)

	// The en-dash spelling normalizes to the same key; the bucket keeps both
	// so the engine can refuse to guess.
	require.Len(t, idx.BySKU["ab-100"], 2)
	require.Len(t, idx.BySKU["cd-200"], 1)
	assert.Equal(t, int64(3), idx.BySKU["cd-200"][0].ID)
}

func TestBuildIndexByBrandModel(t *testing.T) {
	products := []internal.Product{
		{ID: 1, SKU: "A1", Name: "Дисплей для iPhone 11 черный"},
		{ID: 2, SKU: "A2", Name: "Дисплей для Samsung Galaxy S21 в сборе"},
		{ID: 3, SKU: "A3", Name: "Аккумулятор для iPhone 11"},
	}

	idx := BuildIndex(products, "дисплей", nil)

	require.Len(t, idx.ByBrandModel["apple"], 1)
	assert.Equal(t, "11", idx.ByBrandModel["apple"][0].Model)
	assert.Equal(t, int64(1), idx.ByBrandModel["apple"][0].Product.ID)

	require.Len(t, idx.ByBrandModel["samsung"], 1)
	assert.Equal(t, "s21", idx.ByBrandModel["samsung"][0].Model)
}

func TestBuildIndexSubjectWhitelist(t *testing.T) {
	products := []internal.Product{
		{ID: 1, SKU: "A1", Name: "Дисплей для iPhone 11", Subject: strptr("Дисплеи")},
		{ID: 2, SKU: "A2", Name: "Дисплей для iPhone 12", Subject: strptr("Прочее")},
		{ID: 3, SKU: "A3", Name: "Дисплей для iPhone 13"},
	}

	idx := BuildIndex(products, "дисплей", []string{"Дисплеи"})

	assert.Len(t, idx.BySKU, 1)
	require.Len(t, idx.ByBrandModel["apple"], 1)
	assert.Equal(t, int64(1), idx.ByBrandModel["apple"][0].Product.ID)
}

func TestBuildIndexMultiModelName(t *testing.T) {
	products := []internal.Product{
		{ID: 1, SKU: "A1", Name: "Дисплей для iPhone 12 / iPhone 12 Pro"},
	}

	idx := BuildIndex(products, "дисплей", nil)

	entries := idx.ByBrandModel["apple"]
	require.Len(t, entries, 2)
	assert.Equal(t, "12", entries[0].Model)
	assert.Equal(t, "12pro", entries[1].Model)
}
