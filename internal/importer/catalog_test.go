package importer

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeCatalogXLSX(t *testing.T, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		for j, value := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, cell, value))
		}
	}
	path := filepath.Join(t.TempDir(), "catalog.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestImportCatalog(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	path := writeCatalogXLSX(t, [][]any{
		{"sku", "name", "brand", "subject", "quality", "display_type", "in_frame", "is_active"},
		{"AB-100", "Дисплей для iPhone 11 черный", "Apple", "Дисплеи", "ORIG100", "oled", "да", "1"},
		{"CD-200", "Дисплей для Samsung S21", "Samsung", "Дисплеи", "", "", "", "0"},
		{"", "Без артикула", "", "", "", "", "", ""},
	})

	count, err := svc.ImportCatalog(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	products, err := db.Queries().ListActiveProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)

	p := products[0]
	assert.Equal(t, "AB-100", p.SKU)
	require.NotNil(t, p.Quality)
	assert.Equal(t, "ORIG100", *p.Quality)
	require.NotNil(t, p.InFrame)
	assert.Equal(t, "да", *p.InFrame)
}

func TestImportCatalogUpsertsBySKU(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	path := writeCatalogXLSX(t, [][]any{
		{"sku", "name"},
		{"AB-100", "Дисплей для iPhone 11"},
	})
	_, err := svc.ImportCatalog(ctx, path)
	require.NoError(t, err)

	renamed := writeCatalogXLSX(t, [][]any{
		{"sku", "name"},
		{"AB-100", "Дисплей для iPhone 11 (новое название)"},
	})
	_, err = svc.ImportCatalog(ctx, renamed)
	require.NoError(t, err)

	products, err := db.Queries().ListActiveProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Дисплей для iPhone 11 (новое название)", products[0].Name)
}

func TestImportCatalogMissingColumns(t *testing.T) {
	svc, _ := newTestService(t)

	path := writeCatalogXLSX(t, [][]any{{"sku", "brand"}, {"AB-100", "Apple"}})
	_, err := svc.ImportCatalog(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing columns")
}
