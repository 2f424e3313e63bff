package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricewatch/internal"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func strptr(s string) *string { return &s }

func fakeProduct() internal.Product {
	return internal.Product{
		SKU:      fmt.Sprintf("%s-%d", gofakeit.LetterN(2), gofakeit.Number(100, 999)),
		Name:     "Дисплей для iPhone " + gofakeit.DigitN(2),
		Brand:    strptr("Apple"),
		Subject:  strptr("Дисплеи"),
		IsActive: true,
	}
}

func TestUpsertProduct(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	q := db.Queries()

	p := fakeProduct()
	require.NoError(t, q.UpsertProduct(ctx, p))

	products, err := q.ListActiveProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
	id := products[0].ID

	p.Name = "Дисплей для iPhone 11 (обновлено)"
	require.NoError(t, q.UpsertProduct(ctx, p))

	got, err := q.GetProduct(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, p.Name, got.Name)
	assert.Equal(t, p.SKU, got.SKU)
}

func TestGetProductMissing(t *testing.T) {
	db := newTestDB(t)

	got, err := db.Queries().GetProduct(context.Background(), 12345)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestInsertRecordIdempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	q := db.Queries()

	rec := internal.CompetitorRecord{
		Source:     "moba",
		FileDate:   time.Date(2025, 8, 30, 0, 0, 0, 0, time.UTC),
		RowIndex:   1,
		SKU:        "AB-100",
		InStock:    true,
		ObservedAt: time.Date(2025, 8, 30, 7, 0, 0, 0, time.UTC),
	}

	stored, err := q.InsertRecord(ctx, rec)
	require.NoError(t, err)
	assert.True(t, stored)

	stored, err = q.InsertRecord(ctx, rec)
	require.NoError(t, err)
	assert.False(t, stored)
}

func TestListRecordsSince(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	q := db.Queries()

	for i, day := range []int{28, 29, 30} {
		_, err := q.InsertRecord(ctx, internal.CompetitorRecord{
			Source:     "moba",
			FileDate:   time.Date(2025, 8, day, 0, 0, 0, 0, time.UTC),
			RowIndex:   i + 1,
			SKU:        fmt.Sprintf("AB-%d", i),
			InStock:    true,
			ObservedAt: time.Date(2025, 8, day, 7, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
	}
	_, err := q.InsertRecord(ctx, internal.CompetitorRecord{
		Source:     "green-spark",
		FileDate:   time.Date(2025, 8, 30, 0, 0, 0, 0, time.UTC),
		RowIndex:   1,
		SKU:        "GS-1",
		InStock:    true,
		ObservedAt: time.Date(2025, 8, 30, 7, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	records, err := q.ListRecordsSince(ctx, time.Date(2025, 8, 29, 0, 0, 0, 0, time.UTC), nil)
	require.NoError(t, err)
	assert.Len(t, records, 3)

	records, err = q.ListRecordsSince(ctx, time.Date(2025, 8, 29, 0, 0, 0, 0, time.UTC), []string{"moba"})
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestEnsureCompetitor(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	q := db.Queries()

	first, err := q.EnsureCompetitor(ctx, "moba")
	require.NoError(t, err)
	assert.True(t, first.IsActive)

	second, err := q.EnsureCompetitor(ctx, "moba")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestPriceRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	q := db.Queries()

	require.NoError(t, q.UpsertProduct(ctx, fakeProduct()))
	products, err := q.ListActiveProducts(ctx)
	require.NoError(t, err)
	product := products[0]
	competitor, err := q.EnsureCompetitor(ctx, "moba")
	require.NoError(t, err)

	collectedAt := time.Date(2025, 8, 30, 7, 0, 0, 0, time.UTC)

	exists, err := q.PriceExists(ctx, product.ID, competitor.ID, collectedAt)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, q.InsertPrice(ctx, internal.CompetitorPrice{
		ProductID:    product.ID,
		CompetitorID: competitor.ID,
		Price:        1800,
		InStock:      true,
		CollectedAt:  collectedAt,
	}))

	exists, err = q.PriceExists(ctx, product.ID, competitor.ID, collectedAt)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestMinRecentPrice(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	q := db.Queries()

	require.NoError(t, q.UpsertProduct(ctx, fakeProduct()))
	products, err := q.ListActiveProducts(ctx)
	require.NoError(t, err)
	product := products[0]
	competitor, err := q.EnsureCompetitor(ctx, "moba")
	require.NoError(t, err)

	min, err := q.MinRecentPrice(ctx, product.ID, time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Nil(t, min)

	for i, price := range []float64{2100, 1800, 1950} {
		require.NoError(t, q.InsertPrice(ctx, internal.CompetitorPrice{
			ProductID:    product.ID,
			CompetitorID: competitor.ID,
			Price:        price,
			InStock:      true,
			CollectedAt:  time.Date(2025, 8, 30, 7, i, 0, 0, time.UTC),
		}))
	}

	min, err = q.MinRecentPrice(ctx, product.ID, time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NotNil(t, min)
	assert.Equal(t, 1800.0, *min)
}

func TestMatchInsertUpdate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	q := db.Queries()

	require.NoError(t, q.UpsertProduct(ctx, fakeProduct()))
	products, err := q.ListActiveProducts(ctx)
	require.NoError(t, err)
	product := products[0]
	competitor, err := q.EnsureCompetitor(ctx, "moba")
	require.NoError(t, err)

	missing, err := q.GetMatch(ctx, product.ID, competitor.ID)
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, q.InsertMatch(ctx, internal.ProductMatch{
		ProductID:     product.ID,
		CompetitorID:  competitor.ID,
		CompetitorSKU: strptr("AB-100"),
		Confidence:    1.0,
	}))

	match, err := q.GetMatch(ctx, product.ID, competitor.ID)
	require.NoError(t, err)
	require.NotNil(t, match)

	quality := "orig"
	match.Quality = &quality
	match.IsManual = true
	require.NoError(t, q.UpdateMatch(ctx, *match))

	updated, err := q.GetMatch(ctx, product.ID, competitor.ID)
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.True(t, updated.IsManual)
	require.NotNil(t, updated.Quality)
	assert.Equal(t, "orig", *updated.Quality)
}

func TestPhoneModelVariantIdentity(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	q := db.Queries()

	plain, err := q.CreatePhoneModel(ctx, "apple", "11", nil)
	require.NoError(t, err)
	variant := "pro"
	pro, err := q.CreatePhoneModel(ctx, "apple", "11", &variant)
	require.NoError(t, err)
	require.NotEqual(t, plain.ID, pro.ID)

	// A nil variant matches only the variantless row.
	found, err := q.FindPhoneModel(ctx, "apple", "11", nil)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, plain.ID, found.ID)

	found, err = q.FindPhoneModel(ctx, "apple", "11", &variant)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, pro.ID, found.ID)

	missing, err := q.FindPhoneModel(ctx, "apple", "12", nil)
	require.NoError(t, err)
	assert.Nil(t, missing)

	byPair, err := q.FindPhoneModelByBrandModel(ctx, "apple", "11")
	require.NoError(t, err)
	require.NotNil(t, byPair)
	assert.Equal(t, plain.ID, byPair.ID)
}

func TestOverridesRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	q := db.Queries()

	require.NoError(t, q.InsertOverride(ctx, internal.MatchOverride{
		CompetitorSource: "moba",
		CompetitorSKU:    strptr("AB-100"),
		Quality:          strptr("orig"),
		CreatedBy:        strptr("operator"),
	}))
	require.NoError(t, q.InsertOverride(ctx, internal.MatchOverride{
		CompetitorSource: "green-spark",
	}))

	all, err := q.ListOverrides(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	filtered, err := q.ListOverrides(ctx, []string{"moba"})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "moba", filtered[0].CompetitorSource)
	require.NotNil(t, filtered[0].CompetitorSKU)
	assert.False(t, filtered[0].CreatedAt.IsZero())
}

func TestInTxRollsBackOnError(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	err := db.InTx(ctx, func(q *Queries) error {
		if err := q.UpsertProduct(ctx, fakeProduct()); err != nil {
			return err
		}
		return fmt.Errorf("boom")
	})
	require.Error(t, err)

	products, err := db.Queries().ListActiveProducts(ctx)
	require.NoError(t, err)
	assert.Empty(t, products)
}
