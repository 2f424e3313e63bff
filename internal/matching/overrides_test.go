package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricewatch/internal"
)

func strptr(s string) *string { return &s }

func int64ptr(v int64) *int64 { return &v }

func TestOverrideSetExactBeforeWildcard(t *testing.T) {
	set := NewOverrideSet([]internal.MatchOverride{
		{CompetitorSource: "moba", CompetitorSKU: strptr("AB-100"), ProductID: int64ptr(1)},
		{CompetitorSource: "moba", ProductID: int64ptr(2)},
	})

	exact := set.Resolve("moba", "ab-100")
	require.NotNil(t, exact)
	assert.Equal(t, int64(1), *exact.ProductID)

	wildcard := set.Resolve("moba", "zz-999")
	require.NotNil(t, wildcard)
	assert.Equal(t, int64(2), *wildcard.ProductID)

	assert.Nil(t, set.Resolve("other", "ab-100"))
}

func TestOverrideSetNormalizesStoredSKU(t *testing.T) {
	set := NewOverrideSet([]internal.MatchOverride{
		{CompetitorSource: "moba", CompetitorSKU: strptr(" AB–100 "), ProductID: int64ptr(7)},
	})

	ov := set.Resolve("moba", "ab-100")
	require.NotNil(t, ov)
	assert.Equal(t, int64(7), *ov.ProductID)
}

func TestOverrideSetBlankSKUIsWildcard(t *testing.T) {
	set := NewOverrideSet([]internal.MatchOverride{
		{CompetitorSource: "moba", CompetitorSKU: strptr("   "), ProductID: int64ptr(3)},
	})

	ov := set.Resolve("moba", "anything")
	require.NotNil(t, ov)
	assert.Equal(t, int64(3), *ov.ProductID)
}
