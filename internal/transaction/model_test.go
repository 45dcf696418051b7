package transaction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadata_Merge(t *testing.T) {
	base := Metadata{MetaSubscriptionID: "sub-1", MetaPlanName: "pro"}

	merged := base.Merge(Metadata{MetaPlanName: "premium", MetaRecurringPeriod: "30", MetaMerchantID: ""})

	assert.Equal(t, Metadata{
		MetaSubscriptionID:  "sub-1",
		MetaPlanName:        "premium",
		MetaRecurringPeriod: "30",
	}, merged)
	assert.Equal(t, "pro", base[MetaPlanName], "merge must not mutate the receiver")
}

func TestMetadata_ValueAndScan(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		v, err := Metadata{MetaMerchantID: "m-9"}.Value()
		require.NoError(t, err)

		var m Metadata
		require.NoError(t, m.Scan(v))
		assert.Equal(t, "m-9", m[MetaMerchantID])
	})

	t.Run("NilValue", func(t *testing.T) {
		v, err := Metadata(nil).Value()
		require.NoError(t, err)
		assert.Equal(t, []byte("{}"), v)
	})

	t.Run("ScanNull", func(t *testing.T) {
		m := Metadata{"stale": "x"}
		require.NoError(t, m.Scan(nil))
		assert.Empty(t, m)
	})

	t.Run("ScanString", func(t *testing.T) {
		var m Metadata
		require.NoError(t, m.Scan(`{"subscription_id":"abc"}`))
		assert.Equal(t, "abc", m[MetaSubscriptionID])
	})

	t.Run("ScanInvalid", func(t *testing.T) {
		var m Metadata
		assert.Error(t, m.Scan([]byte(`{not json`)))
		assert.Error(t, m.Scan(12))
	})
}
