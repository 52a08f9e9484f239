package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCoerceBool(t *testing.T) {
	truthy := []string{"1", "true", "TRUE", "True", "yes", "YES", "on", " true "}
	for _, v := range truthy {
		assert.True(t, CoerceBool(v), "%q must coerce to true", v)
	}

	falsy := []string{"", "0", "false", "no", "off", "2", "enabled"}
	for _, v := range falsy {
		assert.False(t, CoerceBool(v), "%q must coerce to false", v)
	}
}

func TestCoerceInt(t *testing.T) {
	assert.Equal(t, 42, CoerceInt("42"))
	assert.Equal(t, -3, CoerceInt(" -3 "))
	assert.Equal(t, 0, CoerceInt(""))
	assert.Equal(t, 0, CoerceInt("4.2"))
	assert.Equal(t, 0, CoerceInt("many"))
}

func TestNormalizeCurrency(t *testing.T) {
	assert.Equal(t, "usd", NormalizeCurrency("USD"))
	assert.Equal(t, "eur", NormalizeCurrency(" eur "))
	assert.Equal(t, "", NormalizeCurrency(""))
}

func TestCoerceUnixTime(t *testing.T) {
	assert.Nil(t, CoerceUnixTime(0))
	assert.Nil(t, CoerceUnixTime(-1))

	ts := CoerceUnixTime(1700000000)
	assert.NotNil(t, ts)
	assert.Equal(t, time.UTC, ts.Location())
	assert.Equal(t, int64(1700000000), ts.Unix())
}

func TestMetadataMergeAndGet(t *testing.T) {
	base := Metadata{"a": "1", "b": "2"}
	merged := base.Merge(Metadata{"b": "3", "c": "4"})

	assert.Equal(t, "1", merged.Get("a"))
	assert.Equal(t, "3", merged.Get("b"), "the overlay wins")
	assert.Equal(t, "4", merged.Get("c"))
	assert.Equal(t, "2", base.Get("b"), "merge must not mutate the receiver")
	assert.Equal(t, "", Metadata(nil).Get("missing"))
}
