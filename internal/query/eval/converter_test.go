package eval

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestore-odm/internal/query/config"
	"firestore-odm/internal/query/domain/metadata"
	"firestore-odm/internal/shared/errors"
)

func converterMeta() *metadata.Registry {
	return metadata.NewRegistry().
		RegisterEnum(metadata.NewEnum("OrderStatus", map[int64]string{
			0: "pending",
			1: "shipped",
			2: "cancelled",
		}))
}

func newTestConverter(enumStorage string) *Converter {
	cfg := config.Default()
	cfg.EnumStorage = enumStorage
	return NewConverter(converterMeta(), cfg)
}

func TestToStoreValue_DecimalBecomesFloat(t *testing.T) {
	c := newTestConverter(config.EnumAsString)

	v, err := c.ToStoreValue(decimal.NewFromFloat(10.25), "")
	require.NoError(t, err)
	assert.Equal(t, 10.25, v)

	d := decimal.NewFromInt(3)
	v, err = c.ToStoreValue(&d, "")
	require.NoError(t, err)
	assert.Equal(t, 3.0, v)
}

func TestToStoreValue_TimeBecomesUTC(t *testing.T) {
	c := newTestConverter(config.EnumAsString)

	loc := time.FixedZone("UTC+5", 5*3600)
	local := time.Date(2024, 3, 1, 10, 30, 0, 0, loc)

	v, err := c.ToStoreValue(local, "")
	require.NoError(t, err)
	converted, ok := v.(time.Time)
	require.True(t, ok)
	assert.Equal(t, time.UTC, converted.Location())
	assert.True(t, converted.Equal(local))
}

func TestToStoreValue_UUIDBecomesString(t *testing.T) {
	c := newTestConverter(config.EnumAsString)

	id := uuid.MustParse("0f8fad5b-d9cb-469f-a165-70867728950e")
	v, err := c.ToStoreValue(id, "")
	require.NoError(t, err)
	assert.Equal(t, "0f8fad5b-d9cb-469f-a165-70867728950e", v)
}

func TestToStoreValue_NilPassesThrough(t *testing.T) {
	c := newTestConverter(config.EnumAsString)

	v, err := c.ToStoreValue(nil, "")
	require.NoError(t, err)
	assert.Nil(t, v)
}

type orderStatus int

func TestToStoreValue_EnumAsString(t *testing.T) {
	c := newTestConverter(config.EnumAsString)

	v, err := c.ToStoreValue(orderStatus(1), "OrderStatus")
	require.NoError(t, err)
	assert.Equal(t, "shipped", v)

	// A value already in persisted form passes validation unchanged.
	v, err = c.ToStoreValue("pending", "OrderStatus")
	require.NoError(t, err)
	assert.Equal(t, "pending", v)

	_, err = c.ToStoreValue(orderStatus(9), "OrderStatus")
	assert.Error(t, err)

	_, err = c.ToStoreValue("unknown", "OrderStatus")
	assert.Error(t, err)
}

func TestToStoreValue_EnumAsInt(t *testing.T) {
	c := newTestConverter(config.EnumAsInt)

	v, err := c.ToStoreValue(orderStatus(2), "OrderStatus")
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)

	v, err = c.ToStoreValue("shipped", "OrderStatus")
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)
}

func TestToStoreList_ConvertsElements(t *testing.T) {
	c := newTestConverter(config.EnumAsString)

	out, err := c.ToStoreList([]interface{}{decimal.NewFromInt(1), decimal.NewFromInt(2)}, "")
	require.NoError(t, err)
	assert.Equal(t, []interface{}{1.0, 2.0}, out)

	// Typed slices convert too.
	out, err = c.ToStoreList([]string{"a", "b"}, "")
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"a", "b"}, out)
}

func TestToStoreList_EnforcesBound(t *testing.T) {
	cfg := config.Default()
	cfg.MaxInListSize = 3
	c := NewConverter(converterMeta(), cfg)

	_, err := c.ToStoreList([]int{1, 2, 3}, "")
	require.NoError(t, err)

	_, err = c.ToStoreList([]int{1, 2, 3, 4}, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInListTooLarge)
}

func TestToStoreList_RejectsNonSlice(t *testing.T) {
	c := newTestConverter(config.EnumAsString)

	_, err := c.ToStoreList("not-a-list", "")
	assert.Error(t, err)

	_, err = c.ToStoreList(nil, "")
	assert.Error(t, err)
}
