package eval

import (
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"firestore-odm/internal/query/config"
	"firestore-odm/internal/query/domain/metadata"
	"firestore-odm/internal/shared/errors"
)

// Converter maps evaluated runtime values onto the store's native
// representations: fixed-point decimals become floating point, enums become
// their configured storage form, instants become canonical UTC, UUIDs become
// strings.
type Converter struct {
	meta        metadata.Source
	enumStorage string
	maxInList   int
}

// NewConverter creates a converter for the configured store conventions.
func NewConverter(meta metadata.Source, cfg *config.Config) *Converter {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Converter{
		meta:        meta,
		enumStorage: cfg.EnumStorage,
		maxInList:   cfg.MaxInListSize,
	}
}

// ToStoreValue converts one evaluated value. enumType is non-empty when the
// clause compared an enum-typed property.
func (c *Converter) ToStoreValue(v interface{}, enumType string) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	if enumType != "" {
		return c.convertEnum(v, enumType)
	}
	switch t := v.(type) {
	case decimal.Decimal:
		return t.InexactFloat64(), nil
	case *decimal.Decimal:
		if t == nil {
			return nil, nil
		}
		return t.InexactFloat64(), nil
	case time.Time:
		return t.UTC(), nil
	case *time.Time:
		if t == nil {
			return nil, nil
		}
		return t.UTC(), nil
	case uuid.UUID:
		return t.String(), nil
	case string, bool, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, float32, float64:
		return t, nil
	default:
		if isSlice(v) {
			return c.convertSlice(v, enumType)
		}
		return nil, errors.NewAppError(errors.ErrorTypeResolution,
			fmt.Sprintf("value of type %T has no store representation", v))
	}
}

// ToStoreList converts the candidate list of an IN / NOT-IN /
// array-contains-any clause, enforcing the store's disjunction bound.
func (c *Converter) ToStoreList(v interface{}, enumType string) ([]interface{}, error) {
	if v == nil {
		return nil, errors.NewValidationError("candidate list is null")
	}
	if !isSlice(v) {
		return nil, errors.NewValidationError(
			fmt.Sprintf("candidate list must be a slice, got %T", v))
	}
	rv := reflect.ValueOf(v)
	if rv.Len() > c.maxInList {
		return nil, errors.NewAppError(errors.ErrorTypeValidation,
			fmt.Sprintf("candidate list has %d entries, store allows at most %d", rv.Len(), c.maxInList)).
			WithCause(errors.ErrInListTooLarge)
	}
	out, err := c.convertSlice(v, enumType)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Converter) convertSlice(v interface{}, enumType string) ([]interface{}, error) {
	rv := reflect.ValueOf(v)
	out := make([]interface{}, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		elem, err := c.ToStoreValue(rv.Index(i).Interface(), enumType)
		if err != nil {
			return nil, err
		}
		out = append(out, elem)
	}
	return out, nil
}

// convertEnum maps an enum value onto the configured storage form. The input
// may already be the persisted name (round-tripped values) or the runtime
// integer.
func (c *Converter) convertEnum(v interface{}, enumType string) (interface{}, error) {
	def, err := c.meta.Enum(enumType)
	if err != nil {
		return nil, err
	}

	if s, ok := v.(string); ok {
		if _, known := def.ValueOf(s); !known {
			return nil, errors.NewValidationError(
				fmt.Sprintf("%q is not a member of enum %s", s, enumType))
		}
		if c.enumStorage == config.EnumAsInt {
			n, _ := def.ValueOf(s)
			return n, nil
		}
		return s, nil
	}

	n, ok := toInt64(v)
	if !ok {
		return nil, errors.NewValidationError(
			fmt.Sprintf("enum %s value must be a string or integer, got %T", enumType, v))
	}
	if c.enumStorage == config.EnumAsInt {
		if _, known := def.NameOf(n); !known {
			return nil, errors.NewValidationError(
				fmt.Sprintf("%d is not a member of enum %s", n, enumType))
		}
		return n, nil
	}
	name, known := def.NameOf(n)
	if !known {
		return nil, errors.NewValidationError(
			fmt.Sprintf("%d is not a member of enum %s", n, enumType))
	}
	return name, nil
}

func isSlice(v interface{}) bool {
	k := reflect.ValueOf(v).Kind()
	return k == reflect.Slice || k == reflect.Array
}

func toInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), true
	default:
		rv := reflect.ValueOf(v)
		if rv.Kind() >= reflect.Int && rv.Kind() <= reflect.Int64 {
			return rv.Int(), true
		}
		if rv.Kind() >= reflect.Uint && rv.Kind() <= reflect.Uint64 {
			return int64(rv.Uint()), true
		}
		return 0, false
	}
}
