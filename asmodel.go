package slip

import (
	"fmt"
	"math/big"
	"reflect"
	"sort"

	"github.com/nukata/goarith"
	"github.com/zephyrtronium/contains"
)

// AsModel promotes an arbitrary value to a model: models pass through,
// scalars become the corresponding leaf variants, slices become Lists, and
// maps become Dicts with keys in their printed order. Container identities
// are tracked in a seen-set during the walk, so self-referential input
// fails with a cycle error instead of looping forever. The check is
// conservative: a non-empty container reachable twice is rejected even when
// the second path is not a cycle.
func AsModel(v interface{}) (Model, error) {
	w := walker{seen: contains.Set{}}
	return w.walk(v)
}

type walker struct {
	seen contains.Set
}

func (w *walker) walk(v interface{}) (Model, error) {
	switch v := v.(type) {
	case nil:
		return Symbol{Text: "nil"}, nil
	case Model:
		return v, nil
	case bool:
		if v {
			return Symbol{Text: "true"}, nil
		}
		return Symbol{Text: "false"}, nil
	case string:
		return String{Value: v}, nil
	case []byte:
		return Bytes{Value: v}, nil
	case int:
		return NewInteger(int64(v)), nil
	case int8:
		return NewInteger(int64(v)), nil
	case int16:
		return NewInteger(int64(v)), nil
	case int32:
		return NewInteger(int64(v)), nil
	case int64:
		return NewInteger(v), nil
	case uint:
		return Integer{Value: new(big.Int).SetUint64(uint64(v))}, nil
	case uint8:
		return NewInteger(int64(v)), nil
	case uint16:
		return NewInteger(int64(v)), nil
	case uint32:
		return NewInteger(int64(v)), nil
	case uint64:
		return Integer{Value: new(big.Int).SetUint64(v)}, nil
	case *big.Int:
		return Integer{Value: v}, nil
	case float32:
		return Float{Value: float64(v)}, nil
	case float64:
		return Float{Value: v}, nil
	case complex64:
		return Complex{Value: complex128(v)}, nil
	case complex128:
		return Complex{Value: v}, nil
	case goarith.Int32:
		return NewInteger(int64(v)), nil
	case goarith.Int64:
		return NewInteger(int64(v)), nil
	case *goarith.BigInt:
		return Integer{Value: (*big.Int)(v)}, nil
	case goarith.Float64:
		return Float{Value: float64(v)}, nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr:
		if !rv.IsNil() && !w.seen.Add(rv.Pointer()) {
			return nil, fmt.Errorf("slip: self-referential structure detected in %T value", v)
		}
	case reflect.Slice, reflect.Map:
		// Distinct empty containers share one backing address, and an
		// empty container cannot close a cycle, so only non-empty ones
		// enter the seen-set.
		if rv.Len() > 0 && !w.seen.Add(rv.Pointer()) {
			return nil, fmt.Errorf("slip: self-referential structure detected in %T value", v)
		}
	}
	switch rv.Kind() {
	case reflect.Ptr:
		if rv.IsNil() {
			return Symbol{Text: "nil"}, nil
		}
		return w.walk(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		items := make([]Model, rv.Len())
		for i := range items {
			m, err := w.walk(rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			items[i] = m
		}
		return List{Items: items}, nil
	case reflect.Map:
		type pair struct {
			key, val Model
		}
		pairs := make([]pair, 0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k, err := w.walk(iter.Key().Interface())
			if err != nil {
				return nil, err
			}
			val, err := w.walk(iter.Value().Interface())
			if err != nil {
				return nil, err
			}
			pairs = append(pairs, pair{k, val})
		}
		// Map order is not deterministic; printed key order is.
		sort.Slice(pairs, func(i, j int) bool { return pairs[i].key.String() < pairs[j].key.String() })
		items := make([]Model, 0, 2*len(pairs))
		for _, p := range pairs {
			items = append(items, p.key, p.val)
		}
		return Dict{Items: items}, nil
	}
	return nil, fmt.Errorf("slip: cannot represent %T as a model", v)
}
