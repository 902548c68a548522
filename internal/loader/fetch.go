package loader

import (
	"context"
	"reflect"
)

// ByKey adapts a sparse batch call into a FetchFunc.
//
// Upstream batch responses carry no ordering contract: entities may come
// back in any order and absent keys are simply omitted. ByKey re-associates
// the response to the requested keys through keyOf, fills each missing slot
// with notFound(key), and fans a total call failure out to every slot so
// all pending callers in the batch observe the same upstream fault.
func ByKey[K comparable, V any](
	call func(ctx context.Context, keys []K) ([]V, error),
	keyOf func(V) K,
	notFound func(K) error,
) FetchFunc[K, V] {
	return func(ctx context.Context, keys []K) ([]V, []error) {
		values := make([]V, len(keys))
		errs := make([]error, len(keys))

		got, err := call(ctx, keys)
		if err != nil {
			for i := range errs {
				errs[i] = err
			}
			return values, errs
		}

		byKey := make(map[K]V, len(got))
		for _, v := range got {
			if isNil(v) {
				continue
			}
			byKey[keyOf(v)] = v
		}
		for i, key := range keys {
			if v, ok := byKey[key]; ok {
				values[i] = v
			} else {
				errs[i] = notFound(key)
			}
		}
		return values, errs
	}
}

// isNil reports nil for both untyped and typed nils (sparse upstream
// responses may pad absent entries with null).
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map:
		return rv.IsNil()
	default:
		return false
	}
}
