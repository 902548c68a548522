package graph

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/ledgergate/ledgergate/internal/pagination"
)

// connectionArgs extracts the standard first/after/last/before quartet.
func connectionArgs(args map[string]any) pagination.Args {
	return pagination.Args{
		First:  intArg(args, "first"),
		After:  stringPtrArg(args, "after"),
		Last:   intArg(args, "last"),
		Before: stringPtrArg(args, "before"),
	}
}

func intArg(args map[string]any, name string) *int {
	switch v := args[name].(type) {
	case int:
		return &v
	case int64:
		n := int(v)
		return &n
	case float64:
		n := int(v)
		return &n
	case json.Number:
		if i, err := v.Int64(); err == nil {
			n := int(i)
			return &n
		}
	}
	return nil
}

func stringArg(args map[string]any, name string) string {
	s, _ := args[name].(string)
	return s
}

func stringPtrArg(args map[string]any, name string) *string {
	if s, ok := args[name].(string); ok {
		return &s
	}
	return nil
}

func boolArg(args map[string]any, name string) bool {
	b, _ := args[name].(bool)
	return b
}

// uint64Arg coerces a UInt64 argument; literals arrive as integers and
// variable values as JSON strings or numbers.
func uint64Arg(args map[string]any, name string) (uint64, error) {
	switch v := args[name].(type) {
	case uint64:
		return v, nil
	case int64:
		if v < 0 {
			return 0, fmt.Errorf("argument %q must be non-negative", name)
		}
		return uint64(v), nil
	case int:
		if v < 0 {
			return 0, fmt.Errorf("argument %q must be non-negative", name)
		}
		return uint64(v), nil
	case float64:
		if v < 0 {
			return 0, fmt.Errorf("argument %q must be non-negative", name)
		}
		return uint64(v), nil
	case string:
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("argument %q: %w", name, err)
		}
		return n, nil
	case json.Number:
		n, err := strconv.ParseUint(v.String(), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("argument %q: %w", name, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("argument %q: cannot coerce %T to UInt64", name, args[name])
	}
}
