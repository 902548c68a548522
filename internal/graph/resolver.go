package graph

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/ledgergate/ledgergate/internal/epochs"
	"github.com/ledgergate/ledgergate/internal/ledger"
)

// ResolverFunc resolves one field. source is the parent value (nil at the
// query root) and args carries coerced argument values.
type ResolverFunc func(ctx context.Context, source any, args map[string]any) (any, error)

// Account wraps an address. Accounts are derived, never fetched: wrapping
// an address cannot fail and carries no upstream call.
type Account struct {
	Address string
}

// Resolver binds schema fields to the loaders, the pagination bridge and
// the epoch index. One Resolver serves all requests; per-request state
// lives in the loader bundle attached to the context.
type Resolver struct {
	client ledger.Client
	epochs *epochs.Index
	fields map[string]ResolverFunc
}

// NewResolver wires all non-trivial field resolvers. Fields without an
// entry fall back to reflective struct field access.
func NewResolver(client ledger.Client, epochIndex *epochs.Index) *Resolver {
	r := &Resolver{
		client: client,
		epochs: epochIndex,
		fields: map[string]ResolverFunc{},
	}
	r.registerQuery()
	r.registerCheckpoint()
	r.registerTransaction()
	r.registerObject()
	r.registerAccount()
	r.registerEvent()
	return r
}

func (r *Resolver) register(object, field string, fn ResolverFunc) {
	r.fields[object+"."+field] = fn
}

func (r *Resolver) field(object, field string) ResolverFunc {
	return r.fields[object+"."+field]
}

// resolveType maps a transaction kind variant to its schema type.
func (r *Resolver) resolveType(abstract string, value any) string {
	switch value.(type) {
	case ledger.TransferKind:
		return "TransferTransaction"
	case ledger.CallKind:
		return "CallTransaction"
	case ledger.PublishKind:
		return "PublishTransaction"
	case ledger.UnknownKind:
		return "UnknownTransaction"
	}
	return ""
}

// defaultResolve reads a struct field matching the GraphQL field name.
// It serves the plain passthrough fields so only fields that transform,
// load or paginate need explicit resolvers.
func defaultResolve(source any, field string) (any, error) {
	v := reflect.ValueOf(source)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil, nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, fmt.Errorf("no resolver for field %q on %T", field, source)
	}
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if strings.EqualFold(t.Field(i).Name, field) {
			return v.Field(i).Interface(), nil
		}
	}
	return nil, fmt.Errorf("no resolver for field %q on %T", field, source)
}
