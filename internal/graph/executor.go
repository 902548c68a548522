package graph

import (
	"context"
	"fmt"
	"reflect"
	"strconv"
	"sync"
	"time"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"github.com/vektah/gqlparser/v2/parser"
	"github.com/vektah/gqlparser/v2/validator"

	"github.com/ledgergate/ledgergate/internal/eventbus"
	"github.com/ledgergate/ledgergate/internal/events"
)

// Response is the standard data/errors GraphQL execution result.
type Response struct {
	Data   any           `json:"data"`
	Errors gqlerror.List `json:"errors,omitempty"`
}

// Executor validates and executes query documents against the schema.
//
// Field groups of one selection set run concurrently: that is what lets
// loader batches coalesce keyed lookups issued by unrelated parts of the
// response tree. Resolvers therefore must not assume a Load settles before
// its siblings run.
type Executor struct {
	schema   *ast.Schema
	resolver *Resolver
}

// NewExecutor builds an executor over the embedded schema.
func NewExecutor(resolver *Resolver) (*Executor, error) {
	schema, err := LoadSchema()
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}
	return &Executor{schema: schema, resolver: resolver}, nil
}

// Execute runs one operation. Parse and validation failures produce a
// request-level error response; resolver failures produce per-field errors
// with paths, leaving sibling results intact.
func (e *Executor) Execute(ctx context.Context, query, operationName string, variables map[string]any) *Response {
	doc, perr := parser.ParseQuery(&ast.Source{Input: query})
	if perr != nil {
		return errorResponse(perr)
	}
	if lerr := validator.Validate(e.schema, doc); len(lerr) > 0 {
		return &Response{Errors: lerr}
	}

	op := doc.Operations.ForName(operationName)
	if op == nil {
		return errorResponse(gqlerror.Errorf("operation %q not found", operationName))
	}
	if op.Operation != ast.Query {
		return errorResponse(gqlerror.Errorf("unsupported operation type: %s", op.Operation))
	}

	vars, verr := validator.VariableValues(e.schema, op, variables)
	if verr != nil {
		return errorResponse(verr)
	}

	// Fresh loader bundle per operation: dedup state must not outlive it.
	ctx = WithLoaders(ctx, NewLoaders(e.resolver.client))

	start := time.Now()
	eventbus.Publish(ctx, events.GraphQLStart{
		Query:         query,
		OperationName: operationName,
		OperationType: string(op.Operation),
	})

	state := &executionState{
		ctx:      ctx,
		schema:   e.schema,
		doc:      doc,
		vars:     vars,
		resolver: e.resolver,
	}
	data, _ := state.executeSelectionSet(e.schema.Query, op.SelectionSet, nil, nil, true)

	errs := make([]error, len(state.errors))
	for i := range state.errors {
		errs[i] = state.errors[i]
	}
	eventbus.Publish(ctx, events.GraphQLFinish{
		Query:         query,
		OperationName: operationName,
		OperationType: string(op.Operation),
		Errors:        errs,
		Duration:      time.Since(start),
	})

	return &Response{Data: data, Errors: state.errors}
}

func errorResponse(err error) *Response {
	if list, ok := err.(gqlerror.List); ok {
		return &Response{Errors: list}
	}
	if ge, ok := err.(*gqlerror.Error); ok {
		return &Response{Errors: gqlerror.List{ge}}
	}
	return &Response{Errors: gqlerror.List{gqlerror.Wrap(err)}}
}

type executionState struct {
	ctx      context.Context
	schema   *ast.Schema
	doc      *ast.QueryDocument
	vars     map[string]any
	resolver *Resolver

	mu     sync.Mutex
	errors gqlerror.List
}

func (s *executionState) addError(err error, path ast.Path) {
	ge := gqlerror.WrapPath(path, err)
	s.mu.Lock()
	s.errors = append(s.errors, ge)
	s.mu.Unlock()
}

// executeSelectionSet resolves the grouped fields of one object value
// concurrently. The second return is false when a non-null field resolved
// to null and the whole object must collapse; at the root the null is
// written in place instead (there is no parent to collapse into).
func (s *executionState) executeSelectionSet(objectType *ast.Definition, sel ast.SelectionSet, source any, path ast.Path, root bool) (map[string]any, bool) {
	groups := s.collectFields(objectType, sel)

	results := make([]any, len(groups))
	var wg sync.WaitGroup
	for i, g := range groups {
		i, g := i, g
		wg.Add(1)
		go func() {
			defer wg.Done()
			fieldPath := append(append(ast.Path{}, path...), ast.PathName(g.alias))
			defer func() {
				if r := recover(); r != nil {
					s.addError(fmt.Errorf("internal error: %v", r), fieldPath)
					results[i] = nil
				}
			}()
			results[i] = s.executeField(objectType, g, source, fieldPath)
		}()
	}
	wg.Wait()

	out := make(map[string]any, len(groups))
	for i, g := range groups {
		if g.name == "__typename" {
			out[g.alias] = results[i]
			continue
		}
		fieldDef := objectType.Fields.ForName(g.name)
		if fieldDef.Type.NonNull && isNil(results[i]) {
			if !root {
				return nil, false
			}
			out[g.alias] = nil
			continue
		}
		if isNil(results[i]) {
			out[g.alias] = nil
		} else {
			out[g.alias] = results[i]
		}
	}
	return out, true
}

type fieldGroup struct {
	alias string
	name  string
	// fields are all selections merged under this response key.
	fields []*ast.Field
}

// collectFields groups the selection set by response key, expanding
// fragments and honoring @skip/@include.
func (s *executionState) collectFields(objectType *ast.Definition, sel ast.SelectionSet) []fieldGroup {
	var groups []fieldGroup
	index := map[string]int{}

	var walk func(sel ast.SelectionSet)
	walk = func(sel ast.SelectionSet) {
		for _, selection := range sel {
			switch f := selection.(type) {
			case *ast.Field:
				if s.skipped(f.Directives) {
					continue
				}
				alias := f.Alias
				if alias == "" {
					alias = f.Name
				}
				if at, ok := index[alias]; ok {
					groups[at].fields = append(groups[at].fields, f)
					continue
				}
				index[alias] = len(groups)
				groups = append(groups, fieldGroup{alias: alias, name: f.Name, fields: []*ast.Field{f}})
			case *ast.FragmentSpread:
				if s.skipped(f.Directives) {
					continue
				}
				frag := s.doc.Fragments.ForName(f.Name)
				if frag == nil || !s.typeApplies(frag.TypeCondition, objectType) {
					continue
				}
				walk(frag.SelectionSet)
			case *ast.InlineFragment:
				if s.skipped(f.Directives) {
					continue
				}
				if f.TypeCondition != "" && !s.typeApplies(f.TypeCondition, objectType) {
					continue
				}
				walk(f.SelectionSet)
			}
		}
	}
	walk(sel)
	return groups
}

func (s *executionState) skipped(directives ast.DirectiveList) bool {
	if d := directives.ForName("skip"); d != nil {
		if v, err := d.Arguments.ForName("if").Value.Value(s.vars); err == nil && v == true {
			return true
		}
	}
	if d := directives.ForName("include"); d != nil {
		if v, err := d.Arguments.ForName("if").Value.Value(s.vars); err == nil && v != true {
			return true
		}
	}
	return false
}

func (s *executionState) typeApplies(condition string, objectType *ast.Definition) bool {
	if condition == objectType.Name {
		return true
	}
	for _, possible := range s.schema.PossibleTypes[condition] {
		if possible.Name == objectType.Name {
			return true
		}
	}
	return false
}

func (s *executionState) executeField(objectType *ast.Definition, g fieldGroup, source any, path ast.Path) any {
	if g.name == "__typename" {
		return objectType.Name
	}

	fieldDef := objectType.Fields.ForName(g.name)
	args, err := s.argumentValues(fieldDef, g.fields[0])
	if err != nil {
		s.addError(err, path)
		return nil
	}

	var value any
	if fn := s.resolver.field(objectType.Name, g.name); fn != nil {
		value, err = fn(s.ctx, source, args)
	} else {
		value, err = defaultResolve(source, g.name)
	}
	if err != nil {
		s.addError(err, path)
		return nil
	}

	return s.completeValue(fieldDef.Type, g.fields, value, path)
}

// argumentValues coerces field arguments, applying schema defaults.
func (s *executionState) argumentValues(fieldDef *ast.FieldDefinition, field *ast.Field) (map[string]any, error) {
	args := make(map[string]any, len(fieldDef.Arguments))
	for _, argDef := range fieldDef.Arguments {
		if given := field.Arguments.ForName(argDef.Name); given != nil {
			v, err := given.Value.Value(s.vars)
			if err != nil {
				return nil, fmt.Errorf("argument %q: %w", argDef.Name, err)
			}
			if v != nil {
				args[argDef.Name] = v
			}
			continue
		}
		if argDef.DefaultValue != nil {
			v, err := argDef.DefaultValue.Value(nil)
			if err != nil {
				return nil, fmt.Errorf("argument %q: %w", argDef.Name, err)
			}
			if v != nil {
				args[argDef.Name] = v
			}
		}
	}
	return args, nil
}

func (s *executionState) completeValue(typ *ast.Type, fields []*ast.Field, value any, path ast.Path) any {
	if typ.NonNull {
		completed := s.completeValue(&ast.Type{NamedType: typ.NamedType, Elem: typ.Elem}, fields, value, path)
		if isNil(completed) {
			s.addError(fmt.Errorf("cannot return null for non-nullable field %s", path.String()), path)
			return nil
		}
		return completed
	}

	if isNil(value) {
		return nil
	}

	if typ.Elem != nil {
		return s.completeListValue(typ, fields, value, path)
	}

	def := s.schema.Types[typ.NamedType]
	if def == nil {
		s.addError(fmt.Errorf("unknown type %q", typ.NamedType), path)
		return nil
	}

	switch def.Kind {
	case ast.Scalar, ast.Enum:
		v, err := serializeLeaf(def.Name, value)
		if err != nil {
			s.addError(err, path)
			return nil
		}
		return v
	case ast.Object:
		out, ok := s.executeSelectionSet(def, mergeSelections(fields), value, path, false)
		if !ok {
			return nil
		}
		return out
	case ast.Union, ast.Interface:
		concrete := s.resolver.resolveType(def.Name, value)
		objDef := s.schema.Types[concrete]
		if objDef == nil || objDef.Kind != ast.Object {
			s.addError(fmt.Errorf("abstract type %s resolved to unknown type %q", def.Name, concrete), path)
			return nil
		}
		out, ok := s.executeSelectionSet(objDef, mergeSelections(fields), value, path, false)
		if !ok {
			return nil
		}
		return out
	default:
		s.addError(fmt.Errorf("cannot complete value of kind %s", def.Kind), path)
		return nil
	}
}

// completeListValue completes list items concurrently so keyed lookups
// issued by different items land in the same loader batch.
func (s *executionState) completeListValue(typ *ast.Type, fields []*ast.Field, value any, path ast.Path) any {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice {
		s.addError(fmt.Errorf("expected list value, got %T", value), path)
		return nil
	}

	completed := make([]any, rv.Len())
	var wg sync.WaitGroup
	for i := 0; i < rv.Len(); i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			itemPath := append(append(ast.Path{}, path...), ast.PathIndex(i))
			defer func() {
				if r := recover(); r != nil {
					s.addError(fmt.Errorf("internal error: %v", r), itemPath)
					completed[i] = nil
				}
			}()
			completed[i] = s.completeValue(typ.Elem, fields, rv.Index(i).Interface(), itemPath)
		}()
	}
	wg.Wait()

	if typ.Elem.NonNull {
		for _, item := range completed {
			if isNil(item) {
				return nil
			}
		}
	}
	return completed
}

func mergeSelections(fields []*ast.Field) ast.SelectionSet {
	var merged ast.SelectionSet
	for _, f := range fields {
		merged = append(merged, f.SelectionSet...)
	}
	return merged
}

// serializeLeaf coerces a resolved Go value into its JSON-safe form.
// UInt64 values travel as decimal strings: 64-bit integers overflow the
// GraphQL Int range.
func serializeLeaf(typeName string, value any) (any, error) {
	value = derefValue(value)
	if typeName == "UInt64" {
		switch v := value.(type) {
		case uint64:
			return strconv.FormatUint(v, 10), nil
		case int64:
			return strconv.FormatInt(v, 10), nil
		case int:
			return strconv.Itoa(v), nil
		case string:
			return v, nil
		default:
			return nil, fmt.Errorf("cannot serialize %T as UInt64", value)
		}
	}
	switch v := value.(type) {
	case string, bool, int, int32, int64, uint64, float32, float64, nil:
		return v, nil
	default:
		return nil, fmt.Errorf("cannot serialize %T as %s", value, typeName)
	}
}

func derefValue(v any) any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		return rv.Elem().Interface()
	}
	return v
}

// isNil reports nil for both untyped and typed nils.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map, reflect.Func:
		return rv.IsNil()
	default:
		return false
	}
}
