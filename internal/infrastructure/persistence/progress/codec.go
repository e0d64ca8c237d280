package progress

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Mangopixel04/portfliomango/internal/domain/shared"
)

const (
	typeKey   = "__type"
	valueKey  = "value"
	typeDate  = "Date"
	typeSet   = "Set"
	timestamp = time.RFC3339Nano
)

// Encode marshals v and wraps every timestamp and date-set field that
// schema declares.
func Encode(schema Schema, v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("progress: encode %s: %w", schema.Name, err)
	}
	tree, err := parseTree(raw)
	if err != nil {
		return nil, fmt.Errorf("progress: encode %s: %w", schema.Name, err)
	}

	for _, f := range schema.Fields {
		if !f.Kind.tagged() {
			continue
		}
		if err := rewrite(tree, f.segments(), "", wrap(f)); err != nil {
			return nil, fmt.Errorf("progress: encode %s: %w", schema.Name, err)
		}
	}
	return json.Marshal(tree)
}

// Decode validates data against schema, unwraps tagged values and
// unmarshals the result into dst. Every failure wraps
// shared.ErrCorruptRecord.
func Decode(schema Schema, data []byte, dst any) error {
	tree, err := parseTree(data)
	if err != nil {
		return corrupt(schema, err)
	}
	if _, ok := tree.(map[string]any); !ok {
		return corrupt(schema, errors.New("record is not an object"))
	}

	for _, f := range schema.Fields {
		if err := rewrite(tree, f.segments(), "", check(f)); err != nil {
			return corrupt(schema, err)
		}
	}

	plain, err := json.Marshal(tree)
	if err != nil {
		return corrupt(schema, err)
	}
	if err := json.Unmarshal(plain, dst); err != nil {
		return corrupt(schema, err)
	}
	return nil
}

func corrupt(schema Schema, err error) error {
	return fmt.Errorf("%w: %s: %v", shared.ErrCorruptRecord, schema.Name, err)
}

func parseTree(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var tree any
	if err := dec.Decode(&tree); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("trailing data after record")
	}
	return tree, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// PATH WALKING
// ══════════════════════════════════════════════════════════════════════════════

// visitFunc receives the value at a path and returns its replacement.
// present is false when the final key is absent from its parent object.
type visitFunc func(path string, v any, present bool) (any, error)

// rewrite applies fn to every value addressed by segs, in place.
func rewrite(node any, segs []string, at string, fn visitFunc) error {
	obj, ok := node.(map[string]any)
	if !ok {
		return fmt.Errorf("%s: expected object", orRoot(at))
	}

	name, each := strings.CutSuffix(segs[0], "[]")
	path := name
	if at != "" {
		path = at + "." + name
	}
	child, present := obj[name]
	rest := segs[1:]

	if !each {
		if len(rest) == 0 {
			v, err := fn(path, child, present)
			if err != nil {
				return err
			}
			if present {
				obj[name] = v
			}
			return nil
		}
		if !present {
			return fmt.Errorf("%s: missing", path)
		}
		return rewrite(child, rest, path, fn)
	}

	arr, ok := child.([]any)
	if !ok {
		return fmt.Errorf("%s: expected array", path)
	}
	for i, el := range arr {
		elPath := fmt.Sprintf("%s[%d]", path, i)
		if len(rest) > 0 {
			if err := rewrite(el, rest, elPath, fn); err != nil {
				return err
			}
			continue
		}
		v, err := fn(elPath, el, true)
		if err != nil {
			return err
		}
		arr[i] = v
	}
	return nil
}

func orRoot(path string) string {
	if path == "" {
		return "<root>"
	}
	return path
}

// ══════════════════════════════════════════════════════════════════════════════
// KIND HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

func wrap(f Field) visitFunc {
	return func(path string, v any, present bool) (any, error) {
		if !present || v == nil {
			return v, nil
		}
		switch f.Kind {
		case KindTimestamp:
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("%s: timestamp did not marshal as a string", path)
			}
			return map[string]any{typeKey: typeDate, valueKey: s}, nil
		case KindDateSet:
			arr, ok := v.([]any)
			if !ok {
				return nil, fmt.Errorf("%s: date-set did not marshal as an array", path)
			}
			return map[string]any{typeKey: typeSet, valueKey: arr}, nil
		}
		return v, nil
	}
}

func check(f Field) visitFunc {
	return func(path string, v any, present bool) (any, error) {
		if !present || v == nil {
			if f.Optional {
				return v, nil
			}
			return nil, fmt.Errorf("%s: missing %s", path, f.Kind)
		}

		switch f.Kind {
		case KindNumber, KindCount:
			n, ok := v.(json.Number)
			if !ok {
				return nil, fmt.Errorf("%s: expected %s", path, f.Kind)
			}
			x, err := n.Float64()
			if err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			if f.Kind == KindCount && x < 0 {
				return nil, fmt.Errorf("%s: negative count %v", path, x)
			}
		case KindBool:
			if _, ok := v.(bool); !ok {
				return nil, fmt.Errorf("%s: expected boolean", path)
			}
		case KindString:
			if _, ok := v.(string); !ok {
				return nil, fmt.Errorf("%s: expected string", path)
			}
		case KindArray:
			if _, ok := v.([]any); !ok {
				return nil, fmt.Errorf("%s: expected array", path)
			}
		case KindObject:
			if _, ok := v.(map[string]any); !ok {
				return nil, fmt.Errorf("%s: expected object", path)
			}
		case KindTimestamp:
			return unwrapDate(path, v)
		case KindDateSet:
			return unwrapSet(path, v)
		}
		return v, nil
	}
}

func unwrapTagged(path string, v any, want string) (any, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s: expected tagged %s", path, want)
	}
	if tag, _ := obj[typeKey].(string); tag != want {
		return nil, fmt.Errorf("%s: expected tag %q, got %v", path, want, obj[typeKey])
	}
	inner, ok := obj[valueKey]
	if !ok {
		return nil, fmt.Errorf("%s: tagged %s has no value", path, want)
	}
	return inner, nil
}

func unwrapDate(path string, v any) (any, error) {
	inner, err := unwrapTagged(path, v, typeDate)
	if err != nil {
		return nil, err
	}
	s, ok := inner.(string)
	if !ok {
		return nil, fmt.Errorf("%s: date value is not a string", path)
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t.UTC().Format(timestamp), nil
}

func unwrapSet(path string, v any) (any, error) {
	inner, err := unwrapTagged(path, v, typeSet)
	if err != nil {
		return nil, err
	}
	arr, ok := inner.([]any)
	if !ok {
		return nil, fmt.Errorf("%s: set value is not an array", path)
	}
	for i, el := range arr {
		if _, ok := el.(string); !ok {
			return nil, fmt.Errorf("%s[%d]: set member is not a string", path, i)
		}
	}
	return arr, nil
}
