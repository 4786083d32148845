package evaluator

import (
	"encoding/json"
	"math"
	"sort"
)

// ValueToJSON marshals a LoxValue to JSON bytes.
// Whole numbers are written without a decimal point. Instances become
// {"class": name, "fields": {...}} with fields in key order; callables are
// written as their printed form. NaN and infinities, which JSON cannot
// represent, are written as strings, as are cyclic references.
func ValueToJSON(v LoxValue) ([]byte, error) {
	return json.Marshal(valueToRaw(v, make(map[any]bool)))
}

func valueToRaw(v LoxValue, seen map[any]bool) any {
	switch val := v.(type) {
	case nil, LoxNil:
		return nil

	case LoxBool:
		return val.Value

	case LoxNumber:
		if math.IsNaN(val.Value) || math.IsInf(val.Value, 0) {
			return FormatNumber(val.Value)
		}
		if val.Value == math.Trunc(val.Value) && math.Abs(val.Value) < 1<<53 {
			return int64(val.Value)
		}
		return val.Value

	case LoxString:
		return val.Value

	case *LoxArray:
		if seen[val] {
			return "[...]"
		}
		seen[val] = true
		defer delete(seen, val)
		items := make([]any, len(val.Items))
		for i, item := range val.Items {
			items[i] = valueToRaw(item, seen)
		}
		return items

	case *LoxInstance:
		if seen[val] {
			return "<instance " + val.Class.Name + ">"
		}
		seen[val] = true
		defer delete(seen, val)
		keys := make([]string, 0, len(val.Fields))
		for k := range val.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fields := make([]keyValue, len(keys))
		for i, k := range keys {
			fields[i] = keyValue{Key: k, Value: valueToRaw(val.Fields[k], seen)}
		}
		return &orderedRecord{pairs: []keyValue{
			{Key: "class", Value: val.Class.Name},
			{Key: "fields", Value: &orderedRecord{pairs: fields}},
		}}
	}

	return Stringify(v)
}

type keyValue struct {
	Key   string
	Value any
}

// orderedRecord preserves key order in JSON output.
type orderedRecord struct {
	pairs []keyValue
}

func (o *orderedRecord) MarshalJSON() ([]byte, error) {
	if len(o.pairs) == 0 {
		return []byte("{}"), nil
	}

	buf := []byte{'{'}
	for i, kv := range o.pairs {
		if i > 0 {
			buf = append(buf, ',')
		}
		keyBytes, err := json.Marshal(kv.Key)
		if err != nil {
			return nil, err
		}
		buf = append(buf, keyBytes...)
		buf = append(buf, ':')

		valBytes, err := json.Marshal(kv.Value)
		if err != nil {
			return nil, err
		}
		buf = append(buf, valBytes...)
	}
	buf = append(buf, '}')
	return buf, nil
}

// ValueToJSONString is a convenience that returns a string.
func ValueToJSONString(v LoxValue) string {
	b, err := ValueToJSON(v)
	if err != nil {
		return "null"
	}
	return string(b)
}
