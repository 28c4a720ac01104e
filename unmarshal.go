package opendata

import (
	"fmt"
	"reflect"
	"strings"
)

var valueType = reflect.TypeOf((*Value)(nil)).Elem()

// Unmarshal parses an OpenData document and stores its body in the value
// pointed to by v, which must be a pointer to a struct.
//
// Unmarshal uses struct tags to map document keys to struct fields:
//   - `opendata:"key"` - maps key "key" to this struct field
//   - `opendata:"key,required"` - fails when the key is missing
//   - `opendata:",tag"` - receives the tag of the enclosing tagged value
//   - `opendata:"-"` - ignores this field
//
// Tagged values decode their inner value. A field of type Value (or any)
// receives the raw value.
//
// Example:
//
//	type Length struct {
//	    Kind  string  `opendata:",tag"`
//	    Value float64 `opendata:"value"`
//	}
//	type Contents struct {
//	    Name   string `opendata:"__name__"`
//	    Length Length `opendata:"length"`
//	}
func Unmarshal(data []byte, v any) error {
	doc, err := NewParser().ParseBytes("", data)
	if err != nil {
		return err
	}
	return Decode(doc.Mapping(), v)
}

// Decode stores m in the struct pointed to by v.
func Decode(m *Mapping, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("decode target must be a non-nil pointer")
	}

	elem := rv.Elem()
	if elem.Kind() != reflect.Struct {
		return fmt.Errorf("decode target must be a pointer to struct")
	}
	return decodeStruct(m, "", elem)
}

// decodeStruct decodes a mapping into a struct value; tag is the name of
// the tagged value the mapping was wrapped in, if any.
func decodeStruct(m *Mapping, tag string, v reflect.Value) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldValue := v.Field(i)

		if !fieldValue.CanSet() {
			continue
		}

		key, opts := parseTag(field.Tag.Get("opendata"))
		if key == "-" {
			continue
		}
		if hasOption(opts, "tag") {
			if fieldValue.Kind() != reflect.String {
				return fmt.Errorf("field %s: tag option needs a string field", field.Name)
			}
			fieldValue.SetString(tag)
			continue
		}
		if key == "" {
			key = field.Name
		}

		value, ok := m.Get(key)
		if !ok {
			if hasOption(opts, "required") {
				return fmt.Errorf("required field %s not found", key)
			}
			continue
		}

		if err := setField(fieldValue, value); err != nil {
			return fmt.Errorf("field %s: %w", field.Name, err)
		}
	}

	return nil
}

// setField sets a reflect.Value from an OpenData value.
func setField(field reflect.Value, value Value) error {
	switch field.Kind() {
	case reflect.Interface:
		if field.Type() == valueType || valueType.AssignableTo(field.Type()) {
			field.Set(reflect.ValueOf(&value).Elem())
			return nil
		}
		return fmt.Errorf("unsupported field type: %s", field.Type())
	case reflect.Ptr:
		ptr := reflect.New(field.Type().Elem())
		if err := setField(ptr.Elem(), value); err != nil {
			return err
		}
		field.Set(ptr)
		return nil
	}

	tag := ""
	if tv, ok := value.(*Tagged); ok && field.Kind() != reflect.String {
		tag = tv.Tag.String()
		value = tv.Value
	}
	if doc, ok := value.(*Document); ok {
		value = doc.Mapping()
	}

	switch field.Kind() {
	case reflect.String:
		return setString(field, value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return setInt(field, value)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return setUint(field, value)
	case reflect.Float32, reflect.Float64:
		return setFloat(field, value)
	case reflect.Slice:
		return setSlice(field, value)
	case reflect.Map:
		return setMap(field, value)
	case reflect.Struct:
		m, ok := value.(*Mapping)
		if !ok {
			return fmt.Errorf("cannot convert %s to struct", kindOf(value))
		}
		return decodeStruct(m, tag, field)
	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}
}

func setString(field reflect.Value, value Value) error {
	switch v := value.(type) {
	case Text:
		field.SetString(string(v))
	case Name:
		field.SetString(v.String())
	case *Tagged:
		// A stream reference or similar: keep the inner string.
		return setString(field, v.Value)
	default:
		return fmt.Errorf("cannot convert %s to string", kindOf(value))
	}
	return nil
}

func setInt(field reflect.Value, value Value) error {
	v, ok := value.(Int)
	if !ok {
		return fmt.Errorf("cannot convert %s to int", kindOf(value))
	}
	if field.OverflowInt(int64(v)) {
		return fmt.Errorf("%d overflows %s", v, field.Type())
	}
	field.SetInt(int64(v))
	return nil
}

func setUint(field reflect.Value, value Value) error {
	v, ok := value.(Int)
	if !ok {
		return fmt.Errorf("cannot convert %s to uint", kindOf(value))
	}
	if v < 0 || field.OverflowUint(uint64(v)) {
		return fmt.Errorf("%d overflows %s", v, field.Type())
	}
	field.SetUint(uint64(v))
	return nil
}

func setFloat(field reflect.Value, value Value) error {
	switch v := value.(type) {
	case Float:
		field.SetFloat(float64(v))
	case Int:
		field.SetFloat(float64(v))
	default:
		return fmt.Errorf("cannot convert %s to float", kindOf(value))
	}
	return nil
}

func setSlice(field reflect.Value, value Value) error {
	list, ok := value.(Sequence)
	if !ok {
		return fmt.Errorf("cannot convert %s to slice", kindOf(value))
	}
	slice := reflect.MakeSlice(field.Type(), len(list), len(list))
	for i, item := range list {
		if err := setField(slice.Index(i), item); err != nil {
			return fmt.Errorf("index %d: %w", i, err)
		}
	}
	field.Set(slice)
	return nil
}

func setMap(field reflect.Value, value Value) error {
	m, ok := value.(*Mapping)
	if !ok {
		return fmt.Errorf("cannot convert %s to map", kindOf(value))
	}
	if field.Type().Key().Kind() != reflect.String {
		return fmt.Errorf("map key must be a string, got %s", field.Type().Key())
	}
	out := reflect.MakeMapWithSize(field.Type(), m.Len())
	var err error
	m.Range(func(key string, val Value) bool {
		elem := reflect.New(field.Type().Elem()).Elem()
		if err = setField(elem, val); err != nil {
			err = fmt.Errorf("key %s: %w", key, err)
			return false
		}
		out.SetMapIndex(reflect.ValueOf(key).Convert(field.Type().Key()), elem)
		return true
	})
	if err != nil {
		return err
	}
	field.Set(out)
	return nil
}

// kindOf names a value's variant for error messages.
func kindOf(v Value) string {
	switch v.(type) {
	case Int:
		return "integer"
	case Float:
		return "float"
	case Text:
		return "text"
	case Name:
		return "name"
	case *Mapping:
		return "mapping"
	case Sequence:
		return "sequence"
	case *Tagged:
		return "tagged value"
	case *Document:
		return "document"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func parseTag(tag string) (string, []string) {
	parts := strings.Split(tag, ",")
	return parts[0], parts[1:]
}

func hasOption(opts []string, option string) bool {
	for _, opt := range opts {
		if opt == option {
			return true
		}
	}
	return false
}
