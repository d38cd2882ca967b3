package biz

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/google/uuid"
)

var uuidType = reflect.TypeOf(uuid.UUID{})

// checkShape walks a payload struct:
//   - a field whose json name is "id" or ends in "Id" is a reference and must hold a
//     non-nil uuid; pointer references may be absent
//   - a field tagged shape:"text" must be non-blank
//   - nested structs are checked the same way
func checkShape(p any) error {
	v := reflect.ValueOf(p)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return fmt.Errorf("empty payload")
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}
	return checkStruct(v, "")
}

func checkStruct(v reflect.Value, prefix string) error {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := jsonName(f)
		if name == "-" {
			continue
		}
		path := prefix + name
		fv := v.Field(i)

		if isReference(name) {
			if err := checkReference(fv, path); err != nil {
				return err
			}
			continue
		}
		if f.Tag.Get("shape") == "text" {
			if fv.Kind() != reflect.String || strings.TrimSpace(fv.String()) == "" {
				return fmt.Errorf("%s must not be empty", path)
			}
			continue
		}
		if fv.Kind() == reflect.Struct && fv.Type() != uuidType {
			if err := checkStruct(fv, path+"."); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkReference(fv reflect.Value, path string) error {
	if fv.Kind() == reflect.Ptr {
		if fv.IsNil() {
			return nil
		}
		fv = fv.Elem()
	}
	switch {
	case fv.Type() == uuidType:
		if fv.Interface().(uuid.UUID) == uuid.Nil {
			return fmt.Errorf("%s must be a uuid", path)
		}
	case fv.Kind() == reflect.String:
		id, err := uuid.Parse(fv.String())
		if err != nil || id == uuid.Nil {
			return fmt.Errorf("%s must be a uuid", path)
		}
	default:
		return fmt.Errorf("%s has unsupported type %s", path, fv.Type())
	}
	return nil
}

func jsonName(f reflect.StructField) string {
	tag := f.Tag.Get("json")
	if tag == "" {
		return f.Name
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		return f.Name
	}
	return name
}

func isReference(name string) bool {
	return name == "id" || strings.HasSuffix(name, "Id")
}
