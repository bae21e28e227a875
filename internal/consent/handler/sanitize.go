package handler

import (
	"reflect"
	"strings"
)

// sanitize trims whitespace from all string fields in a struct, including
// pointer-to-string fields so patch payloads get the same treatment as
// creation payloads.
func sanitize(v any) {
	val := reflect.ValueOf(v)
	if val.Kind() != reflect.Ptr || val.IsNil() {
		return
	}

	val = val.Elem()
	if val.Kind() != reflect.Struct {
		return
	}

	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		if !field.CanSet() {
			continue
		}

		switch field.Kind() {
		case reflect.String:
			field.SetString(strings.TrimSpace(field.String()))
		case reflect.Ptr:
			if !field.IsNil() && field.Elem().Kind() == reflect.String {
				elem := field.Elem()
				elem.SetString(strings.TrimSpace(elem.String()))
			}
		}
	}
}
