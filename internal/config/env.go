package config

import (
	"reflect"
)

// envName maps a struct field back to the environment variable that feeds it.
func envName(s any, field string) string {
	t := reflect.TypeOf(s)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if f, ok := t.FieldByName(field); ok {
		if tag := f.Tag.Get("envconfig"); tag != "" {
			return tag
		}
	}
	return field
}
