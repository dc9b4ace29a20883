package objgraph

import (
	"reflect"
	"testing"
)

func TestQualifiedName(t *testing.T) {
	tests := []struct {
		typ  reflect.Type
		want string
	}{
		{nil, "<nil>"},
		{reflect.TypeFor[int](), "int"},
		{reflect.TypeFor[*Inner](), "*github.com/zoobzio/objgraph.Inner"},
		{reflect.TypeFor[[]*Inner](), "[]*github.com/zoobzio/objgraph.Inner"},
		{reflect.TypeFor[[3]string](), "[3]string"},
		{reflect.TypeFor[map[string]Inner](), "map[string]github.com/zoobzio/objgraph.Inner"},
		{reflect.TypeFor[any](), "interface {}"},
		{reflect.TypeFor[error](), "error"},
		{reflect.TypeFor[func()](), "func()"},
	}
	for _, tt := range tests {
		if got := QualifiedName(tt.typ); got != tt.want {
			t.Errorf("QualifiedName(%v) = %q, want %q", tt.typ, got, tt.want)
		}
	}
}

func TestTypeNameOf(t *testing.T) {
	tests := map[string]string{
		"int@1": "int",
		"*github.com/zoobzio/objgraph.Inner@c000012345": "*github.com/zoobzio/objgraph.Inner",
		"[]interface {}<int>@c0000a":                    "[]interface {}",
		"map[string]int<string,int>@c0000b":             "map[string]int",
		"[][]int<[]int>@c0000c":                         "[][]int",
		"no-address":                                    "no-address",
	}
	for id, want := range tests {
		if got := TypeNameOf(id); got != want {
			t.Errorf("TypeNameOf(%q) = %q, want %q", id, got, want)
		}
	}
}
