package sample

import "reflect"

// Symbols binds the package for tests outside it, in the layout
// nilguard gen writes.
var Symbols = map[string]reflect.Value{
	"Generated":       reflect.ValueOf((*Generated)(nil)),
	"GeneratedHelper": reflect.ValueOf(GeneratedHelper),
	"Item":            reflect.ValueOf((*Item)(nil)),
	"Labeler":         reflect.ValueOf((*Labeler)(nil)),
	"Level":           reflect.ValueOf((*Level)(nil)),
	"Lookup[int,any]": reflect.ValueOf(Lookup[int, any]),
	"Merge":           reflect.ValueOf(Merge),
	"NewStore":        reflect.ValueOf(NewStore),
	"Stack[any]":      reflect.ValueOf((*Stack[any])(nil)),
	"Store":           reflect.ValueOf((*Store)(nil)),
}
