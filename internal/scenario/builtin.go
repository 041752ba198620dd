package scenario

import _ "embed"

//go:embed builtin.yaml
var builtinYAML []byte

// BuiltIn returns the predefined sweep comparing common raid setups.
func BuiltIn() *File {
	f, err := Parse(builtinYAML)
	if err != nil {
		panic(err)
	}
	return f
}
