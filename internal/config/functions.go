package config

import (
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
)

// functions are callable from config files.
//
//	env("NAME")            value of NAME, or "" when unset
//	env("NAME", "dflt")    value of NAME, or "dflt" when unset or empty
func functions(lookup func(string) (string, bool)) map[string]function.Function {
	return map[string]function.Function{
		"env": envFunc(lookup),
	}
}

func envFunc(lookup func(string) (string, bool)) function.Function {
	return function.New(&function.Spec{
		Params: []function.Parameter{
			{Name: "name", Type: cty.String},
		},
		VarParam: &function.Parameter{Name: "default", Type: cty.String},
		Type:     function.StaticReturnType(cty.String),
		Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
			if v, ok := lookup(args[0].AsString()); ok && v != "" {
				return cty.StringVal(v), nil
			}
			if len(args) > 1 {
				return args[1], nil
			}
			return cty.StringVal(""), nil
		},
	})
}
