package objgraph

import "reflect"

// ParametersSuit reports whether a method declaring params could be called
// with args. For a variadic method the trailing arguments must share a common
// ancestor assignable to the variadic element type; zero trailing arguments
// always suit. A nil argument suits any parameter that can hold nil.
func (h *Hierarchy) ParametersSuit(params []reflect.Type, args []reflect.Value, variadic bool) bool {
	if !variadic {
		if len(params) != len(args) {
			return false
		}
		for i, p := range params {
			if !argSuits(p, args[i]) {
				return false
			}
		}
		return true
	}

	if len(params) == 0 {
		return false
	}
	fixed := len(params) - 1
	if len(args) < fixed {
		return false
	}
	for i := 0; i < fixed; i++ {
		if !argSuits(params[i], args[i]) {
			return false
		}
	}

	rest := args[fixed:]
	if len(rest) == 0 {
		return true
	}
	elem := params[fixed].Elem()
	common, err := h.CommonClassOf(rest)
	if err != nil {
		return false
	}
	if common == nil {
		return nillable(elem)
	}
	return common.AssignableTo(elem)
}

// ParametersSuit checks params against args in the default hierarchy.
func ParametersSuit(params []reflect.Type, args []reflect.Value, variadic bool) bool {
	return defaultHierarchy.ParametersSuit(params, args, variadic)
}

func argSuits(param reflect.Type, arg reflect.Value) bool {
	t := dynamicType(arg)
	if t == nil {
		return nillable(param)
	}
	return t.AssignableTo(param)
}

func nillable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return true
	}
	return false
}

// methodParams returns the declared parameter types of a method value's
// function type, skipping the receiver.
func methodParams(m reflect.Method) []reflect.Type {
	ft := m.Type
	params := make([]reflect.Type, 0, ft.NumIn()-1)
	for i := 1; i < ft.NumIn(); i++ {
		params = append(params, ft.In(i))
	}
	return params
}
