package registry

import (
	"context"
	"fmt"
	"reflect"
	"runtime"
	"strings"
)

var (
	errType    = reflect.TypeOf((*error)(nil)).Elem()
	ctxType    = reflect.TypeOf((*context.Context)(nil)).Elem()
	reqCtxType = reflect.TypeOf((*RequestContext)(nil))
)

// handlerSig records where a static handler expects its contexts and its
// argument struct within the declared parameter list. Indexes are -1 when
// the handler does not declare that parameter.
type handlerSig struct {
	fn       reflect.Value
	numIn    int
	ctxIndex int // context.Context
	reqIndex int // *RequestContext
	argIndex int // argument struct
	argType  reflect.Type
	outType  reflect.Type // first result; nil when the handler returns only error
}

// locateContextParam returns the index of the first parameter whose type is
// *RequestContext. The match is by type identity, never by parameter name,
// so the context parameter can sit at any position under any name. Returns
// -1 for context-free handlers.
func locateContextParam(t reflect.Type) int {
	for i := 0; i < t.NumIn(); i++ {
		if t.In(i) == reqCtxType {
			return i
		}
	}
	return -1
}

// parseHandler validates a static handler's shape and records the binding
// plan. Accepted parameters, in any order: one context.Context, one
// *RequestContext, one argument struct (value or pointer). Other interface
// parameters are tolerated and receive their zero value. Results must be
// (), (error), or (T, error).
func parseHandler(name string, fn any) (*handlerSig, error) {
	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.Kind() != reflect.Func {
		return nil, &RegistrationError{Target: fmt.Sprintf("%T", fn), Reason: "handler must be a function"}
	}
	t := v.Type()

	sig := &handlerSig{
		fn:       v,
		numIn:    t.NumIn(),
		ctxIndex: -1,
		reqIndex: locateContextParam(t),
		argIndex: -1,
	}

	for i := 0; i < t.NumIn(); i++ {
		in := t.In(i)
		switch {
		case i == sig.reqIndex:
			// execution context, already located
		case in == ctxType:
			if sig.ctxIndex >= 0 {
				return nil, &RegistrationError{Target: name, Reason: "handler declares more than one context.Context parameter"}
			}
			sig.ctxIndex = i
		case in.Kind() == reflect.Interface:
			// Unresolved type: not the context, not bindable. Zero value at call.
		case in.Kind() == reflect.Struct || (in.Kind() == reflect.Pointer && in.Elem().Kind() == reflect.Struct):
			if sig.argIndex >= 0 {
				return nil, &RegistrationError{Target: name, Reason: "handler declares more than one argument struct"}
			}
			sig.argIndex = i
			sig.argType = in
		default:
			return nil, &RegistrationError{Target: name, Reason: fmt.Sprintf("handler parameter %d has unsupported type %s", i, in)}
		}
	}

	switch t.NumOut() {
	case 0:
	case 1:
		if t.Out(0) != errType {
			return nil, &RegistrationError{Target: name, Reason: "single handler result must be error"}
		}
	case 2:
		if t.Out(1) != errType {
			return nil, &RegistrationError{Target: name, Reason: "second handler result must be error"}
		}
		sig.outType = t.Out(0)
	default:
		return nil, &RegistrationError{Target: name, Reason: "handler returns more than two values"}
	}

	return sig, nil
}

// handlerName derives a registration name from the function symbol, e.g.
// "github.com/clborne/toolgate/internal/tools.Echo" becomes "echo".
// Anonymous functions have no usable symbol and need WithName.
func handlerName(fn any) (string, error) {
	v := reflect.ValueOf(fn)
	rf := runtime.FuncForPC(v.Pointer())
	if rf == nil {
		return "", &RegistrationError{Target: "handler", Reason: "cannot derive a name, use WithName"}
	}
	full := rf.Name()
	base := full[strings.LastIndex(full, ".")+1:]
	base = strings.TrimSuffix(base, "-fm")
	if base == "" || strings.HasPrefix(base, "func") {
		return "", &RegistrationError{Target: full, Reason: "anonymous handler needs an explicit name, use WithName"}
	}
	return strings.ToLower(base[:1]) + base[1:], nil
}
