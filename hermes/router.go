package hermes

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"

	"github.com/lunagic/poseidon/poseidon"
	"github.com/lunagic/typescript-go/typescript"
)

// ErrInvalidRequestBody wraps JSON decoding failures of router payloads.
var ErrInvalidRequestBody = errors.New("invalid request body")

type Validator interface {
	Validate(r *http.Request) error
}

type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// WithRouter exposes every exported method of T under prefix. The method is
// picked with the "method" query parameter. Arguments are filled from argument
// providers, the ResponseWriter and Request, and otherwise from the JSON body
// of a POST. Methods return a value and optionally an error.
func WithRouter[T any](
	prefix string,
	router T,
	errorHandler ErrorHandler,
	middlewares ...poseidon.Middleware,
) ConfigurationFunc {
	return func(app *App) error {
		app.autoRouter.Type = reflect.TypeFor[T]()
		app.autoRouter.Prefix = prefix

		return WithHandler(
			app.autoRouter.Prefix,
			poseidon.Middlewares(middlewares).Apply(
				http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					methodString := r.URL.Query().Get(autoRouterQueryParamName)

					// Confirm that the method name is in the interface
					methodDef, found := app.autoRouter.Type.MethodByName(methodString)
					if !found || !methodDef.IsExported() {
						http.NotFound(w, r)
						return
					}

					// Get the method from the instance provided
					method := reflect.ValueOf(router).MethodByName(methodString)

					in := []reflect.Value{}
					for inIndex := range methodDef.Type.NumIn() {
						inType := methodDef.Type.In(inIndex)

						// For struct methods (compared to interface methods),
						// index 0 is the receiver. The "actual" parameters you pass
						// when calling the method start at index 1.
						if inIndex == 0 && app.autoRouter.Type.Kind() != reflect.Interface {
							continue
						}

						if overrideFunc, found := app.autoRouter.argumentMapping[inType]; found {
							value, err := overrideFunc(w, r)
							if err != nil {
								errorHandler(w, r, err)
								return
							}
							in = append(in, value)
							continue
						}

						if inType == responseWriterType {
							in = append(in, reflect.ValueOf(w))
							continue
						}

						if inType == requestType {
							in = append(in, reflect.ValueOf(r))
							continue
						}

						payload := reflect.New(inType)
						if r.Method == http.MethodPost {
							if err := json.NewDecoder(r.Body).Decode(payload.Interface()); err != nil {
								errorHandler(w, r, fmt.Errorf("%w: %w", ErrInvalidRequestBody, err))
								return
							}
						}

						if validator, ok := payload.Interface().(Validator); ok {
							if err := validator.Validate(r); err != nil {
								errorHandler(w, r, err)
								return
							}
						}

						in = append(in, payload.Elem())
					}

					outArgs := method.Call(in)
					if len(outArgs) == 0 {
						w.WriteHeader(http.StatusNoContent)
						return
					}

					if last := outArgs[len(outArgs)-1]; last.Type() == errorType {
						if err, _ := last.Interface().(error); err != nil {
							errorHandler(w, r, err)
							return
						}

						if len(outArgs) == 1 {
							w.WriteHeader(http.StatusNoContent)
							return
						}
					}

					poseidon.RespondJSON(w, http.StatusOK, outArgs[0].Interface())
				}),
			),
		)(app)
	}
}

func WithRouterArgumentProvider[T any](customArgumentProvider func(w http.ResponseWriter, r *http.Request) (T, error)) ConfigurationFunc {
	return func(app *App) error {
		newType := reflect.TypeFor[T]()
		if _, found := app.autoRouter.argumentMapping[newType]; found {
			return errors.New("duplicate CustomArgumentProvider type, it was already registered")
		}

		app.typeScript.ignoredArguments[newType] = true
		app.autoRouter.argumentMapping[newType] = func(w http.ResponseWriter, r *http.Request) (reflect.Value, error) {
			result, err := customArgumentProvider(w, r)

			return reflect.ValueOf(result), err
		}

		return nil
	}
}

var (
	errorType          = reflect.TypeFor[error]()
	requestType        = reflect.TypeFor[*http.Request]()
	responseWriterType = reflect.TypeFor[http.ResponseWriter]()
)

func (app *App) routerTypeScriptRoutes() map[string]typescript.Route {
	routes := map[string]typescript.Route{}
	if !app.autoRouter.Enabled() {
		return routes
	}

	for methodIndex := range app.autoRouter.Type.NumMethod() {
		method := app.autoRouter.Type.Method(methodIndex)
		if !method.IsExported() {
			continue
		}

		if method.Type.NumOut() == 0 || method.Type.Out(0) == errorType {
			continue
		}

		httpMethod := http.MethodGet
		var httpRequest reflect.Type

		for inIndex := range method.Type.NumIn() {
			in := method.Type.In(inIndex)

			if inIndex == 0 && app.autoRouter.Type.Kind() != reflect.Interface {
				continue
			}

			if app.typeScript.ignoredArguments[in] || in == requestType || in == responseWriterType {
				continue
			}

			httpMethod = http.MethodPost
			httpRequest = in
			break
		}

		routes[method.Name] = typescript.Route{
			Path:         fmt.Sprintf("%s?%s=%s", app.autoRouter.Prefix, autoRouterQueryParamName, method.Name),
			Method:       httpMethod,
			RequestBody:  httpRequest,
			ResponseBody: method.Type.Out(0),
		}
	}

	return routes
}

const autoRouterQueryParamName = "method"

type autoRouterConfig struct {
	Prefix          string
	Type            reflect.Type
	argumentMapping map[reflect.Type]func(w http.ResponseWriter, r *http.Request) (reflect.Value, error)
}

func (config autoRouterConfig) Enabled() bool {
	return config.Prefix != ""
}
