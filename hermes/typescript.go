package hermes

import (
	"errors"
	"io"
	"maps"
	"reflect"

	"github.com/lunagic/typescript-go/typescript"
)

const defaultTypeScriptNamespace = "Hermes"

// WithTypeScriptTypes names the namespace of the generated client and adds
// the payload types it declares next to the routes.
func WithTypeScriptTypes(namespace string, types map[string]reflect.Type) ConfigurationFunc {
	return func(app *App) error {
		if namespace == "" {
			return errors.New("typescript namespace can not be blank")
		}

		app.typeScript.namespace = namespace
		maps.Copy(app.typeScript.types, types)

		return nil
	}
}

type typeScriptConfig struct {
	namespace        string
	types            map[string]reflect.Type
	ignoredArguments map[reflect.Type]bool
}

// WriteTypeScript writes a client for every routed method to writer.
func (app *App) WriteTypeScript(writer io.Writer) error {
	namespace := app.typeScript.namespace
	if namespace == "" {
		namespace = defaultTypeScriptNamespace
	}

	return typescript.New(
		typescript.WithCustomNamespace(namespace),
		typescript.WithTypes(app.typeScript.types),
		typescript.WithRoutes(app.routerTypeScriptRoutes()),
	).Generate(writer)
}
