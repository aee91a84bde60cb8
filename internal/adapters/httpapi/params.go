package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

// bindUUIDPath binds a simple-style path parameter into a UUID. On failure it writes
// a 400 and returns false.
func bindUUIDPath(w http.ResponseWriter, r *http.Request, name string) (openapi_types.UUID, bool) {
	var id openapi_types.UUID
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &id, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	})
	if err != nil {
		writeError(w, r, http.StatusBadRequest, codeInvalidParameter, "invalid path parameter", map[string]any{name: "must be a UUID"})
		return openapi_types.UUID{}, false
	}
	return id, true
}
