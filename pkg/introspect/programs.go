package introspect

import (
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ddsx/cdrstream/internal/cdr/opcode"
	"github.com/ddsx/cdrstream/pkg/registry"
)

// programsHandler serves read-only views of the sertype registry's
// contents, for operators inspecting what types a running process has
// registered and how their programs are laid out.
type programsHandler struct {
	registry *registry.Registry
}

// List handles GET /debug/programs - the names of every registered type.
func (h *programsHandler) List(w http.ResponseWriter, r *http.Request) {
	names := h.registry.List()
	sort.Strings(names)
	WriteJSON(w, http.StatusOK, okResponse(map[string]interface{}{
		"count": len(names),
		"types": names,
	}))
}

// Describe handles GET /debug/programs/{type} - a disassembled listing of
// one registered type's opcode program, plus its extensibility and key
// descriptors. Uses registry.Get (not Lookup) since the caller never holds
// the descriptor past this request.
func (h *programsHandler) Describe(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "type")

	desc, ok := h.registry.Get(name)
	if !ok {
		WriteJSON(w, http.StatusNotFound, errorResponse("type not registered: "+name))
		return
	}

	var listing strings.Builder
	if err := opcode.Disassemble(&listing, desc.Program); err != nil {
		WriteJSON(w, http.StatusInternalServerError, errorResponse(err.Error()))
		return
	}

	WriteJSON(w, http.StatusOK, okResponse(map[string]interface{}{
		"name":           desc.Name,
		"extensibility":  desc.Extensibility.String(),
		"key_count":      len(desc.Keys),
		"min_xcdr":       desc.MinimumXCDRVersion(),
		"program_length": len(desc.Program),
		"disassembly":    listing.String(),
	}))
}
