package recommendation

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/oggyb/confide/internal/server"
)

// Registrar ties the recommendation feed into the HTTP router.
type Registrar struct {
	batch *BatchService
}

// NewRegistrar creates a new Registrar for the recommendation feed.
func NewRegistrar(batch *BatchService) *Registrar {
	return &Registrar{batch: batch}
}

// Register attaches the "for you" route to the router.
func (reg *Registrar) Register(r chi.Router) {
	r.Get("/posts/foryou", reg.forYou)
}

func (reg *Registrar) forYou(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	posts := reg.batch.GetPrecomputedRecommendations(r.Context(), server.UserIDFromContext(r.Context()), limit)
	server.JSON(w, http.StatusOK, posts)
}
