package comment

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/oggyb/confide/internal/server"
)

// Registrar ties the comment service into the HTTP router.
type Registrar struct {
	svc *Service
}

// NewRegistrar creates a new Registrar for the comment service.
func NewRegistrar(svc *Service) *Registrar {
	return &Registrar{svc: svc}
}

// Register attaches the comment routes to the router.
func (reg *Registrar) Register(r chi.Router) {
	r.Post("/posts/{postID}/comments", reg.add)
	r.Get("/posts/{postID}/comments", reg.listTopLevel)
	r.Get("/comments/{commentID}/replies", reg.listReplies)
	r.Delete("/comments/{commentID}", reg.delete)
}

type addRequest struct {
	Content  string  `json:"content"`
	ParentID *uint64 `json:"parentId"`
}

func (reg *Registrar) add(w http.ResponseWriter, r *http.Request) {
	var req addRequest
	if err := server.DecodeJSON(r, &req); err != nil {
		server.JSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	created, err := reg.svc.AddComment(r.Context(), chi.URLParam(r, "postID"),
		server.UserIDFromContext(r.Context()), req.ParentID, req.Content)
	if err != nil {
		server.Error(w, err)
		return
	}
	server.JSON(w, http.StatusCreated, created)
}

func (reg *Registrar) listTopLevel(w http.ResponseWriter, r *http.Request) {
	comments, err := reg.svc.ListTopLevel(r.Context(), chi.URLParam(r, "postID"))
	if err != nil {
		server.Error(w, err)
		return
	}
	server.JSON(w, http.StatusOK, comments)
}

func (reg *Registrar) listReplies(w http.ResponseWriter, r *http.Request) {
	parentID, err := strconv.ParseUint(chi.URLParam(r, "commentID"), 10, 64)
	if err != nil {
		server.JSON(w, http.StatusBadRequest, map[string]string{"error": "invalid comment id"})
		return
	}

	replies, err := reg.svc.ListReplies(r.Context(), parentID)
	if err != nil {
		server.Error(w, err)
		return
	}
	server.JSON(w, http.StatusOK, replies)
}

func (reg *Registrar) delete(w http.ResponseWriter, r *http.Request) {
	commentID, err := strconv.ParseUint(chi.URLParam(r, "commentID"), 10, 64)
	if err != nil {
		server.JSON(w, http.StatusBadRequest, map[string]string{"error": "invalid comment id"})
		return
	}

	if err := reg.svc.DeleteComment(r.Context(), server.UserIDFromContext(r.Context()), commentID); err != nil {
		server.Error(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
