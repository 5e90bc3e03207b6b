package post

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/oggyb/confide/internal/db"
	"github.com/oggyb/confide/internal/server"
)

// Registrar ties the post service into the HTTP router.
type Registrar struct {
	svc *Service
}

// NewRegistrar creates a new Registrar for the post service.
func NewRegistrar(svc *Service) *Registrar {
	return &Registrar{svc: svc}
}

// Register attaches the post routes to the router.
func (reg *Registrar) Register(r chi.Router) {
	r.Route("/posts", func(r chi.Router) {
		r.Post("/", reg.create)
		r.Get("/", reg.list)
		r.Get("/bookmarked", reg.bookmarked)
		r.Get("/{postID}", reg.get)
		r.Put("/{postID}", reg.update)
		r.Delete("/{postID}", reg.delete)
		r.Post("/{postID}/reactions", reg.react)
	})
}

type createRequest struct {
	Title          string   `json:"title"`
	Content        string   `json:"content"`
	Categories     []string `json:"categories"`
	Hashtags       []string `json:"hashtags"`
	ExpiryDuration string   `json:"expiryDuration"`
}

func (reg *Registrar) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := server.DecodeJSON(r, &req); err != nil {
		server.JSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	created, err := reg.svc.CreatePost(r.Context(), server.UserIDFromContext(r.Context()), CreatePostInput{
		Title:          req.Title,
		Content:        req.Content,
		Categories:     req.Categories,
		Hashtags:       req.Hashtags,
		ExpiryDuration: db.ExpiryDuration(req.ExpiryDuration),
	})
	if err != nil {
		server.Error(w, err)
		return
	}
	server.JSON(w, http.StatusCreated, created)
}

type listResponse struct {
	Posts     []db.Post `json:"posts"`
	NextToken *string   `json:"nextToken,omitempty"`
}

func (reg *Registrar) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if q.Get("sort") == "trending" {
		posts, err := reg.svc.ListTrending(r.Context(), intParam(q.Get("page"), 0), intParam(q.Get("size"), 20))
		if err != nil {
			server.Error(w, err)
			return
		}
		server.JSON(w, http.StatusOK, listResponse{Posts: posts})
		return
	}

	var token *string
	if t := q.Get("cursor"); t != "" {
		token = &t
	}
	posts, next, err := reg.svc.ListNewest(r.Context(), token, intParam(q.Get("size"), 20))
	if err != nil {
		server.Error(w, err)
		return
	}
	server.JSON(w, http.StatusOK, listResponse{Posts: posts, NextToken: next})
}

func (reg *Registrar) get(w http.ResponseWriter, r *http.Request) {
	post, err := reg.svc.GetPostByID(r.Context(), chi.URLParam(r, "postID"))
	if err != nil {
		server.Error(w, err)
		return
	}
	server.JSON(w, http.StatusOK, post)
}

type updateRequest struct {
	Title          *string  `json:"title"`
	Content        *string  `json:"content"`
	Categories     []string `json:"categories"`
	Hashtags       []string `json:"hashtags"`
	ExpiryDuration *string  `json:"expiryDuration"`
}

func (reg *Registrar) update(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := server.DecodeJSON(r, &req); err != nil {
		server.JSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	in := UpdatePostInput{
		Title:      req.Title,
		Content:    req.Content,
		Categories: req.Categories,
		Hashtags:   req.Hashtags,
	}
	if req.ExpiryDuration != nil {
		d := db.ExpiryDuration(*req.ExpiryDuration)
		in.ExpiryDuration = &d
	}

	updated, err := reg.svc.UpdatePost(r.Context(), server.UserIDFromContext(r.Context()), chi.URLParam(r, "postID"), in)
	if err != nil {
		server.Error(w, err)
		return
	}
	server.JSON(w, http.StatusOK, updated)
}

func (reg *Registrar) delete(w http.ResponseWriter, r *http.Request) {
	if err := reg.svc.DeletePost(r.Context(), server.UserIDFromContext(r.Context()), chi.URLParam(r, "postID")); err != nil {
		server.Error(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type reactRequest struct {
	Type string `json:"type"`
}

func (reg *Registrar) react(w http.ResponseWriter, r *http.Request) {
	var req reactRequest
	if err := server.DecodeJSON(r, &req); err != nil {
		server.JSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	post, err := reg.svc.UpdateReaction(r.Context(), chi.URLParam(r, "postID"), server.UserIDFromContext(r.Context()), req.Type)
	if err != nil {
		server.Error(w, err)
		return
	}
	server.JSON(w, http.StatusOK, post)
}

func (reg *Registrar) bookmarked(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	posts, err := reg.svc.GetBookmarkedPosts(r.Context(), server.UserIDFromContext(r.Context()),
		intParam(q.Get("page"), 0), intParam(q.Get("size"), 20))
	if err != nil {
		server.Error(w, err)
		return
	}
	server.JSON(w, http.StatusOK, listResponse{Posts: posts})
}

func intParam(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
