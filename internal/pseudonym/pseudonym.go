// Package pseudonym derives the anonymous display names shown on posts.
//
// The name is a function of the post ID alone: the same post always shows
// the same pseudonym, and nothing about the author leaks through it.
package pseudonym

import (
	"fmt"
	"hash/fnv"
	"math/rand"
)

var adjectives = []string{
	"Kimya", "Fiche", "Siri", "Mpole", "Nyuma",
	"Waziwazi", "Obscuro", "Silencieux", "Clandestino", "Tihka",
	"Kivuli", "Lointain", "Latente", "Incognito", "Hafifu",
	"Veiled", "Silent", "Hidden", "Dusky", "Cicha",
}

var nouns = []string{
	"Mgeni", "Roho", "Mzuka", "Sauti", "Upepo",
	"Wingu", "Silhouette", "Eco", "Nocturne", "Sombras",
	"Voyageur", "Njia", "Malaika", "Nomad", "Watcher",
	"Drifter", "Echo", "Phantom", "Stranger", "Mwitu",
}

// ForPost returns the deterministic pseudonym for a post ID.
// The same ID always yields the same adjective+noun+number name; the
// number stays in [1000, 9999] to avoid visually short suffixes.
func ForPost(id string) string {
	if id == "" {
		return Random()
	}

	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	r := rand.New(rand.NewSource(int64(h.Sum64())))

	adjective := adjectives[r.Intn(len(adjectives))]
	noun := nouns[r.Intn(len(nouns))]
	number := 1000 + r.Intn(9000)

	return fmt.Sprintf("%s%s%d", adjective, noun, number)
}

// Random returns a non-deterministic pseudonym for callers without an ID.
func Random() string {
	adjective := adjectives[rand.Intn(len(adjectives))]
	noun := nouns[rand.Intn(len(nouns))]
	return fmt.Sprintf("%s%s%d", adjective, noun, rand.Intn(10000))
}
