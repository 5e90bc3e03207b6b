package recommend

import (
	"math"
	"sync"
)

// CosineSimilarity computes the cosine of two interaction vectors over the
// union of their post IDs, treating missing entries as 0.
//
// Returns exactly 0 when either magnitude is 0: a user with no interactions
// has similarity 0 with everyone. That is the defined behavior, not an
// approximation.
func CosineSimilarity(a, b map[string]int) float64 {
	allPosts := make(map[string]struct{}, len(a)+len(b))
	for postID := range a {
		allPosts[postID] = struct{}{}
	}
	for postID := range b {
		allPosts[postID] = struct{}{}
	}

	var dot, magA, magB float64
	for postID := range allPosts {
		ra := float64(a[postID])
		rb := float64(b[postID])
		dot += ra * rb
		magA += ra * ra
		magB += rb * rb
	}

	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}

// CollaborativeScores computes similarity-weighted scores for every post the
// target user has not interacted with.
//
// For each other user: score[post] += similarity(target, other) * weight.
// The fusion is additive across ALL other users — there is no top-K neighbor
// cap, so similar neighbors with many interactions dominate.
//
// Other-users are partitioned across workers; each worker fills a local map
// and the partials are merged here, so no accumulator is shared.
func CollaborativeScores(matrix Matrix, targetUserID uint64, workers int) map[string]float64 {
	if workers <= 0 {
		workers = 1
	}

	targetInteractions := matrix[targetUserID]

	otherUsers := make([]uint64, 0, len(matrix))
	for userID := range matrix {
		if userID != targetUserID {
			otherUsers = append(otherUsers, userID)
		}
	}
	if len(otherUsers) == 0 {
		return map[string]float64{}
	}

	if workers > len(otherUsers) {
		workers = len(otherUsers)
	}
	chunkSize := (len(otherUsers) + workers - 1) / workers

	partials := make([]map[string]float64, 0, workers)
	var wg sync.WaitGroup

	for start := 0; start < len(otherUsers); start += chunkSize {
		end := start + chunkSize
		if end > len(otherUsers) {
			end = len(otherUsers)
		}

		local := make(map[string]float64)
		partials = append(partials, local)

		wg.Add(1)
		go func(users []uint64, local map[string]float64) {
			defer wg.Done()
			for _, otherID := range users {
				otherInteractions := matrix[otherID]
				similarity := CosineSimilarity(targetInteractions, otherInteractions)
				for postID, weight := range otherInteractions {
					if _, interacted := targetInteractions[postID]; interacted {
						continue
					}
					local[postID] += similarity * float64(weight)
				}
			}
		}(otherUsers[start:end], local)
	}
	wg.Wait()

	scores := make(map[string]float64)
	for _, local := range partials {
		for postID, score := range local {
			scores[postID] += score
		}
	}
	return scores
}
