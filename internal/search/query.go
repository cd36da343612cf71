package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/cinefinder/cinefinder-server/internal/normalize"
)

// DefaultLimit caps hits when SearchParams.Limit is zero.
const DefaultLimit = 50

// SearchParams scopes a query to one user's favorites.
type SearchParams struct {
	UserID string
	Query  string
	Limit  int
}

// Hit is a matching favorite, best first.
type Hit struct {
	MovieID int     `json:"movie_id"`
	Score   float64 `json:"score"`
}

// Search runs a full-text query over a user's favorites. Blank queries
// return no hits.
func (s *FavoritesIndex) Search(ctx context.Context, params SearchParams) ([]Hit, error) {
	text := normalize.Fold(params.Query)
	if text == "" || params.UserID == "" {
		return []Hit{}, nil
	}
	limit := params.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	req := bleve.NewSearchRequestOptions(buildQuery(params.UserID, text), limit, 0, false)
	req.SortBy([]string{"-_score", "-added_at"})
	req.Fields = []string{"movie_id"}

	s.mu.RLock()
	res, err := s.index.SearchInContext(ctx, req)
	s.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		id, ok := h.Fields["movie_id"].(float64)
		if !ok {
			continue
		}
		hits = append(hits, Hit{MovieID: int(id), Score: h.Score})
	}
	return hits, nil
}

// buildQuery restricts to the user, then matches the folded text against
// title (boosted, fuzzy, last-token prefix) or overview.
func buildQuery(userID, text string) query.Query {
	owner := bleve.NewTermQuery(userID)
	owner.SetField("user_id")

	title := bleve.NewMatchQuery(text)
	title.SetField("title")
	title.SetBoost(3)

	fuzzyTitle := bleve.NewMatchQuery(text)
	fuzzyTitle.SetField("title")
	fuzzyTitle.SetFuzziness(1)

	overview := bleve.NewMatchQuery(text)
	overview.SetField("overview")
	overview.SetOperator(query.MatchQueryOperatorAnd)

	matches := bleve.NewDisjunctionQuery(title, fuzzyTitle, overview)

	tokens := strings.Fields(text)
	if last := tokens[len(tokens)-1]; len([]rune(last)) >= 2 {
		prefix := bleve.NewPrefixQuery(last)
		prefix.SetField("title")
		prefix.SetBoost(2)
		matches.AddQuery(prefix)
	}

	return bleve.NewConjunctionQuery(owner, matches)
}
