package services

import (
	"log"
	"strings"

	"localmarket/internal/database"
	"localmarket/internal/models"

	"gorm.io/gorm"
)

type SearchResult struct {
	Business models.Business `json:"business"`
	Score    float64         `json:"score"`
	Rank     float64         `json:"rank"`
}

type SearchService struct {
	db *gorm.DB
}

func NewSearchService() *SearchService {
	return &SearchService{
		db: database.GetDB(),
	}
}

// SearchBusinesses performs advanced search with ranking and fuzzy matching
func (s *SearchService) SearchBusinesses(searchTerm string, limit int, offset int) ([]models.Business, error) {
	if strings.TrimSpace(searchTerm) == "" {
		return []models.Business{}, nil
	}

	cleanTerm := strings.TrimSpace(searchTerm)

	// Multi-strategy search results
	var results []SearchResult

	// Strategy 1: Full-Text Search with ranking (highest priority)
	ftsResults, err := s.fullTextSearch(cleanTerm, limit)
	if err != nil {
		log.Printf("FTS search error: %v", err)
	} else {
		results = append(results, ftsResults...)
	}

	// Strategy 2: Fuzzy matching for typos (medium priority)
	fuzzyResults, err := s.fuzzySearch(cleanTerm)
	if err != nil {
		log.Printf("Fuzzy search error: %v", err)
	} else {
		results = append(results, fuzzyResults...)
	}

	// Strategy 3: Partial matching fallback (lowest priority)
	partialResults, err := s.partialSearch(cleanTerm)
	if err != nil {
		log.Printf("Partial search error: %v", err)
	} else {
		results = append(results, partialResults...)
	}

	// Combine and deduplicate results
	combinedResults := s.combineAndRankResults(results)

	// Apply pagination
	start := offset
	end := offset + limit
	if start >= len(combinedResults) {
		return []models.Business{}, nil
	}
	if end > len(combinedResults) {
		end = len(combinedResults)
	}

	var businesses []models.Business
	for i := start; i < end; i++ {
		businesses = append(businesses, combinedResults[i].Business)
	}

	return businesses, nil
}

// fullTextSearch performs PostgreSQL full-text search over name, category and description
func (s *SearchService) fullTextSearch(searchTerm string, limit int) ([]SearchResult, error) {
	tsqueryTerm := s.prepareSearchQuery(searchTerm)
	if tsqueryTerm == "" {
		return []SearchResult{}, nil
	}

	var results []SearchResult

	query := `
		SELECT id, owner_username, name, category, description, photo_url, opening_hours,
		       created_at, updated_at,
		       ts_rank_cd(to_tsvector('english', name || ' ' || category || ' ' || description),
		                  to_tsquery('english', ?), 1) as fts_rank
		FROM business
		WHERE to_tsvector('english', name || ' ' || category || ' ' || description)
		      @@ to_tsquery('english', ?)
		ORDER BY fts_rank DESC
		LIMIT ?
	`

	rows, err := s.db.Raw(query, tsqueryTerm, tsqueryTerm, limit).Rows()
	if err != nil {
		log.Printf("FTS search error: %v", err)
		return []SearchResult{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var business models.Business
		var rank float64

		err := rows.Scan(
			&business.ID, &business.OwnerUsername, &business.Name, &business.Category,
			&business.Description, &business.PhotoURL, &business.OpeningHours,
			&business.CreatedAt, &business.UpdatedAt,
			&rank,
		)
		if err != nil {
			log.Printf("Error scanning FTS result: %v", err)
			continue
		}

		results = append(results, SearchResult{
			Business: business,
			Score:    rank * 100, // High priority for FTS
			Rank:     rank,
		})
	}

	return results, nil
}

// fuzzySearch performs fuzzy matching using pg_trgm for typos
func (s *SearchService) fuzzySearch(searchTerm string) ([]SearchResult, error) {
	var results []SearchResult

	query := `
		SELECT id, owner_username, name, category, description, photo_url, opening_hours,
		       created_at, updated_at,
			   GREATEST(
				   similarity(name, $1),
				   similarity(category, $1),
				   similarity(description, $1)
			   ) as fuzzy_score
		FROM business
		WHERE (
			   name % $1 OR
			   category % $1 OR
			   description % $1
		   )
		   AND GREATEST(
			   similarity(name, $1),
			   similarity(category, $1),
			   similarity(description, $1)
		   ) > 0.3
		ORDER BY fuzzy_score DESC
		LIMIT 30
	`

	rows, err := s.db.Raw(query, searchTerm).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var business models.Business
		var similarity float64

		err := rows.Scan(
			&business.ID, &business.OwnerUsername, &business.Name, &business.Category,
			&business.Description, &business.PhotoURL, &business.OpeningHours,
			&business.CreatedAt, &business.UpdatedAt,
			&similarity,
		)
		if err != nil {
			log.Printf("Error scanning fuzzy result: %v", err)
			continue
		}

		results = append(results, SearchResult{
			Business: business,
			Score:    similarity * 50, // Medium priority for fuzzy
			Rank:     similarity,
		})
	}

	return results, nil
}

// partialSearch performs partial matching as fallback
func (s *SearchService) partialSearch(searchTerm string) ([]SearchResult, error) {
	var results []SearchResult

	searchPattern := "%" + strings.ToLower(searchTerm) + "%"

	query := `
		SELECT id, owner_username, name, category, description, photo_url, opening_hours,
		       created_at, updated_at,
			   CASE
				   WHEN LOWER(name) LIKE $1 THEN 3
				   WHEN LOWER(category) LIKE $1 THEN 2
				   WHEN LOWER(description) LIKE $1 THEN 1
				   ELSE 0.5
			   END as partial_score
		FROM business
		WHERE (
			   LOWER(name) LIKE $1 OR
			   LOWER(category) LIKE $1 OR
			   LOWER(description) LIKE $1 OR
			   LOWER(owner_username) LIKE $1
		   )
		ORDER BY partial_score DESC
		LIMIT 20
	`

	rows, err := s.db.Raw(query, searchPattern).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var business models.Business
		var score float64

		err := rows.Scan(
			&business.ID, &business.OwnerUsername, &business.Name, &business.Category,
			&business.Description, &business.PhotoURL, &business.OpeningHours,
			&business.CreatedAt, &business.UpdatedAt,
			&score,
		)
		if err != nil {
			log.Printf("Error scanning partial result: %v", err)
			continue
		}

		results = append(results, SearchResult{
			Business: business,
			Score:    score * 10, // Low priority for partial
			Rank:     score,
		})
	}

	return results, nil
}

// prepareSearchQuery converts user input to tsquery format
func (s *SearchService) prepareSearchQuery(searchTerm string) string {
	terms := strings.Fields(strings.ToLower(searchTerm))
	if len(terms) == 0 {
		return ""
	}

	// Handle single word
	if len(terms) == 1 {
		return terms[0] + ":*" // Prefix matching
	}

	// Handle multiple words - use OR logic for broader, more user-friendly results
	processedTerms := make([]string, len(terms))
	for i, term := range terms {
		processedTerms[i] = term + ":*"
	}

	return strings.Join(processedTerms, " | ")
}

// combineAndRankResults merges results from different strategies and removes duplicates
func (s *SearchService) combineAndRankResults(results []SearchResult) []SearchResult {
	// Group by business ID and take the best score
	businessMap := make(map[uint]SearchResult)

	for _, result := range results {
		existing, exists := businessMap[result.Business.ID]
		if !exists || result.Score > existing.Score {
			businessMap[result.Business.ID] = result
		}
	}

	var finalResults []SearchResult
	for _, result := range businessMap {
		finalResults = append(finalResults, result)
	}

	// Sort by score descending
	for i := 0; i < len(finalResults)-1; i++ {
		for j := i + 1; j < len(finalResults); j++ {
			if finalResults[i].Score < finalResults[j].Score {
				finalResults[i], finalResults[j] = finalResults[j], finalResults[i]
			}
		}
	}

	return finalResults
}
