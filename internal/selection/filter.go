package selection

import (
	"math/rand"
	"strings"

	"github.com/script-select-api/internal/models"
)

// CategoryAll is the sentinel meaning no category narrowing
const CategoryAll = "All"

// DefaultSampleSize caps the random library sample for unrestricted users
const DefaultSampleSize = 15

// Eligible narrows the catalog to the user's allow-list. An empty pool means
// the entire catalog is eligible.
func Eligible(catalog []models.Script, pool []models.PoolEntry) []models.Script {
	if len(pool) == 0 {
		return catalog
	}
	var eligible []models.Script
	for _, script := range catalog {
		for _, entry := range pool {
			if entry.Matches(script) {
				eligible = append(eligible, script)
				break
			}
		}
	}
	return eligible
}

// Categories returns the distinct categories present in the eligible set, in
// first-seen order, prefixed with the All sentinel
func Categories(eligible []models.Script) []string {
	categories := []string{CategoryAll}
	seen := make(map[string]bool)
	for _, script := range eligible {
		if script.Category == "" || seen[script.Category] {
			continue
		}
		seen[script.Category] = true
		categories = append(categories, script.Category)
	}
	return categories
}

// byCategory filters scripts to one category; CategoryAll passes everything
func byCategory(scripts []models.Script, category string) []models.Script {
	if category == "" || category == CategoryAll {
		return scripts
	}
	var out []models.Script
	for _, script := range scripts {
		if script.Category == category {
			out = append(out, script)
		}
	}
	return out
}

// search filters by case-insensitive substring match on title or identifier
func search(scripts []models.Script, term string) []models.Script {
	term = strings.ToLower(term)
	var out []models.Script
	for _, script := range scripts {
		if strings.Contains(strings.ToLower(script.Title), term) ||
			strings.Contains(strings.ToLower(script.ID), term) {
			out = append(out, script)
		}
	}
	return out
}

// Sample draws up to n scripts uniformly at random via Fisher-Yates
func Sample(scripts []models.Script, n int, rng *rand.Rand) []models.Script {
	shuffled := append([]models.Script(nil), scripts...)
	for i := len(shuffled) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	if len(shuffled) > n {
		shuffled = shuffled[:n]
	}
	return shuffled
}

// Library computes the visible candidate list for the library tab. Pooled
// users get a deterministic listing; unrestricted users get a fresh random
// sample on every call, so each call is a reshuffle trigger.
func Library(catalog []models.Script, pool []models.PoolEntry, category, term string, sampleSize int, rng *rand.Rand) []models.Script {
	eligible := Eligible(catalog, pool)

	if strings.TrimSpace(term) != "" {
		return search(byCategory(eligible, category), strings.TrimSpace(term))
	}
	if len(pool) > 0 {
		return byCategory(eligible, category)
	}
	if sampleSize <= 0 {
		sampleSize = DefaultSampleSize
	}
	return Sample(byCategory(eligible, category), sampleSize, rng)
}

// Assigned returns the catalog items whose identifier is in the given set, in
// catalog order rather than selection order
func Assigned(catalog []models.Script, ids []string) []models.Script {
	if len(ids) == 0 {
		return nil
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[strings.ToLower(id)] = true
	}
	var out []models.Script
	for _, script := range catalog {
		if want[strings.ToLower(script.ID)] {
			out = append(out, script)
		}
	}
	return out
}

// PoolAllows reports whether a user with the given allow-list may choose the
// script. An empty pool allows everything.
func PoolAllows(pool []models.PoolEntry, script models.Script) bool {
	if len(pool) == 0 {
		return true
	}
	for _, entry := range pool {
		if entry.Matches(script) {
			return true
		}
	}
	return false
}
