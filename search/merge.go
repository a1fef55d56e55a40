package search

import "github.com/deathrjj/age-github-search-tui/models"

// MergeResults folds a fetched page into the accumulated results. A new search
// starts from empty collections. Ids seen again keep their position but get the
// fresh profile.
func MergeResults(
	prev map[models.ResultID]models.UserProfile, prevOrder []models.ResultID,
	fetched []models.UserProfile, isNewSearch bool,
) (map[models.ResultID]models.UserProfile, []models.ResultID) {
	var (
		results map[models.ResultID]models.UserProfile
		order   []models.ResultID
	)
	if isNewSearch {
		results = make(map[models.ResultID]models.UserProfile, len(fetched))
		order = make([]models.ResultID, 0, len(fetched))
	} else {
		results = cloneResults(prev, len(fetched))
		order = make([]models.ResultID, len(prevOrder), len(prevOrder)+len(fetched))
		copy(order, prevOrder)
	}

	for _, item := range fetched {
		id := item.ResultID()
		if _, ok := results[id]; !ok {
			order = append(order, id)
		}
		results[id] = item
	}
	return results, order
}

// DeleteSelectedResults removes every selected id from results and order. With an
// empty selection the inputs are returned as-is. Clearing the selection is up
// to the caller.
func DeleteSelectedResults(
	results map[models.ResultID]models.UserProfile, order []models.ResultID,
	selected models.UserSelectionMap,
) (map[models.ResultID]models.UserProfile, []models.ResultID) {
	if len(selected) == 0 {
		return results, order
	}

	nextResults := make(map[models.ResultID]models.UserProfile, len(results))
	for id, p := range results {
		if !selected[id] {
			nextResults[id] = p
		}
	}

	nextOrder := make([]models.ResultID, 0, len(order))
	for _, id := range order {
		if !selected[id] {
			nextOrder = append(nextOrder, id)
		}
	}
	return nextResults, nextOrder
}

// DuplicateSelectedInOrder inserts a copy of each selected profile right after
// it in order. Duplicates are never duplicated again and an id gets at most one
// copy, so applying it twice equals applying it once. skipped reports whether
// any selected entry was left alone for one of those reasons.
func DuplicateSelectedInOrder(
	results map[models.ResultID]models.UserProfile, order []models.ResultID,
	selected models.UserSelectionMap,
) (nextResults map[models.ResultID]models.UserProfile, nextOrder []models.ResultID, skipped bool) {
	if len(selected) == 0 {
		return results, order, false
	}

	nextResults = cloneResults(results, len(selected))
	nextOrder = make([]models.ResultID, 0, len(order)+len(selected))

	for _, id := range order {
		nextOrder = append(nextOrder, id)
		if !selected[id] {
			continue
		}
		original, ok := results[id]
		if !ok {
			continue
		}
		copyID := models.CopyOf(id)
		if original.IsDuplicate {
			skipped = true
			continue
		}
		if _, exists := nextResults[copyID]; exists {
			skipped = true
			continue
		}

		nextResults[copyID] = duplicateOf(original, copyID)
		nextOrder = append(nextOrder, copyID)
	}
	return nextResults, nextOrder, skipped
}

func duplicateOf(original models.UserProfile, copyID models.ResultID) models.UserProfile {
	dup := original
	dup.ID = models.StringID(string(copyID))
	dup.IsDuplicate = true
	switch {
	case original.OriginalID != nil:
		v := *original.OriginalID
		dup.OriginalID = &v
	default:
		if n, ok := original.ID.Int64(); ok {
			dup.OriginalID = &n
		}
	}
	return dup
}

func cloneResults(m map[models.ResultID]models.UserProfile, extra int) map[models.ResultID]models.UserProfile {
	out := make(map[models.ResultID]models.UserProfile, len(m)+extra)
	for k, v := range m {
		out[k] = v
	}
	return out
}
