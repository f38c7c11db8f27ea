package services

import (
	"errors"
	"strings"

	"taskbot/backend/internal/models"

	"gorm.io/gorm"
)

// resolverStopwords are stripped from free-text queries before the reverse
// match tier. Order matters: longer words go first so "lista" is removed
// before "list" gets a chance to leave a dangling "a".
var resolverStopwords = []string{
	"lista", "list", "de", "la", "el", "the", "una", "un", "los", "las",
}

// findListByName maps a free-text name to a list the user can see. Tiered
// heuristic, first match wins:
//
//  1. owned list whose title contains the query,
//  2. ACCEPTED shared list whose title contains the query,
//  3. reverse match over all visible lists: strip stopwords from the query
//     and accept an exact match, a title contained in the query, or a cleaned
//     query contained in the title,
//  4. the user's first owned list, if any.
//
// Ties inside a tier go to the first list in enumeration order (owned lists
// in creation order, then accepted ones). This is a documented best-effort
// heuristic, not a ranked search. Absence of a match is a nil result, never
// an error.
func findListByName(tx *gorm.DB, userID uint, query string) (*models.TaskList, error) {
	lowered := strings.ToLower(query)
	pattern := "%" + lowered + "%"

	var owned models.TaskList
	err := tx.Where("owner_id = ? AND LOWER(title) LIKE ?", userID, pattern).
		Order("id").First(&owned).Error
	if err == nil {
		return &owned, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var shared models.TaskList
	err = tx.Joins("JOIN shared_accesses ON shared_accesses.list_id = task_lists.id").
		Where("shared_accesses.user_id = ? AND shared_accesses.status = ? AND LOWER(task_lists.title) LIKE ?",
			userID, models.AccessStatusAccepted, pattern).
		Order("task_lists.id").First(&shared).Error
	if err == nil {
		return &shared, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	visible, err := visibleLists(tx, userID)
	if err != nil {
		return nil, err
	}

	cleaned := stripStopwords(lowered)

	for i := range visible {
		title := strings.ToLower(visible[i].Title)
		if cleaned == title {
			return &visible[i], nil
		}
		if strings.Contains(lowered, title) {
			return &visible[i], nil
		}
		if cleaned != "" && strings.Contains(title, cleaned) {
			return &visible[i], nil
		}
	}

	var fallback models.TaskList
	err = tx.Where("owner_id = ?", userID).Order("id").First(&fallback).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &fallback, nil
}

// visibleLists enumerates the lists the user can see: owned ones in creation
// order, then ACCEPTED shared ones in creation order.
func visibleLists(tx *gorm.DB, userID uint) ([]models.TaskList, error) {
	var owned []models.TaskList
	if err := tx.Where("owner_id = ?", userID).Order("id").Find(&owned).Error; err != nil {
		return nil, err
	}

	var shared []models.TaskList
	err := tx.Joins("JOIN shared_accesses ON shared_accesses.list_id = task_lists.id").
		Where("shared_accesses.user_id = ? AND shared_accesses.status = ?", userID, models.AccessStatusAccepted).
		Order("task_lists.id").Find(&shared).Error
	if err != nil {
		return nil, err
	}

	return append(owned, shared...), nil
}

func stripStopwords(lowered string) string {
	cleaned := lowered
	for _, word := range resolverStopwords {
		cleaned = strings.ReplaceAll(cleaned, word, "")
	}
	return strings.TrimSpace(cleaned)
}
