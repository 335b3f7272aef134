// Package models defines the domain types for notekeeper.
package models

// Note is the single persisted entity. ID is assigned by the store on insert.
type Note struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}
