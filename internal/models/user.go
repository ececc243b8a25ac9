package models

// Operator is a dashboard user allowed to drive the print pipeline.
type Operator struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"` // never exposed
}
