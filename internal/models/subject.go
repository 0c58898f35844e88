package models

// Subject is read-only reference data owned by the subject screens.
type Subject struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"subject_name" json:"name"`
}
