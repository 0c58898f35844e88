package models

import "fmt"

// ClassInstance is a class section bound to one academic year.
type ClassInstance struct {
	ID         string `db:"id" json:"id"`
	Grade      string `db:"grade" json:"grade"`
	Section    string `db:"section" json:"section"`
	SchoolCode string `db:"school_code" json:"school_code"`
}

// Label renders the class instance as shown in the console, e.g. "10-A".
func (c ClassInstance) Label() string {
	if c.Section == "" {
		return c.Grade
	}
	return fmt.Sprintf("%s-%s", c.Grade, c.Section)
}
