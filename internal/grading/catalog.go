package grading

import "github.com/noah-isme/result-ledger-api/internal/models"

// Catalog is an ordered, indexed set of subjects.
type Catalog struct {
	subjects []models.Subject
	index    map[models.SubjectID]int
}

// NewCatalog indexes subjects, keeping their order. A repeated identifier
// keeps its first position and its last definition.
func NewCatalog(subjects []models.Subject) Catalog {
	c := Catalog{
		subjects: make([]models.Subject, 0, len(subjects)),
		index:    make(map[models.SubjectID]int, len(subjects)),
	}
	for _, subject := range subjects {
		if pos, ok := c.index[subject.ID]; ok {
			c.subjects[pos] = subject
			continue
		}
		c.index[subject.ID] = len(c.subjects)
		c.subjects = append(c.subjects, subject)
	}
	return c
}

// Lookup returns the subject with the given identifier.
func (c Catalog) Lookup(id models.SubjectID) (models.Subject, bool) {
	pos, ok := c.index[id]
	if !ok {
		return models.Subject{}, false
	}
	return c.subjects[pos], true
}

// Subjects returns the subjects in catalog order.
func (c Catalog) Subjects() []models.Subject {
	out := make([]models.Subject, len(c.subjects))
	copy(out, c.subjects)
	return out
}

// Len is the number of subjects in the catalog.
func (c Catalog) Len() int {
	return len(c.subjects)
}
