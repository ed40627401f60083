// Package students serves the read-only student reference lists.
package students

import (
	"context"
	"database/sql"
	"strings"

	"campuslog/internal/apperr"
)

// Student is an entry in the reference list.
type Student struct {
	ID   string `json:"S_ID"`
	Name string `json:"name"`
}

// PDF is a document registered for a student.
type PDF struct {
	ID        int64  `json:"id"`
	StudentID string `json:"student_id"`
	Name      string `json:"pdf_name"`
	Src       string `json:"pdf_src"`
}

// Repository reads students and their documents.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// List returns all students ordered by id.
func (r *Repository) List(ctx context.Context) ([]Student, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT s_id, name FROM students ORDER BY s_id`)
	if err != nil {
		return nil, apperr.Storage("failed to list students", err)
	}
	defer rows.Close()
	res := []Student{}
	for rows.Next() {
		var s Student
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, apperr.Storage("failed to list students", err)
		}
		res = append(res, s)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("failed to list students", err)
	}
	return res, nil
}

// PDFs returns the documents registered for studentID.
func (r *Repository) PDFs(ctx context.Context, studentID string) ([]PDF, error) {
	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return nil, apperr.Validation("student_id is required")
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, student_id, pdf_name, pdf_src FROM student_pdfs
		WHERE student_id = $1 ORDER BY id
	`, studentID)
	if err != nil {
		return nil, apperr.Storage("failed to list student pdfs", err)
	}
	defer rows.Close()
	res := []PDF{}
	for rows.Next() {
		var p PDF
		if err := rows.Scan(&p.ID, &p.StudentID, &p.Name, &p.Src); err != nil {
			return nil, apperr.Storage("failed to list student pdfs", err)
		}
		res = append(res, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("failed to list student pdfs", err)
	}
	return res, nil
}
