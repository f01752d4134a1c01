package database

import (
	"fmt"
	"strings"

	"bugtrack/models"
)

const (
	columnStatus    = "status"
	columnPriority  = "priority"
	columnProjectID = "project_id"
)

// QueryBuilder helps build WHERE clauses safely
type QueryBuilder struct {
	conditions []string
	args       []interface{}
	argCount   int
}

func NewQueryBuilder() *QueryBuilder {
	return &QueryBuilder{
		conditions: []string{},
		args:       []interface{}{},
		argCount:   1,
	}
}

func (qb *QueryBuilder) AddCondition(column string, value interface{}) {
	qb.conditions = append(qb.conditions, fmt.Sprintf("%s = $%d", column, qb.argCount))
	qb.args = append(qb.args, value)
	qb.argCount++
}

// AddAnyOf restricts column to the given values.
func (qb *QueryBuilder) AddAnyOf(column string, values []string) {
	qb.conditions = append(qb.conditions, fmt.Sprintf("%s = ANY($%d)", column, qb.argCount))
	qb.args = append(qb.args, values)
	qb.argCount++
}

// BugFilter adds the conditions of f. Empty fields are ignored; a non-nil
// ProjectIDs becomes an allow-list.
func (qb *QueryBuilder) BugFilter(f models.BugFilter) {
	if f.Status != "" {
		qb.AddCondition(columnStatus, string(f.Status))
	}
	if f.Priority != "" {
		qb.AddCondition(columnPriority, string(f.Priority))
	}
	if f.ProjectID != "" {
		qb.AddCondition(columnProjectID, f.ProjectID)
	}
	if f.ProjectIDs != nil {
		qb.AddAnyOf(columnProjectID, f.ProjectIDs)
	}
}

func (qb *QueryBuilder) WhereClause() string {
	if len(qb.conditions) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(qb.conditions, " AND ")
}

func (qb *QueryBuilder) Args() []interface{} {
	return qb.args
}
