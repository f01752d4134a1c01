package database

import (
	"testing"

	"bugtrack/models"

	"github.com/stretchr/testify/assert"
)

func TestQueryBuilder_AddCondition(t *testing.T) {
	qb := NewQueryBuilder()

	qb.AddCondition("status", "open")

	assert.Equal(t, "WHERE status = $1", qb.WhereClause())
	assert.Equal(t, []interface{}{"open"}, qb.Args())
}

func TestQueryBuilder_MultipleConditions(t *testing.T) {
	qb := NewQueryBuilder()

	qb.AddCondition("status", "open")
	qb.AddCondition("priority", "high")
	qb.AddAnyOf("project_id", []string{"a", "b"})

	assert.Equal(t, "WHERE status = $1 AND priority = $2 AND project_id = ANY($3)", qb.WhereClause())
	assert.Equal(t, []interface{}{"open", "high", []string{"a", "b"}}, qb.Args())
}

func TestQueryBuilder_BugFilter(t *testing.T) {
	tests := []struct {
		name      string
		filter    models.BugFilter
		wantWhere string
		wantArgs  int
	}{
		{
			name:      "empty filter",
			filter:    models.BugFilter{},
			wantWhere: "",
			wantArgs:  0,
		},
		{
			name:      "status only",
			filter:    models.BugFilter{Status: models.StatusDone},
			wantWhere: "WHERE status = $1",
			wantArgs:  1,
		},
		{
			name: "everything",
			filter: models.BugFilter{
				Status:     models.StatusOpen,
				Priority:   models.PriorityHigh,
				ProjectID:  "p1",
				ProjectIDs: []string{"p1", "p2"},
			},
			wantWhere: "WHERE status = $1 AND priority = $2 AND project_id = $3 AND project_id = ANY($4)",
			wantArgs:  4,
		},
		{
			name:      "empty allow-list still restricts",
			filter:    models.BugFilter{ProjectIDs: []string{}},
			wantWhere: "WHERE project_id = ANY($1)",
			wantArgs:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qb := NewQueryBuilder()
			qb.BugFilter(tt.filter)

			assert.Equal(t, tt.wantWhere, qb.WhereClause())
			assert.Len(t, qb.Args(), tt.wantArgs)
		})
	}
}

func TestQueryBuilder_WhereClause_Empty(t *testing.T) {
	qb := NewQueryBuilder()

	assert.Equal(t, "", qb.WhereClause())
	assert.Empty(t, qb.Args())
}
