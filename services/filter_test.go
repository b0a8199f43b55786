package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"propscan/models"
)

func scored(id string, value float64, price float64, units int) *models.CanonicalProperty {
	return &models.CanonicalProperty{
		ResolvedID: id,
		Price:      price,
		Score:      &models.Score{Value: value, Grade: GradeFor(value), EstimatedUnits: units},
	}
}

func ids(props []*models.CanonicalProperty) []string {
	out := make([]string, len(props))
	for i, p := range props {
		out[i] = p.ResolvedID
	}
	return out
}

func TestRankOrdersByScoreThenID(t *testing.T) {
	ranked := Rank([]*models.CanonicalProperty{
		scored("b", 50, 1, 1),
		{ResolvedID: "unscored"},
		scored("a", 50, 1, 1),
		scored("c", 90, 1, 1),
	})
	assert.Equal(t, []string{"c", "a", "b", "unscored"}, ids(ranked))
}

func TestFilter(t *testing.T) {
	ranked := Rank([]*models.CanonicalProperty{
		scored("a", 92, 1_200_000, 8),
		scored("b", 61, 350_000, 2),
		scored("c", 40, 0, 1),
		scored("d", 20, 90_000, 1),
	})

	tests := []struct {
		name string
		c    Criteria
		want []string
	}{
		{"no bounds", Criteria{}, []string{"a", "b", "c", "d"}},
		{"min grade B", Criteria{MinGrade: models.GradeB}, []string{"a", "b"}},
		{"min score", Criteria{MinScore: 41}, []string{"a", "b"}},
		{"unit band", Criteria{MinUnits: 2, MaxUnits: 4}, []string{"b"}},
		{"price band drops unknown price", Criteria{MinPrice: 50_000, MaxPrice: 400_000}, []string{"b", "d"}},
		{"max results", Criteria{MaxResults: 2}, []string{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Filter(ranked, tt.c)))
		})
	}
}
