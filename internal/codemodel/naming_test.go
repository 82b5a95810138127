package codemodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		identifier string
		want       NamingConvention
	}{
		{"totalCount", CamelCase},
		{"TotalCount", PascalCase},
		{"total_count", SnakeCase},
		{"total-count", KebabCase},
		{"TOTAL", UndefinedStyle},
		{"total", UndefinedStyle},
		{"", UndefinedStyle},
		{"Total", PascalCase},
		{"x1Value", CamelCase},
		{"_private", SnakeCase},
		{"max_Value", UndefinedStyle},
		{"snake_and-kebab", UndefinedStyle},
		{"HTTPServer", PascalCase},
		{"TOTAL_COUNT", UndefinedStyle},
		{"with space", UndefinedStyle},
		{"3.14", UndefinedStyle},
		{"calculerPerimetre", CamelCase},
	}
	for _, tt := range tests {
		t.Run(tt.identifier, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.identifier))
		})
	}
}

func TestClassify_Deterministic(t *testing.T) {
	for _, id := range []string{"totalCount", "total_count", "TOTAL"} {
		assert.Equal(t, Classify(id), Classify(id), id)
	}
}
