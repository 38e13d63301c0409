package db

import (
	"strings"
	"testing"
)

func TestSchema_DeclaresAllTables(t *testing.T) {
	schema := Schema()
	for _, table := range []string{
		"research_categories",
		"research_interests",
		"lecturers",
		"lecturer_research_interests",
		"students",
	} {
		if !strings.Contains(schema, "CREATE TABLE IF NOT EXISTS "+table+" ") {
			t.Fatalf("expected schema to declare table %s", table)
		}
	}
}

func TestSchema_IsIdempotent(t *testing.T) {
	for _, line := range strings.Split(Schema(), "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "CREATE") && !strings.Contains(trimmed, "IF NOT EXISTS") {
			t.Fatalf("expected idempotent DDL, got %q", trimmed)
		}
	}
}
