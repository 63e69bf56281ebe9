package database

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSQLStatements(t *testing.T) {
	content := `-- offerings table
CREATE TABLE IF NOT EXISTS ipos (
    id UUID PRIMARY KEY,
    name TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_ipos_status ON ipos(status);
`

	statements := parseSQLStatements(content)
	require.Len(t, statements, 2)
	assert.Contains(t, statements[0], "CREATE TABLE IF NOT EXISTS ipos")
	assert.Contains(t, statements[0], "name TEXT NOT NULL")
	assert.Contains(t, statements[1], "idx_ipos_status")
}

func TestParseSQLStatementsSkipsComments(t *testing.T) {
	content := `-- only comments here
-- nothing executable

SELECT 1`

	statements := parseSQLStatements(content)
	require.Len(t, statements, 1)
	assert.Equal(t, "SELECT 1", statements[0])
}

func TestValidateAndOptimizeSchemaRequiresConnection(t *testing.T) {
	if DB != nil {
		t.Skip("database connection already established")
	}
	err := ValidateAndOptimizeSchema()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection not established")
}

func TestSchemaValidationAgainstLiveDatabase(t *testing.T) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skipf("TEST_DATABASE_URL not set, skipping live schema validation")
	}

	require.NoError(t, Connect(dbURL))
	defer Close()

	require.NoError(t, Migrate("schema.sql"))

	// After migration the schema must validate cleanly and any indexes
	// the validator considers missing must be creatable.
	require.NoError(t, ValidateAndOptimizeSchema())

	validator := NewSchemaValidator(DB)
	report, err := validator.ValidateSchemaCompatibility()
	require.NoError(t, err)
	assert.True(t, report.OverallValid, validator.GenerateSchemaReport(report))
}
