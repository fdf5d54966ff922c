package database

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bitechdev/BreadSpec/pkg/logger"
)

// parseTableName splits a table name that may contain schema into separate schema and table
// For example: "public.users" -> ("public", "users")
//
//	"users" -> ("", "users")
func parseTableName(fullTableName string) (schema, table string) {
	if idx := strings.LastIndex(fullTableName, "."); idx != -1 {
		return fullTableName[:idx], fullTableName[idx+1:]
	}
	return "", fullTableName
}

// normalizeDriverName maps vendor dialect names to postgres, sqlite or mssql
func normalizeDriverName(name string) string {
	switch strings.ToLower(name) {
	case "pg", "postgres", "postgresql", "pgx":
		return "postgres"
	case "sqlite", "sqlite3":
		return "sqlite"
	case "sqlserver", "mssql":
		return "mssql"
	default:
		return strings.ToLower(name)
	}
}

// columnListQuery returns the introspection query listing the columns of table
func columnListQuery(driver, table string) (string, []interface{}, error) {
	schemaName, tableName := parseTableName(table)

	switch driver {
	case "sqlite":
		return "SELECT name FROM pragma_table_info(?) ORDER BY cid", []interface{}{tableName}, nil
	case "postgres":
		return "SELECT column_name FROM information_schema.columns WHERE table_name = ? AND table_schema = COALESCE(NULLIF(?, ''), current_schema()) ORDER BY ordinal_position",
			[]interface{}{tableName, schemaName}, nil
	case "mssql":
		return "SELECT COLUMN_NAME FROM INFORMATION_SCHEMA.COLUMNS WHERE TABLE_NAME = ? AND TABLE_SCHEMA = COALESCE(NULLIF(?, ''), SCHEMA_NAME()) ORDER BY ORDINAL_POSITION",
			[]interface{}{tableName, schemaName}, nil
	default:
		return "", nil, fmt.Errorf("column listing is not supported for driver %s", driver)
	}
}

// sortedKeys returns the keys of values in a stable order so generated SQL is deterministic
func sortedKeys(values map[string]interface{}) []string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// recoverQuery turns a panic inside an adapter call into its error result
func recoverQuery(method string, err *error) {
	if r := recover(); r != nil {
		*err = logger.HandlePanic(method, r)
	}
}
