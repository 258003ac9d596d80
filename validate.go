package morm

import (
	"fmt"
	"regexp"
	"strings"
)

// ValidateIdentifier reports whether name can be used as a table or column name.
// Define calls it for every identifier it emits into SQL.
func ValidateIdentifier(name string) error {
	return validateIdentifier(name)
}

// validateSafeSQL 检查直接拼接的 SQL 片段（ORDER BY、统计表达式）中是否包含分号或注释符
func validateSafeSQL(sqlPart string) error {
	if sqlPart == "" {
		return nil
	}
	if strings.Contains(sqlPart, ";") {
		return fmt.Errorf("morm: unsafe SQL fragment %q: semicolon not allowed", sqlPart)
	}
	if strings.Contains(sqlPart, "--") || strings.Contains(sqlPart, "/*") {
		return fmt.Errorf("morm: unsafe SQL fragment %q: comments not allowed", sqlPart)
	}
	return nil
}

var (
	// table_name or schema.table_name
	identifierPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*(\.[a-zA-Z_][a-zA-Z0-9_]*)?$`)
)

const maxIdentifierLength = 128

func validateIdentifier(name string) error {
	if name == "" {
		return &InvalidIdentifierError{Name: name, Reason: "name cannot be empty"}
	}
	if len(name) > maxIdentifierLength {
		return &InvalidIdentifierError{Name: name, Reason: fmt.Sprintf("name exceeds maximum length of %d characters", maxIdentifierLength)}
	}
	if !identifierPattern.MatchString(name) {
		return &InvalidIdentifierError{Name: name, Reason: "only letters, numbers and underscores allowed, must start with a letter or underscore"}
	}
	return nil
}
