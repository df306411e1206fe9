// Package models contains the domain types shared by the server stores,
// services and the session layer.
package models

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/socialnet/internal/common"
)

// Language is a content language preference.
type Language string

const (
	LangEN Language = "en"
	LangGR Language = "gr"
)

// DefaultLanguage is assigned to new accounts.
const DefaultLanguage = LangEN

// Languages lists every supported language in lookup order.
var Languages = []Language{LangEN, LangGR}

// ParseLanguage normalises s and validates it.
func ParseLanguage(s string) (Language, error) {
	switch l := Language(strings.ToLower(strings.TrimSpace(s))); l {
	case LangEN, LangGR:
		return l, nil
	default:
		return "", fmt.Errorf("%w: unsupported language %q", common.ErrorValidation, s)
	}
}
