package models

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/socialnet/internal/common"
)

// Photo describes a stored photo without its content.
type Photo struct {
	Owner    string
	Name     string
	Size     int64
	Checksum string
}

// ValidatePhotoName rejects names that are empty or could escape the owner's
// storage namespace.
func ValidatePhotoName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: empty file name", common.ErrorValidation)
	case name == "." || name == "..",
		strings.Contains(name, ".."),
		strings.ContainsAny(name, `/\`):
		return fmt.Errorf("%w: invalid file name %q", common.ErrorValidation, name)
	}
	return nil
}

// PhotoBaseName strips the last extension: "cat.jpg" -> "cat".
func PhotoBaseName(name string) string {
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		return name[:i]
	}
	return name
}
