package services

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/socialnet/internal/common"
)

var (
	ErrNoDescription   = fmt.Errorf("%w: at least one description is required", common.ErrorValidation)
	ErrEmptyFileName   = fmt.Errorf("%w: file name cannot be empty", common.ErrorValidation)
	ErrInvalidFileName = fmt.Errorf("%w: invalid file name", common.ErrorValidation)
	ErrInvalidSize     = fmt.Errorf("%w: invalid file size", common.ErrorValidation)
	ErrFileTooLarge    = fmt.Errorf("%w: file too large", common.ErrorValidation)
	ErrInvalidChoice   = fmt.Errorf("%w: invalid choice", common.ErrorValidation)

	ErrPhotoNotFound    = fmt.Errorf("photo %w", common.ErrorNotFound)
	ErrProfileNotFound  = fmt.Errorf("profile %w", common.ErrorNotFound)
	ErrNoPendingRequest = fmt.Errorf("pending request %w", common.ErrorNotFound)

	ErrNotFollowingAnyone = errors.New("not following any users")
)
