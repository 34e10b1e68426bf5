package errx

import (
	"errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"
)

// WrapStore maps gorm errors to AppError. A missing row becomes ErrConversationNotFound.
func WrapStore(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return New(fmt.Errorf("%w: %v", ErrConversationNotFound, err), http.StatusNotFound, StoreNotFoundMessage)
	}

	return New(err, http.StatusInternalServerError, StoreErrorMessage)
}
