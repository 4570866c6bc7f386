package identity

import "errors"

var (
	ErrTokenNotFound = errors.New("token not found to verify")
	ErrTokenInvalid  = errors.New("unauthorized token")
)

type errResponse struct {
	Message string `json:"message"`
}

func newErrorResponse(err error) any {
	return errResponse{
		Message: err.Error(),
	}
}
