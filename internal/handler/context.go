package handler

import (
	"github.com/labstack/echo/v4"

	"taskdesk/internal/errors"
	"taskdesk/internal/model"
)

// AccountContextKey is where the auth middleware stores the resolved *model.Account.
const AccountContextKey = "account"

// CurrentAccount returns the account resolved for this request.
func CurrentAccount(c echo.Context) (*model.Account, error) {
	account, ok := c.Get(AccountContextKey).(*model.Account)
	if !ok || account == nil {
		return nil, errors.ErrInvalidToken
	}
	return account, nil
}

// APIResponse is the generic success envelope.
type APIResponse struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

// bindAndValidate decodes the request into req and runs the registered validator.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return errors.Validation("invalid request")
	}
	if err := c.Validate(req); err != nil {
		return err
	}
	return nil
}
