package goAuthClient

import (
	"context"
	"errors"
	"net/http"

	"github.com/MrEthical07/goAuthClient/internal/i18n"
)

// Message renders err as user-facing copy in the configured locale. Raw
// error text never appears in the result; the one exception is the server's
// own explanation of a validation failure, which is appended.
//
// A nil or cancellation error renders as the zero Prompt.
func (c *Client) Message(err error) Prompt {
	if err == nil || errors.Is(err, context.Canceled) {
		return Prompt{}
	}
	var loc *i18n.Localizer
	if c != nil {
		loc = c.localizer
	}
	title := loc.Text(i18n.KeyErrorTitle)

	if errors.Is(err, ErrInvalidCredentials) {
		return Prompt{Title: title, Message: loc.Text(i18n.KeyErrorInvalidCreds)}
	}

	var apiErr *APIError
	errors.As(err, &apiErr)

	var key string
	switch KindOf(err) {
	case KindNetworkFailure:
		key = i18n.KeyErrorNetwork
	case KindAuthenticationExpired:
		key = i18n.KeyErrorAuthExpired
	case KindAuthenticationInvalid:
		key = i18n.KeyErrorAuthInvalid
	case KindValidation:
		msg := loc.Text(i18n.KeyErrorValidation)
		if apiErr != nil && apiErr.Message != "" && apiErr.StatusCode > 0 {
			msg += " " + apiErr.Message
		}
		return Prompt{Title: title, Message: msg}
	case KindServer:
		key = i18n.KeyErrorServer
		if apiErr != nil {
			switch apiErr.StatusCode {
			case http.StatusForbidden:
				key = i18n.KeyErrorForbidden
			case http.StatusNotFound:
				key = i18n.KeyErrorNotFound
			}
		}
	default:
		key = i18n.KeyErrorUnknown
	}
	return Prompt{Title: title, Message: loc.Text(key)}
}

// Present shows err to the user through the Prompter. Cancellations are not
// shown.
func (c *Client) Present(ctx context.Context, err error) error {
	p := c.Message(err)
	if p == (Prompt{}) {
		return nil
	}
	if !c.ready() {
		return ErrClientNotReady
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return c.prompter.Alert(ctx, p)
}
