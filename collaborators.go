package goAuthClient

import "context"

// Decision is the user's answer to a confirmation prompt.
type Decision int

const (
	// DecisionCancel declines the prompt. It is also the zero value, so an
	// unanswered prompt declines.
	DecisionCancel Decision = iota
	// DecisionConfirm accepts the prompt.
	DecisionConfirm
)

func (d Decision) String() string {
	if d == DecisionConfirm {
		return "confirm"
	}
	return "cancel"
}

// Prompt is localized copy shown to the user.
type Prompt struct {
	Title   string
	Message string
}

// Prompter renders modal UI. The client never owns the modal; it only asks.
//
// Confirm blocks until the user answers or ctx ends. Implementations should
// return ctx.Err() when ctx ends first.
type Prompter interface {
	Confirm(ctx context.Context, p Prompt) (Decision, error)
	Alert(ctx context.Context, p Prompt) error
}

// Navigator moves the application to a route, such as the login screen.
type Navigator interface {
	Navigate(path string)
}

// LoadingIndicator shows and hides a busy indicator around user-initiated
// session operations.
type LoadingIndicator interface {
	Show()
	Hide()
}

// PrompterFuncs adapts plain functions to Prompter. Nil fields behave like
// NoopPrompter.
type PrompterFuncs struct {
	ConfirmFunc func(ctx context.Context, p Prompt) (Decision, error)
	AlertFunc   func(ctx context.Context, p Prompt) error
}

func (f PrompterFuncs) Confirm(ctx context.Context, p Prompt) (Decision, error) {
	if f.ConfirmFunc == nil {
		return DecisionCancel, nil
	}
	return f.ConfirmFunc(ctx, p)
}

func (f PrompterFuncs) Alert(ctx context.Context, p Prompt) error {
	if f.AlertFunc == nil {
		return nil
	}
	return f.AlertFunc(ctx, p)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) {
	if f != nil {
		f(path)
	}
}

// NoopPrompter declines every confirmation and drops alerts.
type NoopPrompter struct{}

func (NoopPrompter) Confirm(context.Context, Prompt) (Decision, error) { return DecisionCancel, nil }
func (NoopPrompter) Alert(context.Context, Prompt) error               { return nil }

// NoopNavigator ignores navigation.
type NoopNavigator struct{}

func (NoopNavigator) Navigate(string) {}

// NoopLoadingIndicator ignores show and hide.
type NoopLoadingIndicator struct{}

func (NoopLoadingIndicator) Show() {}
func (NoopLoadingIndicator) Hide() {}
