package flows

import "context"

// Service is the centralized flow runner built once by the root client.
type Service struct {
	deps Deps
}

// New returns a flow service with immutable dependency wiring.
func New(deps Deps) Service {
	return Service{deps: deps}
}

// Initialized reports whether the service has been wired with flow deps.
func (s Service) Initialized() bool {
	return s.deps.Login.Submit != nil && s.deps.Refresh.Submit != nil
}

func (s Service) Login(ctx context.Context, identifier, password string) (Grant, error) {
	return RunLogin(ctx, identifier, password, s.deps.Login)
}

func (s Service) Logout(ctx context.Context) error {
	return RunLogout(ctx, s.deps.Logout)
}

func (s Service) Refresh(ctx context.Context) error {
	return RunRefresh(ctx, s.deps.Refresh)
}

func (s Service) CheckAuth(ctx context.Context) bool {
	return RunCheckAuth(ctx, s.deps.CheckAuth)
}

func (s Service) ExpiryPrompt(ctx context.Context) ExpiryOutcome {
	return RunExpiryPrompt(ctx, s.deps.Expiry)
}
