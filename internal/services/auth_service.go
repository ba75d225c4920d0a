package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bluffpark/holidaylights/internal/config"
	"github.com/bluffpark/holidaylights/internal/utils"
	authorizer "github.com/localnerve/authorizer-go"
)

// Identity is the caller as established by the identity provider.
// It is passed explicitly into every service call that needs a user.
type Identity struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

// AuthorizerValidator validates session cookies against an Authorizer instance.
// The client is created on the first request, since the redirect URL
// depends on the request's protocol and host. A failed init is retried
// on the next request.
type AuthorizerValidator struct {
	cfg    *config.Config
	logger *slog.Logger

	mu     sync.Mutex
	client *authorizer.AuthorizerClient
}

// NewAuthorizerValidator returns an uninitialized validator
func NewAuthorizerValidator(cfg *config.Config, logger *slog.Logger) *AuthorizerValidator {
	return &AuthorizerValidator{cfg: cfg, logger: ResolveLogger(logger)}
}

// Initialized returns true if the Authorizer client is initialized
func (v *AuthorizerValidator) Initialized() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.client != nil
}

// Init creates the Authorizer client if it does not exist yet
func (v *AuthorizerValidator) Init(requestProtocol, requestHost string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.client != nil {
		return nil
	}

	// Ping the Authorizer service first
	if err := utils.PingAuthorizer(context.Background(), v.cfg.AuthzURL); err != nil {
		v.logger.Warn("authorizer unreachable",
			"event", "authorizer_init_failed",
			"module", logModule,
			"authorizer_url", v.cfg.AuthzURL,
			"error", err.Error(),
		)
		return fmt.Errorf("authorizer ping failed: %w", err)
	}

	redirectURL := fmt.Sprintf("%s://%s", requestProtocol, requestHost)
	v.logger.Info("initializing authorizer",
		"event", "authorizer_init",
		"module", logModule,
		"authorizer_url", v.cfg.AuthzURL,
		"client_id", v.cfg.AuthzClientID,
		"redirect_url", redirectURL,
	)

	client, err := authorizer.NewAuthorizerClient(v.cfg.AuthzClientID, v.cfg.AuthzURL, redirectURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create authorizer client: %w", err)
	}
	v.client = client
	return nil
}

// ValidateSession validates a session cookie for the given roles
func (v *AuthorizerValidator) ValidateSession(cookie string, roles []string) (Identity, error) {
	v.mu.Lock()
	client := v.client
	v.mu.Unlock()
	if client == nil {
		return Identity{}, fmt.Errorf("authorizer client not initialized")
	}

	// Convert roles to []*string
	rolesPtrs := make([]*string, len(roles))
	for i := range roles {
		rolesPtrs[i] = &roles[i]
	}

	res, err := client.ValidateSession(&authorizer.ValidateSessionInput{
		Cookie: cookie,
		Roles:  rolesPtrs,
	})
	if err != nil {
		return Identity{}, fmt.Errorf("session validation failed: %w", err)
	}
	if res == nil || !res.IsValid {
		return Identity{}, fmt.Errorf("session is not valid")
	}

	return identityFromUser(res.User)
}

// identityFromUser reads the fields we need from the SDK's user through its JSON form
func identityFromUser(user any) (Identity, error) {
	raw, err := json.Marshal(user)
	if err != nil {
		return Identity{}, fmt.Errorf("invalid user data format: %w", err)
	}
	var u struct {
		ID         string  `json:"id"`
		Email      string  `json:"email"`
		GivenName  *string `json:"given_name"`
		FamilyName *string `json:"family_name"`
	}
	if err := json.Unmarshal(raw, &u); err != nil {
		return Identity{}, fmt.Errorf("invalid user data format: %w", err)
	}
	if u.ID == "" {
		return Identity{}, fmt.Errorf("user ID not found")
	}

	identity := Identity{ID: u.ID, Email: u.Email}
	if u.GivenName != nil {
		identity.FirstName = *u.GivenName
	}
	if u.FamilyName != nil {
		identity.LastName = *u.FamilyName
	}
	return identity, nil
}
