package statusapi

import (
	"context"
	"net/url"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gofiber/fiber/v2"

	"github.com/travigo/capacity-assignment/pkg/util"
)

// statusClaims is the only claim the status endpoint cares about;
// validator requires a Validate method even when there is nothing
// beyond signature/issuer/audience to check.
type statusClaims struct {
	Scope string `json:"scope"`
}

func (c statusClaims) Validate(ctx context.Context) error {
	return nil
}

// ensureValidToken builds a fiber middleware that rejects any /status
// request without a valid bearer JWT for the configured Auth0 tenant.
// It is only installed when both ASSIGNMENT_AUTH0_DOMAIN and
// ASSIGNMENT_AUTH0_AUDIENCE are set; a bare-metal deployment behind its
// own network boundary can leave the endpoint open, matching how the
// coordinator already treats unset optional settings elsewhere.
func ensureValidToken(domain, audience string) (fiber.Handler, error) {
	issuerURL, err := url.Parse("https://" + domain + "/")
	if err != nil {
		return nil, err
	}

	provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)

	jwtValidator, err := validator.New(
		provider.KeyFunc,
		validator.RS256,
		issuerURL.String(),
		[]string{audience},
		validator.WithCustomClaims(
			func() validator.CustomClaims {
				return &statusClaims{}
			},
		),
		validator.WithAllowedClockSkew(time.Minute),
	)
	if err != nil {
		return nil, err
	}

	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if len(authHeader) < 8 || authHeader[:7] != "Bearer " {
			c.SendStatus(fiber.StatusUnauthorized)
			return c.JSON(fiber.Map{"error": "bearer token is required"})
		}

		if _, err := jwtValidator.ValidateToken(context.Background(), authHeader[7:]); err != nil {
			c.SendStatus(fiber.StatusUnauthorized)
			return c.JSON(fiber.Map{"error": "invalid auth token"})
		}
		return c.Next()
	}, nil
}

// optionalAuth installs ensureValidToken on app's /status route when the
// tenant is configured, and leaves the route open otherwise.
func optionalAuth(app *fiber.App) error {
	env := util.GetEnvironmentVariables()
	domain := env["ASSIGNMENT_AUTH0_DOMAIN"]
	audience := env["ASSIGNMENT_AUTH0_AUDIENCE"]
	if domain == "" || audience == "" {
		return nil
	}

	middleware, err := ensureValidToken(domain, audience)
	if err != nil {
		return err
	}
	app.Use("/status", middleware)
	return nil
}
