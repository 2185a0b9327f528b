// Package statusapi exposes the running coordinator's per-iteration
// diagnostics over HTTP, for dashboards that poll a long assignment run
// instead of tailing its logs.
package statusapi

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/liip/sheriff"

	"github.com/travigo/capacity-assignment/pkg/assignment"
)

// statusResponse mirrors assignment.Diagnostics with sheriff group tags,
// so an admin-only expansion (per-destination breakdowns, say) can be
// added later behind a "detailed" group without changing the default
// "basic" payload every client already depends on.
type statusResponse struct {
	IterationsRun        int     `json:"iterationsRun" groups:"basic"`
	Converged            bool    `json:"converged" groups:"basic"`
	Unfinished           int     `json:"unfinished" groups:"basic"`
	Overloaded           int     `json:"overloaded" groups:"basic"`
	MaxRelativeOverload  float64 `json:"maxRelativeOverload" groups:"basic"`
	MaxRelativeDiff      float64 `json:"maxRelativeDiff" groups:"basic"`
	Unassigned           int     `json:"unassigned" groups:"basic"`
	DirectWalking        int     `json:"directWalking" groups:"basic"`
	RemovedCycles        int     `json:"removedCycles" groups:"basic"`
}

// Source is the dependency the status endpoint reads from on every
// request; Coordinator satisfies it directly.
type Source interface {
	CurrentDiagnostics() assignment.Diagnostics
}

// Server wraps the fiber app and the coordinator it reports on.
type Server struct {
	app    *fiber.App
	source Source
}

// New builds a Server reporting on source. Call Listen to start serving.
// /status is protected by ensureValidToken when an Auth0 tenant is
// configured in the environment; otherwise it is left open.
func New(source Source) (*Server, error) {
	app := fiber.New()
	s := &Server{app: app, source: source}

	if err := optionalAuth(app); err != nil {
		return nil, fmt.Errorf("statusapi: configuring auth: %w", err)
	}

	app.Get("/status", s.getStatus)
	app.Get("/health", s.getHealth)

	return s, nil
}

func (s *Server) Listen(address string) error {
	return s.app.Listen(address)
}

func (s *Server) getStatus(c *fiber.Ctx) error {
	d := s.source.CurrentDiagnostics()
	response := statusResponse{
		IterationsRun:        d.IterationsRun,
		Converged:            d.Converged,
		Unfinished:           d.Unfinished,
		Overloaded:           d.Overloaded,
		MaxRelativeOverload:  d.MaxRelativeOverload,
		MaxRelativeDiff:      d.MaxRelativeDiff,
		Unassigned:           d.Unassigned,
		DirectWalking:        d.DirectWalking,
		RemovedCycles:        d.RemovedCycles,
	}

	reduced, err := sheriff.Marshal(&sheriff.Options{Groups: []string{"basic"}}, response)
	if err != nil {
		c.SendStatus(fiber.StatusInternalServerError)
		return c.JSON(fiber.Map{"error": "could not reduce status response"})
	}

	return c.JSON(reduced)
}

func (s *Server) getHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}
