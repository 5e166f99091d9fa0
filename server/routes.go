package server

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	auth "github.com/goliatone/go-auth-audit"
	"github.com/goliatone/go-auth-audit/audit"
	goerrors "github.com/goliatone/go-errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const bearerScheme = "Bearer"

func (s *Server) routes() {
	api := s.app.Group("/api")

	user := api.Group("/user")
	user.Post("/register", s.register)
	user.Post("/login", s.login)
	user.Get("/users", s.protected(auth.RoleAdmin, s.allUsers))
	user.Get("/logs", s.logs)
	user.Get("/request-response-logs", s.requestResponseLogs)
	user.Get("/", s.users)

	api.Get("/weatherforecast", s.protected(auth.RoleAdmin, s.weatherForecast))

	if s.gatherer != nil {
		s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}
}

// protected runs h only when the bearer token carries role. The identity
// comes from the token, never from ambient state.
func (s *Server) protected(role string, h func(c *fiber.Ctx, id *auth.ClaimsIdentity) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c.Get(fiber.HeaderAuthorization))
		id, err := s.gate.Authorize(c.UserContext(), token, role)
		if err != nil {
			status := fiber.StatusUnauthorized
			if auth.DecisionOf(err) == auth.DecisionForbidden {
				status = fiber.StatusForbidden
			}
			return c.Status(status).JSON(fiber.Map{"message": "access denied"})
		}
		return h(c, id)
	}
}

func bearerToken(header string) string {
	l := len(bearerScheme)
	if len(header) > l+1 && strings.EqualFold(header[:l], bearerScheme) && header[l] == ' ' {
		return strings.TrimSpace(header[l:])
	}
	return ""
}

func (s *Server) register(c *fiber.Ctx) error {
	payload := auth.RegisterIdentity{}
	if err := c.BodyParser(&payload); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "unable to parse data").
			WithTextCode(auth.TextCodeDataParseError).
			WithCode(goerrors.CodeBadRequest)
	}

	identity, err := s.auther.Register(c.UserContext(), payload)
	if err != nil {
		return err
	}

	c.Location(fmt.Sprintf("/user/%d", identity.IdentityID))
	return c.Status(fiber.StatusCreated).JSON(identity)
}

func (s *Server) login(c *fiber.Ctx) error {
	creds := auth.Credentials{}
	if err := c.BodyParser(&creds); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "unable to parse data").
			WithTextCode(auth.TextCodeDataParseError).
			WithCode(goerrors.CodeBadRequest)
	}

	result, err := s.auther.Login(c.UserContext(), creds)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

func (s *Server) allUsers(c *fiber.Ctx, id *auth.ClaimsIdentity) error {
	s.logger.Info("Admin requested to get all users.", "user_id", id.ID())
	users, err := s.auther.Identities(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(users)
}

func (s *Server) users(c *fiber.Ctx) error {
	s.logger.Info("Request received to get all users.")
	users, err := s.auther.IdentitiesByRole(c.UserContext(), auth.RoleUser)
	if err != nil {
		return err
	}
	return c.JSON(users)
}

// LogsResponse is the body of the application log endpoint.
type LogsResponse struct {
	Level   string        `json:"level,omitempty"`
	Levels  []string      `json:"levels"`
	Entries []audit.Entry `json:"entries"`
}

func (s *Server) logs(c *fiber.Ctx) error {
	if s.appLogPath == "" {
		return goerrors.New("application log is not configured", goerrors.CategoryNotFound).
			WithCode(goerrors.CodeNotFound)
	}

	f, err := os.Open(s.appLogPath)
	if errors.Is(err, os.ErrNotExist) {
		return errLogNotFound
	}
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "open application log")
	}
	defer f.Close()

	entries, err := audit.ReadEntries(f)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "read application log")
	}

	levels := audit.Levels(entries)
	sort.Strings(levels)

	level := strings.TrimSpace(c.Query("level"))
	filtered := audit.FilterLevel(entries, level)
	if filtered == nil {
		filtered = []audit.Entry{}
	}

	return c.JSON(LogsResponse{
		Level:   level,
		Levels:  levels,
		Entries: filtered,
	})
}

func (s *Server) requestResponseLogs(c *fiber.Ctx) error {
	records, err := s.store.ReadAll(c.UserContext())
	if errors.Is(err, os.ErrNotExist) {
		return errLogNotFound
	}
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "read audit log")
	}
	if records == nil {
		records = []audit.Record{}
	}
	return c.JSON(records)
}
