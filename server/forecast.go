package server

import (
	"math/rand/v2"

	"github.com/gofiber/fiber/v2"
	auth "github.com/goliatone/go-auth-audit"
)

var summaries = []string{
	"Freezing", "Bracing", "Chilly", "Cool", "Mild", "Warm", "Balmy", "Hot", "Sweltering", "Scorching",
}

// Forecast is one day of the admin only weather resource.
type Forecast struct {
	Date         string `json:"date"`
	TemperatureC int    `json:"temperatureC"`
	TemperatureF int    `json:"temperatureF"`
	Summary      string `json:"summary"`
}

const forecastDays = 5

func (s *Server) forecasts() []Forecast {
	today := s.now()
	out := make([]Forecast, 0, forecastDays)
	for day := 1; day <= forecastDays; day++ {
		c := s.intN(75) - 20
		out = append(out, Forecast{
			Date:         today.AddDate(0, 0, day).Format("2006-01-02"),
			TemperatureC: c,
			TemperatureF: 32 + int(float64(c)/0.5556),
			Summary:      summaries[s.intN(len(summaries))],
		})
	}
	return out
}

// intN serializes access to a caller supplied source, which is not safe
// for concurrent use.
func (s *Server) intN(n int) int {
	if s.rnd == nil {
		return rand.IntN(n)
	}
	s.rndMu.Lock()
	defer s.rndMu.Unlock()
	return s.rnd.IntN(n)
}

func (s *Server) weatherForecast(c *fiber.Ctx, id *auth.ClaimsIdentity) error {
	s.logger.Debug("weather forecast requested", "user_id", id.ID())
	return c.JSON(s.forecasts())
}
