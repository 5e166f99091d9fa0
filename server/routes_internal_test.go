package server

import (
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{header: "Bearer abc.def.ghi", want: "abc.def.ghi"},
		{header: "bearer abc", want: "abc"},
		{header: "Bearer    padded  ", want: "padded"},
		{header: "Bearer", want: ""},
		{header: "Bearer ", want: ""},
		{header: "Basic dXNlcjp1c2Vy", want: ""},
		{header: "Bearerabc", want: ""},
		{header: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.want, bearerToken(tt.header))
		})
	}
}

func TestForecasts(t *testing.T) {
	now := time.Date(2024, 2, 27, 12, 0, 0, 0, time.UTC)
	s := &Server{
		now: func() time.Time { return now },
		rnd: rand.New(rand.NewPCG(7, 7)),
	}

	got := s.forecasts()
	assert.Len(t, got, forecastDays)
	assert.Equal(t, "2024-02-28", got[0].Date)
	assert.Equal(t, "2024-03-03", got[4].Date)
	for _, f := range got {
		assert.Contains(t, summaries, f.Summary)
		assert.Equal(t, 32+int(float64(f.TemperatureC)/0.5556), f.TemperatureF)
	}
}

func TestForecasts_Concurrent(t *testing.T) {
	tests := []struct {
		name string
		rnd  *rand.Rand
	}{
		{name: "default source"},
		{name: "shared custom source", rnd: rand.New(rand.NewPCG(3, 4))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Server{now: time.Now, rnd: tt.rnd}

			var wg sync.WaitGroup
			for i := 0; i < 16; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for j := 0; j < 200; j++ {
						got := s.forecasts()
						if len(got) != forecastDays {
							t.Errorf("got %d forecasts", len(got))
							return
						}
						for _, f := range got {
							if f.TemperatureC < -20 || f.TemperatureC > 54 {
								t.Errorf("temperature out of range: %d", f.TemperatureC)
								return
							}
						}
					}
				}()
			}
			wg.Wait()
		})
	}
}
