// Pulselog - Usage Event Analytics and Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulselog

// Package seed generates plausible usage sessions and submits them
// through the regular ingestion pipeline. Useful for demos and for
// exercising the reporting engine against a populated log.
package seed

import (
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/goccy/go-json"

	"github.com/tomtom215/pulselog/internal/models"
)

// Config controls the generated workload.
type Config struct {
	// Sessions is how many sessions to submit.
	Sessions int

	// Users is the size of the identified-user pool.
	Users int

	// AnonymousPercent of sessions carry no user_id (0-100).
	AnonymousPercent int

	// TimeSpread places client timestamps across this window ending
	// now. Zero stamps everything at generation time.
	TimeSpread time.Duration

	// PerSecond paces submissions; zero submits as fast as possible.
	PerSecond float64

	// Seed makes the workload reproducible; zero derives one from the
	// clock.
	Seed int64
}

// Validate checks the workload bounds.
func (c Config) Validate() error {
	if c.Sessions < 1 {
		return fmt.Errorf("session count must be at least 1, got %d", c.Sessions)
	}
	if c.Users < 1 {
		return fmt.Errorf("user pool must be at least 1, got %d", c.Users)
	}
	if c.AnonymousPercent < 0 || c.AnonymousPercent > 100 {
		return fmt.Errorf("anonymous percent must be 0-100, got %d", c.AnonymousPercent)
	}
	if c.PerSecond < 0 {
		return fmt.Errorf("pace must be non-negative, got %v", c.PerSecond)
	}
	return nil
}

// Generator produces submit requests resembling real client traffic:
// every session opens the app, most adjust inputs and calculate, some
// share.
type Generator struct {
	cfg   Config
	faker *gofakeit.Faker
	users []string
	base  time.Time
}

// NewGenerator seeds the fake data source and builds the user pool.
func NewGenerator(cfg Config) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	faker := gofakeit.New(seed)

	users := make([]string, cfg.Users)
	for i := range users {
		users[i] = faker.Username()
	}

	return &Generator{
		cfg:   cfg,
		faker: faker,
		users: users,
		base:  time.Now().UTC(),
	}, nil
}

// Request builds the index-th submit request. Indexes spread session
// timestamps oldest to newest across the configured window with jitter,
// the way organic traffic arrives.
func (g *Generator) Request(index int) (models.SubmitRequest, error) {
	sessionTime := g.sessionTime(index)
	events := g.sessionEvents(sessionTime)

	raw, err := json.Marshal(events)
	if err != nil {
		return models.SubmitRequest{}, fmt.Errorf("marshal events: %w", err)
	}

	req := models.SubmitRequest{
		SessionID: g.faker.UUID(),
		Events:    raw,
	}
	if g.faker.Number(1, 100) > g.cfg.AnonymousPercent {
		req.UserID = models.FlexString(g.users[g.faker.Number(0, len(g.users)-1)])
	}
	return req, nil
}

func (g *Generator) sessionTime(index int) time.Time {
	if g.cfg.TimeSpread <= 0 {
		return g.base
	}

	interval := float64(g.cfg.TimeSpread) / float64(g.cfg.Sessions)
	offset := float64(index)*interval + g.faker.Float64Range(-0.4, 0.4)*interval
	if offset < 0 {
		offset = 0
	}
	if offset > float64(g.cfg.TimeSpread) {
		offset = float64(g.cfg.TimeSpread)
	}
	return g.base.Add(-g.cfg.TimeSpread + time.Duration(offset))
}

func (g *Generator) sessionEvents(start time.Time) []models.EventInput {
	events := []models.EventInput{
		g.event(models.EventAppOpened, nil, start),
	}
	cursor := start

	sliders := g.faker.Number(0, 8)
	calculations := g.faker.Number(0, 6)
	for i := 0; i < sliders; i++ {
		cursor = cursor.Add(time.Duration(g.faker.Number(1, 20)) * time.Second)
		events = append(events, g.event(models.EventSliderChanged, map[string]any{
			"control": g.sliderControl(),
		}, cursor))
	}
	for i := 0; i < calculations; i++ {
		cursor = cursor.Add(time.Duration(g.faker.Number(2, 40)) * time.Second)
		events = append(events, g.event(models.EventCalculationPerformed, map[string]any{
			models.PropertyPrice: g.faker.Price(50000, 900000),
			models.PropertyRate:  g.faker.Float64Range(2.0, 8.0),
		}, cursor))
	}

	// Sharing only makes sense after at least one calculation.
	if calculations > 0 && g.faker.Number(1, 100) <= 20 {
		cursor = cursor.Add(time.Duration(g.faker.Number(1, 30)) * time.Second)
		events = append(events, g.event(models.EventShareClicked, nil, cursor))
	}
	return events
}

func (g *Generator) event(name string, props map[string]any, at time.Time) models.EventInput {
	return models.EventInput{
		EventName:  name,
		Properties: props,
		Timestamp:  models.FlexString(at.Format(time.RFC3339)),
	}
}

func (g *Generator) sliderControl() string {
	controls := []string{"price", "rate", "term", "deposit"}
	return controls[g.faker.Number(0, len(controls)-1)]
}
