package api

import (
	"github.com/gofiber/fiber/v2"

	"httpquery/internal/convert"
	"httpquery/internal/match"
	"httpquery/internal/metadata"
	"httpquery/internal/predicate"
	"httpquery/internal/query"
)

type Handler struct {
	registry   *metadata.Registry
	converters *convert.Registry
	builder    *query.Builder
	evaluator  *match.Evaluator
}

func NewHandler(reg *metadata.Registry, conv *convert.Registry, b *query.Builder, ev *match.Evaluator) *Handler {
	return &Handler{
		registry:   reg,
		converters: conv,
		builder:    b,
		evaluator:  ev,
	}
}

// Health handles GET /health
func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok", "entities": len(h.registry.AllEntities())})
}

// Rules handles GET /api/_rules
func (h *Handler) Rules(c *fiber.Ctx) error {
	ignored, aliases := h.builder.Rules()
	rules := make([]fiber.Map, len(aliases))
	for i, a := range aliases {
		rules[i] = fiber.Map{"pattern": a[0], "replacement": a[1]}
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"ignore_patterns": ignored,
		"alias_rules":     rules,
	}})
}

// Filter handles GET /api/:entity/filter
func (h *Handler) Filter(c *fiber.Ctx) error {
	entity, err := h.resolveEntity(c)
	if err != nil {
		return err
	}
	list, err := h.build(c, entity)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": list.Snapshot()})
}

type matchRequest struct {
	Records []map[string]any `json:"records"`
}

// Match handles POST /api/:entity/match. The query string is the filter and
// the body carries the records to test.
func (h *Handler) Match(c *fiber.Ctx) error {
	entity, err := h.resolveEntity(c)
	if err != nil {
		return err
	}

	var req matchRequest
	if err := c.BodyParser(&req); err != nil {
		return BadRequestError("Invalid JSON body")
	}

	list, err := h.build(c, entity)
	if err != nil {
		return err
	}
	m, err := h.evaluator.Compile(h.registry, entity.Name, list)
	if err != nil {
		return err
	}

	records := make([]map[string]any, len(req.Records))
	for i, r := range req.Records {
		records[i] = match.Normalize(h.registry, h.converters, entity.Name, r)
	}

	matched := make([]map[string]any, 0, len(records))
	for i, r := range records {
		if m.Match(r) {
			matched = append(matched, req.Records[i])
		}
	}
	return c.JSON(fiber.Map{
		"data":   matched,
		"filter": list.Snapshot(),
	})
}

func (h *Handler) build(c *fiber.Ctx, entity *metadata.Entity) (*predicate.List, error) {
	return query.BuildQuery(h.builder, entity.Name, query.FromRequest(c), predicate.NewList())
}

func (h *Handler) resolveEntity(c *fiber.Ctx) (*metadata.Entity, error) {
	name := c.Params("entity")
	entity := h.registry.GetEntity(name)
	if entity == nil {
		return nil, UnknownEntityError(name)
	}
	return entity, nil
}
