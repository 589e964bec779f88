package rpcserver

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jiisanda/pandapouch/internal/rpcservice"
	"github.com/jiisanda/pandapouch/peer"
)

type handlers struct {
	svc    *rpcservice.Service
	logger zerolog.Logger
}

func newHandlers(svc *rpcservice.Service, logger zerolog.Logger) *handlers {
	return &handlers{svc: svc, logger: logger}
}

type keyRequest struct {
	Key string `json:"key"`
}

type putRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type nodeRequest struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

func (h *handlers) get(c *fiber.Ctx) error {
	var req keyRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, invalidBody(err))
	}
	res, err := h.svc.Get(c.Context(), req.Key)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(res)
}

func (h *handlers) put(c *fiber.Ctx) error {
	var req putRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, invalidBody(err))
	}
	res, err := h.svc.Put(c.Context(), req.Key, req.Value)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(res)
}

func (h *handlers) printAll(c *fiber.Ctx) error {
	pairs := h.svc.PrintAll()
	return c.JSON(fiber.Map{"pairs": pairs})
}

func (h *handlers) joinCluster(c *fiber.Ctx) error {
	var req nodeRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, invalidBody(err))
	}
	res := h.svc.JoinCluster(peer.ID{Host: req.Host, Port: req.Port})
	return c.JSON(res)
}

func (h *handlers) leaveCluster(c *fiber.Ctx) error {
	var req nodeRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, invalidBody(err))
	}
	res := h.svc.LeaveCluster(peer.ID{Host: req.Host, Port: req.Port})
	return c.JSON(res)
}

func (h *handlers) forwardGet(c *fiber.Ctx) error {
	var req keyRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, invalidBody(err))
	}
	res, err := h.svc.ForwardGet(c.Context(), req.Key)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(res)
}

func (h *handlers) forwardPut(c *fiber.Ctx) error {
	var req putRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, invalidBody(err))
	}
	res, err := h.svc.ForwardPut(c.Context(), req.Key, req.Value)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(res)
}
