package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gofiber/adaptor/v2"
	fiber "github.com/gofiber/fiber/v2"
	"github.com/hashicorp/go-hclog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ironsheep/imagefit/internal/imaging"
	"github.com/ironsheep/imagefit/internal/preset"
	"github.com/ironsheep/imagefit/internal/render"
)

// Config configures the HTTP front end.
type Config struct {
	// Prefix is the path the image route is mounted under, e.g. "/image".
	Prefix string

	// ExpireSeconds is added to the current time for the Expires header and
	// used as the Cache-Control max-age.
	ExpireSeconds int

	Renderer *render.Renderer

	// Gatherer is exposed on /metrics when set.
	Gatherer prometheus.Gatherer

	Logger  hclog.Logger
	Version string

	now func() time.Time
}

type handler struct {
	renderer *render.Renderer
	expire   time.Duration
	logger   hclog.Logger
	now      func() time.Time
}

// New builds the fiber application serving rendered images.
func New(cfg Config) *fiber.App {
	if cfg.Logger == nil {
		cfg.Logger = hclog.NewNullLogger()
	}
	if cfg.now == nil {
		cfg.now = time.Now
	}
	prefix := "/" + strings.Trim(cfg.Prefix, "/")
	if prefix == "/" {
		prefix = ""
	}

	logger := cfg.Logger.Named("http")
	h := &handler{
		renderer: cfg.Renderer,
		expire:   time.Duration(cfg.ExpireSeconds) * time.Second,
		logger:   logger,
		now:      cfg.now,
	}

	app := fiber.New(fiber.Config{
		AppName:               fmt.Sprintf("imagefit %s", cfg.Version),
		ServerHeader:          "imagefit",
		CaseSensitive:         true,
		UnescapePath:          true,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(logger),
	})

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "version": cfg.Version})
	})
	if cfg.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}
	app.Get(prefix+"/*", h.serveImage)

	return app
}

func (h *handler) serveImage(c *fiber.Ctx) error {
	route, ok := ParseRoute("/" + c.Params("*"))
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "Not Found")
	}

	rend, err := h.renderer.Render(route.Root, route.Path, route.Spec)
	if err != nil {
		return renderError(err)
	}

	h.logger.Debug("served", "path", route.Path, "spec", route.Spec, "root", route.Root,
		"cached", rend.Cached, "bytes", len(rend.Data))

	c.Set(fiber.HeaderContentType, contentType(rend))
	c.Set(fiber.HeaderLastModified, rend.ModTime.UTC().Format(http.TimeFormat))
	c.Set(fiber.HeaderExpires, h.now().Add(h.expire).UTC().Format(http.TimeFormat))
	c.Set(fiber.HeaderCacheControl, fmt.Sprintf("public, max-age=%d", int(h.expire.Seconds())))

	if c.Fresh() {
		return c.SendStatus(fiber.StatusNotModified)
	}
	return c.Send(rend.Data)
}

// contentType sniffs the encoded bytes and falls back to the type of the
// requested output format.
func contentType(rend *render.Rendition) string {
	mt := mimetype.Detect(rend.Data)
	if mt.Is("application/octet-stream") && rend.ContentType != "" {
		return rend.ContentType
	}
	return mt.String()
}

// renderError maps renderer errors onto HTTP statuses.
func renderError(err error) error {
	switch {
	case errors.Is(err, render.ErrNotFound), errors.Is(err, render.ErrInvalidSpec):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, preset.ErrDegenerate),
		errors.Is(err, preset.ErrConflictingModes),
		errors.Is(err, imaging.ErrInvalidFill):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	default:
		return err
	}
}

func errorHandler(logger hclog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		msg := "Internal Server Error"

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			msg = fe.Message
		}

		if code >= fiber.StatusInternalServerError {
			logger.Error("request failed", "path", c.Path(), "error", err)
		} else {
			logger.Debug("request rejected", "path", c.Path(), "status", code, "error", err)
		}

		c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
		return c.Status(code).SendString(msg)
	}
}
