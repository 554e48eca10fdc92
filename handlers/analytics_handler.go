package handlers

import (
	"context"
	"time"

	"github.com/anjiri1684/mixlab_studio/analytics"
	"github.com/anjiri1684/mixlab_studio/services"
	"github.com/gofiber/fiber/v2"
)

type AnalyticsQueries interface {
	Revenue(ctx context.Context) ([]analytics.MonthlyRevenue, error)
	StudentEngagement(ctx context.Context) (*analytics.Engagement, error)
	PopularSlots(ctx context.Context, limit int) ([]analytics.PopularSlot, error)
	Summary(ctx context.Context) (*analytics.Summary, error)
}

type AnalyticsHandler struct {
	reports AnalyticsQueries
	now     func() time.Time
}

func NewAnalyticsHandler(reports AnalyticsQueries) *AnalyticsHandler {
	return &AnalyticsHandler{reports: reports, now: time.Now}
}

func (h *AnalyticsHandler) Revenue(c *fiber.Ctx) error {
	rows, err := h.reports.Revenue(c.UserContext())
	if err != nil {
		return services.StoreError("revenue report", err)
	}
	return c.JSON(fiber.Map{"data": rows})
}

func (h *AnalyticsHandler) StudentEngagement(c *fiber.Ctx) error {
	engagement, err := h.reports.StudentEngagement(c.UserContext())
	if err != nil {
		return services.StoreError("engagement report", err)
	}
	return c.JSON(engagement)
}

func (h *AnalyticsHandler) PopularSlots(c *fiber.Ctx) error {
	rows, err := h.reports.PopularSlots(c.UserContext(), c.QueryInt("limit", 5))
	if err != nil {
		return services.StoreError("popular slots report", err)
	}
	return c.JSON(fiber.Map{"data": rows})
}

type ReportRequest struct {
	ReportType string `json:"report_type" validate:"required,oneof=summary revenue engagement"`
}

// GenerateReport builds an on-demand admin report.
func (h *AnalyticsHandler) GenerateReport(c *fiber.Ctx) error {
	var req ReportRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	ctx := c.UserContext()
	var (
		data any
		err  error
	)
	switch req.ReportType {
	case "summary":
		data, err = h.reports.Summary(ctx)
	case "revenue":
		data, err = h.reports.Revenue(ctx)
	case "engagement":
		data, err = h.reports.StudentEngagement(ctx)
	}
	if err != nil {
		return services.StoreError(req.ReportType+" report", err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":      "Report generated successfully",
		"report_type":  req.ReportType,
		"generated_at": h.now().UTC(),
		"data":         data,
	})
}
