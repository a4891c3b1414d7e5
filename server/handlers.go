package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/etnz/invoicing"
	"github.com/etnz/invoicing/renderer"
	"github.com/gin-gonic/gin"
)

// TotalsRequest is the body of POST /api/v1/totals.
type TotalsRequest struct {
	Items []invoicing.LineItem `json:"items"`
	Tax   invoicing.TaxPolicy  `json:"tax"` // configured policy if absent, else flat
}

// TotalsResponse is the result of POST /api/v1/totals.
type TotalsResponse struct {
	Items  []invoicing.NormalizedLineItem `json:"items"`
	Tax    invoicing.TaxPolicy            `json:"tax"`
	Totals invoicing.DocumentTotals       `json:"totals"`
}

// PagesRequest is the body of POST /api/v1/pages.
type PagesRequest struct {
	Items  []invoicing.LineItem `json:"items"`
	Layout invoicing.Layout     `json:"layout"` // configured layout if absent
}

// PagesResponse is the result of POST /api/v1/pages.
type PagesResponse struct {
	Layout   invoicing.Layout           `json:"layout"`
	Pages    []invoicing.PageDescriptor `json:"pages"`
	Overflow int                        `json:"overflow"`
}

// health handles GET /health
func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "invoicing",
	})
}

// totals handles POST /api/v1/totals
func (s *Server) totals(c *gin.Context) {
	var req TotalsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	policy := req.Tax
	if policy.IsZero() {
		policy = s.taxPolicy(invoicing.Invoice)
	}
	items, totals := invoicing.Totals(req.Items, policy)
	s.metrics.items.Observe(float64(len(items)))

	c.JSON(http.StatusOK, TotalsResponse{Items: items, Tax: policy, Totals: totals})
}

// pages handles POST /api/v1/pages
func (s *Server) pages(c *gin.Context) {
	var req PagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	layout := req.Layout
	if layout.IsZero() {
		layout = s.config.Layout
	}
	items := invoicing.NormalizeItems(req.Items)
	pages := layout.Plan(items)
	s.metrics.items.Observe(float64(len(items)))
	s.metrics.pages.Observe(float64(len(pages)))

	c.JSON(http.StatusOK, PagesResponse{Layout: layout, Pages: pages, Overflow: layout.Overflow(len(items))})
}

// preview handles POST /api/v1/preview
//
// The layout can be overridden with the capacities and maxPages query
// parameters. With format=markdown the preview is returned as markdown text.
func (s *Server) preview(c *gin.Context) {
	layout, err := queryLayout(c, s.config.Layout)
	if err != nil {
		badRequest(c, err)
		return
	}
	var doc invoicing.Document
	if err := c.ShouldBindJSON(&doc); err != nil {
		badRequest(c, err)
		return
	}
	if doc.Tax.IsZero() {
		doc.Tax = s.taxPolicy(doc.Kind)
	}
	p := invoicing.Compute(doc, layout)
	s.metrics.items.Observe(float64(len(p.Items)))
	s.metrics.pages.Observe(float64(len(p.Pages)))

	switch c.Query("format") {
	case "", "json":
		c.JSON(http.StatusOK, p)
	case "markdown", "md":
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(renderer.RenderPreview(&p)))
	default:
		badRequest(c, fmt.Errorf("unknown format %q, want json or markdown", c.Query("format")))
	}
}

// queryLayout reads the layout from the capacities and maxPages query
// parameters, each one defaulting to fallback.
func queryLayout(c *gin.Context, fallback invoicing.Layout) (invoicing.Layout, error) {
	caps, hasCaps := c.GetQuery("capacities")
	maxPages, hasMax := c.GetQuery("maxPages")
	if !hasCaps && !hasMax {
		return fallback, nil
	}

	capacities := fallback.Capacities()
	if hasCaps {
		var err error
		if capacities, err = invoicing.ParseCapacities(caps); err != nil {
			return invoicing.Layout{}, err
		}
	}
	limit := fallback.MaxPages()
	if hasMax {
		v, err := strconv.Atoi(maxPages)
		if err != nil {
			return invoicing.Layout{}, fmt.Errorf("%w: %q is not an integer", invoicing.ErrInvalidMaxPages, maxPages)
		}
		limit = v
	}
	return invoicing.NewLayout(limit, capacities.Values()...)
}

func badRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
