package handlers

import "github.com/labstack/echo/v4"

// Routes bundles the handlers mounted behind authentication
type Routes struct {
	Auth      *AuthHandler
	Purchases *PurchaseHandler
	Sessions  *SessionHandler
	Reports   *ReportHandler
	Catalog   *CatalogHandler
	Dashboard *DashboardHandler
	// Admin guards catalog mutations
	Admin echo.MiddlewareFunc
}

// RegisterRoutes mounts the authenticated API and pages on g
func RegisterRoutes(g *echo.Group, r Routes) {
	if r.Auth != nil {
		g.GET("/me", r.Auth.Me)
	}
	if r.Dashboard != nil {
		g.GET("/dashboard", r.Dashboard.Dashboard)
	}

	// Ledger
	g.GET("/summary", r.Purchases.Summary)
	g.POST("/purchases", r.Purchases.CreatePurchase)
	g.GET("/purchases", r.Purchases.ListPurchases)
	g.PATCH("/purchases/:id", r.Purchases.UpdatePurchase)
	g.DELETE("/purchases/:id", r.Purchases.DeletePurchase)
	g.GET("/history/purchases", r.Purchases.PurchaseHistory)

	g.POST("/sessions", r.Sessions.CreateSession)
	g.GET("/sessions", r.Sessions.ListSessions)
	g.GET("/history/sessions", r.Sessions.ListSessions)
	g.PATCH("/sessions/:id", r.Sessions.UpdateSession)
	g.DELETE("/sessions/:id", r.Sessions.DeleteSession)

	// Reports
	g.GET("/reports/trainers", r.Reports.Trainers)
	g.GET("/reports/cost", r.Reports.Cost)
	g.GET("/reports/total-cost", r.Reports.TotalCost)
	g.GET("/reports/durations", r.Reports.Durations)
	g.GET("/reports/partners", r.Reports.Partners)
	g.GET("/reports/monthly", r.Reports.Monthly)

	// Catalog
	admin := r.Admin
	if admin == nil {
		admin = func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	g.GET("/trainers", r.Catalog.ListTrainers)
	g.POST("/trainers", r.Catalog.CreateTrainer, admin)
	g.POST("/trainers/:id/deactivate", r.Catalog.DeactivateTrainer, admin)
	g.POST("/trainers/:id/activate", r.Catalog.ActivateTrainer, admin)
	g.GET("/packages", r.Catalog.ListPackages)
	g.POST("/packages", r.Catalog.CreatePackage, admin)
	g.PATCH("/packages/:id", r.Catalog.UpdatePackage, admin)
	g.DELETE("/packages/:id", r.Catalog.DeletePackage, admin)
}
