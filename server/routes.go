package server

import (
	"net/http"

	"github.com/jrsteele09/enertrack-console/users"
)

func (s *Server) initRoutes() {
	auth := s.RequireAuth()
	admin := s.RequireRole(users.AdminRoles...)

	// AUTH
	s.apiRoute("POST", RouteAuthLogin, s.LoginHandler())
	s.apiRoute("POST", RouteAuthRefresh, s.RefreshHandler())
	s.apiRoute("POST", RouteAuthRevoke, s.RevokeHandler(), auth)

	// SITES
	s.apiRoute("GET", RouteSites, s.ListSitesHandler(), auth, s.CompressionMiddleware)
	s.apiRoute("POST", RouteSites, s.CreateSiteHandler(), auth, admin)
	s.apiRoute("GET", RouteSite, s.GetSiteHandler(), auth)
	s.apiRoute("PUT", RouteSite, s.UpdateSiteHandler(), auth, admin)
	s.apiRoute("DELETE", RouteSite, s.DeleteSiteHandler(), auth, admin)
	s.apiRoute("POST", RouteSitesImport, s.ImportSitesHandler(), auth, admin)

	// ENERGY
	s.apiRoute("GET", RouteEnergy, s.ListEnergyHandler(), auth, s.CompressionMiddleware)
	s.apiRoute("DELETE", RouteEnergyStat, s.DeleteEnergyHandler(), auth, admin)
	s.apiRoute("POST", RouteEnergyImport, s.ImportEnergyHandler(), auth, admin)
	s.apiRoute("GET", RouteEnergyKPI, s.EnergyKPIHandler(), auth)
	s.apiRoute("GET", RouteEnergyStats, s.EnergyStatsHandler(), auth)

	// SITE ENERGY
	s.apiRoute("GET", RouteSiteEnergy, s.ListSiteEnergyHandler(), auth, s.CompressionMiddleware)
	s.apiRoute("POST", RouteSiteEnergyImport, s.ImportSiteEnergyHandler(), auth, admin)

	// POWER QUALITY
	s.apiRoute("GET", RoutePQ, s.ListPQHandler(), auth, s.CompressionMiddleware)
	s.apiRoute("POST", RoutePQImport, s.ImportPQHandler(), auth, admin)

	// RECTIFIERS
	s.apiRoute("GET", RouteRectifiers, s.ListRectifiersHandler(), auth, s.CompressionMiddleware)
	s.apiRoute("POST", RouteRectifiersImport, s.ImportRectifiersHandler(), auth, admin)

	// PWM
	s.apiRoute("GET", RoutePWM, s.ListPWMHandler(), auth, s.CompressionMiddleware)
	s.apiRoute("DELETE", RoutePWMReport, s.DeletePWMHandler(), auth, admin)
	s.apiRoute("POST", RoutePWMImport, s.ImportPWMHandler(), auth, admin)
	s.apiRoute("GET", RoutePWMKPI, s.PWMKPIHandler(), auth)
	s.apiRoute("GET", RoutePWMStats, s.PWMStatsHandler(), auth)

	// INVOICES
	s.apiRoute("GET", RouteInvoicesBetween, s.InvoicesBetweenHandler(), auth, s.CompressionMiddleware)
	s.apiRoute("POST", RouteInvoicesImport, s.ImportInvoicesHandler(), auth, admin)
	s.apiRoute("POST", RouteInvoicesImportAsync, s.ImportInvoicesAsyncHandler(), auth, admin)
	s.apiRoute("GET", RouteInvoicesImportStatus, s.ImportStatusHandler(), auth)
	s.apiRoute("GET", RouteInvoicesStats, s.InvoiceStatsHandler(), auth)
	s.apiRoute("GET", RouteInvoicesKPI, s.InvoicesKPIHandler(), auth)

	// SONATEL BILLING
	s.apiRoute("POST", RouteSonatelImport, s.ImportSonatelHandler(), auth, admin)
	s.apiRoute("GET", RouteSonatelBatches, s.ListSonatelBatchesHandler(), auth)
	s.apiRoute("GET", RouteSonatelRecords, s.ListSonatelRecordsHandler(), auth, s.CompressionMiddleware)
	s.apiRoute("GET", RouteSonatelMonthly, s.ListSonatelMonthlyHandler(), auth)

	// GRID OUTAGES
	s.apiRoute("POST", RouteGridOutageDailyImport, s.ImportGridOutageDailyHandler(), auth, admin)
	s.apiRoute("POST", RouteGridOutageAlarmsImport, s.ImportGridOutageAlarmsHandler(), auth, admin)

	// CORS preflight for every API route
	s.RegisterRouteHandler("OPTIONS "+s.prefix+"/", ChainMiddleware(s.PreflightHandler(), s.CorsMiddleware))
}

// apiRoute registers an API handler under the server prefix with the standard
// middleware chain followed by mw.
func (s *Server) apiRoute(method, route string, handler http.HandlerFunc, mw ...func(http.HandlerFunc) http.HandlerFunc) {
	s.RegisterRouteHandler(method+" "+s.prefix+route, ChainMiddleware(handler, s.APIMiddleware(route, mw...)...))
}

func (s *Server) PreflightHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}
}
