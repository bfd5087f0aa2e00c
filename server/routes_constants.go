package server

// Route path constants
// All backend routes are defined here to keep them in step with the api client
const (
	// Auth
	RouteAuthLogin   = "/auth/login/"
	RouteAuthRefresh = "/auth/refresh/"
	RouteAuthRevoke  = "/auth/revoke/"

	// Sites
	RouteSites       = "/core/sites/"
	RouteSite        = "/core/sites/{id}/"
	RouteSitesImport = "/core/import/"

	// Energy
	RouteEnergy       = "/energy/"
	RouteEnergyStat   = "/energy/{id}/"
	RouteEnergyImport = "/energy/import/"
	RouteEnergyKPI    = "/energy/kpi-stats/"
	RouteEnergyStats  = "/energy/stats/"

	// Site energy
	RouteSiteEnergy       = "/site-energy/"
	RouteSiteEnergyImport = "/site-energy/import/"

	// Power quality
	RoutePQ       = "/pq/"
	RoutePQImport = "/pq/import/"

	// Rectifiers
	RouteRectifiers       = "/rectifiers/"
	RouteRectifiersImport = "/rectifiers/import/"

	// PWM reports
	RoutePWM       = "/pwm/"
	RoutePWMReport = "/pwm/{id}/"
	RoutePWMImport = "/pwm/import/"
	RoutePWMKPI    = "/pwm/kpi-stats/"
	RoutePWMStats  = "/pwm/stats/"

	// Invoices
	RouteInvoicesBetween      = "/invoices/between/"
	RouteInvoicesImport       = "/invoices/import/"
	RouteInvoicesImportAsync  = "/invoices/import_async/"
	RouteInvoicesImportStatus = "/invoices/import-status/{id}/"
	RouteInvoicesStats        = "/invoices/stats/"
	RouteInvoicesKPI          = "/invoices/kpi-stats/"

	// Sonatel billing
	RouteSonatelImport  = "/sonatel-billing/batches/import/"
	RouteSonatelBatches = "/sonatel-billing/batches/"
	RouteSonatelRecords = "/sonatel-billing/records/"
	RouteSonatelMonthly = "/sonatel-billing/monthly/"

	// Grid outages
	RouteGridOutageDailyImport  = "/grid-outages/daily/import/"
	RouteGridOutageAlarmsImport = "/grid-outages/alarms/import/"

	// Operations
	RouteMetrics = "/metrics"
)
