package server

import (
	"fmt"
	"strconv"

	"github.com/jrsteele09/enertrack-console/api"
	"github.com/jrsteele09/enertrack-console/users"
	"github.com/rs/zerolog/log"
)

const (
	DefaultAdminUsername  = "admin"
	DefaultViewerUsername = "viewer"
	DefaultViewerCountry  = "Senegal"
)

// InitialiseSystem seeds the users from config and a small demo data set.
func (s *Server) InitialiseSystem() error {
	if err := s.seedUser(DefaultAdminUsername, s.config.GetAdminPassword(), users.RoleAdmin, ""); err != nil {
		return fmt.Errorf("[Server InitialiseSystem] failed to seed admin: %w", err)
	}
	if err := s.seedUser(DefaultViewerUsername, s.config.GetViewerPassword(), users.RoleViewer, DefaultViewerCountry); err != nil {
		return fmt.Errorf("[Server InitialiseSystem] failed to seed viewer: %w", err)
	}
	s.seedDemoData()
	return nil
}

// seedUser creates username unless it already exists.
func (s *Server) seedUser(username, password string, role users.RoleType, country string) error {
	if existing, err := s.users.GetByUsername(username); err == nil && existing != nil {
		log.Debug().Str("username", username).Msg("user already exists")
		return nil
	}

	u, err := users.New(username, password, role, country)
	if err != nil {
		return err
	}
	if err := s.users.Upsert(u); err != nil {
		return err
	}

	if s.env == "DEV" {
		log.Info().Str("username", username).Str("role", string(role)).Str("pays", country).Msg("seeded user")
	}
	return nil
}

func (s *Server) seedDemoData() {
	strPtr := func(v string) *string { return &v }
	floatPtr := func(v float64) *float64 { return &v }
	intPtr := func(v int) *int { return &v }

	for _, site := range []api.Site{
		{SiteID: "SN-DKR-001", Name: "Dakar Plateau", IsBilled: true, RealTypology: strPtr("grid"), PowerKW: floatPtr(12.5), Zone: strPtr("Dakar"), Country: "Senegal"},
		{SiteID: "SN-THS-014", Name: "Thies Nord", IsNew: true, RealTypology: strPtr("hybrid"), PowerKW: floatPtr(8), Zone: strPtr("Thies"), Country: "Senegal"},
		{SiteID: "ML-BKO-003", Name: "Bamako Centre", IsBilled: true, RealTypology: strPtr("solar"), PowerKW: floatPtr(15), Zone: strPtr("Bamako"), Country: "Mali"},
	} {
		s.data.upsertSite(site)
	}

	for _, country := range []string{"Senegal", "Mali"} {
		for month := 1; month <= 3; month++ {
			s.data.upsertEnergy(api.EnergyMonthlyStat{
				Country:         api.Country{Name: country},
				Year:            2025,
				Month:           month,
				SitesIntegrated: intPtr(100 + month),
				SitesMonitored:  intPtr(95 + month),
				GridMWh:         floatPtr(410.5),
				SolarMWh:        floatPtr(120.25),
				GeneratorsMWh:   floatPtr(60),
				TelecomMWh:      floatPtr(590.75),
				GridPct:         floatPtr(69.5),
				RERPct:          floatPtr(20.4),
				GeneratorsPct:   floatPtr(10.1),
			})
		}
	}

	s.seedReports()

	for _, inv := range []api.Invoice{
		{Site: api.InvoiceSite{ID: 1}, SiteName: "Dakar Plateau", PoliceNumber: "P-1001", ContractNumber: "C-501", InvoiceNumber: "F-2025-0001", InvoiceDate: "2025-01-31", AmountExclTax: 1250000, AmountInclTax: floatPtr(1475000), ConsumptionKWh: floatPtr(9800), Status: "paid"},
		{Site: api.InvoiceSite{ID: 1}, SiteName: "Dakar Plateau", PoliceNumber: "P-1001", ContractNumber: "C-501", InvoiceNumber: "F-2025-0002", InvoiceDate: "2025-02-28", AmountExclTax: 1190000, AmountInclTax: floatPtr(1404200), ConsumptionKWh: floatPtr(9200), Status: "pending"},
		{Site: api.InvoiceSite{ID: 3}, SiteName: "Bamako Centre", PoliceNumber: "P-3003", ContractNumber: "C-777", InvoiceNumber: "F-2025-0100", InvoiceDate: "2025-03-15", AmountExclTax: 830000, Status: "pending"},
	} {
		s.data.upsertInvoice(inv)
	}
}

// seedReports adds a few rows of each report kind on the demo sites.
func (s *Server) seedReports() {
	floatPtr := func(v float64) *float64 { return &v }
	strPtr := func(v string) *string { return &v }
	source := "seed.csv"

	dakar, ok := s.data.siteRef("SN-DKR-001")
	if !ok {
		return
	}
	bamako, ok := s.data.siteRef("ML-BKO-003")
	if !ok {
		return
	}

	for _, p := range []api.PQReport{
		{Country: *dakar.Country, Site: dakar, BeginPeriod: "2025-05-01", EndPeriod: "2025-05-07", MonoVMinV: floatPtr(198.2), MonoVAvgV: floatPtr(229.6), MonoVMaxV: floatPtr(247.1), MonoTotalEnergyKWh: floatPtr(412.8)},
		{Country: *bamako.Country, Site: bamako, BeginPeriod: "2025-05-03", EndPeriod: "2025-05-10", MonoVMinV: floatPtr(187.5), MonoVAvgV: floatPtr(221.3), MonoVMaxV: floatPtr(251.4), TriTotalEnergyKWh: floatPtr(690.1)},
	} {
		key := p.Site.SiteID + "/" + p.BeginPeriod + "/" + p.EndPeriod
		p.ID = rowID("pq", key)
		p.SourceFilename = &source
		s.data.pq.upsert(key, func(int) api.PQReport { return p })
	}

	for i, v := range []float64{53.4, 53.1, 0, 52.9} {
		r := api.RectifierReading{
			Country:    *dakar.Country,
			Site:       dakar,
			ParamName:  "output_voltage",
			ParamValue: floatPtr(v),
			Measure:    strPtr("V"),
			MeasuredAt: fmt.Sprintf("2025-05-%02dT08:00:00Z", i+1),
		}
		key := r.Site.SiteID + "/" + r.ParamName + "/" + r.MeasuredAt
		r.ID = rowID("rectifier", key)
		r.SourceFilename = &source
		s.data.rectifiers.upsert(key, func(int) api.RectifierReading { return r })
	}

	for _, e := range []api.SiteEnergyRow{
		{Site: dakar, Year: 2025, Month: "4", GridStatus: api.StatusYes, DGStatus: api.StatusNo, SolarStatus: api.StatusYes, GridEnergyKWh: floatPtr(3120), SolarEnergyKWh: floatPtr(880), RERPct: floatPtr(22), RouterAvailabilityPct: floatPtr(99.2), PWMAvailabilityPct: floatPtr(97.5), PWCAvailabilityPct: floatPtr(98.1)},
		{Site: bamako, Year: 2025, Month: "4", GridStatus: api.StatusNotConnected, DGStatus: api.StatusYes, SolarStatus: api.StatusYes, SolarEnergyKWh: floatPtr(2410), RERPct: floatPtr(64.3), RouterAvailabilityPct: floatPtr(96.4), PWMAvailabilityPct: floatPtr(93), PWCAvailabilityPct: floatPtr(95.8)},
	} {
		key := e.Site.SiteID + "/" + strconv.Itoa(e.Year) + "/" + e.Month.String()
		e.ID = rowID("site-energy", key)
		e.SourceFilename = &source
		s.data.siteEnergy.upsert(key, func(int) api.SiteEnergyRow { return e })
	}

	for _, p := range []api.PWMReport{
		{Country: dakar.Country, Site: &dakar, PeriodStart: "2025-04-01", PeriodEnd: "2025-04-30", TotalPWMAvgW: floatPtr(1840), TotalPWCAvgLoad: floatPtr(1510), GridAvailabilityPct: floatPtr(91.5), DCPWMAvgUptimePct: floatPtr(99.1)},
		{Country: bamako.Country, Site: &bamako, PeriodStart: "2025-04-01", PeriodEnd: "2025-04-30", TotalPWMAvgW: floatPtr(2210), TotalPWCAvgLoad: floatPtr(1730), GridAvailabilityPct: floatPtr(78.2), DCPWMAvgUptimePct: floatPtr(97.4)},
	} {
		key := p.Site.SiteID + "/" + p.PeriodStart + "/" + p.PeriodEnd
		p.ID = api.FlexString(rowID("pwm", key))
		p.SiteName = &p.Site.SiteName
		p.SourceFilename = &source
		s.data.pwm.upsert(key, func(int) api.PWMReport { return p })
	}
}
