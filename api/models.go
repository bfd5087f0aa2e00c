package api

import (
	"bytes"
	"encoding/json"
	"time"
)

// Site is an energy site as served by /core/sites/.
type Site struct {
	ID                  int      `json:"id,omitempty"`
	SiteID              string   `json:"site_id"`
	Name                string   `json:"name"`
	IsNew               bool     `json:"is_new"`
	InstallationDate    *string  `json:"installation_date"`
	ActivationDate      *string  `json:"activation_date"`
	IsBilled            bool     `json:"is_billed"`
	RealTypology        *string  `json:"real_typology"`
	ContractualTypology *string  `json:"contratual_typology"`
	BillingTypology     *string  `json:"billing_typology"`
	PowerKW             *float64 `json:"power_kw"`
	BatchAktivco        *string  `json:"batch_aktivco"`
	BatchOperational    *string  `json:"batch_operational"`
	Zone                *string  `json:"zone"`
	Country             string   `json:"country"`
}

type Country struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// UnmarshalJSON accepts an embedded country or a bare country id.
func (c *Country) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] != '{' {
		if bytes.Equal(data, []byte("null")) {
			return nil
		}
		return json.Unmarshal(data, &c.ID)
	}
	type plain Country
	return json.Unmarshal(data, (*plain)(c))
}

// SiteRef is the site embedded in report rows.
type SiteRef struct {
	ID       int      `json:"id"`
	SiteID   string   `json:"site_id"`
	SiteName string   `json:"site_name,omitempty"`
	Country  *Country `json:"country,omitempty"`
}

// EnergyMonthlyStat is one country/month row of the energy mix.
type EnergyMonthlyStat struct {
	ID               string     `json:"id"`
	Country          Country    `json:"country"`
	Year             int        `json:"year"`
	Month            int        `json:"month"`
	SitesIntegrated  *int       `json:"sites_integrated,omitempty"`
	SitesMonitored   *int       `json:"sites_monitored,omitempty"`
	GridMWh          *float64   `json:"grid_mwh,omitempty"`
	SolarMWh         *float64   `json:"solar_mwh,omitempty"`
	GeneratorsMWh    *float64   `json:"generators_mwh,omitempty"`
	TelecomMWh       *float64   `json:"telecom_mwh,omitempty"`
	GridPct          *float64   `json:"grid_pct,omitempty"`
	RERPct           *float64   `json:"rer_pct,omitempty"`
	GeneratorsPct    *float64   `json:"generators_pct,omitempty"`
	AvgTelecomLoadMW *float64   `json:"avg_telecom_load_mw,omitempty"`
	SourceFilename   *string    `json:"source_filename,omitempty"`
	ImportedAt       *time.Time `json:"imported_at,omitempty"`
}

type EnergyListParams struct {
	Page     int
	PageSize int
	Year     int
	Search   string
}

type EnergyPage = Page[EnergyMonthlyStat]

// EnergyKPI holds the energy mix totals shown on the dashboard cards.
type EnergyKPI struct {
	TotalGrid  float64 `json:"total_grid"`
	TotalSolar float64 `json:"total_solar"`
	TotalGen   float64 `json:"total_gen"`
	RERAvg     float64 `json:"rer_avg"`
	LoadAvg    float64 `json:"load_avg"`
}

// EnergyPeriodStat aggregates every country for one month.
type EnergyPeriodStat struct {
	Year          int     `json:"year"`
	Month         int     `json:"month"`
	GridMWh       float64 `json:"grid_mwh"`
	SolarMWh      float64 `json:"solar_mwh"`
	GeneratorsMWh float64 `json:"generators_mwh"`
	TelecomMWh    float64 `json:"telecom_mwh"`
	RERPct        float64 `json:"rer_pct"`
}

// InvoiceSite is either a bare site id or an embedded site, depending on the
// backend serializer.
type InvoiceSite struct {
	ID     int    `json:"id"`
	SiteID string `json:"site_id,omitempty"`
	Name   string `json:"name,omitempty"`
}

func (s *InvoiceSite) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] != '{' {
		return json.Unmarshal(data, &s.ID)
	}
	type plain InvoiceSite
	return json.Unmarshal(data, (*plain)(s))
}

type Invoice struct {
	ID             int         `json:"id"`
	Site           InvoiceSite `json:"site"`
	SiteName       string      `json:"site_name,omitempty"`
	PoliceNumber   string      `json:"police_number"`
	ContractNumber string      `json:"contrat_number"`
	InvoiceNumber  string      `json:"facture_number"`
	InvoiceDate    string      `json:"date_facture"`
	DueDate        *string     `json:"date_echeance,omitempty"`
	AmountExclTax  float64     `json:"montant_ht"`
	AmountTax      *float64    `json:"montant_tva,omitempty"`
	AmountInclTax  *float64    `json:"montant_ttc,omitempty"`
	AmountEnergy   *float64    `json:"montant_energie,omitempty"`
	ConsumptionKWh *float64    `json:"consommation_kwh,omitempty"`
	Days           *int        `json:"nb_jours,omitempty"`
	Status         string      `json:"statut,omitempty"`
	Observation    string      `json:"observation,omitempty"`
	CosPhi         *float64    `json:"cos_phi,omitempty"`
	TariffType     string      `json:"type_tarif,omitempty"`
	MeterNumber    string      `json:"numero_compteur,omitempty"`
	BusinessMonth  string      `json:"mois_business,omitempty"`
	BusinessYear   *int        `json:"annee_business,omitempty"`
	CreatedAt      *time.Time  `json:"created_at,omitempty"`
}

// ImportTask identifies an asynchronous import running on the backend.
type ImportTask struct {
	TaskID string `json:"task_id"`
}

// ImportStatus is the state of an asynchronous import. Result is passed
// through untouched.
type ImportStatus struct {
	Status string          `json:"status"`
	Result json.RawMessage `json:"result,omitempty"`
}

// ImportResult is returned by the synchronous grid outage imports.
type ImportResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

// InvoiceStat is one site's invoice averages over a date range. The keys
// follow the backend's grouped query.
type InvoiceStat struct {
	SiteID         string  `json:"site__site_id"`
	SiteName       string  `json:"site__name"`
	AvgAmountExcl  float64 `json:"avg_montant_ht"`
	AvgAmountIncl  float64 `json:"avg_montant_ttc"`
	AvgConsumption float64 `json:"avg_consommation"`
	Count          int     `json:"count"`
}

type InvoiceAverages struct {
	AvgAmountIncl  float64 `json:"avg_montant_ttc"`
	AvgConsumption float64 `json:"avg_consommation_kwh"`
	AvgAmountExcl  float64 `json:"avg_montant_ht"`
}

// InvoiceSiteKPI compares a site's invoices across three periods.
type InvoiceSiteKPI struct {
	SiteID       int             `json:"site_id"`
	SiteName     string          `json:"site_name"`
	LastMonths   InvoiceAverages `json:"kpi_last_3_months"`
	CurrentYear  InvoiceAverages `json:"kpi_current_year"`
	PreviousYear InvoiceAverages `json:"kpi_previous_year"`
}

// PQReport is a power quality measurement campaign on one site.
type PQReport struct {
	ID          string  `json:"id"`
	Country     Country `json:"country"`
	Site        SiteRef `json:"site"`
	BeginPeriod string  `json:"begin_period"`
	EndPeriod   string  `json:"end_period"`
	ExtractDate *string `json:"extract_date,omitempty"`

	MonoVMinV             *float64 `json:"mono_vmin_v,omitempty"`
	MonoVAvgV             *float64 `json:"mono_vavg_v,omitempty"`
	MonoVMaxV             *float64 `json:"mono_vmax_v,omitempty"`
	MonoIMinA             *float64 `json:"mono_imin_a,omitempty"`
	MonoIAvgA             *float64 `json:"mono_iavg_a,omitempty"`
	MonoIMaxA             *float64 `json:"mono_imax_a,omitempty"`
	MonoPMinKW            *float64 `json:"mono_pmin_kw,omitempty"`
	MonoPAvgKW            *float64 `json:"mono_pavg_kw,omitempty"`
	MonoPMaxKW            *float64 `json:"mono_pmax_kw,omitempty"`
	MonoTotalEnergyKWh    *float64 `json:"mono_total_energy_kwh,omitempty"`
	MonoEnergyConsumedKWh *float64 `json:"mono_energy_consumed_kwh,omitempty"`

	TriTotalEnergyKWh      *float64 `json:"tri_total_energy_kwh,omitempty"`
	TriActiveEnergyKWh     *float64 `json:"tri_active_energy_kwh,omitempty"`
	TriReactiveEnergyKVarh *float64 `json:"tri_reactive_energy_kvarh,omitempty"`
	TriApparentEnergyKVAh  *float64 `json:"tri_apparent_energy_kvah,omitempty"`

	SourceFilename *string    `json:"source_filename,omitempty"`
	ImportedAt     *time.Time `json:"imported_at,omitempty"`
}

type PQListParams struct {
	Page     int
	PageSize int
	Query    string
	Country  string
	DateFrom time.Time
	DateTo   time.Time
}

// RectifierReading is one rectifier parameter sample.
type RectifierReading struct {
	ID             string     `json:"id"`
	Country        Country    `json:"country"`
	Site           SiteRef    `json:"site"`
	ParamName      string     `json:"param_name"`
	ParamValue     *float64   `json:"param_value"`
	Measure        *string    `json:"measure,omitempty"`
	MeasuredAt     string     `json:"measured_at"` // ISO 8601
	SourceFilename *string    `json:"source_filename,omitempty"`
	ImportedAt     *time.Time `json:"imported_at,omitempty"`
}

type RectifierListParams struct {
	Page     int
	PageSize int
	Query    string
	SiteID   string
	Country  string
	Param    string
	DateFrom time.Time
	DateTo   time.Time
}

// Installation states reported per energy source.
const (
	StatusYes          = "YES"
	StatusNo           = "NO"
	StatusNotMonitored = "NM"
	StatusNotInstalled = "NI"
	StatusNoGenerator  = "0DG"
	StatusNotConnected = "NC"
)

// SiteEnergyRow is one site's energy balance for a month.
type SiteEnergyRow struct {
	ID                    string     `json:"id"`
	Site                  SiteRef    `json:"site"`
	Year                  int        `json:"year"`
	Month                 FlexString `json:"month"`
	GridStatus            string     `json:"grid_status"`
	DGStatus              string     `json:"dg_status"`
	SolarStatus           string     `json:"solar_status"`
	GridEnergyKWh         *float64   `json:"grid_energy_kwh,omitempty"`
	SolarEnergyKWh        *float64   `json:"solar_energy_kwh,omitempty"`
	TelecomLoadKWh        *float64   `json:"telecom_load_kwh,omitempty"`
	GridEnergyPct         *float64   `json:"grid_energy_pct,omitempty"`
	RERPct                *float64   `json:"rer_pct,omitempty"`
	RouterAvailabilityPct *float64   `json:"router_availability_pct,omitempty"`
	PWMAvailabilityPct    *float64   `json:"pwm_availability_pct,omitempty"`
	PWCAvailabilityPct    *float64   `json:"pwc_availability_pct,omitempty"`
	SourceFilename        *string    `json:"source_filename,omitempty"`
	ImportedAt            *time.Time `json:"imported_at,omitempty"`
}

type SiteEnergyListParams struct {
	Page     int
	PageSize int
	Query    string
	Year     int
	Month    int
	Country  string
}

// PWMReport summarises a power meter's readings on one site over a period.
type PWMReport struct {
	ID             FlexString `json:"id"`
	Country        *Country   `json:"country"`
	Site           *SiteRef   `json:"site"`
	ReportDate     *string    `json:"report_date,omitempty"`
	PeriodStart    string     `json:"period_start"`
	PeriodEnd      string     `json:"period_end"`
	SourceFilename *string    `json:"source_filename,omitempty"`

	SiteName    *string `json:"site_name,omitempty"`
	SiteClass   *string `json:"site_class,omitempty"`
	GridStatus  *string `json:"grid_status,omitempty"`
	DGStatus    *string `json:"dg_status,omitempty"`
	SolarStatus *string `json:"solar_status,omitempty"`

	TypologyPowerW  *float64 `json:"typology_power_w,omitempty"`
	GridActPWMAvgW  *float64 `json:"grid_act_pwm_avg_w,omitempty"`
	DC1PWMAvgW      *float64 `json:"dc1_pwm_avg_w,omitempty"`
	DC2PWMAvgW      *float64 `json:"dc2_pwm_avg_w,omitempty"`
	DC3PWMAvgW      *float64 `json:"dc3_pwm_avg_w,omitempty"`
	DC4PWMAvgW      *float64 `json:"dc4_pwm_avg_w,omitempty"`
	DC5PWMAvgW      *float64 `json:"dc5_pwm_avg_w,omitempty"`
	DC6PWMAvgW      *float64 `json:"dc6_pwm_avg_w,omitempty"`
	DC7PWMAvgW      *float64 `json:"dc7_pwm_avg_w,omitempty"`
	DC8PWMAvgW      *float64 `json:"dc8_pwm_avg_w,omitempty"`
	DC9PWMAvgW      *float64 `json:"dc9_pwm_avg_w,omitempty"`
	DC10PWMAvgW     *float64 `json:"dc10_pwm_avg_w,omitempty"`
	DC11PWMAvgW     *float64 `json:"dc11_pwm_avg_w,omitempty"`
	DC12PWMAvgW     *float64 `json:"dc12_pwm_avg_w,omitempty"`
	TotalPWMMinW    *float64 `json:"total_pwm_min_w,omitempty"`
	TotalPWMAvgW    *float64 `json:"total_pwm_avg_w,omitempty"`
	TotalPWMMaxW    *float64 `json:"total_pwm_max_w,omitempty"`
	TotalPWCAvgLoad *float64 `json:"total_pwc_avg_load_w,omitempty"`

	DCPWMAvgUptimePct *float64 `json:"dc_pwm_avg_uptime_pct,omitempty"`
	PWCUptimePct      *float64 `json:"pwc_uptime_pct,omitempty"`
	RouterUptimePct   *float64 `json:"router_uptime_pct,omitempty"`

	TypologyLoadVsRealPct *float64 `json:"typology_load_vs_pwm_real_load_pct,omitempty"`
	GridAvailabilityPct   *float64 `json:"grid_availability_pct,omitempty"`
	NumberGridCuts        *int     `json:"number_grid_cuts,omitempty"`
	TotalGridCutsMinutes  *float64 `json:"total_grid_cuts_minutes,omitempty"`
}

type PWMListParams struct {
	Page     int
	PageSize int
	Query    string
	Country  string
	SiteID   string
	DateFrom time.Time
	DateTo   time.Time
}

// PWMKPI holds the totals shown above the PWM report list.
type PWMKPI struct {
	Count                  int     `json:"count"`
	TotalPWMAvgW           float64 `json:"total_pwm_avg_w"`
	TotalPWCAvgLoadW       float64 `json:"total_pwc_avg_load_w"`
	AvgGridAvailabilityPct float64 `json:"avg_grid_availability_pct"`
	AvgDCUptimePct         float64 `json:"avg_dc_uptime_pct"`
}

// PWMPeriodStat aggregates the reports whose period starts in one month.
type PWMPeriodStat struct {
	Period                 string  `json:"period"` // YYYY-MM
	Reports                int     `json:"reports"`
	TotalPWMAvgW           float64 `json:"total_pwm_avg_w"`
	AvgGridAvailabilityPct float64 `json:"avg_grid_availability_pct"`
}

// SonatelBatch is one imported Sonatel billing file.
type SonatelBatch struct {
	ID             int       `json:"id"`
	SourceFilename string    `json:"source_filename"`
	ImportedAt     time.Time `json:"imported_at"`
}

type SonatelImport struct {
	Batch       SonatelBatch `json:"batch"`
	RowsCreated int          `json:"rows_created"`
}

// SonatelInvoice is a raw utility invoice line from a Sonatel billing file.
// Amounts and indexes are decimals serialized as strings.
type SonatelInvoice struct {
	ID                int     `json:"id"`
	Batch             int     `json:"batch"`
	AccountNumber     string  `json:"numero_compte_contrat"`
	Partner           *string `json:"partenaire,omitempty"`
	Locality          *string `json:"localite,omitempty"`
	District          *string `json:"arrondissement,omitempty"`
	Street            *string `json:"rue,omitempty"`
	InvoiceNumber     string  `json:"numero_facture"`
	AccountingDate    string  `json:"date_comptable_facture"`
	AmountEnergy      *string `json:"montant_total_energie,omitempty"`
	AmountFee         *string `json:"montant_redevance,omitempty"`
	AmountTCO         *string `json:"montant_tco,omitempty"`
	AmountExclTax     *string `json:"montant_hors_tva,omitempty"`
	AmountTax         *string `json:"montant_tva,omitempty"`
	AmountInclTax     *string `json:"montant_ttc,omitempty"`
	PeriodStart       string  `json:"date_debut_periode"`
	PeriodEnd         string  `json:"date_fin_periode"`
	PreviousIndexK1   *string `json:"ancien_index_k1,omitempty"`
	PreviousIndexK2   *string `json:"ancien_index_k2,omitempty"`
	NewIndexK1        *string `json:"nouvel_index_k1,omitempty"`
	NewIndexK2        *string `json:"nouvel_index_k2,omitempty"`
	BilledConsumption *string `json:"conso_facturee,omitempty"`
	Agency            *string `json:"agence,omitempty"`
	MeterNumber       *string `json:"numero_compteur,omitempty"`
}

type SonatelRecordParams struct {
	Search   string // invoice, account or meter number
	Page     int
	PageSize int
}

// SonatelMonthly is the share of one invoice that falls in a calendar month.
type SonatelMonthly struct {
	ID            int     `json:"id"`
	Source        int     `json:"source"` // SonatelInvoice id
	Year          int     `json:"year"`
	Month         int     `json:"month"`
	DaysInMonth   int     `json:"days_in_month"`
	DaysCovered   int     `json:"days_covered"`
	Consumption   *string `json:"conso,omitempty"`
	AmountEnergy  *string `json:"montant_energie,omitempty"`
	AmountInclTax *string `json:"montant_ttc,omitempty"`
	AccountNumber string  `json:"numero_compte_contrat"`
	InvoiceNumber string  `json:"numero_facture"`
}

type SonatelMonthlyParams struct {
	Year    int
	Month   int
	Account string
	Invoice string
}
