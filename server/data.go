package server

import (
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jrsteele09/enertrack-console/api"
)

// dataStore holds the mock backend's domain data in memory.
type dataStore struct {
	mu sync.RWMutex

	nextSiteID int
	sites      map[int]*api.Site

	energy    map[string]*api.EnergyMonthlyStat // by id
	energyKey map[string]string                 // country/year/month to id
	countries map[string]int                    // country name to id

	nextInvoiceID int
	invoices      map[string]*api.Invoice // by invoice number

	outages map[string]map[string]struct{} // kind to row keys

	tasks map[string]*api.ImportStatus

	pq             *table[api.PQReport]
	rectifiers     *table[api.RectifierReading]
	siteEnergy     *table[api.SiteEnergyRow]
	pwm            *table[api.PWMReport]
	sonatelBatches *table[api.SonatelBatch]
	sonatelRecords *table[api.SonatelInvoice]
}

func newDataStore() *dataStore {
	return &dataStore{
		nextSiteID:    1,
		sites:         make(map[int]*api.Site),
		energy:        make(map[string]*api.EnergyMonthlyStat),
		energyKey:     make(map[string]string),
		countries:     make(map[string]int),
		nextInvoiceID: 1,
		invoices:      make(map[string]*api.Invoice),
		outages:       make(map[string]map[string]struct{}),
		tasks:         make(map[string]*api.ImportStatus),

		pq:             newTable[api.PQReport](),
		rectifiers:     newTable[api.RectifierReading](),
		siteEnergy:     newTable[api.SiteEnergyRow](),
		pwm:            newTable[api.PWMReport](),
		sonatelBatches: newTable[api.SonatelBatch](),
		sonatelRecords: newTable[api.SonatelInvoice](),
	}
}

func sameCountry(scope, country string) bool {
	return scope == "" || strings.EqualFold(scope, country)
}

// listSites returns the sites visible to a user scoped to country, ordered by id.
func (d *dataStore) listSites(country string) []api.Site {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]api.Site, 0, len(d.sites))
	for _, s := range d.sites {
		if sameCountry(country, s.Country) {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (d *dataStore) getSite(id int) (api.Site, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	s, ok := d.sites[id]
	if !ok {
		return api.Site{}, false
	}
	return *s, true
}

func (d *dataStore) createSite(site api.Site) api.Site {
	d.mu.Lock()
	defer d.mu.Unlock()

	site.ID = d.nextSiteID
	d.nextSiteID++
	d.sites[site.ID] = &site
	return site
}

func (d *dataStore) updateSite(id int, site api.Site) (api.Site, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.sites[id]; !ok {
		return api.Site{}, false
	}
	site.ID = id
	d.sites[id] = &site
	return site, true
}

func (d *dataStore) deleteSite(id int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.sites[id]; !ok {
		return false
	}
	delete(d.sites, id)
	return true
}

// upsertSite matches on the business site id and reports whether it created a site.
func (d *dataStore) upsertSite(site api.Site) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	for id, existing := range d.sites {
		if strings.EqualFold(existing.SiteID, site.SiteID) {
			site.ID = id
			d.sites[id] = &site
			return false
		}
	}
	site.ID = d.nextSiteID
	d.nextSiteID++
	d.sites[site.ID] = &site
	return true
}

// listEnergy returns stats newest first, filtered by year, by a search term
// matched against the country name, and by the caller's country scope.
func (d *dataStore) listEnergy(year int, search, country string) []api.EnergyMonthlyStat {
	d.mu.RLock()
	defer d.mu.RUnlock()

	search = strings.ToLower(strings.TrimSpace(search))
	out := make([]api.EnergyMonthlyStat, 0, len(d.energy))
	for _, e := range d.energy {
		if year != 0 && e.Year != year {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(e.Country.Name), search) {
			continue
		}
		if !sameCountry(country, e.Country.Name) {
			continue
		}
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year > out[j].Year
		}
		if out[i].Month != out[j].Month {
			return out[i].Month > out[j].Month
		}
		return out[i].Country.Name < out[j].Country.Name
	})
	return out
}

// countryIDLocked returns the id of a country, numbering new ones in order of
// first use.
func (d *dataStore) countryIDLocked(name string) int {
	id, ok := d.countries[strings.ToLower(name)]
	if !ok {
		id = len(d.countries) + 1
		d.countries[strings.ToLower(name)] = id
	}
	return id
}

func (d *dataStore) country(name string) api.Country {
	d.mu.Lock()
	defer d.mu.Unlock()
	return api.Country{ID: d.countryIDLocked(name), Name: name}
}

// siteRef resolves a business site id to the reference embedded in report rows.
func (d *dataStore) siteRef(siteID string) (api.SiteRef, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, s := range d.sites {
		if !strings.EqualFold(s.SiteID, siteID) {
			continue
		}
		ref := api.SiteRef{ID: s.ID, SiteID: s.SiteID, SiteName: s.Name}
		if s.Country != "" {
			ref.Country = &api.Country{ID: d.countryIDLocked(s.Country), Name: s.Country}
		}
		return ref, true
	}
	return api.SiteRef{}, false
}

func energyKey(country string, year, month int) string {
	return strings.ToLower(country) + "/" + itoa(year) + "/" + itoa(month)
}

func (d *dataStore) upsertEnergy(stat api.EnergyMonthlyStat) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	stat.Country.ID = d.countryIDLocked(stat.Country.Name)

	key := energyKey(stat.Country.Name, stat.Year, stat.Month)
	if id, ok := d.energyKey[key]; ok {
		stat.ID = id
		d.energy[id] = &stat
		return false
	}
	stat.ID = uuid.New().String()
	d.energy[stat.ID] = &stat
	d.energyKey[key] = stat.ID
	return true
}

func (d *dataStore) deleteEnergy(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	e, ok := d.energy[id]
	if !ok {
		return false
	}
	delete(d.energyKey, energyKey(e.Country.Name, e.Year, e.Month))
	delete(d.energy, id)
	return true
}

// invoicesBetween returns invoices dated within [start, end]. Dates are
// YYYY-MM-DD strings so they compare lexically; empty bounds are open.
func (d *dataStore) invoicesBetween(start, end string) []api.Invoice {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]api.Invoice, 0, len(d.invoices))
	for _, inv := range d.invoices {
		if start != "" && inv.InvoiceDate < start {
			continue
		}
		if end != "" && inv.InvoiceDate > end {
			continue
		}
		out = append(out, *inv)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].InvoiceDate != out[j].InvoiceDate {
			return out[i].InvoiceDate < out[j].InvoiceDate
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (d *dataStore) upsertInvoice(inv api.Invoice) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if existing, ok := d.invoices[inv.InvoiceNumber]; ok {
		inv.ID = existing.ID
		d.invoices[inv.InvoiceNumber] = &inv
		return false
	}
	inv.ID = d.nextInvoiceID
	d.nextInvoiceID++
	d.invoices[inv.InvoiceNumber] = &inv
	return true
}

func (d *dataStore) upsertOutage(kind, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	rows, ok := d.outages[kind]
	if !ok {
		rows = make(map[string]struct{})
		d.outages[kind] = rows
	}
	if _, exists := rows[key]; exists {
		return false
	}
	rows[key] = struct{}{}
	return true
}

func (d *dataStore) setTask(id string, status api.ImportStatus) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tasks[id] = &status
}

func (d *dataStore) getTask(id string) (api.ImportStatus, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	t, ok := d.tasks[id]
	if !ok {
		return api.ImportStatus{}, false
	}
	return *t, true
}
