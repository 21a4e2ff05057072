// Package settings holds the single application settings document: company
// profile, list fields, clients and vendors, and the saved custom reports.
package settings

import (
	"maps"
	"slices"
	"strings"

	"stockroom/internal/core/apperror"
	"stockroom/internal/core/i18n"
	"stockroom/internal/core/id"
	"stockroom/internal/domain/reports"
)

// Company is the profile printed on documents.
type Company struct {
	Name     string `json:"name"`
	Phone    string `json:"phone,omitempty"`
	Address  string `json:"address,omitempty"`
	Currency string `json:"currency,omitempty"`
	Locale   string `json:"locale,omitempty"`
	Logo     string `json:"logo,omitempty"`
}

// Party is a client or vendor.
type Party struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

// Settings is the persisted settings document.
//
// ClientNames and VendorNames mirror the structured lists for readers that
// only know the older name arrays.
type Settings struct {
	Company          Company                      `json:"company"`
	Units            []string                     `json:"units"`
	Categories       []string                     `json:"categories"`
	PaymentMethods   []string                     `json:"paymentMethods"`
	Clients          []Party                      `json:"clients"`
	Vendors          []Party                      `json:"vendors"`
	ClientNames      []string                     `json:"clientNames"`
	VendorNames      []string                     `json:"vendorNames"`
	CustomReports    []reports.CustomReportConfig `json:"customReports"`
	ReportPlacements map[string]string            `json:"reportPlacements"`
}

// Defaults returns the settings of a fresh installation.
func Defaults() Settings {
	return Settings{
		Company:          Company{Name: "Stockroom", Currency: "USD", Locale: i18n.LocaleEN},
		Units:            []string{"piece", "box", "kg"},
		Categories:       []string{},
		PaymentMethods:   []string{"cash", "credit"},
		Clients:          []Party{},
		Vendors:          []Party{},
		ClientNames:      []string{},
		VendorNames:      []string{},
		CustomReports:    []reports.CustomReportConfig{},
		ReportPlacements: map[string]string{},
	}
}

// Clone returns a deep copy.
func (s Settings) Clone() Settings {
	s.Units = slices.Clone(s.Units)
	s.Categories = slices.Clone(s.Categories)
	s.PaymentMethods = slices.Clone(s.PaymentMethods)
	s.Clients = slices.Clone(s.Clients)
	s.Vendors = slices.Clone(s.Vendors)
	s.ClientNames = slices.Clone(s.ClientNames)
	s.VendorNames = slices.Clone(s.VendorNames)
	s.ReportPlacements = maps.Clone(s.ReportPlacements)
	if s.CustomReports != nil {
		out := make([]reports.CustomReportConfig, len(s.CustomReports))
		for i, r := range s.CustomReports {
			out[i] = r.Clone()
		}
		s.CustomReports = out
	}
	return s
}

// upgrade fills structured client/vendor entries from name arrays written
// by older versions.
func (s *Settings) upgrade() {
	s.Clients = addNamedParties(s.Clients, s.ClientNames)
	s.Vendors = addNamedParties(s.Vendors, s.VendorNames)
}

func addNamedParties(parties []Party, names []string) []Party {
	known := make(map[string]bool, len(parties))
	for _, p := range parties {
		known[strings.ToLower(p.Name)] = true
	}
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || known[strings.ToLower(name)] {
			continue
		}
		known[strings.ToLower(name)] = true
		parties = append(parties, Party{ID: id.NewString(), Name: name})
	}
	return parties
}

// normalize tidies list fields, assigns party ids and rebuilds the name
// mirrors. Placements of reports that no longer exist are dropped.
func (s *Settings) normalize() {
	s.Units = cleanList(s.Units)
	s.Categories = cleanList(s.Categories)
	s.PaymentMethods = cleanList(s.PaymentMethods)

	s.Clients = cleanParties(s.Clients)
	s.Vendors = cleanParties(s.Vendors)
	s.ClientNames = partyNames(s.Clients)
	s.VendorNames = partyNames(s.Vendors)

	if s.CustomReports == nil {
		s.CustomReports = []reports.CustomReportConfig{}
	}
	if s.ReportPlacements == nil {
		s.ReportPlacements = map[string]string{}
	}
	maps.DeleteFunc(s.ReportPlacements, func(reportID, _ string) bool {
		return !slices.ContainsFunc(s.CustomReports, func(r reports.CustomReportConfig) bool {
			return r.ID == reportID
		})
	})
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" || seen[strings.ToLower(v)] {
			continue
		}
		seen[strings.ToLower(v)] = true
		out = append(out, v)
	}
	return out
}

func cleanParties(in []Party) []Party {
	out := make([]Party, 0, len(in))
	for _, p := range in {
		p.Name = strings.TrimSpace(p.Name)
		if p.Name == "" {
			continue
		}
		if p.ID == "" {
			p.ID = id.NewString()
		}
		out = append(out, p)
	}
	return out
}

func partyNames(parties []Party) []string {
	names := make([]string, len(parties))
	for i, p := range parties {
		names[i] = p.Name
	}
	return names
}

// Validate checks the editable fields.
func (s *Settings) Validate() error {
	if strings.TrimSpace(s.Company.Name) == "" {
		return apperror.NewValidation("company name is required").WithDetail("field", "company.name")
	}
	return nil
}

// Report returns the saved report with reportID.
func (s *Settings) Report(reportID string) (reports.CustomReportConfig, bool) {
	i := slices.IndexFunc(s.CustomReports, func(r reports.CustomReportConfig) bool { return r.ID == reportID })
	if i < 0 {
		return reports.CustomReportConfig{}, false
	}
	return s.CustomReports[i], true
}
