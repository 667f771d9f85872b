package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// MainYardLabel is the wire label for central stock.
const MainYardLabel = "main-yard"

// MaterialSource says where a material request is fulfilled from: the main
// yard or a peer site. The zero value is the main yard.
type MaterialSource struct {
	siteID string
}

// MainYard returns the central-stock source.
func MainYard() MaterialSource { return MaterialSource{} }

// FromSite returns a peer-site source.
func FromSite(siteID string) MaterialSource { return MaterialSource{siteID: siteID} }

// IsMainYard reports whether the source is central stock.
func (s MaterialSource) IsMainYard() bool { return s.siteID == "" }

// SiteID returns the source site id when the source is a peer site.
func (s MaterialSource) SiteID() (string, bool) {
	if s.siteID == "" {
		return "", false
	}
	return s.siteID, true
}

func (s MaterialSource) String() string {
	if s.IsMainYard() {
		return MainYardLabel
	}
	return "site:" + s.siteID
}

type materialSourceJSON struct {
	Kind   string `json:"kind"`
	SiteID string `json:"site_id,omitempty"`
}

const (
	sourceKindMainYard = "main_yard"
	sourceKindSite     = "site"
)

// MarshalJSON encodes the source as {"kind":"main_yard"} or {"kind":"site","site_id":...}.
func (s MaterialSource) MarshalJSON() ([]byte, error) {
	if s.IsMainYard() {
		return json.Marshal(materialSourceJSON{Kind: sourceKindMainYard})
	}
	return json.Marshal(materialSourceJSON{Kind: sourceKindSite, SiteID: s.siteID})
}

// UnmarshalJSON accepts the tagged object form, and the bare "main-yard"
// string the dashboard sends.
func (s *MaterialSource) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err == nil {
		if strings.EqualFold(label, MainYardLabel) || strings.EqualFold(label, sourceKindMainYard) || label == "" {
			*s = MainYard()
			return nil
		}
		return fmt.Errorf("material source %q: use {\"kind\":\"site\",\"site_id\":...} for peer sites", label)
	}
	var raw materialSourceJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode material source: %w", err)
	}
	switch raw.Kind {
	case sourceKindMainYard:
		if raw.SiteID != "" {
			return fmt.Errorf("material source kind main_yard does not take site_id")
		}
		*s = MainYard()
	case sourceKindSite:
		if strings.TrimSpace(raw.SiteID) == "" {
			return fmt.Errorf("material source kind site requires site_id")
		}
		*s = FromSite(raw.SiteID)
	default:
		return fmt.Errorf("unknown material source kind %q", raw.Kind)
	}
	return nil
}
