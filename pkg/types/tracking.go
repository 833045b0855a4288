package types

// TrackingParameters always serializes all seven keys; unknown values are null.
type TrackingParameters struct {
	Src         *string `json:"src"`
	Sck         *string `json:"sck"`
	UTMSource   *string `json:"utm_source"`
	UTMCampaign *string `json:"utm_campaign"`
	UTMMedium   *string `json:"utm_medium"`
	UTMContent  *string `json:"utm_content"`
	UTMTerm     *string `json:"utm_term"`
}

// TrackingKeys lists the query parameters read into TrackingParameters, in
// serialization order.
var TrackingKeys = []string{"src", "sck", "utm_source", "utm_campaign", "utm_medium", "utm_content", "utm_term"}

// Set assigns the value for one of TrackingKeys. Unknown keys are ignored.
func (t *TrackingParameters) Set(key string, value *string) {
	switch key {
	case "src":
		t.Src = value
	case "sck":
		t.Sck = value
	case "utm_source":
		t.UTMSource = value
	case "utm_campaign":
		t.UTMCampaign = value
	case "utm_medium":
		t.UTMMedium = value
	case "utm_content":
		t.UTMContent = value
	case "utm_term":
		t.UTMTerm = value
	}
}

// Map returns the parameters keyed by their query names.
func (t TrackingParameters) Map() map[string]*string {
	return map[string]*string{
		"src":          t.Src,
		"sck":          t.Sck,
		"utm_source":   t.UTMSource,
		"utm_campaign": t.UTMCampaign,
		"utm_medium":   t.UTMMedium,
		"utm_content":  t.UTMContent,
		"utm_term":     t.UTMTerm,
	}
}

// Empty reports whether every parameter is absent.
func (t TrackingParameters) Empty() bool {
	for _, v := range t.Map() {
		if v != nil {
			return false
		}
	}
	return true
}
