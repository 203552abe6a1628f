package state

import "encoding/json"

// SiteType classifies how a target site is built.
type SiteType string

const (
	SiteStaticHTML SiteType = "static_html"
	SiteSPA        SiteType = "spa"
	SiteAPIFirst   SiteType = "api_first"
	SiteHybrid     SiteType = "hybrid"
	SiteUnknown    SiteType = "unknown"
)

// PagePurpose classifies a discovered page's role.
type PagePurpose string

const (
	PageSearch  PagePurpose = "search"
	PageListing PagePurpose = "listing"
	PageDetail  PagePurpose = "detail"
	PageLogin   PagePurpose = "login"
	PageOther   PagePurpose = "other"
)

// PaginationType classifies how a listing page paginates.
type PaginationType string

const (
	PaginationNextLink      PaginationType = "next_link"
	PaginationURLParam      PaginationType = "url_param"
	PaginationInfiniteScroll PaginationType = "infinite_scroll"
	PaginationLoadMore      PaginationType = "load_more"
	PaginationNone          PaginationType = "none"
)

// Strategy is the suggested scraping approach for the target site.
type Strategy string

const (
	StrategyFormSearch  Strategy = "form_search"
	StrategyListing     Strategy = "listing"
	StrategyAPIDirect   Strategy = "api_direct"
	StrategyBrowserOnly Strategy = "browser_only"
)

// FormField describes one field of a discovered HTML form.
type FormField struct {
	Name     string   `json:"name"`
	Selector string   `json:"selector"`
	Type     string   `json:"type"`
	Required bool     `json:"required"`
	Options  []string `json:"options,omitempty"`
}

// Pagination describes how a listing page moves between pages of results.
// Fields beyond Type are interpreted according to Type: NextLinkSelector for
// next_link, URLParamName for url_param, the rest are unused.
type Pagination struct {
	Type           PaginationType `json:"type"`
	NextLinkSelector string       `json:"nextLinkSelector,omitempty"`
	URLParamName   string         `json:"urlParamName,omitempty"`
}

// Page describes one page the Explore phase visited.
type Page struct {
	URL          string       `json:"url"`
	Purpose      PagePurpose  `json:"purpose"`
	FormFields   []FormField  `json:"formFields,omitempty"`
	DataElements []string     `json:"dataElements,omitempty"`
	Pagination   *Pagination  `json:"pagination,omitempty"`
}

// APIEndpoint describes a network request the Explore phase intercepted.
type APIEndpoint struct {
	URL           string `json:"url"`
	Method        string `json:"method"`
	ContentType   string `json:"contentType,omitempty"`
	ResponseShape string `json:"responseShape,omitempty"`
}

// AntiBot records anti-bot defenses observed on the target site.
type AntiBot struct {
	Captcha       bool `json:"captcha"`
	Cloudflare    bool `json:"cloudflare"`
	RateLimit     bool `json:"rateLimit"`
	RequiresAuth  bool `json:"requiresAuth"`
}

// ReconReport is the internal (idiomatic-optionals) form of the structured
// site analysis produced by RECON's Synthesize phase.
type ReconReport struct {
	URL          string                   `json:"url"`
	SiteName     string                   `json:"siteName"`
	SiteType     SiteType                 `json:"siteType"`
	Pages        []Page                   `json:"pages"`
	APIEndpoints []APIEndpoint            `json:"apiEndpoints,omitempty"`
	AntiBot      AntiBot                  `json:"antiBot"`
	SampleData   []map[string]interface{} `json:"sampleData,omitempty"`
	SuggestedStrategy Strategy            `json:"suggestedStrategy"`
}

// SearchOrListingURLs returns the URLs of pages whose purpose is search or
// listing, used by the repair prompt builder to hint at navigable entry
// points.
func (r *ReconReport) SearchOrListingURLs() []string {
	if r == nil {
		return nil
	}
	var urls []string
	for _, p := range r.Pages {
		if p.Purpose == PageSearch || p.Purpose == PageListing {
			urls = append(urls, p.URL)
		}
	}
	return urls
}

// --- Wire form -------------------------------------------------------------
//
// The wire form is the strict-mode-safe rendering used for structured-output
// validation: every optional becomes nullable, and record-shaped maps that
// an external strict schema validator cannot express as "any object" are
// carried as opaque JSON strings instead.

// FormFieldWire is the wire-form FormField: Options is always present
// (possibly empty) rather than omitted.
type FormFieldWire struct {
	Name     string   `json:"name"`
	Selector string   `json:"selector"`
	Type     string   `json:"type"`
	Required bool     `json:"required"`
	Options  []string `json:"options"`
}

// PaginationWire is the wire-form Pagination: all fields always present.
type PaginationWire struct {
	Type             PaginationType `json:"type"`
	NextLinkSelector string         `json:"nextLinkSelector"`
	URLParamName     string         `json:"urlParamName"`
}

// PageWire is the wire-form Page.
type PageWire struct {
	URL          string          `json:"url"`
	Purpose      PagePurpose     `json:"purpose"`
	FormFields   []FormFieldWire `json:"formFields"`
	DataElements []string        `json:"dataElements"`
	Pagination   *PaginationWire `json:"pagination"`
}

// ReconReportWire is the strict, nullable-instead-of-optional rendering of
// ReconReport. SampleData is carried as a JSON-encoded string (rather than
// an array of free-form objects) because strict schema validators reject
// arbitrary maps.
type ReconReportWire struct {
	URL               string        `json:"url"`
	SiteName          string        `json:"siteName"`
	SiteType          SiteType      `json:"siteType"`
	Pages             []PageWire    `json:"pages"`
	APIEndpoints      []APIEndpoint `json:"apiEndpoints"`
	AntiBot           AntiBot       `json:"antiBot"`
	SampleDataJSON    string        `json:"sampleDataJson"`
	SuggestedStrategy Strategy      `json:"suggestedStrategy"`
}

// ToInternal converts a wire-form ReconReport to its internal form,
// reconstituting SampleDataJSON into parsed records and nullable fields
// into omitted ones.
func (w *ReconReportWire) ToInternal() (*ReconReport, error) {
	r := &ReconReport{
		URL:               w.URL,
		SiteName:          w.SiteName,
		SiteType:          w.SiteType,
		AntiBot:           w.AntiBot,
		SuggestedStrategy: w.SuggestedStrategy,
	}
	if len(w.APIEndpoints) > 0 {
		r.APIEndpoints = w.APIEndpoints
	}
	for _, pw := range w.Pages {
		p := Page{
			URL:     pw.URL,
			Purpose: pw.Purpose,
		}
		for _, fw := range pw.FormFields {
			ff := FormField{
				Name:     fw.Name,
				Selector: fw.Selector,
				Type:     fw.Type,
				Required: fw.Required,
			}
			if len(fw.Options) > 0 {
				ff.Options = fw.Options
			}
			p.FormFields = append(p.FormFields, ff)
		}
		if len(pw.DataElements) > 0 {
			p.DataElements = pw.DataElements
		}
		if pw.Pagination != nil && pw.Pagination.Type != "" {
			p.Pagination = &Pagination{
				Type:             pw.Pagination.Type,
				NextLinkSelector: pw.Pagination.NextLinkSelector,
				URLParamName:     pw.Pagination.URLParamName,
			}
		}
		r.Pages = append(r.Pages, p)
	}
	if w.SampleDataJSON != "" && w.SampleDataJSON != "[]" {
		var sample []map[string]interface{}
		if err := json.Unmarshal([]byte(w.SampleDataJSON), &sample); err != nil {
			return nil, err
		}
		r.SampleData = sample
	}
	return r, nil
}

// ToWire converts an internal ReconReport to its wire form. Round-tripping
// ToWire().ToInternal() is the identity up to the normalisation described
// above (nil slices become empty; absent pagination becomes a wire
// pagination of type "none", which ToInternal turns back into a Pagination
// of type "none" rather than nil).
func (r *ReconReport) ToWire() (*ReconReportWire, error) {
	w := &ReconReportWire{
		URL:               r.URL,
		SiteName:          r.SiteName,
		SiteType:          r.SiteType,
		AntiBot:           r.AntiBot,
		SuggestedStrategy: r.SuggestedStrategy,
		APIEndpoints:      []APIEndpoint{},
	}
	if r.APIEndpoints != nil {
		w.APIEndpoints = r.APIEndpoints
	}
	for _, p := range r.Pages {
		pw := PageWire{
			URL:          p.URL,
			Purpose:      p.Purpose,
			FormFields:   []FormFieldWire{},
			DataElements: []string{},
		}
		for _, ff := range p.FormFields {
			fw := FormFieldWire{
				Name:     ff.Name,
				Selector: ff.Selector,
				Type:     ff.Type,
				Required: ff.Required,
				Options:  []string{},
			}
			if ff.Options != nil {
				fw.Options = ff.Options
			}
			pw.FormFields = append(pw.FormFields, fw)
		}
		if p.DataElements != nil {
			pw.DataElements = p.DataElements
		}
		if p.Pagination != nil {
			pw.Pagination = &PaginationWire{
				Type:             p.Pagination.Type,
				NextLinkSelector: p.Pagination.NextLinkSelector,
				URLParamName:     p.Pagination.URLParamName,
			}
		} else {
			pw.Pagination = &PaginationWire{Type: PaginationNone}
		}
		w.Pages = append(w.Pages, pw)
	}
	if r.SampleData != nil {
		data, err := json.Marshal(r.SampleData)
		if err != nil {
			return nil, err
		}
		w.SampleDataJSON = string(data)
	} else {
		w.SampleDataJSON = "[]"
	}
	return w, nil
}
