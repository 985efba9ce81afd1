package mlapi

// Payload is a free-form JSON object sent to the marketplace API.
type Payload = map[string]any

type Picture struct {
	ID     string `json:"id,omitempty"`
	Source string `json:"source,omitempty"`
}

type Attribute struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name,omitempty"`
	ValueID     string `json:"value_id,omitempty"`
	ValueName   string `json:"value_name,omitempty"`
	ValueStruct any    `json:"value_struct,omitempty"`
	Values      any    `json:"values,omitempty"`
}

type SaleTerm struct {
	ID        string `json:"id"`
	ValueID   string `json:"value_id,omitempty"`
	ValueName string `json:"value_name,omitempty"`
}

type Variation struct {
	ID                int64       `json:"id"`
	Price             float64     `json:"price,omitempty"`
	AvailableQuantity int         `json:"available_quantity,omitempty"`
	SellerCustomField string      `json:"seller_custom_field,omitempty"`
	Attributes        []Attribute `json:"attributes,omitempty"`
	PictureIDs        []string    `json:"picture_ids,omitempty"`
}

// Item is the last-known snapshot of a listing, carried inside bulk-edit
// payloads so the orchestrator can merge without re-fetching. Shipping is
// kept loose: it is copied wholesale and only dimensions/local_pick_up are
// ever touched.
type Item struct {
	ID                string         `json:"id"`
	Title             string         `json:"title"`
	Status            string         `json:"status"`
	Price             float64        `json:"price"`
	AvailableQuantity int            `json:"available_quantity"`
	CategoryID        string         `json:"category_id"`
	ListingTypeID     string         `json:"listing_type_id"`
	SellerCustomField string         `json:"seller_custom_field"`
	InjectedSKU       string         `json:"_correct_sku_from_search,omitempty"`
	Variations        []Variation    `json:"variations"`
	Pictures          []Picture      `json:"pictures"`
	Attributes        []Attribute    `json:"attributes"`
	SaleTerms         []SaleTerm     `json:"sale_terms"`
	Shipping          map[string]any `json:"shipping"`
}

func (i *Item) HasVariations() bool {
	return i != nil && len(i.Variations) > 0
}
