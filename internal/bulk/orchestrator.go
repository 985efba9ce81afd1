package bulk

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/melitools/melisync/internal/mlapi"
	"github.com/melitools/melisync/internal/model"
	"github.com/melitools/melisync/internal/pricing"
	"github.com/melitools/melisync/pkg/utils"
	"github.com/microcosm-cc/bluemonday"
)

const maxPictures = 12

// attribute ids and value ids the marketplace expects verbatim
const (
	condAttrID      = "ITEM_CONDITION"
	condNewValueID  = "2230284"
	pkgTypeAttrID   = "SELLER_PACKAGE_TYPE"
	pkgTypeValueID  = "47115155"
	mfgTimeTermID   = "MANUFACTURING_TIME"
	saleTermKeepSet = "WARRANTY_TYPE,WARRANTY_TIME,INVOICE"
)

// Marketplace is the subset of listing write operations the orchestrator
// issues.
type Marketplace interface {
	UpdateItem(ctx context.Context, token, itemID string, payload mlapi.Payload) error
	UpdateSellerSKU(ctx context.Context, token, itemID, sku string) error
	UpdateCompatibilities(ctx context.Context, token, itemID string, compatibilities []map[string]any) error
	UpdateCompatibilityPositions(ctx context.Context, token, itemID string, position string) error
}

// StockResolver resolves the sellable quantity behind a SKU. ok is false
// when the SKU is unknown or the quantity is ambiguous.
type StockResolver interface {
	AvailableStock(ctx context.Context, sku string) (float64, bool, error)
}

// PriceCalculator turns a SKU into a recalculated sale price.
type PriceCalculator interface {
	Recalculate(ctx context.Context, sku string) (float64, []string, error)
}

// FixedPriceLookup reports a per-SKU price override.
type FixedPriceLookup interface {
	FixedPrice(sku string) (float64, bool)
}

// ProfileLoader resolves a compatibility profile name to its product
// family entries.
type ProfileLoader interface {
	LoadProfile(name string) ([]map[string]any, error)
}

// HistoryRecorder remembers which items were touched.
type HistoryRecorder interface {
	Record(itemID, nickname, note string)
}

// AccountStore resolves account credentials and shipping configuration.
type AccountStore interface {
	GetAccount(nickname string) (*model.Account, error)
}

type Orchestrator struct {
	Marketplace Marketplace
	Stock       StockResolver
	Prices      PriceCalculator
	Fixed       FixedPriceLookup
	Profiles    ProfileLoader
	History     HistoryRecorder
	Accounts    AccountStore

	sanitizer *bluemonday.Policy
}

func NewOrchestrator(mp Marketplace, stock StockResolver, prices PriceCalculator, fixed FixedPriceLookup, profiles ProfileLoader, history HistoryRecorder, accounts AccountStore) *Orchestrator {
	return &Orchestrator{
		Marketplace: mp,
		Stock:       stock,
		Prices:      prices,
		Fixed:       fixed,
		Profiles:    profiles,
		History:     history,
		Accounts:    accounts,
		sanitizer:   bluemonday.StrictPolicy(),
	}
}

// run collects the state of one Execute pass.
type run struct {
	payload     mlapi.Payload
	varPayloads map[int64]mlapi.Payload
	varIDs      []int64
	log         []string
}

func (r *run) logf(format string, args ...any) {
	r.log = append(r.log, fmt.Sprintf(format, args...))
}

// varPayload returns the per-variation payload for id, creating it on
// first use and keeping varIDs in insertion order.
func (r *run) varPayload(id int64) mlapi.Payload {
	if p, ok := r.varPayloads[id]; ok {
		return p
	}
	p := mlapi.Payload{"id": id}
	r.varPayloads[id] = p
	r.varIDs = append(r.varIDs, id)
	return p
}

// setAll places a field at item level when the listing has no variations,
// otherwise replicates it into every variation payload.
func (r *run) setAll(original *mlapi.Item, field string, value any) {
	if !original.HasVariations() {
		r.payload[field] = value
		return
	}
	for _, v := range original.Variations {
		r.varPayload(v.ID)[field] = value
	}
}

func (r *run) shipping() map[string]any {
	if s, ok := r.payload["shipping"].(map[string]any); ok {
		return s
	}
	s := map[string]any{}
	r.payload["shipping"] = s
	return s
}

// Execute merges the requested actions against the listing snapshot and
// issues the marketplace writes. It returns overall success and an
// ordered log of per-field outcomes. A failed price recalculation or
// stock lookup drops that field and keeps going; a failed write fails
// the run.
func (o *Orchestrator) Execute(ctx context.Context, itemID string, actions *ActionSet, nickname string, original *mlapi.Item) (bool, []string) {
	r := &run{payload: mlapi.Payload{}, varPayloads: map[int64]mlapi.Payload{}}
	if original == nil {
		original = &mlapi.Item{ID: itemID}
	}
	sku := SKUFromItem(original)

	account, err := o.Accounts.GetAccount(nickname)
	if err != nil || account == nil {
		r.logf("account %q not found", nickname)
		return false, r.log
	}

	priceDirective, havePrice := o.resolvePrice(ctx, r, actions, sku)
	qty, haveQty := o.resolveQuantity(ctx, r, actions, sku)

	if havePrice {
		r.setAll(original, "price", pricing.Round2(priceDirective))
		r.logf("price set to %.2f", priceDirective)
	}
	if haveQty {
		r.setAll(original, "available_quantity", qty)
		r.logf("available_quantity set to %d", qty)
	}

	if o.mergeMainPicture(r, actions, original) {
		if _, ok := actions.Get("pictures"); ok {
			r.logf("pictures directive dropped, main picture takes precedence")
		}
	} else {
		o.mergePictures(r, actions, original)
	}

	if d, ok := actions.Get("title"); ok {
		if title, ok := d.Text(); ok && title != "" {
			r.payload["title"] = title
			r.logf("title updated")
		}
	}
	if d, ok := actions.Get("status"); ok {
		if status, ok := d.Text(); ok && status != "" {
			r.payload["status"] = status
			r.logf("status set to %s", status)
		}
	}

	o.mergeManufacturingTime(r, actions, original)
	o.mergeAttributes(r, actions, original)

	if d, ok := actions.Get("description"); ok {
		if html, ok := d.Text(); ok {
			plain := strings.TrimSpace(o.sanitizer.Sanitize(html))
			r.payload["description"] = map[string]any{"plain_text": plain}
			r.logf("description updated")
		}
	}

	if d, ok := actions.Get("local_pickup"); ok {
		if v, ok := d.Bool(); ok {
			r.shipping()["local_pick_up"] = v
			r.logf("local_pick_up set to %v", v)
		}
	}
	if d, ok := actions.Get("free_shipping"); ok {
		if v, ok := d.Bool(); ok {
			r.shipping()["free_shipping"] = v
			r.logf("free_shipping set to %v", v)
		}
	}

	o.mergeDimensions(r, actions, account)

	overall := true
	if wrote := o.writeMainPayload(ctx, r, account.AccessToken, itemID, nickname); !wrote {
		overall = false
	}

	// follow-up calls run only when everything so far succeeded, and a
	// failure stops the rest of the chain
	if overall {
		overall = o.runFollowUps(ctx, r, actions, account.AccessToken, itemID, nickname)
	}
	return overall, r.log
}

// resolvePrice applies the override chain: a fixed price configured for
// the SKU is written on every edit whether or not a price was requested,
// a recalculate directive is evaluated through the rule engine, and a
// plain manual value passes through.
func (o *Orchestrator) resolvePrice(ctx context.Context, r *run, actions *ActionSet, sku string) (float64, bool) {
	if sku != "" {
		if fixed, ok := o.Fixed.FixedPrice(sku); ok {
			r.logf("fixed price %.2f applied for sku %s", fixed, sku)
			return fixed, true
		}
	}
	d, requested := actions.Get("price")
	if !requested {
		return 0, false
	}

	switch d.Source {
	case SourceRecalculate:
		if sku == "" {
			r.logf("price recalculation skipped: no sku on listing")
			return 0, false
		}
		price, details, err := o.Prices.Recalculate(ctx, sku)
		if err != nil {
			r.logf("price recalculation failed for sku %s: %v", sku, err)
			return 0, false
		}
		r.log = append(r.log, details...)
		return price, true
	default:
		if v, ok := d.Float64(); ok && v > 0 {
			return v, true
		}
		r.logf("price directive had no usable value")
		return 0, false
	}
}

// resolveQuantity turns a quantity directive into a concrete integer,
// consulting the ERP when the source asks for it. Negative stock clamps
// to zero.
func (o *Orchestrator) resolveQuantity(ctx context.Context, r *run, actions *ActionSet, sku string) (int, bool) {
	d, ok := actions.Get("available_quantity")
	if !ok {
		return 0, false
	}
	if d.Source == SourceERPStock {
		if sku == "" {
			r.logf("stock lookup skipped: no sku on listing")
			return 0, false
		}
		stock, found, err := o.Stock.AvailableStock(ctx, sku)
		if err != nil {
			r.logf("stock lookup failed for sku %s: %v", sku, err)
			return 0, false
		}
		if !found {
			r.logf("stock for sku %s unavailable or ambiguous, quantity unchanged", sku)
			return 0, false
		}
		if stock < 0 {
			stock = 0
		}
		return int(stock), true
	}
	if v, ok := d.Int(); ok && v >= 0 {
		return v, true
	}
	r.logf("quantity directive had no usable value")
	return 0, false
}

// mergeMainPicture reports whether a prepend was written; a written
// prepend supersedes any pictures directive in the same action set.
func (o *Orchestrator) mergeMainPicture(r *run, actions *ActionSet, original *mlapi.Item) bool {
	d, ok := actions.Get("main_picture")
	if !ok {
		return false
	}
	source, ok := d.Text()
	if !ok || source == "" {
		r.logf("main picture directive had no usable value")
		return false
	}
	pics := []mlapi.Picture{{Source: source}}
	for _, p := range original.Pictures {
		if len(pics) >= maxPictures {
			break
		}
		pics = append(pics, mlapi.Picture{ID: p.ID})
	}
	r.payload["pictures"] = pics
	r.logf("main picture prepended, %d pictures total", len(pics))
	return true
}

func (o *Orchestrator) mergePictures(r *run, actions *ActionSet, original *mlapi.Item) {
	d, ok := actions.Get("pictures")
	if !ok {
		return
	}
	pics, ok := d.Pictures()
	if !ok {
		r.logf("pictures directive had no usable value")
		return
	}
	if len(pics) > maxPictures {
		pics = pics[:maxPictures]
	}
	if !original.HasVariations() {
		r.payload["pictures"] = pics
		r.logf("%d pictures replaced at item level", len(pics))
		return
	}
	// variations reference pictures by source identifier only
	ids := make([]string, 0, len(pics))
	for _, p := range pics {
		if p.ID != "" {
			ids = append(ids, p.ID)
		} else if p.Source != "" {
			ids = append(ids, p.Source)
		}
	}
	r.payload["pictures"] = pics
	for _, v := range original.Variations {
		r.varPayload(v.ID)["picture_ids"] = ids
	}
	r.logf("%d pictures replaced across %d variations", len(pics), len(original.Variations))
}

// mergeManufacturingTime rebuilds the sale-terms list: unrelated terms on
// the allow list survive, everything else is dropped, and a new
// manufacturing-time term is appended when the requested value is
// positive.
func (o *Orchestrator) mergeManufacturingTime(r *run, actions *ActionSet, original *mlapi.Item) {
	d, ok := actions.Get("mfg_time")
	if !ok {
		return
	}
	days, ok := d.Int()
	if !ok {
		r.logf("mfg_time directive had no usable value")
		return
	}
	keep := map[string]bool{}
	for _, id := range strings.Split(saleTermKeepSet, ",") {
		keep[id] = true
	}
	terms := make([]mlapi.SaleTerm, 0, len(original.SaleTerms)+1)
	for _, t := range original.SaleTerms {
		if keep[t.ID] {
			terms = append(terms, t)
		}
	}
	if days > 0 {
		terms = append(terms, mlapi.SaleTerm{ID: mfgTimeTermID, ValueName: fmt.Sprintf("%d dias", days)})
		r.logf("manufacturing time set to %d dias", days)
	} else {
		r.logf("manufacturing time cleared")
	}
	r.payload["sale_terms"] = terms
}

// mergeAttributes picks the attachment point by variation count: one
// variation gets them at variation level, none means the patch goes to
// item level as given, and several means the incoming attributes are
// merged into the full existing item attribute set keyed by id so
// untouched attributes survive the write. Only the merged multi-variation
// set gets a default condition attribute injected when it lacks one.
func (o *Orchestrator) mergeAttributes(r *run, actions *ActionSet, original *mlapi.Item) {
	d, ok := actions.Get("attributes")
	if !ok {
		return
	}
	incoming, ok := d.Attributes()
	if !ok {
		r.logf("attributes directive had no usable value")
		return
	}
	incoming = sanitizeAttributes(incoming)

	switch len(original.Variations) {
	case 1:
		vp := r.varPayload(original.Variations[0].ID)
		vp["attributes"] = incoming
		r.logf("%d attributes set on single variation", len(incoming))
	case 0:
		r.payload["attributes"] = incoming
		r.logf("%d attributes set at item level", len(incoming))
	default:
		merged := make(map[string]mlapi.Attribute, len(original.Attributes)+len(incoming))
		order := make([]string, 0, len(original.Attributes)+len(incoming))
		for _, a := range original.Attributes {
			if _, seen := merged[a.ID]; !seen {
				order = append(order, a.ID)
			}
			merged[a.ID] = a
		}
		for _, a := range incoming {
			if _, seen := merged[a.ID]; !seen {
				order = append(order, a.ID)
			}
			merged[a.ID] = a
		}
		out := make([]mlapi.Attribute, 0, len(merged))
		for _, id := range order {
			out = append(out, merged[id])
		}
		r.payload["attributes"] = ensureCondition(out)
		r.logf("%d attributes merged into existing set of %d", len(incoming), len(original.Attributes))
	}
}

func sanitizeAttributes(attrs []mlapi.Attribute) []mlapi.Attribute {
	out := attrs[:0]
	for _, a := range attrs {
		if strings.TrimSpace(a.ID) == "" {
			continue
		}
		out = append(out, a)
	}
	return out
}

func ensureCondition(attrs []mlapi.Attribute) []mlapi.Attribute {
	for _, a := range attrs {
		if a.ID == condAttrID {
			return attrs
		}
	}
	return append(attrs, mlapi.Attribute{ID: condAttrID, ValueID: condNewValueID})
}

// mergeDimensions writes package dimensions one of two ways depending on
// the account's shipping mode: managed shipping takes a single combined
// "HxWxL,G" string, everything else takes discrete package attributes
// plus a fixed package-type attribute.
func (o *Orchestrator) mergeDimensions(r *run, actions *ActionSet, account *model.Account) {
	d, ok := actions.Get("package_dimensions_group")
	if !ok {
		return
	}
	dims, ok := d.Dimensions()
	if !ok {
		r.logf("package dimensions directive had no usable value")
		return
	}
	if strings.HasPrefix(account.ShippingMode, "me2") {
		s := fmt.Sprintf("%.0fx%.0fx%.0f,%.0f", dims.Height, dims.Width, dims.Length, dims.Weight)
		r.shipping()["dimensions"] = s
		r.logf("shipping dimensions set to %s", s)
		return
	}
	attrs := []mlapi.Attribute{
		{ID: "SELLER_PACKAGE_HEIGHT", ValueName: fmt.Sprintf("%.0f cm", dims.Height)},
		{ID: "SELLER_PACKAGE_WIDTH", ValueName: fmt.Sprintf("%.0f cm", dims.Width)},
		{ID: "SELLER_PACKAGE_LENGTH", ValueName: fmt.Sprintf("%.0f cm", dims.Length)},
		{ID: "SELLER_PACKAGE_WEIGHT", ValueName: fmt.Sprintf("%.0f g", dims.Weight)},
		{ID: pkgTypeAttrID, ValueID: pkgTypeValueID},
	}
	if existing, ok := r.payload["attributes"].([]mlapi.Attribute); ok {
		r.payload["attributes"] = append(existing, attrs...)
	} else {
		r.payload["attributes"] = attrs
	}
	r.logf("package dimension attributes set")
}

// writeMainPayload assembles the variation payloads, drops no-op entries
// that carry only an id, and issues the item write when there is
// anything to send.
func (o *Orchestrator) writeMainPayload(ctx context.Context, r *run, token, itemID, nickname string) bool {
	sort.Slice(r.varIDs, func(i, j int) bool { return r.varIDs[i] < r.varIDs[j] })
	variations := make([]mlapi.Payload, 0, len(r.varIDs))
	for _, id := range r.varIDs {
		vp := r.varPayloads[id]
		if len(vp) <= 1 {
			continue
		}
		variations = append(variations, vp)
	}
	if len(variations) > 0 {
		r.payload["variations"] = variations
	}
	if len(r.payload) == 0 {
		r.logf("nothing to write")
		return true
	}
	if err := o.Marketplace.UpdateItem(ctx, token, itemID, r.payload); err != nil {
		r.logf("item update failed: %v", err)
		utils.Log.Errorf("bulk: item update failed for %s: %v", itemID, err)
		return false
	}
	r.logf("item update applied")
	o.History.Record(itemID, nickname, "item update")
	return true
}

// runFollowUps issues the deferred calls in order. The first failure
// stops the chain but already-applied changes stay applied.
func (o *Orchestrator) runFollowUps(ctx context.Context, r *run, actions *ActionSet, token, itemID, nickname string) bool {
	if d, ok := actions.Get("sku"); ok {
		sku, valid := d.Text()
		if !valid || sku == "" {
			r.logf("sku directive had no usable value")
		} else if err := o.Marketplace.UpdateSellerSKU(ctx, token, itemID, sku); err != nil {
			r.logf("sku update failed: %v", err)
			return false
		} else {
			r.logf("sku set to %s", sku)
			o.History.Record(itemID, nickname, "sku update")
		}
	}
	if d, ok := actions.Get("compatibilities"); ok {
		name, valid := d.Text()
		if !valid || name == "" {
			r.logf("compatibilities directive had no usable value")
			return false
		}
		compatibilities, err := o.Profiles.LoadProfile(name)
		if err != nil {
			r.logf("compatibility profile %q could not be loaded: %v", name, err)
			return false
		}
		if err := o.Marketplace.UpdateCompatibilities(ctx, token, itemID, compatibilities); err != nil {
			r.logf("compatibilities update failed: %v", err)
			return false
		}
		r.logf("compatibilities applied from profile %s (%d families)", name, len(compatibilities))
		o.History.Record(itemID, nickname, "compatibilities update")
	}
	if d, ok := actions.Get("position"); ok {
		pos, valid := d.Text()
		if !valid || pos == "" {
			r.logf("position directive had no usable value")
		} else if err := o.Marketplace.UpdateCompatibilityPositions(ctx, token, itemID, pos); err != nil {
			r.logf("compatibility position update failed: %v", err)
			return false
		} else {
			r.logf("compatibility position set to %s", pos)
			o.History.Record(itemID, nickname, "position update")
		}
	}
	return true
}
