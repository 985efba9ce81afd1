package bulk

import (
	"strings"

	"github.com/melitools/melisync/internal/mlapi"
)

func attrValue(attrs []mlapi.Attribute, id string) string {
	for _, a := range attrs {
		if a.ID == id {
			return strings.TrimSpace(a.ValueName)
		}
	}
	return ""
}

// SKUFromItem resolves the SKU for a listing. Priority order: an
// injected SKU from search enrichment, then the first variation's
// SELLER_SKU attribute, seller custom field and PART_NUMBER, then the
// same three at item level.
func SKUFromItem(item *mlapi.Item) string {
	if item == nil {
		return ""
	}
	if s := strings.TrimSpace(item.InjectedSKU); s != "" {
		return s
	}
	if len(item.Variations) > 0 {
		v := item.Variations[0]
		if s := attrValue(v.Attributes, "SELLER_SKU"); s != "" {
			return s
		}
		if s := strings.TrimSpace(v.SellerCustomField); s != "" {
			return s
		}
		if s := attrValue(v.Attributes, "PART_NUMBER"); s != "" {
			return s
		}
	}
	if s := attrValue(item.Attributes, "SELLER_SKU"); s != "" {
		return s
	}
	if s := strings.TrimSpace(item.SellerCustomField); s != "" {
		return s
	}
	return attrValue(item.Attributes, "PART_NUMBER")
}
