package bulk_test

import (
	"testing"

	"github.com/melitools/melisync/internal/bulk"
	"github.com/melitools/melisync/internal/mlapi"
	"github.com/stretchr/testify/require"
)

func TestSKUPriorityChain(t *testing.T) {
	item := &mlapi.Item{
		InjectedSKU: "INJECTED",
		Variations: []mlapi.Variation{{
			Attributes:        []mlapi.Attribute{{ID: "SELLER_SKU", ValueName: "VAR-SKU"}, {ID: "PART_NUMBER", ValueName: "VAR-PN"}},
			SellerCustomField: "VAR-CF",
		}},
		Attributes:        []mlapi.Attribute{{ID: "SELLER_SKU", ValueName: "ITEM-SKU"}, {ID: "PART_NUMBER", ValueName: "ITEM-PN"}},
		SellerCustomField: "ITEM-CF",
	}

	require.Equal(t, "INJECTED", bulk.SKUFromItem(item))

	item.InjectedSKU = ""
	require.Equal(t, "VAR-SKU", bulk.SKUFromItem(item))

	item.Variations[0].Attributes[0].ValueName = ""
	require.Equal(t, "VAR-CF", bulk.SKUFromItem(item))

	item.Variations[0].SellerCustomField = ""
	require.Equal(t, "VAR-PN", bulk.SKUFromItem(item))

	item.Variations[0].Attributes[1].ValueName = ""
	require.Equal(t, "ITEM-SKU", bulk.SKUFromItem(item))

	item.Attributes[0].ValueName = ""
	require.Equal(t, "ITEM-CF", bulk.SKUFromItem(item))

	item.SellerCustomField = ""
	require.Equal(t, "ITEM-PN", bulk.SKUFromItem(item))

	item.Attributes[1].ValueName = ""
	require.Empty(t, bulk.SKUFromItem(item))
}

func TestSKUFromNilItem(t *testing.T) {
	require.Empty(t, bulk.SKUFromItem(nil))
}
