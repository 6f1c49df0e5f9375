package bmecat

import (
	"encoding/xml"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const articleXML = `<ARTICLE mode="new">
  <SUPPLIER_AID> W-1 </SUPPLIER_AID>
  <ARTICLE_DETAILS>
    <DESCRIPTION_SHORT>Widget</DESCRIPTION_SHORT>
    <DESCRIPTION_LONG>&lt;b&gt;Nice&lt;/b&gt; widget</DESCRIPTION_LONG>
    <EAN>7611234567890</EAN>
    <KEYWORD>tools</KEYWORD>
    <KEYWORD> </KEYWORD>
    <KEYWORD>garden</KEYWORD>
  </ARTICLE_DETAILS>
  <ARTICLE_FEATURES>
    <FEATURE><FNAME>Colour</FNAME><FVALUE>Red</FVALUE></FEATURE>
    <FEATURE><FNAME>Weight</FNAME><FVALUE>5</FVALUE><FVALUE_DETAILS>kg</FVALUE_DETAILS></FEATURE>
  </ARTICLE_FEATURES>
  <ARTICLE_PRICE_DETAILS>
    <ARTICLE_PRICE price_type="net_customer"><PRICE_AMOUNT>9.99</PRICE_AMOUNT><TAX>0.081</TAX></ARTICLE_PRICE>
    <ARTICLE_PRICE price_type="nrp"><PRICE_AMOUNT>12.50</PRICE_AMOUNT></ARTICLE_PRICE>
  </ARTICLE_PRICE_DETAILS>
  <USER_DEFINED_EXTENSIONS>
    <UDX.SECOMP.STOCK_QUANTITY>4</UDX.SECOMP.STOCK_QUANTITY>
    <UDX.SECOMP.FREIGHT>1</UDX.SECOMP.FREIGHT>
  </USER_DEFINED_EXTENSIONS>
  <MIME_INFO>
    <MIME><MIME_SOURCE>a/w1.jpg</MIME_SOURCE><MIME_PURPOSE>normal</MIME_PURPOSE></MIME>
    <MIME><MIME_SOURCE>a/logo.png</MIME_SOURCE><MIME_PURPOSE>logo</MIME_PURPOSE></MIME>
  </MIME_INFO>
  <ARTICLE_ORDER_DETAILS>
    <ORDER_UNIT>C62</ORDER_UNIT>
    <NO_CU_PER_OU>10</NO_CU_PER_OU>
  </ARTICLE_ORDER_DETAILS>
</ARTICLE>`

func TestArticleDecode(t *testing.T) {
	var a Article
	require.NoError(t, xml.Unmarshal([]byte(articleXML), &a))
	require.NoError(t, a.Validate())

	assert.Equal(t, "W-1", a.SKU)
	assert.Equal(t, "Widget", a.Details.Title)
	assert.Equal(t, "<b>Nice</b> widget", a.Details.Description)
	assert.Equal(t, []string{"tools", "garden"}, a.Details.Keywords)

	require.Len(t, a.Features, 2)
	assert.Equal(t, "Red", a.Features[0].CombinedValue())
	assert.Equal(t, "5 kg", a.Features[1].CombinedValue())

	require.Len(t, a.Prices, 2)
	assert.Equal(t, PriceNetCustomer, a.Prices[0].Type)
	assert.Equal(t, "9.99", a.Prices[0].Amount)
	assert.Equal(t, "", a.Prices[1].Tax)

	assert.Equal(t, "4", a.Extensions.StockQuantity)
	assert.Equal(t, "1", a.Extensions.Freight)

	require.Len(t, a.Images, 2)
	assert.Equal(t, PurposeLogo, a.Images[1].Purpose)
	assert.Equal(t, "C62", a.Order.OrderUnit)
	assert.Equal(t, "10", a.Order.NoCuPerOu)
}

func TestCategoryValidate(t *testing.T) {
	tests := []struct {
		name    string
		cat     Category
		wantErr bool
	}{
		{"leaf", Category{Type: "leaf", GroupID: "10"}, false},
		{"node", Category{Type: "node", GroupID: "A1"}, false},
		{"root type", Category{Type: "root", GroupID: "1"}, true},
		{"empty group", Category{Type: "leaf", GroupID: " "}, true},
		{"zero group", Category{Type: "leaf", GroupID: "0"}, true},
		{"zero decimal group", Category{Type: "node", GroupID: "0.0"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cat.Validate()
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalid))
				assert.False(t, tt.cat.Applicable())
			} else {
				assert.NoError(t, err)
				assert.True(t, tt.cat.Applicable())
			}
		})
	}
}

func TestCategoryDecode(t *testing.T) {
	raw := `<CATALOG_STRUCTURE type="leaf">
  <GROUP_ID>10</GROUP_ID><PARENT_ID>0</PARENT_ID><GROUP_NAME>Widgets</GROUP_NAME>
  <GROUP_ORDER>-3</GROUP_ORDER>
  <MIME_INFO><MIME><MIME_SOURCE>cat/10.png</MIME_SOURCE></MIME></MIME_INFO>
</CATALOG_STRUCTURE>`
	var c Category
	require.NoError(t, xml.Unmarshal([]byte(raw), &c))
	require.NoError(t, c.Validate())
	assert.Equal(t, "Widgets", c.Name)
	assert.Equal(t, int64(3), c.OrderRank())
	assert.Equal(t, "cat/10.png", c.Thumbnail())
}

func TestMappingValidate(t *testing.T) {
	assert.NoError(t, (&Mapping{SKU: "W-1", GroupID: "10"}).Validate())
	assert.Error(t, (&Mapping{SKU: "", GroupID: "10"}).Validate())
	assert.Error(t, (&Mapping{SKU: "W-1", GroupID: "0"}).Validate())
}

func TestParseNumber(t *testing.T) {
	n, ok := ParseNumber("12,5")
	assert.True(t, ok)
	assert.Equal(t, 12.5, n)

	_, ok = ParseNumber("")
	assert.False(t, ok)
	_, ok = ParseNumber("abc")
	assert.False(t, ok)
}
