package feed

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/kosarica/catalog-service/internal/bmecat"
	"github.com/kosarica/catalog-service/internal/inbox"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<BMECAT version="2005" xmlns="http://www.bmecat.org/bmecat/2005">
  <T_NEW_CATALOG>
    <CATALOG_GROUP_SYSTEM>
      <CATALOG_STRUCTURE type="root"><GROUP_ID>1</GROUP_ID><GROUP_NAME>Root</GROUP_NAME></CATALOG_STRUCTURE>
      <CATALOG_STRUCTURE type="leaf"><GROUP_ID>10</GROUP_ID><PARENT_ID>1</PARENT_ID><GROUP_NAME>Widgets &amp; Co</GROUP_NAME></CATALOG_STRUCTURE>
    </CATALOG_GROUP_SYSTEM>
    <ARTICLE mode="new">
      <SUPPLIER_AID>W-1</SUPPLIER_AID>
      <ARTICLE_DETAILS><DESCRIPTION_SHORT>Widget</DESCRIPTION_SHORT></ARTICLE_DETAILS>
    </ARTICLE>
    <ARTICLE_TO_CATALOGGROUP_MAP><ART_ID>W-1</ART_ID><CATALOG_GROUP_ID>10</CATALOG_GROUP_ID></ARTICLE_TO_CATALOGGROUP_MAP>
  </T_NEW_CATALOG>
</BMECAT>`

func writeFeed(t *testing.T, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "feed.xml")
	require.NoError(t, os.WriteFile(path, content, 0644))
	return path
}

func collect(t *testing.T, src *Source, tag string) []*Element {
	t.Helper()
	var out []*Element
	for el, err := range src.Elements(tag) {
		require.NoError(t, err)
		out = append(out, el)
	}
	return out
}

func TestElementsPerTag(t *testing.T) {
	src, err := Open(writeFeed(t, []byte(sampleFeed)))
	require.NoError(t, err)

	cats := collect(t, src, bmecat.TagCategory)
	require.Len(t, cats, 2)

	var c bmecat.Category
	require.NoError(t, cats[1].Decode(&c))
	assert.Equal(t, "leaf", c.Type)
	assert.Equal(t, "10", c.GroupID)
	assert.Equal(t, "Widgets & Co", c.Name)

	// A second pass over another tag rescans the same file.
	arts := collect(t, src, bmecat.TagArticle)
	require.Len(t, arts, 1)
	var a bmecat.Article
	require.NoError(t, arts[0].Decode(&a))
	assert.Equal(t, "W-1", a.SKU)

	maps := collect(t, src, bmecat.TagMapping)
	require.Len(t, maps, 1)
	var m bmecat.Mapping
	require.NoError(t, maps[0].Decode(&m))
	assert.Equal(t, bmecat.Mapping{SKU: "W-1", GroupID: "10"}, m)
}

func TestElementsStopEarly(t *testing.T) {
	src, err := Open(writeFeed(t, []byte(sampleFeed)))
	require.NoError(t, err)

	n := 0
	for range src.Elements(bmecat.TagCategory) {
		n++
		break
	}
	assert.Equal(t, 1, n)
}

func TestElementsMalformed(t *testing.T) {
	src, err := Open(writeFeed(t, []byte(`<BMECAT><ARTICLE><SUPPLIER_AID>1</SUPPLIER_AID></ARTICLE><ARTICLE>`)))
	require.NoError(t, err)

	var got int
	var lastErr error
	for el, err := range src.Elements(bmecat.TagArticle) {
		if err != nil {
			lastErr = err
			continue
		}
		require.NotNil(t, el)
		got++
	}
	assert.Equal(t, 1, got)
	assert.Error(t, lastErr)
}

func TestElementsWindows1250(t *testing.T) {
	body := `<?xml version="1.0" encoding="windows-1250"?>
<BMECAT><CATALOG_STRUCTURE type="leaf"><GROUP_ID>5</GROUP_ID><GROUP_NAME>Šešir</GROUP_NAME></CATALOG_STRUCTURE></BMECAT>`
	encoded, err := charmap.Windows1250.NewEncoder().String(body)
	require.NoError(t, err)

	src, err := Open(writeFeed(t, []byte(encoded)))
	require.NoError(t, err)

	els := collect(t, src, bmecat.TagCategory)
	require.Len(t, els, 1)
	var c bmecat.Category
	require.NoError(t, els[0].Decode(&c))
	assert.Equal(t, "Šešir", c.Name)
}

func TestOpenNext(t *testing.T) {
	root := t.TempDir()
	dir, err := inbox.New(filepath.Join(root, "in"), filepath.Join(root, "bk"), nil)
	require.NoError(t, err)

	_, err = OpenNext(dir)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, os.WriteFile(filepath.Join(dir.Path(), "z.xml"), []byte(sampleFeed), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir.Path(), "a.xml"), []byte(sampleFeed), 0644))
	src, err := OpenNext(dir)
	require.NoError(t, err)
	assert.Equal(t, "a.xml", src.Name())
}
