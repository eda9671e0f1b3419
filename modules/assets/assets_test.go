package assets

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngestAcceptsSmallFile(t *testing.T) {
	asset, err := Ingest("product.png", "image/png", []byte("fake-png-bytes"))
	require.NoError(t, err)
	require.NotNil(t, asset)

	assert.Equal(t, "product.png", asset.Name)
	assert.Equal(t, "image/png", asset.MIMEType)
	assert.Equal(t, int64(14), asset.Size)
	assert.Contains(t, asset.PreviewURL, "data:image/png;base64,")

	raw, err := asset.RawBytes()
	require.NoError(t, err)
	assert.Equal(t, []byte("fake-png-bytes"), raw)
}

func TestIngestSilentlyDropsOversized(t *testing.T) {
	big := bytes.Repeat([]byte{0xAB}, MaxFileSizeBytes+1)

	asset, err := Ingest("huge.png", "image/png", big)
	require.NoError(t, err)
	assert.Nil(t, asset)
}

func TestIngestKeepsExactLimit(t *testing.T) {
	exact := bytes.Repeat([]byte{0x01}, MaxFileSizeBytes)

	asset, err := Ingest("exact.png", "image/png", exact)
	require.NoError(t, err)
	require.NotNil(t, asset)
	assert.Equal(t, int64(MaxFileSizeBytes), asset.Size)
}

func TestIngestRejectsEmptyFile(t *testing.T) {
	_, err := Ingest("empty.png", "image/png", nil)
	assert.Error(t, err)
}

func TestIngestMultipleCapsAndPreservesOrder(t *testing.T) {
	var files []struct {
		Name     string
		MIMEType string
		Raw      []byte
	}
	for i := 0; i < 8; i++ {
		files = append(files, struct {
			Name     string
			MIMEType string
			Raw      []byte
		}{
			Name:     fmt.Sprintf("item_%d.png", i),
			MIMEType: "image/png",
			Raw:      []byte{byte(i), 0x01},
		})
	}

	kept, err := IngestMultiple(files)
	require.NoError(t, err)
	require.Len(t, kept, MaxMultipleFiles)

	for i, asset := range kept {
		assert.Equal(t, fmt.Sprintf("item_%d.png", i), asset.Name)
	}
}

func TestIngestMultipleSkipsOversizedWithoutCountingThem(t *testing.T) {
	big := bytes.Repeat([]byte{0xFF}, MaxFileSizeBytes+1)
	files := []struct {
		Name     string
		MIMEType string
		Raw      []byte
	}{
		{"small_1.png", "image/png", []byte{0x01}},
		{"big.png", "image/png", big},
		{"small_2.png", "image/png", []byte{0x02}},
	}

	kept, err := IngestMultiple(files)
	require.NoError(t, err)
	require.Len(t, kept, 2)
	assert.Equal(t, "small_1.png", kept[0].Name)
	assert.Equal(t, "small_2.png", kept[1].Name)
}

func TestBundleSingleRolesReplace(t *testing.T) {
	b := &AssetBundle{}

	first, _ := Ingest("a.png", "image/png", []byte{0x01})
	second, _ := Ingest("b.png", "image/png", []byte{0x02})

	require.NoError(t, b.Set(RoleProduct, first))
	require.NoError(t, b.Set(RoleProduct, second))

	assert.Equal(t, "b.png", b.Product.Name)
	assert.Equal(t, 1, b.Count())
}

func TestBundleMultiRolesAppendUpToCap(t *testing.T) {
	b := &AssetBundle{}

	for i := 0; i < MaxMultipleFiles+2; i++ {
		asset, _ := Ingest(fmt.Sprintf("f%d.png", i), "image/png", []byte{byte(i + 1)})
		require.NoError(t, b.Add(RoleFashionItems, asset))
	}

	assert.Len(t, b.FashionItems, MaxMultipleFiles)
	assert.Equal(t, "f0.png", b.FashionItems[0].Name)
}

func TestBundleRejectsUnknownRoles(t *testing.T) {
	b := &AssetBundle{}
	asset, _ := Ingest("x.png", "image/png", []byte{0x01})

	assert.Error(t, b.Set("fashionItems", asset))
	assert.Error(t, b.Add("product", asset))
	assert.Error(t, b.Set("banner", asset))
}
