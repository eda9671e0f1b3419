package assets

// Role names for reference uploads.
const (
	RoleProduct      = "product"
	RoleModel        = "model"
	RoleBackground   = "background"
	RoleFashionItems = "fashionItems"
	RoleLocations    = "locations"
)

// MaxMultipleFiles caps each multi-asset role.
const MaxMultipleFiles = 6

// UploadedAsset is one accepted reference image.
type UploadedAsset struct {
	Name       string `json:"name"`
	MIMEType   string `json:"type"`
	Size       int64  `json:"size"`
	Data       string `json:"data"`       // base64 without prefix
	PreviewURL string `json:"previewUrl"` // full data URL
}

// AssetBundle groups the reference images for one generation run.
type AssetBundle struct {
	Product      *UploadedAsset   `json:"product"`
	Model        *UploadedAsset   `json:"model"`
	Background   *UploadedAsset   `json:"background"`
	FashionItems []*UploadedAsset `json:"fashionItems"`
	Locations    []*UploadedAsset `json:"locations"`
}
