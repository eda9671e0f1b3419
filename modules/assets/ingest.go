package assets

import (
	"encoding/base64"
	"fmt"
	"log"
)

// MaxFileSizeBytes is the hard per-file cap. Oversized uploads are
// dropped without an error, matching the client behavior of quietly
// skipping files that cannot be sent inline.
const MaxFileSizeBytes = 5 * 1024 * 1024

// Ingest validates and encodes one uploaded file. Returns (nil, nil)
// for oversized files, the drop is silent.
func Ingest(name, mimeType string, raw []byte) (*UploadedAsset, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty file: %s", name)
	}

	if int64(len(raw)) > MaxFileSizeBytes {
		log.Printf("⚠️  Dropping oversized upload: %s (%d bytes, max %d)", name, len(raw), MaxFileSizeBytes)
		return nil, nil
	}

	if mimeType == "" {
		mimeType = "image/png"
	}

	encoded := base64.StdEncoding.EncodeToString(raw)
	return &UploadedAsset{
		Name:       name,
		MIMEType:   mimeType,
		Size:       int64(len(raw)),
		Data:       encoded,
		PreviewURL: fmt.Sprintf("data:%s;base64,%s", mimeType, encoded),
	}, nil
}

// IngestMultiple ingests files in order, skipping oversized ones and
// capping the kept set at MaxMultipleFiles.
func IngestMultiple(files []struct {
	Name     string
	MIMEType string
	Raw      []byte
}) ([]*UploadedAsset, error) {
	var kept []*UploadedAsset
	for _, f := range files {
		if len(kept) >= MaxMultipleFiles {
			log.Printf("⚠️  Multi-asset cap reached (%d), skipping remaining files", MaxMultipleFiles)
			break
		}
		asset, err := Ingest(f.Name, f.MIMEType, f.Raw)
		if err != nil {
			return nil, err
		}
		if asset == nil {
			continue
		}
		kept = append(kept, asset)
	}
	return kept, nil
}

// RawBytes decodes the stored base64 payload.
func (a *UploadedAsset) RawBytes() ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(a.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode asset %s: %w", a.Name, err)
	}
	return data, nil
}
