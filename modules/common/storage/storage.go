package storage

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"io"
	"log"
	"math/rand"
	"net/http"
	"time"

	"engagepro-studio-server/modules/common/config"
	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"
	"github.com/supabase-community/supabase-go"
)

// Client offloads generated shots to Supabase Storage so history
// entries keep paths instead of image bytes.
type Client struct {
	supabase *supabase.Client
}

// ShotAsset mirrors a row in studio_shot_assets.
type ShotAsset struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
	ShotIndex int    `json:"shot_index"`
	FilePath  string `json:"file_path"`
	FileSize  int64  `json:"file_size"`
}

func NewClient() (*Client, error) {
	cfg := config.GetConfig()

	supabaseClient, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseServiceKey, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to create Supabase client: %w", err)
	}

	return &Client{supabase: supabaseClient}, nil
}

// ConvertPNGToWebP re-encodes a PNG as lossy WebP.
func ConvertPNGToWebP(pngData []byte, quality float32) ([]byte, error) {
	img, err := png.Decode(bytes.NewReader(pngData))
	if err != nil {
		return nil, fmt.Errorf("failed to decode PNG: %w", err)
	}

	options, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, quality)
	if err != nil {
		return nil, fmt.Errorf("failed to create WebP encoder options: %w", err)
	}

	var webpBuffer bytes.Buffer
	if err := webp.Encode(&webpBuffer, img, options); err != nil {
		return nil, fmt.Errorf("failed to encode WebP: %w", err)
	}

	webpData := webpBuffer.Bytes()
	log.Printf("🔄 PNG converted to WebP: %d bytes → %d bytes (%.1f%% reduction)",
		len(pngData), len(webpData),
		float64(len(pngData)-len(webpData))/float64(len(pngData))*100)

	return webpData, nil
}

// UploadShot converts the PNG to WebP and uploads it under the user's
// storyboard folder. Returns the storage path and the stored size.
func (c *Client) UploadShot(ctx context.Context, pngData []byte, userID string, shotIndex int) (string, int64, error) {
	cfg := config.GetConfig()

	webpData, err := ConvertPNGToWebP(pngData, 90.0)
	if err != nil {
		return "", 0, fmt.Errorf("failed to convert PNG to WebP: %w", err)
	}

	timestamp := time.Now().UnixNano() / int64(time.Millisecond)
	randomID := rand.Intn(999999)
	fileName := fmt.Sprintf("shot_%d_%d_%d.webp", shotIndex+1, timestamp, randomID)
	filePath := fmt.Sprintf("storyboards/user-%s/%s", userID, fileName)

	log.Printf("📤 Uploading WebP shot to storage: %s", filePath)

	uploadURL := fmt.Sprintf("%s/storage/v1/object/attachments/%s", cfg.SupabaseURL, filePath)

	req, err := http.NewRequestWithContext(ctx, "POST", uploadURL, bytes.NewReader(webpData))
	if err != nil {
		return "", 0, fmt.Errorf("failed to create upload request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+cfg.SupabaseServiceKey)
	req.Header.Set("Content-Type", "image/webp")

	httpClient := &http.Client{}
	resp, err := httpClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("failed to upload shot: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return "", 0, fmt.Errorf("upload failed with status %d: %s", resp.StatusCode, string(body))
	}

	webpSize := int64(len(webpData))
	log.Printf("✅ WebP shot uploaded: %s (%d bytes)", filePath, webpSize)
	return filePath, webpSize, nil
}

// RecordShotAsset inserts the storage reference row for a stored shot.
func (c *Client) RecordShotAsset(ctx context.Context, asset ShotAsset) error {
	_, _, err := c.supabase.From("studio_shot_assets").
		Insert(asset, false, "", "", "").
		Execute()

	if err != nil {
		return fmt.Errorf("failed to record shot asset: %w", err)
	}

	log.Printf("✅ Shot asset recorded: session=%s index=%d path=%s", asset.SessionID, asset.ShotIndex, asset.FilePath)
	return nil
}

// DownloadShot fetches a stored shot back from storage, for exports
// assembled server side after the session bytes were dropped.
func (c *Client) DownloadShot(filePath string) ([]byte, error) {
	cfg := config.GetConfig()

	fullURL := cfg.SupabaseStorageBaseURL + filePath
	log.Printf("📥 Downloading shot from: %s", fullURL)

	httpResp, err := http.Get(fullURL)
	if err != nil {
		return nil, fmt.Errorf("failed to download shot: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(httpResp.Body)
		return nil, fmt.Errorf("failed to download shot: status %d, body: %s", httpResp.StatusCode, string(body))
	}

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read shot data: %w", err)
	}

	log.Printf("✅ Shot downloaded: %d bytes", len(data))
	return data, nil
}
