package assets

import (
	"fmt"
	"log"
)

// Set replaces the asset for a single-slot role.
func (b *AssetBundle) Set(role string, asset *UploadedAsset) error {
	switch role {
	case RoleProduct:
		b.Product = asset
	case RoleModel:
		b.Model = asset
	case RoleBackground:
		b.Background = asset
	default:
		return fmt.Errorf("unknown single-asset role: %s", role)
	}
	return nil
}

// Add appends to a multi-slot role, dropping silently past the cap.
func (b *AssetBundle) Add(role string, asset *UploadedAsset) error {
	switch role {
	case RoleFashionItems:
		if len(b.FashionItems) >= MaxMultipleFiles {
			log.Printf("⚠️  fashionItems full (%d), dropping %s", MaxMultipleFiles, asset.Name)
			return nil
		}
		b.FashionItems = append(b.FashionItems, asset)
	case RoleLocations:
		if len(b.Locations) >= MaxMultipleFiles {
			log.Printf("⚠️  locations full (%d), dropping %s", MaxMultipleFiles, asset.Name)
			return nil
		}
		b.Locations = append(b.Locations, asset)
	default:
		return fmt.Errorf("unknown multi-asset role: %s", role)
	}
	return nil
}

// Get returns the single asset held in a role, nil when empty.
func (b *AssetBundle) Get(role string) *UploadedAsset {
	switch role {
	case RoleProduct:
		return b.Product
	case RoleModel:
		return b.Model
	case RoleBackground:
		return b.Background
	}
	return nil
}

// Count reports how many assets the bundle holds in total.
func (b *AssetBundle) Count() int {
	count := 0
	for _, a := range []*UploadedAsset{b.Product, b.Model, b.Background} {
		if a != nil {
			count++
		}
	}
	return count + len(b.FashionItems) + len(b.Locations)
}
