package enums

import "fmt"

// ProductCategory represents the canonical product categories supported by the catalog.
type ProductCategory string

const (
	ProductCategoryStickers  ProductCategory = "stickers"
	ProductCategoryLabels    ProductCategory = "labels"
	ProductCategoryBanners   ProductCategory = "banners"
	ProductCategorySigns     ProductCategory = "signs"
	ProductCategoryDecals    ProductCategory = "decals"
	ProductCategoryMagnets   ProductCategory = "magnets"
	ProductCategoryPackaging ProductCategory = "packaging"
	ProductCategoryPosters   ProductCategory = "posters"
)

var validProductCategories = []ProductCategory{
	ProductCategoryStickers,
	ProductCategoryLabels,
	ProductCategoryBanners,
	ProductCategorySigns,
	ProductCategoryDecals,
	ProductCategoryMagnets,
	ProductCategoryPackaging,
	ProductCategoryPosters,
}

// String implements fmt.Stringer.
func (c ProductCategory) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ProductCategory.
func (c ProductCategory) IsValid() bool {
	for _, candidate := range validProductCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseProductCategory converts raw input into a ProductCategory.
func ParseProductCategory(value string) (ProductCategory, error) {
	for _, candidate := range validProductCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product category %q", value)
}

// ProductMaterial identifies the substrate a product is printed on.
type ProductMaterial string

const (
	ProductMaterialVinyl      ProductMaterial = "vinyl"
	ProductMaterialPaper      ProductMaterial = "paper"
	ProductMaterialBOPPClear  ProductMaterial = "bopp_clear"
	ProductMaterialBOPPWhite  ProductMaterial = "bopp_white"
	ProductMaterialPolyester  ProductMaterial = "polyester"
	ProductMaterialKraft      ProductMaterial = "kraft"
	ProductMaterialMeshVinyl  ProductMaterial = "mesh_vinyl"
	ProductMaterialFabric     ProductMaterial = "fabric"
	ProductMaterialHolographic ProductMaterial = "holographic"
)

var validProductMaterials = []ProductMaterial{
	ProductMaterialVinyl,
	ProductMaterialPaper,
	ProductMaterialBOPPClear,
	ProductMaterialBOPPWhite,
	ProductMaterialPolyester,
	ProductMaterialKraft,
	ProductMaterialMeshVinyl,
	ProductMaterialFabric,
	ProductMaterialHolographic,
}

// String implements fmt.Stringer.
func (m ProductMaterial) String() string {
	return string(m)
}

// IsValid reports whether the value matches a known ProductMaterial.
func (m ProductMaterial) IsValid() bool {
	for _, candidate := range validProductMaterials {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseProductMaterial converts raw input into a ProductMaterial.
func ParseProductMaterial(value string) (ProductMaterial, error) {
	for _, candidate := range validProductMaterials {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product material %q", value)
}

// ProductUnit defines the available unit types for pricing.
type ProductUnit string

const (
	ProductUnitPiece      ProductUnit = "piece"
	ProductUnitSheet      ProductUnit = "sheet"
	ProductUnitRoll       ProductUnit = "roll"
	ProductUnitSquareFoot ProductUnit = "square_foot"
)

var validProductUnits = []ProductUnit{
	ProductUnitPiece,
	ProductUnitSheet,
	ProductUnitRoll,
	ProductUnitSquareFoot,
}

// String implements fmt.Stringer.
func (u ProductUnit) String() string {
	return string(u)
}

// IsValid reports whether the value matches a known ProductUnit.
func (u ProductUnit) IsValid() bool {
	for _, candidate := range validProductUnits {
		if candidate == u {
			return true
		}
	}
	return false
}

// ParseProductUnit converts raw input into a ProductUnit.
func ParseProductUnit(value string) (ProductUnit, error) {
	for _, candidate := range validProductUnits {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product unit %q", value)
}
