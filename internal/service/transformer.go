package service

import (
	"fmt"
	"math"
	"strings"

	"github.com/mchavez27/melipanel/internal/transfer"
	"github.com/mchavez27/melipanel/pkg/utils"
)

// Marketplace validation floors for shipping packages.
const (
	minPackageDimensionCm = 3
	minPackageWeightG     = 20
)

// forbiddenAttributeIDs are rejected or ignored by the marketplace on item
// creation: condition and parent linkage are read-only, and raw package
// dimensions conflict with the number_unit attributes we emit ourselves.
var forbiddenAttributeIDs = map[string]struct{}{
	"ITEM_CONDITION":        {},
	"PARENT_ITEM_ID":        {},
	"PACKAGE_HEIGHT":        {},
	"PACKAGE_WIDTH":         {},
	"PACKAGE_LENGTH":        {},
	"PACKAGE_WEIGHT":        {},
	"SELLER_PACKAGE_HEIGHT": {},
	"SELLER_PACKAGE_WIDTH":  {},
	"SELLER_PACKAGE_LENGTH": {},
	"SELLER_PACKAGE_WEIGHT": {},
}

// legacyDimensionIDs maps old dimension attribute ids onto the canonical
// seller-package ids used when re-emitting.
var legacyDimensionIDs = map[string]string{
	"PACKAGE_HEIGHT":        "SELLER_PACKAGE_HEIGHT",
	"SELLER_PACKAGE_HEIGHT": "SELLER_PACKAGE_HEIGHT",
	"PACKAGE_WIDTH":         "SELLER_PACKAGE_WIDTH",
	"SELLER_PACKAGE_WIDTH":  "SELLER_PACKAGE_WIDTH",
	"PACKAGE_LENGTH":        "SELLER_PACKAGE_LENGTH",
	"SELLER_PACKAGE_LENGTH": "SELLER_PACKAGE_LENGTH",
	"PACKAGE_WEIGHT":        "SELLER_PACKAGE_WEIGHT",
	"SELLER_PACKAGE_WEIGHT": "SELLER_PACKAGE_WEIGHT",
}

// BuildDuplicatePayload turns a fetched listing snapshot plus a variation
// into a create-listing payload the marketplace will accept. It is a pure
// transform with no side effects.
func BuildDuplicatePayload(original *transfer.MeliItem, variation *transfer.Variation) *transfer.ItemCreation {
	familyName := original.FamilyName
	if familyName == "" {
		familyName = original.Title
	}
	title := familyName
	if variation != nil && variation.Title != "" {
		familyName = variation.Title
		title = variation.Title
	}

	payload := &transfer.ItemCreation{
		Title:             title,
		FamilyName:        familyName,
		CategoryID:        original.CategoryID,
		Price:             original.Price,
		CurrencyID:        original.CurrencyID,
		AvailableQuantity: original.AvailableQuantity,
		Condition:         original.Condition,
		BuyingMode:        original.BuyingMode,
		ListingTypeID:     original.ListingTypeID,
		SaleTerms:         original.SaleTerms,
		Pictures:          mapPictures(original.Pictures),
		Shipping:          cleanShipping(original.Shipping),
	}

	attributes := cleanAttributes(original.Attributes)
	attributes = append(attributes, packageAttributes(original)...)
	payload.Attributes = attributes

	return payload
}

// cleanShipping copies the shipping block for re-publication. Fulfillment
// listings cannot be duplicated as fulfillment, and the legacy dimensions
// string conflicts with the number_unit attributes.
func cleanShipping(shipping transfer.MeliShipping) transfer.MeliShipping {
	if shipping.LogisticType == "fulfillment" {
		shipping.LogisticType = "xd_drop_off"
	}
	shipping.Dimensions = ""
	return shipping
}

func cleanAttributes(attributes []transfer.MeliAttribute) []transfer.MeliAttribute {
	cleaned := make([]transfer.MeliAttribute, 0, len(attributes))
	for _, attr := range attributes {
		if _, forbidden := forbiddenAttributeIDs[strings.ToUpper(attr.ID)]; forbidden {
			continue
		}
		cleaned = append(cleaned, transfer.MeliAttribute{
			ID:        attr.ID,
			ValueID:   attr.ValueID,
			ValueName: attr.ValueName,
		})
	}
	return cleaned
}

type packageSize struct {
	heightCm float64
	widthCm  float64
	lengthCm float64
	weightG  float64
}

// packageAttributes derives the four seller-package attributes from the
// shipping dimensions string when present, otherwise from the original's
// legacy dimension attributes, with marketplace minimums applied.
func packageAttributes(original *transfer.MeliItem) []transfer.MeliAttribute {
	size, ok := parseDimensionString(original.Shipping.Dimensions)
	if !ok {
		size = scanDimensionAttributes(original.Attributes)
	}

	height := clampDimension(size.heightCm, minPackageDimensionCm)
	width := clampDimension(size.widthCm, minPackageDimensionCm)
	length := clampDimension(size.lengthCm, minPackageDimensionCm)
	weight := clampDimension(size.weightG, minPackageWeightG)

	return []transfer.MeliAttribute{
		numberUnitAttribute("SELLER_PACKAGE_HEIGHT", height, "cm"),
		numberUnitAttribute("SELLER_PACKAGE_WIDTH", width, "cm"),
		numberUnitAttribute("SELLER_PACKAGE_LENGTH", length, "cm"),
		numberUnitAttribute("SELLER_PACKAGE_WEIGHT", weight, "g"),
	}
}

// parseDimensionString reads the "HxWxL,weight" shipping field, e.g.
// "10x20x30,500" (cm and grams). A string missing any of the four
// components is treated as absent.
func parseDimensionString(dimensions string) (packageSize, bool) {
	if dimensions == "" {
		return packageSize{}, false
	}

	parts := strings.SplitN(dimensions, ",", 2)
	if len(parts) != 2 {
		return packageSize{}, false
	}

	linear := strings.Split(parts[0], "x")
	if len(linear) != 3 {
		return packageSize{}, false
	}

	var values [3]float64
	for i, part := range linear {
		n, ok := utils.ParseLeadingNumber(part)
		if !ok {
			return packageSize{}, false
		}
		values[i] = n
	}

	weight, ok := utils.ParseLeadingNumber(parts[1])
	if !ok {
		return packageSize{}, false
	}

	return packageSize{
		heightCm: values[0],
		widthCm:  values[1],
		lengthCm: values[2],
		weightG:  weight,
	}, true
}

func scanDimensionAttributes(attributes []transfer.MeliAttribute) packageSize {
	var size packageSize
	for _, attr := range attributes {
		canonical, isDimension := legacyDimensionIDs[strings.ToUpper(attr.ID)]
		if !isDimension {
			continue
		}
		value, ok := utils.ParseLeadingNumber(attr.ValueName)
		if !ok {
			continue
		}
		switch canonical {
		case "SELLER_PACKAGE_HEIGHT":
			size.heightCm = value
		case "SELLER_PACKAGE_WIDTH":
			size.widthCm = value
		case "SELLER_PACKAGE_LENGTH":
			size.lengthCm = value
		case "SELLER_PACKAGE_WEIGHT":
			size.weightG = value
		}
	}
	return size
}

func clampDimension(value, minimum float64) int {
	floored := int(math.Floor(value))
	if floored < int(minimum) {
		return int(minimum)
	}
	return floored
}

func numberUnitAttribute(id string, value int, unit string) transfer.MeliAttribute {
	display := fmt.Sprintf("%d %s", value, unit)
	return transfer.MeliAttribute{
		ID:        id,
		ValueName: display,
		ValueType: "number_unit",
		Values: []transfer.MeliAttributeValue{
			{
				Name:   display,
				Struct: &transfer.NumberUnit{Number: float64(value), Unit: unit},
			},
		},
	}
}

func mapPictures(pictures []transfer.MeliPicture) []transfer.PictureSource {
	sources := make([]transfer.PictureSource, 0, len(pictures))
	for _, p := range pictures {
		source := p.SecureURL
		if source == "" {
			source = p.URL
		}
		if source == "" {
			source = p.Source
		}
		if source == "" {
			continue
		}
		sources = append(sources, transfer.PictureSource{Source: source})
	}
	return sources
}
