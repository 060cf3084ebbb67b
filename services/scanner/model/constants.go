// Copyright (C) 2025 Simscan Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package model

// Well-known resource type codes.
const (
	// ResourceTypeXMLTuning is the XML tuning resource type.
	ResourceTypeXMLTuning uint32 = 0x545238C9

	// ResourceTypeSimData is the core structured game data type.
	ResourceTypeSimData uint32 = 0x545503B2

	// ResourceTypeObjectDefinition is the object definition type.
	ResourceTypeObjectDefinition uint32 = 0x0333406C

	// ResourceTypeObjectKey is the object key type.
	ResourceTypeObjectKey uint32 = 0x034AEECB

	// ResourceTypeCASPart is the Create-A-Sim part type.
	ResourceTypeCASPart uint32 = 0x00B2D882

	// ResourceTypeStringTable is the localized string table type.
	ResourceTypeStringTable uint32 = 0x319E4F1D

	// ResourceTypeCombinedTuning is the combined binary tuning type.
	ResourceTypeCombinedTuning uint32 = 0x62766556

	// ResourceTypeStringProperty is the string property tuning type.
	ResourceTypeStringProperty uint32 = 0x220557DA
)

// ResourceTypeNames maps resource type codes to display names. Types not in
// the table render as "Unknown".
var ResourceTypeNames = map[uint32]string{
	ResourceTypeSimData:          "SimData",
	ResourceTypeObjectDefinition: "Object Definition",
	ResourceTypeObjectKey:        "Object Key",
	ResourceTypeCASPart:          "CAS Part",
	ResourceTypeStringTable:      "String Table",
	0x2E75C764:                   "Texture",
	0x015A1849:                   "Geometry",
	0x8EAF13DE:                   "Animation",
	0x62B1D5C6:                   "Audio",
}

// ResourceTypeName returns the display name for a resource type code.
func ResourceTypeName(typeID uint32) string {
	if name, ok := ResourceTypeNames[typeID]; ok {
		return name
	}
	return "Unknown"
}

// PackNames maps pack codes to full pack names. Dependency detection
// translates tuning pack requirements through this table.
var PackNames = map[string]string{
	"EP01": "Get to Work",
	"EP02": "Get Together",
	"EP03": "City Living",
	"EP04": "Cats & Dogs",
	"EP05": "Seasons",
	"EP06": "Get Famous",
	"EP07": "Island Living",
	"EP08": "Discover University",
	"EP09": "Eco Lifestyle",
	"EP10": "Snowy Escape",
	"EP11": "Cottage Living",
	"EP12": "High School Years",
	"EP13": "Growing Together",
	"EP14": "Horse Ranch",
	"EP15": "For Rent",
	"GP01": "Outdoor Retreat",
	"GP02": "Spa Day",
	"GP03": "Dine Out",
	"GP04": "Vampires",
	"GP05": "Parenthood",
	"GP06": "Jungle Adventure",
	"GP07": "StrangerVille",
	"GP08": "Realm of Magic",
	"GP09": "Journey to Batuu",
	"GP10": "Dream Home Decorator",
	"GP11": "My Wedding Stories",
	"GP12": "Werewolves",
	"SP01": "Luxury Party Stuff",
	"SP02": "Perfect Patio Stuff",
	"SP03": "Cool Kitchen Stuff",
	"SP04": "Spooky Stuff",
	"SP05": "Movie Hangout Stuff",
	"SP06": "Romantic Garden Stuff",
	"SP07": "Kids Room Stuff",
	"SP08": "Backyard Stuff",
	"SP09": "Vintage Glamour Stuff",
	"SP10": "Bowling Night Stuff",
	"SP11": "Fitness Stuff",
	"SP12": "Toddler Stuff",
	"SP13": "Laundry Day Stuff",
	"SP14": "My First Pet Stuff",
	"SP15": "Moschino Stuff",
	"SP16": "Tiny Living Stuff",
	"SP17": "Nifty Knitting Stuff",
	"SP18": "Paranormal Stuff",
	"SP19": "Throwback Fit Kit",
}
