package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrUnknownCode is returned when a stored enum code has no mapping.
var ErrUnknownCode = errors.New("unknown enum code")

// ItemType classifies an asset.
type ItemType string

const (
	ItemTypeComputers   ItemType = "CO"
	ItemTypeFurnitures  ItemType = "FU"
	ItemTypeCabinets    ItemType = "CA"
	ItemTypeElectronics ItemType = "EL"
)

var itemTypeNames = map[ItemType]string{
	ItemTypeComputers:   "Computers / Peripherals",
	ItemTypeFurnitures:  "Furnitures & Fixtures",
	ItemTypeCabinets:    "Cabinets / Enclosures",
	ItemTypeElectronics: "Electronic Appliances",
}

// ItemTypes lists the known item types.
func ItemTypes() []ItemType {
	return []ItemType{ItemTypeComputers, ItemTypeFurnitures, ItemTypeCabinets, ItemTypeElectronics}
}

func (t ItemType) Code() string        { return string(t) }
func (t ItemType) DisplayName() string { return itemTypeNames[t] }

func (t ItemType) Valid() bool {
	_, ok := itemTypeNames[t]
	return ok
}

// ItemTypeFromCode converts a stored code. Unknown codes are an integrity error.
func ItemTypeFromCode(code string) (ItemType, error) {
	t := ItemType(code)
	if !t.Valid() {
		return "", fmt.Errorf("%w: item type %q", ErrUnknownCode, code)
	}
	return t, nil
}

// ParseItemType accepts either the code or the display name.
func ParseItemType(s string) (ItemType, error) {
	if t, err := ItemTypeFromCode(s); err == nil {
		return t, nil
	}
	for t, name := range itemTypeNames {
		if name == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: item type %q", ErrUnknownCode, s)
}

func (t ItemType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.DisplayName())
}

// Item is a tracked physical asset. AssetTag stays empty until the
// creating unit of work assigns it.
type Item struct {
	ID         int64
	Department Department
	Type       ItemType
	SubType    string
	Serial     string
	Model      string
	Status     string
	Location   string
	AssetTag   string
	QRCode     []byte
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Clone returns a deep copy.
func (i *Item) Clone() *Item {
	if i == nil {
		return nil
	}
	cp := *i
	if i.QRCode != nil {
		cp.QRCode = append([]byte(nil), i.QRCode...)
	}
	return &cp
}
