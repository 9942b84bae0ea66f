package ledger

import (
	"strconv"
	"strings"
)

// Equipment counts the loaned serving gear tracked in movement notes,
// written as "tireuse=1;co2=2;comptoir=1;tonnelle=0". Gear goes out with
// OUT movements and comes back with any return type.
type Equipment struct {
	Tireuse  int `json:"tireuse"`
	CO2      int `json:"co2"`
	Comptoir int `json:"comptoir"`
	Tonnelle int `json:"tonnelle"`
}

// ParseEquipment extracts equipment tags from free-form notes. Unknown
// keys and malformed values are ignored.
func ParseEquipment(notes string) Equipment {
	var eq Equipment
	for _, part := range strings.Split(notes, ";") {
		part = strings.TrimSpace(part)
		key, value, found := strings.Cut(part, "=")
		if !found {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "tireuse":
			eq.Tireuse = n
		case "co2":
			eq.CO2 = n
		case "comptoir":
			eq.Comptoir = n
		case "tonnelle":
			eq.Tonnelle = n
		}
	}
	return eq
}

// Add accumulates src into e with the given sign.
func (e *Equipment) Add(src Equipment, sign int) {
	e.Tireuse += sign * src.Tireuse
	e.CO2 += sign * src.CO2
	e.Comptoir += sign * src.Comptoir
	e.Tonnelle += sign * src.Tonnelle
}

// IsZero reports whether no equipment is outstanding.
func (e Equipment) IsZero() bool {
	return e == Equipment{}
}
