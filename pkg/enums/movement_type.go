package enums

import "fmt"

// MovementType categorizes a stock movement. Quantity is stored as a positive
// magnitude for every type except ADJUSTMENT, whose delta is signed because an
// administrative correction can go either direction.
type MovementType string

const (
	MovementTypeRestock    MovementType = "RESTOCK"
	MovementTypeSale       MovementType = "SALE"
	MovementTypeReturn     MovementType = "RETURN"
	MovementTypeAdjustment MovementType = "ADJUSTMENT"
)

var validMovementTypes = []MovementType{
	MovementTypeRestock,
	MovementTypeSale,
	MovementTypeReturn,
	MovementTypeAdjustment,
}

// String implements fmt.Stringer.
func (m MovementType) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MovementType.
func (m MovementType) IsValid() bool {
	for _, candidate := range validMovementTypes {
		if candidate == m {
			return true
		}
	}
	return false
}

// Direction returns the sign the movement applies to inventory: +1 for stock
// added, -1 for stock removed, 0 for ADJUSTMENT (the stored delta carries its
// own sign).
func (m MovementType) Direction() int {
	switch m {
	case MovementTypeRestock, MovementTypeReturn:
		return 1
	case MovementTypeSale:
		return -1
	default:
		return 0
	}
}

// ParseMovementType converts raw input into a MovementType.
func ParseMovementType(value string) (MovementType, error) {
	for _, candidate := range validMovementTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid movement type %q", value)
}
