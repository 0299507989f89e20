package enums

import (
	"fmt"
	"strings"
)

// EquipmentCondition describes the physical state of an equipment record.
type EquipmentCondition string

const (
	EquipmentConditionNew  EquipmentCondition = "new"
	EquipmentConditionGood EquipmentCondition = "good"
	EquipmentConditionFair EquipmentCondition = "fair"
	EquipmentConditionPoor EquipmentCondition = "poor"
)

var validEquipmentConditions = []EquipmentCondition{
	EquipmentConditionNew,
	EquipmentConditionGood,
	EquipmentConditionFair,
	EquipmentConditionPoor,
}

func (c EquipmentCondition) String() string {
	return string(c)
}

func (c EquipmentCondition) IsValid() bool {
	for _, candidate := range validEquipmentConditions {
		if candidate == c {
			return true
		}
	}
	return false
}

func ParseEquipmentCondition(value string) (EquipmentCondition, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validEquipmentConditions {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid equipment condition %q", value)
}
