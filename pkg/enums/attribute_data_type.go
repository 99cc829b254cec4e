package enums

import (
	"fmt"
	"strings"
)

// AttributeDataType describes how a dynamic attribute value is interpreted.
type AttributeDataType string

const (
	AttributeDataTypeText    AttributeDataType = "Text"
	AttributeDataTypeNumber  AttributeDataType = "Number"
	AttributeDataTypeDate    AttributeDataType = "Date"
	AttributeDataTypeBoolean AttributeDataType = "Boolean"
)

var validAttributeDataTypes = []AttributeDataType{
	AttributeDataTypeText,
	AttributeDataTypeNumber,
	AttributeDataTypeDate,
	AttributeDataTypeBoolean,
}

// String implements fmt.Stringer.
func (t AttributeDataType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known AttributeDataType.
func (t AttributeDataType) IsValid() bool {
	for _, candidate := range validAttributeDataTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseAttributeDataType converts raw input into an AttributeDataType.
// Empty input defaults to Text; matching ignores case.
func ParseAttributeDataType(value string) (AttributeDataType, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return AttributeDataTypeText, nil
	}
	for _, candidate := range validAttributeDataTypes {
		if strings.EqualFold(string(candidate), trimmed) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid attribute data type %q", value)
}
