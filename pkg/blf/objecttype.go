package blf

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"
)

// ObjectType is the type code in an object header.
type ObjectType uint32

// Object types. Only a subset is decoded into typed frames; the rest are named for
// diagnostics and come out of the reader as frame.Unknown.
const (
	ObjectTypeUnknown           ObjectType = 0
	ObjectTypeCANMessage        ObjectType = 1
	ObjectTypeCANError          ObjectType = 2
	ObjectTypeCANOverload       ObjectType = 3
	ObjectTypeCANStatistic      ObjectType = 4
	ObjectTypeAppTrigger        ObjectType = 5
	ObjectTypeEnvInteger        ObjectType = 6
	ObjectTypeEnvDouble         ObjectType = 7
	ObjectTypeEnvString         ObjectType = 8
	ObjectTypeEnvData           ObjectType = 9
	ObjectTypeLogContainer      ObjectType = 10
	ObjectTypeCANDriverError    ObjectType = 31
	ObjectTypeAppText           ObjectType = 65
	ObjectTypeCANErrorExt       ObjectType = 73
	ObjectTypeCANDriverErrorExt ObjectType = 74
	ObjectTypeCANMessage2       ObjectType = 86
	ObjectTypeGlobalMarker      ObjectType = 96
	ObjectTypeCANFDMessage      ObjectType = 100
	ObjectTypeCANFDMessage64    ObjectType = 101
	ObjectTypeCANFDError64      ObjectType = 104
)

var objectTypeNames = map[ObjectType]string{
	ObjectTypeUnknown:           "UNKNOWN",
	ObjectTypeCANMessage:        "CAN_MESSAGE",
	ObjectTypeCANError:          "CAN_ERROR",
	ObjectTypeCANOverload:       "CAN_OVERLOAD",
	ObjectTypeCANStatistic:      "CAN_STATISTIC",
	ObjectTypeAppTrigger:        "APP_TRIGGER",
	ObjectTypeEnvInteger:        "ENV_INTEGER",
	ObjectTypeEnvDouble:         "ENV_DOUBLE",
	ObjectTypeEnvString:         "ENV_STRING",
	ObjectTypeEnvData:           "ENV_DATA",
	ObjectTypeLogContainer:      "LOG_CONTAINER",
	ObjectTypeCANDriverError:    "CAN_DRIVER_ERROR",
	ObjectTypeAppText:           "APP_TEXT",
	ObjectTypeCANErrorExt:       "CAN_ERROR_EXT",
	ObjectTypeCANDriverErrorExt: "CAN_DRIVER_ERROR_EXT",
	ObjectTypeCANMessage2:       "CAN_MESSAGE2",
	ObjectTypeGlobalMarker:      "GLOBAL_MARKER",
	ObjectTypeCANFDMessage:      "CAN_FD_MESSAGE",
	ObjectTypeCANFDMessage64:    "CAN_FD_MESSAGE_64",
	ObjectTypeCANFDError64:      "CAN_FD_ERROR_64",
}

func (t ObjectType) String() string {
	if name, ok := objectTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("OBJECT_TYPE_%d", uint32(t))
}

// ParseObjectType accepts either a symbolic name such as "CAN_MESSAGE" or a decimal type code.
func ParseObjectType(s string) (ObjectType, error) {
	for t, name := range objectTypeNames {
		if name == s {
			return t, nil
		}
	}
	code, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, errors.Errorf("unknown object type %q", s)
	}
	return ObjectType(code), nil
}
