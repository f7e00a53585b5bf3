package frame

// fdLengths maps CAN FD data length codes 9-15 to payload lengths.
var fdLengths = [...]int{12, 16, 20, 24, 32, 48, 64}

// DLCToLength returns the payload length for a data length code. Codes above 8
// mean 8 bytes on a classic bus and follow the extended table on CAN FD.
func DLCToLength(dlc uint8, fd bool) int {
	switch {
	case dlc <= 8:
		return int(dlc)
	case !fd:
		return 8
	case dlc <= 15:
		return fdLengths[dlc-9]
	default:
		return 64
	}
}

// LengthToDLC returns the smallest data length code able to carry length bytes.
func LengthToDLC(length int) uint8 {
	if length <= 8 {
		return uint8(length)
	}
	for i, l := range fdLengths {
		if length <= l {
			return uint8(9 + i)
		}
	}
	return 15
}
