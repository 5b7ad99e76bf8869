package core

// Checksum computes the RFC 1071 Internet checksum of b.
//
// Words are summed least significant byte first, so the complemented sum is
// byte swapped before it is returned. The result is the checksum as it must
// appear on the wire when written with binary.BigEndian.PutUint16.
func Checksum(b []byte) uint16 {
	if len(b) == 0 {
		return 0xffff
	}

	var sum uint32
	even := len(b) &^ 1
	for i := 0; i < even; i += 2 {
		sum += uint32(b[i+1])<<8 | uint32(b[i])
	}

	// odd length, the last byte is added alone
	if even < len(b) {
		sum += uint32(b[len(b)-1])
	}

	sum = (sum >> 16) + (sum & 0xffff)
	sum += sum >> 16

	answer := ^uint16(sum)
	return answer>>8 | answer<<8
}

// VerifyChecksum returns whether b, which already carries its checksum, sums to all ones.
func VerifyChecksum(b []byte) bool {
	return len(b) > 0 && Checksum(b) == 0
}
