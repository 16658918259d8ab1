package interp

import (
	"github.com/ddsx/cdrstream/internal/cdr/opcode"
	"github.com/ddsx/cdrstream/pkg/cdrerrors"
)

// checkDomain validates val against an enum's declared max ordinal or a
// bitmask's declared allowed-bits mask, mirroring dds_cdrstream.c's
// read_normalize_enum/bitmask_value_valid checks. high is unused for TEnum.
func checkDomain(typ opcode.TypeCode, high, low uint32, val uint64) error {
	switch typ {
	case opcode.TEnum:
		if val > uint64(low) {
			return cdrerrors.ErrEnumDomain
		}
	case opcode.TBitmask:
		if uint32(val>>32)&^high != 0 || uint32(val)&^low != 0 {
			return cdrerrors.ErrBitmaskDomain
		}
	}
	return nil
}
