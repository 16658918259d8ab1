package opcode

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
)

// Disassemble renders p as a human-readable instruction listing, one row
// per instruction (pc, kind, type, flags, immediates), the way
// interp.Print renders sample values against a program. Grounded on
// interp.Print's tablewriter configuration for a consistent CLI look
// across `cdrstream describe` and `cdrstream disasm`.
func Disassemble(w io.Writer, p Program) error {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"pc", "kind", "type", "flags", "immediates"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)

	pc := 0
	for pc < len(p) {
		insn := p.At(pc)
		row := []string{
			fmt.Sprintf("%d", pc),
			insn.Kind().String(),
			kindTypeColumn(insn),
			insn.Flags().String(),
			immediatesColumn(p, pc, insn),
		}
		table.Append(row)
		pc = Next(p, pc)
	}
	table.Render()
	return nil
}

func kindTypeColumn(insn Instr) string {
	switch insn.Kind() {
	case ADR, JEQ, JEQ4:
		return insn.Type().String()
	default:
		return ""
	}
}

func immediatesColumn(p Program, pc int, insn Instr) string {
	switch insn.Kind() {
	case RTS, DLC, PLC:
		return ""
	case JSR:
		return fmt.Sprintf("target=%d", pc+JumpRel(p, pc))
	case PLM:
		return fmt.Sprintf("target=%d member_id=%d", pc+JumpRel(p, pc), MemberID(p, pc))
	case KOF:
		return fmt.Sprintf("path=%v", KOFPath(p, pc))
	case JEQ, JEQ4:
		if JumpRel(p, pc) != 0 {
			return fmt.Sprintf("discriminant=%d offset=%d target=%d", JEQDiscriminant(p, pc), JEQNativeOffset(p, pc), pc+JumpRel(p, pc))
		}
		if hasDomain(insn.Type()) {
			high, low := BitmaskAllowed(p, pc)
			return fmt.Sprintf("discriminant=%d offset=%d domain_high=%#x domain_low=%#x", JEQDiscriminant(p, pc), JEQNativeOffset(p, pc), high, low)
		}
		return fmt.Sprintf("discriminant=%d offset=%d", JEQDiscriminant(p, pc), JEQNativeOffset(p, pc))
	case ADR:
		return adrImmediatesColumn(p, pc, insn)
	default:
		return ""
	}
}

func adrImmediatesColumn(p Program, pc int, insn Instr) string {
	off := NativeOffset(p, pc)
	switch insn.Type() {
	case TBool, T1Byte, T2Byte, T4Byte, T8Byte, TString, TUnion:
		return fmt.Sprintf("offset=%d", off)
	case TEnum, TBitmask:
		high, low := BitmaskAllowed(p, pc)
		return fmt.Sprintf("offset=%d domain_high=%#x domain_low=%#x", off, high, low)
	case TBString:
		return fmt.Sprintf("offset=%d bound=%d", off, Bound(p, pc))
	case TSequence:
		s := fmt.Sprintf("offset=%d elem_size=%d target=%d", off, ElementSize(p, pc), pc+JumpRel(p, pc))
		if hasDomain(insn.SubType()) {
			high, low := BitmaskAllowed(p, pc)
			s += fmt.Sprintf(" domain_high=%#x domain_low=%#x", high, low)
		}
		return s
	case TBSequence:
		s := fmt.Sprintf("offset=%d bound=%d elem_size=%d target=%d", off, Bound(p, pc), ElementSize(p, pc), pc+JumpRel(p, pc))
		if hasDomain(insn.SubType()) {
			high, low := BitmaskAllowed(p, pc)
			s += fmt.Sprintf(" domain_high=%#x domain_low=%#x", high, low)
		}
		return s
	case TArray:
		s := fmt.Sprintf("offset=%d length=%d elem_size=%d target=%d", off, ArrayLength(p, pc), ElementSize(p, pc), pc+JumpRel(p, pc))
		if hasDomain(insn.SubType()) {
			high, low := BitmaskAllowed(p, pc)
			s += fmt.Sprintf(" domain_high=%#x domain_low=%#x", high, low)
		}
		return s
	case TStruct, TExternal:
		return fmt.Sprintf("offset=%d target=%d", off, pc+JumpRel(p, pc))
	default:
		return fmt.Sprintf("offset=%d", off)
	}
}
