package interp

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/ddsx/cdrstream/internal/cdr/opcode"
)

// Print renders rec as a two-column field/value table, walking p the same
// way Write does but emitting a string for each leaf instead of bytes.
func Print(w io.Writer, p opcode.Program, rec Record) error {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"field", "value"})
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

	rows, err := printRange(p, 0, rec, "")
	if err != nil {
		return err
	}
	for _, row := range rows {
		table.Append(row)
	}
	table.Render()
	return nil
}

func printRange(p opcode.Program, pc int, rec Record, prefix string) ([][]string, error) {
	var rows [][]string
	for {
		insn := p.At(pc)
		switch insn.Kind() {
		case opcode.RTS:
			return rows, nil
		case opcode.DLC, opcode.PLC:
			pc = opcode.Next(p, pc)
			continue
		case opcode.ADR:
			sub, err := printADR(p, pc, rec, prefix)
			if err != nil {
				return nil, err
			}
			rows = append(rows, sub...)
			if insn.Type() == opcode.TUnion {
				next, err := skipUnionArms(p, opcode.Next(p, pc))
				if err != nil {
					return nil, err
				}
				pc = next
				continue
			}
		case opcode.PLM:
			target := pc + opcode.JumpRel(p, pc)
			var sub [][]string
			var err error
			if insn.HasFlag(opcode.FlagBase) {
				// target is the base type's own PLC; print its member list.
				sub, err = printRange(p, opcode.Next(p, target), rec, prefix)
			} else {
				sub, err = printADR(p, target, rec, prefix)
			}
			if err != nil {
				return nil, err
			}
			rows = append(rows, sub...)
		}
		pc = opcode.Next(p, pc)
	}
}

func printADR(p opcode.Program, pc int, rec Record, prefix string) ([][]string, error) {
	insn := p.At(pc)
	off := opcode.NativeOffset(p, pc)
	name := fmt.Sprintf("%s[%d]", prefix, off)

	if insn.HasFlag(opcode.FlagOptional) && !rec.Present(off) {
		return [][]string{{name, "<absent>"}}, nil
	}

	switch insn.Type() {
	case opcode.TBool:
		return [][]string{{name, fmt.Sprintf("%v", rec.Bool(off))}}, nil
	case opcode.T1Byte:
		return [][]string{{name, fmt.Sprintf("%d", rec.Byte(off))}}, nil
	case opcode.T2Byte:
		return [][]string{{name, fmt.Sprintf("%d", rec.U16(off))}}, nil
	case opcode.T4Byte:
		if insn.HasFlag(opcode.FlagFP) {
			return [][]string{{name, fmt.Sprintf("%g", rec.F32(off))}}, nil
		}
		return [][]string{{name, fmt.Sprintf("%d", rec.U32(off))}}, nil
	case opcode.T8Byte:
		if insn.HasFlag(opcode.FlagFP) {
			return [][]string{{name, fmt.Sprintf("%g", rec.F64(off))}}, nil
		}
		return [][]string{{name, fmt.Sprintf("%d", rec.U64(off))}}, nil
	case opcode.TEnum, opcode.TBitmask:
		return [][]string{{name, fmt.Sprintf("%#x", rec.U64(off))}}, nil
	case opcode.TString, opcode.TBString:
		return [][]string{{name, fmt.Sprintf("%q", rec.String(off))}}, nil
	case opcode.TSequence, opcode.TBSequence, opcode.TArray:
		seq := rec.Sequence(off)
		return [][]string{{name, fmt.Sprintf("<%d elements>", seq.Len())}}, nil
	case opcode.TStruct:
		target := pc + opcode.JumpRel(p, pc)
		return printRange(p, target, rec.Nested(off), name+".")
	case opcode.TExternal:
		if !rec.Present(off) {
			return [][]string{{name, "<nil>"}}, nil
		}
		target := pc + opcode.JumpRel(p, pc)
		return printRange(p, target, rec.Nested(off), name+".")
	case opcode.TUnion:
		return [][]string{{name, fmt.Sprintf("discriminant=%d", rec.Discriminant(off))}}, nil
	default:
		opcode.Fault("interp.Print: unsupported ADR type %s at pc=%d", insn.Type(), pc)
	}
	return nil, nil
}
