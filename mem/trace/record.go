// Package trace reads memory access traces and replays them against a cache.
package trace

import (
	"fmt"
	"strconv"
	"strings"
)

// Op is the kind of a memory operation in a trace.
type Op byte

// The operations a trace can contain.
const (
	OpInstruction Op = 'I'
	OpLoad        Op = 'L'
	OpStore       Op = 'S'
	OpModify      Op = 'M'
)

// NumAccesses returns how many data cache accesses the operation performs.
// A modify is a load followed by a store to the same address.
func (o Op) NumAccesses() int {
	switch o {
	case OpLoad, OpStore:
		return 1
	case OpModify:
		return 2
	default:
		return 0
	}
}

func (o Op) String() string {
	return string(rune(o))
}

// Record is one data access of a trace.
type Record struct {
	Op      Op
	Address uint64
	Length  uint64
}

func (r Record) String() string {
	return fmt.Sprintf("%s %x,%d", r.Op, r.Address, r.Length)
}

const (
	opColumn      = 1
	operandColumn = 3
)

// ParseRecord parses a trace line of the form " <op> <hexaddr>,<len>".
//
// The operation character sits in the second column and the operands start in
// the fourth. Instruction fetches are written in the first column, so they never
// match. Lines that are not a load, a store, or a modify, or whose operands
// cannot be parsed, return false.
func ParseRecord(line string) (Record, bool) {
	line = strings.TrimRight(line, "\r\n")
	if len(line) <= operandColumn {
		return Record{}, false
	}

	op := Op(line[opColumn])
	if op.NumAccesses() == 0 {
		return Record{}, false
	}

	addrStr, lenStr, found := strings.Cut(line[operandColumn:], ",")
	if !found {
		return Record{}, false
	}

	addr, ok := parseAddress(addrStr)
	if !ok {
		return Record{}, false
	}

	length, ok := parseLength(lenStr)
	if !ok {
		return Record{}, false
	}

	return Record{Op: op, Address: addr, Length: length}, true
}

func parseAddress(s string) (uint64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")

	addr, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, false
	}

	return addr, true
}

// parseLength reads the leading decimal digits and ignores what follows.
func parseLength(s string) (uint64, bool) {
	s = strings.TrimLeft(s, " \t")

	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}

	length, err := strconv.ParseUint(s[:end], 10, 64)
	if err != nil {
		return 0, false
	}

	return length, true
}
