package linker

import (
	"debug/elf"

	"github.com/objectx/lld/pkg/utils"
)

type MachineType uint8

const (
	MachineTypeNone MachineType = iota
	MachineTypeRISCV64
	MachineTypeRISCV32
)

func (m MachineType) String() string {
	switch m {
	case MachineTypeNone:
		return "none"
	case MachineTypeRISCV64:
		return "riscv64"
	case MachineTypeRISCV32:
		return "riscv32"
	}

	utils.Fatal("invalid machine type")
	return ""
}

func (m MachineType) ElfClass() ElfClass {
	switch m {
	case MachineTypeRISCV32:
		return Class32LE
	default:
		return Class64LE
	}
}

func (m MachineType) ElfMachine() elf.Machine {
	switch m {
	case MachineTypeRISCV64, MachineTypeRISCV32:
		return elf.EM_RISCV
	}
	return elf.EM_NONE
}
