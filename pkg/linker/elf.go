package linker

import (
	"bytes"
	"unsafe"
)

const EhdrSize = int(unsafe.Sizeof(Ehdr{}))
const ShdrSize = int(unsafe.Sizeof(Shdr{}))
const PhdrSize = int(unsafe.Sizeof(Phdr{}))

const Ehdr32Size = int(unsafe.Sizeof(Ehdr32{}))
const Shdr32Size = int(unsafe.Sizeof(Shdr32{}))
const Phdr32Size = int(unsafe.Sizeof(Phdr32{}))

type Ehdr struct {
	Ident     [16]uint8
	Type      uint16
	Machine   uint16
	Version   uint32
	Entry     uint64
	PhOff     uint64
	ShOff     uint64
	Flags     uint32
	EhSize    uint16
	PhEntSize uint16
	PhNum     uint16
	ShEntSize uint16
	ShNum     uint16
	ShStrndx  uint16
}

// Shdr is the canonical in-memory section header. Sections carry the
// 64-bit form regardless of output class; the 32-bit record is produced
// only at emission time.
type Shdr struct {
	Name      uint32
	Type      uint32
	Flags     uint64
	Addr      uint64
	Offset    uint64
	Size      uint64
	Link      uint32
	Info      uint32
	AddrAlign uint64
	EntSize   uint64
}

type Phdr struct {
	Type     uint32
	Flags    uint32
	Offset   uint64
	VAddr    uint64
	PAddr    uint64
	FileSize uint64
	MemSize  uint64
	Align    uint64
}

type Ehdr32 struct {
	Ident     [16]uint8
	Type      uint16
	Machine   uint16
	Version   uint32
	Entry     uint32
	PhOff     uint32
	ShOff     uint32
	Flags     uint32
	EhSize    uint16
	PhEntSize uint16
	PhNum     uint16
	ShEntSize uint16
	ShNum     uint16
	ShStrndx  uint16
}

type Shdr32 struct {
	Name      uint32
	Type      uint32
	Flags     uint32
	Addr      uint32
	Offset    uint32
	Size      uint32
	Link      uint32
	Info      uint32
	AddrAlign uint32
	EntSize   uint32
}

// ELF32 program headers place Flags after MemSize, unlike ELF64.
type Phdr32 struct {
	Type     uint32
	Offset   uint32
	VAddr    uint32
	PAddr    uint32
	FileSize uint32
	MemSize  uint32
	Flags    uint32
	Align    uint32
}

func WriteMagic(content []byte) {
	copy(content, "\177ELF")
}

func CheckMagic(content []byte) bool {
	return bytes.HasPrefix(content, []byte("\177ELF"))
}
