package linker

import (
	"debug/elf"
	"encoding/binary"

	"github.com/objectx/lld/pkg/utils"
)

// ElfClass describes one target class: integer width, byte order and the
// widths of the header records. Header emission goes through an ElfClass so
// the rest of the layout engine works on the canonical 64-bit structs only.
type ElfClass struct {
	Class     elf.Class
	ByteOrder binary.ByteOrder
	EhdrSize  int
	ShdrSize  int
	PhdrSize  int
}

var Class64LE = ElfClass{
	Class:     elf.ELFCLASS64,
	ByteOrder: binary.LittleEndian,
	EhdrSize:  EhdrSize,
	ShdrSize:  ShdrSize,
	PhdrSize:  PhdrSize,
}

var Class32LE = ElfClass{
	Class:     elf.ELFCLASS32,
	ByteOrder: binary.LittleEndian,
	EhdrSize:  Ehdr32Size,
	ShdrSize:  Shdr32Size,
	PhdrSize:  Phdr32Size,
}

func (c ElfClass) Data() elf.Data {
	if c.ByteOrder == binary.BigEndian {
		return elf.ELFDATA2MSB
	}
	return elf.ELFDATA2LSB
}

func (c ElfClass) WriteEhdr(content []byte, ehdr *Ehdr) {
	if c.Class == elf.ELFCLASS32 {
		utils.WriteWithOrder[Ehdr32](content, c.ByteOrder, Ehdr32{
			Ident:     ehdr.Ident,
			Type:      ehdr.Type,
			Machine:   ehdr.Machine,
			Version:   ehdr.Version,
			Entry:     uint32(ehdr.Entry),
			PhOff:     uint32(ehdr.PhOff),
			ShOff:     uint32(ehdr.ShOff),
			Flags:     ehdr.Flags,
			EhSize:    ehdr.EhSize,
			PhEntSize: ehdr.PhEntSize,
			PhNum:     ehdr.PhNum,
			ShEntSize: ehdr.ShEntSize,
			ShNum:     ehdr.ShNum,
			ShStrndx:  ehdr.ShStrndx,
		})
		return
	}
	utils.WriteWithOrder[Ehdr](content, c.ByteOrder, *ehdr)
}

func (c ElfClass) WriteShdr(content []byte, shdr *Shdr) {
	if c.Class == elf.ELFCLASS32 {
		utils.WriteWithOrder[Shdr32](content, c.ByteOrder, Shdr32{
			Name:      shdr.Name,
			Type:      shdr.Type,
			Flags:     uint32(shdr.Flags),
			Addr:      uint32(shdr.Addr),
			Offset:    uint32(shdr.Offset),
			Size:      uint32(shdr.Size),
			Link:      shdr.Link,
			Info:      shdr.Info,
			AddrAlign: uint32(shdr.AddrAlign),
			EntSize:   uint32(shdr.EntSize),
		})
		return
	}
	utils.WriteWithOrder[Shdr](content, c.ByteOrder, *shdr)
}

func (c ElfClass) WritePhdr(content []byte, phdr *Phdr) {
	if c.Class == elf.ELFCLASS32 {
		utils.WriteWithOrder[Phdr32](content, c.ByteOrder, Phdr32{
			Type:     phdr.Type,
			Offset:   uint32(phdr.Offset),
			VAddr:    uint32(phdr.VAddr),
			PAddr:    uint32(phdr.PAddr),
			FileSize: uint32(phdr.FileSize),
			MemSize:  uint32(phdr.MemSize),
			Flags:    phdr.Flags,
			Align:    uint32(phdr.Align),
		})
		return
	}
	utils.WriteWithOrder[Phdr](content, c.ByteOrder, *phdr)
}
