package utils

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"runtime/debug"
)

func Fatal(v any) {
	fmt.Printf("lld: fatal: %v\n", v)
	debug.PrintStack()
	os.Exit(1)
}

func MustNo(err error) {
	if err != nil {
		Fatal(err)
	}
}

func Assert(res bool) {
	if !res {
		Fatal("assert failed")
	}
}

func Read[T any](content []byte, val *T) {
	reader := bytes.NewReader(content)
	err := binary.Read(reader, binary.LittleEndian, val)
	MustNo(err)
}

func Write[T any](content []byte, val T) {
	WriteWithOrder[T](content, binary.LittleEndian, val)
}

func WriteWithOrder[T any](content []byte, order binary.ByteOrder, val T) {
	buf := &bytes.Buffer{}
	err := binary.Write(buf, order, val)
	MustNo(err)
	copy(content, buf.Bytes())
}

func AlignTo(val uint64, align uint64) uint64 {
	if align == 0 {
		return val
	}
	return (val + align - 1) &^ (align - 1)
}
