//go:build mips64 || mips64le

package mmap

// maxMapSize bounds the files Open and Mmap accept on this architecture.
const maxMapSize = 0x8000000000
