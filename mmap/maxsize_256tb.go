//go:build amd64 || arm64 || loong64 || ppc64 || ppc64le || riscv64 || s390x

package mmap

// maxMapSize bounds the files Open and Mmap accept on this architecture.
const maxMapSize = 0xFFFFFFFFFFFF
