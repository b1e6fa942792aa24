//go:build 386 || arm || ppc

package mmap

// maxMapSize bounds the files Open and Mmap accept on this architecture.
const maxMapSize = 0x7FFFFFFF
