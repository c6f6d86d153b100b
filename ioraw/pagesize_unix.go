//go:build unix

package ioraw

import "golang.org/x/sys/unix"

func pageSize() int { return unix.Getpagesize() }
