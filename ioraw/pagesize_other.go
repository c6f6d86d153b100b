//go:build !unix

package ioraw

import "os"

func pageSize() int { return os.Getpagesize() }
