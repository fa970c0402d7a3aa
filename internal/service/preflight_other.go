//go:build !linux

package service

import "errors"

var errPreflightUnsupported = errors.New("preflight measurement not supported on this platform")

func freeDiskBytes(string) (int64, error) { return 0, errPreflightUnsupported }

func freeMemoryBytes() (uint64, error) { return 0, errPreflightUnsupported }
