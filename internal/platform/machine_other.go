//go:build !unix

package platform

import "runtime"

func machineName() (string, error) {
	return runtime.GOARCH, nil
}
