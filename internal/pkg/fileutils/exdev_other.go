//go:build !unix

package fileutils

func isEXDEV(error) bool {
	return false
}
