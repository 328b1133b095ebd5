//go:build windows

package source

func isNotDir(error) bool { return false }
