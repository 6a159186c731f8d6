//go:build !unix

package archive

// propagateOwner is a no-op where ownership is not expressed as uid/gid
func propagateOwner(string) {}
