// Package xattr reads blob metadata stored in user extended attributes.
package xattr

import (
	"errors"
	"os"

	"github.com/pkg/xattr"
)

// Namespace is prepended to all attribute names.
const Namespace = "user."

var ErrNotSet = errors.New("xattr: not set")

func value(data []byte, err error) (string, error) {
	var xerr *xattr.Error
	if errors.As(err, &xerr) && xerr.Err == xattr.ENOATTR {
		return "", ErrNotSet
	} else if err != nil {
		return "", err
	}
	return string(data), nil
}

// String reads an attribute of a file at path.
func String(path, name string) (string, error) {
	return value(xattr.Get(path, Namespace+name))
}

// FileString reads an attribute of an open file.
func FileString(f *os.File, name string) (string, error) {
	return value(xattr.FGet(f, Namespace+name))
}
