package blf

import (
	"github.com/pkg/errors"

	"github.com/boatkit-io/blf/pkg/stream"
)

// Errors returned by the reader. Returned errors wrap one of these and should be
// tested with errors.Is.
var (
	// ErrBadMagic means the file does not start with the BLF file signature.
	ErrBadMagic = errors.New("bad file signature")

	// ErrUnsupportedVersion means the file's format major version is newer than MaxFormatMajor.
	ErrUnsupportedVersion = errors.New("unsupported format version")

	// ErrOutOfBounds means a fixed layout read ran past the end of its buffer.
	ErrOutOfBounds = stream.ErrOutOfBounds

	// ErrTruncated means the input ended inside a structure.
	ErrTruncated = errors.New("truncated")

	// ErrBadContainerSignature means a top level record did not start with the object
	// signature. Nothing after it can be framed, so it also matches ErrTruncated.
	ErrBadContainerSignature = errors.WithMessage(ErrTruncated, "bad container signature")

	// ErrDecompression means a container payload could not be inflated to its declared size.
	ErrDecompression = errors.New("decompression failed")

	// ErrMalformedObject means a header declared lengths inconsistent with its buffer.
	ErrMalformedObject = errors.New("malformed object")
)
