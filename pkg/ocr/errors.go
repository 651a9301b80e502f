package ocr

import "errors"

// ErrNoBackend is returned at startup when no usable OCR backend is configured.
var ErrNoBackend = errors.New("no OCR backend configured")

// ErrNoPlate is returned when no plate-like text can be extracted from an image.
var ErrNoPlate = errors.New("no plate detected")

// ErrDecode is returned when input bytes cannot be decoded as an image.
var ErrDecode = errors.New("image decode failed")
