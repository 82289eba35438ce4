package extract

import "errors"

// ErrDocumentFormat means the payload is not a readable PDF or DOCX document.
var ErrDocumentFormat = errors.New("unreadable document")
