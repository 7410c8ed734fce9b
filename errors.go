package vatkit

import "errors"

// ErrPatterns is returned by New when the pattern table cannot be built.
var ErrPatterns = errors.New("vatkit: invalid vat number patterns")
