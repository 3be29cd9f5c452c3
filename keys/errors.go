package keys

import "github.com/pkg/errors"

// ErrDecode is wrapped by every error Decode and Unpack return.
var ErrDecode = errors.New("malformed key")
