// utils/http.go
package utils

import (
	"net/http"
	"time"
)

// HTTPClient is shared by API clients that do not bring their own.
var HTTPClient = &http.Client{
	Timeout: 10 * time.Second,
}
