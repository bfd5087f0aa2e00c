package server

import (
	"fmt"
	"net/http"
)

// ANSI colours used by the DEV request log.
const (
	Red        = "\033[31m"
	Green      = "\033[32m"
	Yellow     = "\033[33m"
	Blue       = "\033[34m"
	Magenta    = "\033[35m"
	Cyan       = "\033[36m"
	Gray       = "\033[90m"
	ResetColor = "\033[0m"
)

var methodColours = map[string]string{
	http.MethodGet:     Green,
	http.MethodPost:    Blue,
	http.MethodPut:     Cyan,
	http.MethodDelete:  Yellow,
	http.MethodOptions: Magenta,
}

func colourMethod(method string) string {
	colour, ok := methodColours[method]
	if !ok {
		colour = Gray
	}
	return fmt.Sprintf("%s %-7s%s", colour, method, ResetColor)
}

// colourStatus highlights client errors in yellow and server errors in red.
func colourStatus(status int) string {
	colour := Green
	switch {
	case status >= http.StatusInternalServerError:
		colour = Red
	case status >= http.StatusBadRequest:
		colour = Yellow
	}
	return fmt.Sprintf("%s%d%s", colour, status, ResetColor)
}
