package sharing

import "strings"

// URLs are the two public entry points for a share token.
type URLs struct {
	Short string `json:"short"`
	Board string `json:"board"`
}

func BuildURLs(origin, token string) URLs {
	origin = strings.TrimRight(origin, "/")
	return URLs{
		Short: origin + "/s/" + token,
		Board: origin + "/share/board/" + token,
	}
}
