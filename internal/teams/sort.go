package teams

import (
	"sort"
	"strings"
)

func sortTeams(ts []TeamWithRole) {
	sort.SliceStable(ts, func(i, j int) bool {
		if ts[i].IsPersonal != ts[j].IsPersonal {
			return ts[i].IsPersonal
		}
		a, b := strings.ToLower(ts[i].Name), strings.ToLower(ts[j].Name)
		if a != b {
			return a < b
		}
		return ts[i].ID < ts[j].ID
	})
}
