package testutil

import (
	"fmt"
	"strings"
)

// ChartsBody builds a {"charts": [...]} body with one line chart per title.
func ChartsBody(titles ...string) string {
	return `{"charts":[` + chartList(titles) + `]}`
}

// BareChartsBody builds a bare list body with one chart per title.
func BareChartsBody(titles ...string) string {
	return "[" + chartList(titles) + "]"
}

func chartList(titles []string) string {
	parts := make([]string, len(titles))
	for i, title := range titles {
		parts[i] = fmt.Sprintf(
			`{"data":[{"type":"scatter","mode":"lines","x":[1,2,3],"y":[%d,%d,%d]}],"layout":{"title":{"text":%q}}}`,
			i, i+1, i+2, title)
	}
	return strings.Join(parts, ",")
}
