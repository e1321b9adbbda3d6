// FILE: lixenwraith/logsetup/compat/fields.go
package compat

import (
	"fmt"
	"sort"
	"strings"
)

// appendFields renders structured fields after msg as sorted key=value pairs
func appendFields(msg string, fields map[string]any) string {
	if len(fields) == 0 {
		return msg
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(msg)
	for _, k := range keys {
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		switch v := fields[k].(type) {
		case string:
			if strings.ContainsAny(v, " \t\n\"=") {
				fmt.Fprintf(&sb, "%q", v)
			} else {
				sb.WriteString(v)
			}
		default:
			fmt.Fprint(&sb, v)
		}
	}
	return sb.String()
}
