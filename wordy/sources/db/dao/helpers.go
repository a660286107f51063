package dao

import "strings"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike escapes LIKE wildcards. Queries using it must declare ESCAPE '\'.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
